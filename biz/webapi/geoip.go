package webapi

import (
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"
	"go.uber.org/zap"

	"drape/leon/admin-service/biz/domain"
	"drape/leon/admin-service/config"
)

// GeoIPResolver does offline IP lookups against a local MaxMind database.
// With no database configured every lookup misses and callers fall through
// to the deterministic city list.
type GeoIPResolver struct {
	db *geoip2.Reader
}

func NewGeoIPResolver(cfg *config.Config) *GeoIPResolver {
	if cfg.GeoIP.DBPath == "" {
		return &GeoIPResolver{}
	}
	db, err := geoip2.Open(cfg.GeoIP.DBPath)
	if err != nil {
		zap.L().Warn("geoip database not loaded, falling back to city list", zap.String("path", cfg.GeoIP.DBPath), zap.Error(err))
		return &GeoIPResolver{}
	}
	return &GeoIPResolver{db: db}
}

// Lookup returns nil for loopback, unparseable, or unknown addresses.
func (g *GeoIPResolver) Lookup(ip string) *domain.Location {
	if g.db == nil || ip == "" {
		return nil
	}
	cleanIP := strings.TrimPrefix(ip, "::ffff:")
	parsed := net.ParseIP(cleanIP)
	if parsed == nil || parsed.IsLoopback() {
		return nil
	}
	city, err := g.db.City(parsed)
	if err != nil || city == nil {
		return nil
	}
	loc := &domain.Location{
		City:    city.City.Names["en"],
		Country: city.Country.IsoCode,
		Lat:     city.Location.Latitude,
		Lng:     city.Location.Longitude,
	}
	if len(city.Subdivisions) > 0 {
		loc.Region = city.Subdivisions[0].IsoCode
	}
	if loc.City == "" && loc.Country == "" {
		return nil
	}
	return loc
}

func (g *GeoIPResolver) Close() error {
	if g.db == nil {
		return nil
	}
	return g.db.Close()
}
