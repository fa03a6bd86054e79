package domain

// fallbackCities is the deterministic stand-in for users we cannot
// geolocate. The pick is a stable hash of the user id, so the same user
// lands on the same city every time. An approximation, not geodata.
var fallbackCities = []Location{
	{City: "Milano", Country: "IT", Lat: 45.46, Lng: 9.19},
	{City: "Roma", Country: "IT", Lat: 41.90, Lng: 12.50},
	{City: "London", Country: "GB", Lat: 51.51, Lng: -0.13},
	{City: "Berlin", Country: "DE", Lat: 52.52, Lng: 13.41},
	{City: "San Francisco", Country: "US", Lat: 37.77, Lng: -122.42},
	{City: "New York", Country: "US", Lat: 40.71, Lng: -74.01},
	{City: "Tokyo", Country: "JP", Lat: 35.68, Lng: 139.69},
	{City: "Singapore", Country: "SG", Lat: 1.35, Lng: 103.82},
	{City: "São Paulo", Country: "BR", Lat: -23.55, Lng: -46.63},
	{City: "Sydney", Country: "AU", Lat: -33.87, Lng: 151.21},
	{City: "Mumbai", Country: "IN", Lat: 19.08, Lng: 72.88},
	{City: "Seoul", Country: "KR", Lat: 37.57, Lng: 126.98},
}

func simpleHash(s string) int {
	var h int32
	for _, c := range s {
		h = h*31 + int32(c)
	}
	// Negate on the widened value: -MinInt32 overflows int32 but not int64.
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return int(v)
}

// FallbackCity deterministically assigns one of the fixed cities.
func FallbackCity(key string) *Location {
	loc := fallbackCities[simpleHash(key)%len(fallbackCities)]
	return &loc
}
