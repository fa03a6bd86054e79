package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"drape/leon/admin-service/biz/domain"
)

const authDirectoryPageSize = 1000

type PresenceRepository interface {
	GetActiveSince(ctx context.Context, cutoff time.Time) ([]domain.PresenceDoc, error)
	GetAll(ctx context.Context) ([]domain.PresenceDoc, error)
}

type UserRepository interface {
	GetAll(ctx context.Context) ([]domain.UserMeta, error)
	GetLocation(ctx context.Context, userID string) (*domain.Location, error)
	SaveLocation(ctx context.Context, userID string, loc *domain.Location, ip string) error
}

type PresenceLogRepository interface {
	Get(ctx context.Context, date string) (*domain.PresenceLogEntry, error)
	Upsert(ctx context.Context, entry *domain.PresenceLogEntry) error
}

type GeoResolver interface {
	Lookup(ip string) *domain.Location
}

type ReportingPublisher interface {
	PublishDailyActivity(ctx context.Context, entry *domain.PresenceLogEntry, snapshotSize int) error
}

type ReportExporter interface {
	Enabled() bool
	UploadDailyLog(ctx context.Context, entry *domain.PresenceLogEntry) error
}

type PresenceService struct {
	presence  PresenceRepository
	users     UserRepository
	logRepo   PresenceLogRepository
	auth      AuthDirectory
	geo       GeoResolver
	cache     *LocationCache
	publisher ReportingPublisher
	exporter  ReportExporter
	now       func() time.Time
}

func NewPresenceService(p PresenceRepository, u UserRepository, l PresenceLogRepository,
	a AuthDirectory, g GeoResolver, cache *LocationCache,
	pub ReportingPublisher, exp ReportExporter) *PresenceService {
	return &PresenceService{
		presence:  p,
		users:     u,
		logRepo:   l,
		auth:      a,
		geo:       g,
		cache:     cache,
		publisher: pub,
		exporter:  exp,
		now:       time.Now,
	}
}

// GetOnlineUsers recomputes the online set from the recency window on every
// call. A user is online iff their heartbeat is at most PresenceWindow old;
// there is no cached online flag to go stale.
func (s *PresenceService) GetOnlineUsers(ctx context.Context) ([]domain.PresenceRecord, error) {
	now := s.now()
	docs, err := s.presence.GetActiveSince(ctx, now.Add(-domain.PresenceWindow))
	if err != nil {
		return nil, err
	}

	users := make([]domain.PresenceRecord, 0, len(docs))
	for _, doc := range docs {
		rec := domain.PresenceRecord{
			ID:           doc.UserID,
			Email:        doc.Email,
			LastSeen:     doc.LastSeen,
			SessionStart: doc.SessionStart,
			Online:       true,
			Location:     s.resolveLocation(ctx, doc.UserID, doc.IP),
		}
		if doc.SessionStart != nil {
			ms := now.Sub(*doc.SessionStart).Milliseconds()
			rec.SessionDurationMs = &ms
		}
		users = append(users, rec)
	}

	return users, nil
}

// resolveLocation walks cache, persisted document, IP geolocation, then the
// deterministic fallback city. IP-derived results are written back onto the
// user document asynchronously; nobody waits on that write and its failure
// is only logged.
func (s *PresenceService) resolveLocation(ctx context.Context, userID, ip string) *domain.Location {
	if loc := s.cache.Get(userID); loc != nil {
		return loc
	}

	if loc, err := s.users.GetLocation(ctx, userID); err == nil && loc != nil {
		s.cache.Put(userID, loc)
		return loc
	}

	if loc := s.geo.Lookup(ip); loc != nil {
		s.cache.Put(userID, loc)
		s.persistLocation(userID, loc, ip)
		return loc
	}

	// Fallback is deliberately not cached so a later heartbeat with a
	// usable IP can still upgrade it.
	return domain.FallbackCity(userID)
}

func (s *PresenceService) persistLocation(userID string, loc *domain.Location, ip string) {
	go func() {
		saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.users.SaveLocation(saveCtx, userID, loc, ip); err != nil {
			zap.L().Warn("s.users.SaveLocation (persistLocation) (PresenceService)", zap.Error(err), zap.String("userID", userID))
		}
	}()
}

// UserLocations merges every historically known location with the live
// online set for the world map. Deduplicated by user id; the online record
// wins because it is fresher.
func (s *PresenceService) UserLocations(ctx context.Context) ([]domain.UserLocation, error) {
	online, err := s.GetOnlineUsers(ctx)
	if err != nil {
		zap.L().Error("s.GetOnlineUsers (UserLocations) (PresenceService)", zap.Error(err))
		online = nil
	}

	stored, err := s.users.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	// Directory emails fill holes in the stored metadata; a directory
	// outage just leaves those holes.
	emails := map[string]string{}
	if dirUsers, err := s.auth.ListUsers(ctx, authDirectoryPageSize); err == nil {
		for _, u := range dirUsers {
			emails[u.ID] = u.Email
		}
	}

	var res []domain.UserLocation
	seen := map[string]bool{}
	for _, rec := range online {
		res = append(res, domain.UserLocation{
			UID:      rec.ID,
			Email:    rec.Email,
			Online:   true,
			Location: rec.Location,
		})
		seen[rec.ID] = true
	}
	for _, u := range stored {
		if seen[u.UserID] || u.LastKnownLocation == nil {
			continue
		}
		email := u.Email
		if email == "" {
			email = emails[u.UserID]
		}
		res = append(res, domain.UserLocation{
			UID:      u.UserID,
			Email:    email,
			Location: u.LastKnownLocation,
		})
	}
	return res, nil
}

// LogSnapshot folds the current presence collection into today's log entry.
// Runs from the scheduler and from the manual endpoint; both paths share
// these merge semantics:
//
//   - an empty active set logs nothing (no spurious empty-day records)
//   - the email set only grows within a day (union, never overwrite)
//   - per-user aggregates bump snapshots and lastSeen, keep firstSeen
//
// Returns the day and the size of this snapshot's active set.
func (s *PresenceService) LogSnapshot(ctx context.Context) (string, int, error) {
	docs, err := s.presence.GetAll(ctx)
	if err != nil {
		return "", 0, err
	}

	now := s.now().UTC()
	today := now.Format("2006-01-02")
	nowISO := now.Format(time.RFC3339)

	var activeEmails []string
	for _, doc := range docs {
		if doc.Email != "" {
			activeEmails = append(activeEmails, doc.Email)
		} else {
			activeEmails = append(activeEmails, doc.UserID)
		}
		// Opportunistically geolocate heartbeats we have not resolved yet.
		if doc.IP != "" && s.cache.Get(doc.UserID) == nil {
			if loc := s.geo.Lookup(doc.IP); loc != nil {
				s.cache.Put(doc.UserID, loc)
				s.persistLocation(doc.UserID, loc, doc.IP)
			}
		}
	}

	if len(activeEmails) == 0 {
		return today, 0, nil
	}

	entry, err := s.logRepo.Get(ctx, today)
	if err != nil {
		// Only a genuine first-snapshot-of-the-day starts a fresh entry.
		// Writing a fresh entry over a read failure would shrink the day's
		// email set, which must only ever grow.
		var derr *domain.Error
		if !errors.As(err, &derr) || derr.Code() != domain.ErrNotFound {
			return "", 0, err
		}
		entry = &domain.PresenceLogEntry{
			Date:         today,
			UserSessions: map[string]domain.UserSessionAggregate{},
			CreatedAt:    nowISO,
		}
	}
	if entry.UserSessions == nil {
		entry.UserSessions = map[string]domain.UserSessionAggregate{}
	}

	entry.ActiveEmails = unionEmails(entry.ActiveEmails, activeEmails)
	entry.ActiveCount = len(entry.ActiveEmails)
	entry.LastUpdated = nowISO

	for _, email := range activeEmails {
		agg, ok := entry.UserSessions[email]
		if !ok {
			agg = domain.UserSessionAggregate{FirstSeen: nowISO}
		}
		agg.Snapshots++
		agg.LastSeen = nowISO
		entry.UserSessions[email] = agg
	}

	if err := s.logRepo.Upsert(ctx, entry); err != nil {
		return today, 0, err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishDailyActivity(ctx, entry, len(activeEmails)); err != nil {
			zap.L().Warn("publisher.PublishDailyActivity (LogSnapshot) (PresenceService)", zap.Error(err))
		}
	}
	if s.exporter != nil && s.exporter.Enabled() {
		if err := s.exporter.UploadDailyLog(ctx, entry); err != nil {
			zap.L().Warn("exporter.UploadDailyLog (LogSnapshot) (PresenceService)", zap.Error(err))
		}
	}

	return today, len(activeEmails), nil
}

// unionEmails keeps the existing order and appends unseen newcomers, so the
// set is monotonically non-decreasing across merges of the same day.
func unionEmails(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing))
	res := make([]string, 0, len(existing)+len(incoming))
	for _, e := range existing {
		if !seen[e] {
			seen[e] = true
			res = append(res, e)
		}
	}
	for _, e := range incoming {
		if !seen[e] {
			seen[e] = true
			res = append(res, e)
		}
	}
	return res
}
