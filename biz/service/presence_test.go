package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drape/leon/admin-service/biz/domain"
)

type fakePresenceRepo struct {
	docs []domain.PresenceDoc
	err  error
}

func (f *fakePresenceRepo) GetActiveSince(ctx context.Context, cutoff time.Time) ([]domain.PresenceDoc, error) {
	if f.err != nil {
		return nil, f.err
	}
	var res []domain.PresenceDoc
	for _, d := range f.docs {
		if !d.LastSeen.Before(cutoff) {
			res = append(res, d)
		}
	}
	return res, nil
}

func (f *fakePresenceRepo) GetAll(ctx context.Context) ([]domain.PresenceDoc, error) {
	return f.docs, f.err
}

type fakeUserRepo struct {
	mu        sync.Mutex
	metas     []domain.UserMeta
	locations map[string]*domain.Location
	saved     map[string]*domain.Location
}

func (f *fakeUserRepo) GetAll(ctx context.Context) ([]domain.UserMeta, error) {
	return f.metas, nil
}

func (f *fakeUserRepo) GetLocation(ctx context.Context, userID string) (*domain.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locations[userID], nil
}

func (f *fakeUserRepo) SaveLocation(ctx context.Context, userID string, loc *domain.Location, ip string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saved == nil {
		f.saved = map[string]*domain.Location{}
	}
	f.saved[userID] = loc
	return nil
}

func (f *fakeUserRepo) savedFor(userID string) *domain.Location {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saved[userID]
}

type fakeLogRepo struct {
	entries map[string]*domain.PresenceLogEntry
	getErr  error
	upserts int
}

func (f *fakeLogRepo) Get(ctx context.Context, date string) (*domain.PresenceLogEntry, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if e, ok := f.entries[date]; ok {
		return e, nil
	}
	return nil, domain.NewErrorf(domain.ErrNotFound, "no log for %s", date)
}

func (f *fakeLogRepo) Upsert(ctx context.Context, entry *domain.PresenceLogEntry) error {
	if f.entries == nil {
		f.entries = map[string]*domain.PresenceLogEntry{}
	}
	f.entries[entry.Date] = entry
	f.upserts++
	return nil
}

type fakeGeo struct {
	m map[string]*domain.Location
}

func (f *fakeGeo) Lookup(ip string) *domain.Location {
	return f.m[ip]
}

type fakePublisher struct {
	calls int
}

func (f *fakePublisher) PublishDailyActivity(ctx context.Context, entry *domain.PresenceLogEntry, snapshotSize int) error {
	f.calls++
	return nil
}

type fakeExporter struct {
	enabled bool
	calls   int
}

func (f *fakeExporter) Enabled() bool { return f.enabled }

func (f *fakeExporter) UploadDailyLog(ctx context.Context, entry *domain.PresenceLogEntry) error {
	f.calls++
	return nil
}

type presenceFixture struct {
	svc       *PresenceService
	presence  *fakePresenceRepo
	users     *fakeUserRepo
	logRepo   *fakeLogRepo
	geo       *fakeGeo
	publisher *fakePublisher
	exporter  *fakeExporter
	now       time.Time
}

func newPresenceFixture() *presenceFixture {
	f := &presenceFixture{
		presence:  &fakePresenceRepo{},
		users:     &fakeUserRepo{locations: map[string]*domain.Location{}},
		logRepo:   &fakeLogRepo{},
		geo:       &fakeGeo{m: map[string]*domain.Location{}},
		publisher: &fakePublisher{},
		exporter:  &fakeExporter{},
		now:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewPresenceService(f.presence, f.users, f.logRepo,
		&fakeAuth{}, f.geo, NewLocationCache(), f.publisher, f.exporter)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func TestGetOnlineUsersWindow(t *testing.T) {
	f := newPresenceFixture()
	sessionStart := f.now.Add(-10 * time.Minute)
	f.presence.docs = []domain.PresenceDoc{
		{UserID: "fresh", Email: "fresh@example.com", LastSeen: f.now.Add(-45 * time.Second), SessionStart: &sessionStart},
		{UserID: "stale", Email: "stale@example.com", LastSeen: f.now.Add(-46 * time.Second)},
	}

	users, err := f.svc.GetOnlineUsers(context.Background())

	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "fresh", users[0].ID)
	assert.True(t, users[0].Online)
	require.NotNil(t, users[0].SessionDurationMs)
	assert.Equal(t, (10 * time.Minute).Milliseconds(), *users[0].SessionDurationMs)
	require.NotNil(t, users[0].Location)
}

func TestResolveLocationPrecedence(t *testing.T) {
	t.Run("stored document beats geolocation", func(t *testing.T) {
		f := newPresenceFixture()
		stored := &domain.Location{City: "Torino", Country: "IT"}
		f.users.locations["u1"] = stored
		f.geo.m["1.2.3.4"] = &domain.Location{City: "Paris", Country: "FR"}

		loc := f.svc.resolveLocation(context.Background(), "u1", "1.2.3.4")

		assert.Equal(t, stored, loc)
		assert.Equal(t, stored, f.svc.cache.Get("u1"))
	})

	t.Run("geolocation fills missing documents and persists", func(t *testing.T) {
		f := newPresenceFixture()
		geoLoc := &domain.Location{City: "Paris", Country: "FR"}
		f.geo.m["1.2.3.4"] = geoLoc

		loc := f.svc.resolveLocation(context.Background(), "u1", "1.2.3.4")

		assert.Equal(t, geoLoc, loc)
		assert.Eventually(t, func() bool {
			return f.users.savedFor("u1") == geoLoc
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("cache short-circuits everything", func(t *testing.T) {
		f := newPresenceFixture()
		cached := &domain.Location{City: "Oslo", Country: "NO"}
		f.svc.cache.Put("u1", cached)
		f.users.locations["u1"] = &domain.Location{City: "Torino", Country: "IT"}

		assert.Equal(t, cached, f.svc.resolveLocation(context.Background(), "u1", ""))
	})

	t.Run("fallback city is deterministic and never cached", func(t *testing.T) {
		f := newPresenceFixture()

		first := f.svc.resolveLocation(context.Background(), "u1", "")
		second := f.svc.resolveLocation(context.Background(), "u1", "")

		require.NotNil(t, first)
		assert.Equal(t, first, second)
		assert.Equal(t, domain.FallbackCity("u1"), first)
		assert.Nil(t, f.svc.cache.Get("u1"))
	})
}

func TestLogSnapshotSkipsEmptySet(t *testing.T) {
	f := newPresenceFixture()

	date, count, err := f.svc.LogSnapshot(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", date)
	assert.Equal(t, 0, count)
	assert.Equal(t, 0, f.logRepo.upserts)
	assert.Equal(t, 0, f.publisher.calls)
}

func TestLogSnapshotInitializesDay(t *testing.T) {
	f := newPresenceFixture()
	f.presence.docs = []domain.PresenceDoc{
		{UserID: "u1", Email: "a@example.com"},
		{UserID: "u2", Email: "b@example.com"},
		{UserID: "u3"}, // no email, falls back to the uid
	}

	date, count, err := f.svc.LogSnapshot(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, count)

	entry := f.logRepo.entries[date]
	require.NotNil(t, entry)
	assert.Equal(t, []string{"a@example.com", "b@example.com", "u3"}, entry.ActiveEmails)
	assert.Equal(t, 3, entry.ActiveCount)
	assert.Equal(t, 1, entry.UserSessions["a@example.com"].Snapshots)
	assert.NotEmpty(t, entry.CreatedAt)
	assert.Equal(t, 1, f.publisher.calls)
}

func TestLogSnapshotMergesWithinDay(t *testing.T) {
	f := newPresenceFixture()

	f.presence.docs = []domain.PresenceDoc{
		{UserID: "u1", Email: "a@example.com"},
		{UserID: "u2", Email: "b@example.com"},
	}
	_, _, err := f.svc.LogSnapshot(context.Background())
	require.NoError(t, err)

	firstSeen := f.logRepo.entries["2025-06-01"].UserSessions["b@example.com"].FirstSeen

	// Later snapshot the same day: b is still around, a left, c arrived.
	f.now = f.now.Add(15 * time.Minute)
	f.presence.docs = []domain.PresenceDoc{
		{UserID: "u2", Email: "b@example.com"},
		{UserID: "u3", Email: "c@example.com"},
	}
	_, _, err = f.svc.LogSnapshot(context.Background())
	require.NoError(t, err)

	entry := f.logRepo.entries["2025-06-01"]
	assert.Equal(t, []string{"a@example.com", "b@example.com", "c@example.com"}, entry.ActiveEmails)
	assert.Equal(t, 3, entry.ActiveCount)

	b := entry.UserSessions["b@example.com"]
	assert.Equal(t, 2, b.Snapshots)
	assert.Equal(t, firstSeen, b.FirstSeen)
	assert.NotEqual(t, firstSeen, b.LastSeen)

	// a was not in the second snapshot, so only its lastSeen is stale.
	assert.Equal(t, 1, entry.UserSessions["a@example.com"].Snapshots)
}

func TestLogSnapshotRepeatedSetKeepsCount(t *testing.T) {
	f := newPresenceFixture()
	f.presence.docs = []domain.PresenceDoc{
		{UserID: "u1", Email: "a@example.com"},
	}

	for i := 0; i < 3; i++ {
		_, _, err := f.svc.LogSnapshot(context.Background())
		require.NoError(t, err)
	}

	entry := f.logRepo.entries["2025-06-01"]
	assert.Equal(t, 1, entry.ActiveCount)
	assert.Equal(t, []string{"a@example.com"}, entry.ActiveEmails)
	assert.Equal(t, 3, entry.UserSessions["a@example.com"].Snapshots)
}

func TestLogSnapshotKeepsDayWhenReadFails(t *testing.T) {
	f := newPresenceFixture()
	f.logRepo.entries = map[string]*domain.PresenceLogEntry{
		"2025-06-01": {
			Date:         "2025-06-01",
			ActiveCount:  2,
			ActiveEmails: []string{"a@example.com", "b@example.com"},
			UserSessions: map[string]domain.UserSessionAggregate{},
		},
	}
	// A transient read failure must not look like a fresh day; writing a
	// fresh entry here would shrink the accumulated email set.
	f.logRepo.getErr = domain.NewErrorf(domain.ErrInternalServerError, "collection unavailable")
	f.presence.docs = []domain.PresenceDoc{
		{UserID: "u3", Email: "c@example.com"},
	}

	_, _, err := f.svc.LogSnapshot(context.Background())

	require.Error(t, err)
	assert.Equal(t, 0, f.logRepo.upserts)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, f.logRepo.entries["2025-06-01"].ActiveEmails)
	assert.Equal(t, 0, f.publisher.calls)
}

func TestLogSnapshotExportsWhenEnabled(t *testing.T) {
	f := newPresenceFixture()
	f.exporter.enabled = true
	f.presence.docs = []domain.PresenceDoc{{UserID: "u1", Email: "a@example.com"}}

	_, _, err := f.svc.LogSnapshot(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, f.exporter.calls)
}

func TestUserLocationsMergesOnlineAndStored(t *testing.T) {
	f := newPresenceFixture()
	f.presence.docs = []domain.PresenceDoc{
		{UserID: "u1", Email: "a@example.com", LastSeen: f.now},
	}
	f.users.metas = []domain.UserMeta{
		{UserID: "u1", Email: "a@example.com", LastKnownLocation: &domain.Location{City: "Torino"}},
		{UserID: "u2", Email: "b@example.com", LastKnownLocation: &domain.Location{City: "Berlin"}},
		{UserID: "u3", Email: "c@example.com"}, // no location, excluded
	}

	locations, err := f.svc.UserLocations(context.Background())

	require.NoError(t, err)
	require.Len(t, locations, 2)

	assert.Equal(t, "u1", locations[0].UID)
	assert.True(t, locations[0].Online)

	assert.Equal(t, "u2", locations[1].UID)
	assert.False(t, locations[1].Online)
	assert.Equal(t, "Berlin", locations[1].Location.City)
}
