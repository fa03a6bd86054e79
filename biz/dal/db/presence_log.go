package db

import (
	"context"
	"database/sql"
	"encoding/json"

	"go.uber.org/zap"

	"drape/leon/admin-service/biz/domain"
)

type PresenceLogRepository struct {
	db *Postgres
}

func NewPresenceLogRepo(db *Postgres) *PresenceLogRepository {
	return &PresenceLogRepository{db}
}

// Get returns the log entry for an ISO date, or domain.ErrNotFound on the
// first snapshot of a day.
func (r *PresenceLogRepository) Get(ctx context.Context, date string) (*domain.PresenceLogEntry, error) {
	var entry domain.PresenceLogEntry
	var emails, sessions []byte
	err := r.db.Pool.QueryRowContext(ctx,
		`SELECT date, active_count, active_emails, user_sessions, created_at, last_updated
		 FROM presence_log WHERE date = $1`, date).
		Scan(&entry.Date, &entry.ActiveCount, &emails, &sessions, &entry.CreatedAt, &entry.LastUpdated)
	if err == sql.ErrNoRows {
		return nil, domain.NewErrorf(domain.ErrNotFound, "no presence log for %s", date)
	}
	if err != nil {
		zap.L().Error("presence_log select (Get) (PresenceLogRepository)", zap.Error(err))
		return nil, domain.WrapErrorf(err, domain.ErrInternalServerError, domain.MessageInternalServerError)
	}
	if err := json.Unmarshal(emails, &entry.ActiveEmails); err != nil {
		entry.ActiveEmails = nil
	}
	if err := json.Unmarshal(sessions, &entry.UserSessions); err != nil {
		entry.UserSessions = map[string]domain.UserSessionAggregate{}
	}
	return &entry, nil
}

// Upsert writes the merged entry back. The read-merge-write cycle is not
// locked; a lost update between two near-simultaneous merges costs at most a
// double-counted snapshot.
func (r *PresenceLogRepository) Upsert(ctx context.Context, entry *domain.PresenceLogEntry) error {
	emails, err := json.Marshal(entry.ActiveEmails)
	if err != nil {
		return domain.WrapErrorf(err, domain.ErrInternalServerError, domain.MessageInternalServerError)
	}
	sessions, err := json.Marshal(entry.UserSessions)
	if err != nil {
		return domain.WrapErrorf(err, domain.ErrInternalServerError, domain.MessageInternalServerError)
	}
	_, err = r.db.Pool.ExecContext(ctx,
		`INSERT INTO presence_log (date, active_count, active_emails, user_sessions, created_at, last_updated)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (date)
		 DO UPDATE SET active_count = EXCLUDED.active_count,
		               active_emails = EXCLUDED.active_emails,
		               user_sessions = EXCLUDED.user_sessions,
		               last_updated = EXCLUDED.last_updated`,
		entry.Date, entry.ActiveCount, emails, sessions, entry.CreatedAt, entry.LastUpdated)
	if err != nil {
		zap.L().Error("presence_log upsert (PresenceLogRepository)", zap.Error(err), zap.String("date", entry.Date))
		return domain.WrapErrorf(err, domain.ErrInternalServerError, domain.MessageInternalServerError)
	}
	return nil
}
