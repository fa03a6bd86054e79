package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"drape/leon/admin-service/biz/domain"
)

type PresenceRepository struct {
	db *Postgres
}

func NewPresenceRepo(db *Postgres) *PresenceRepository {
	return &PresenceRepository{db}
}

func (r *PresenceRepository) scanDocs(rows *sql.Rows) ([]domain.PresenceDoc, error) {
	var res []domain.PresenceDoc
	for rows.Next() {
		var d domain.PresenceDoc
		var sessionStart sql.NullTime
		if err := rows.Scan(&d.UserID, &d.Email, &d.IP, &d.LastSeen, &sessionStart); err != nil {
			zap.L().Error("presence scan (PresenceRepository)", zap.Error(err))
			return nil, domain.WrapErrorf(err, domain.ErrInternalServerError, domain.MessageInternalServerError)
		}
		if sessionStart.Valid {
			t := sessionStart.Time
			d.SessionStart = &t
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

// GetActiveSince returns heartbeats at or after the cutoff, oldest sessions
// first. The recency window itself is the caller's policy.
func (r *PresenceRepository) GetActiveSince(ctx context.Context, cutoff time.Time) ([]domain.PresenceDoc, error) {
	rows, err := r.db.Pool.QueryContext(ctx,
		`SELECT user_id, email, ip, last_seen, session_start
		 FROM presence WHERE last_seen >= $1 ORDER BY session_start ASC NULLS LAST`, cutoff)
	if err != nil {
		zap.L().Error("presence select (GetActiveSince) (PresenceRepository)", zap.Error(err))
		return nil, domain.WrapErrorf(err, domain.ErrInternalServerError, domain.MessageInternalServerError)
	}
	defer rows.Close()
	return r.scanDocs(rows)
}

// GetAll returns the whole presence collection, stale heartbeats included.
// The scheduled logger wants everything that heartbeated since the last run.
func (r *PresenceRepository) GetAll(ctx context.Context) ([]domain.PresenceDoc, error) {
	rows, err := r.db.Pool.QueryContext(ctx,
		`SELECT user_id, email, ip, last_seen, session_start FROM presence`)
	if err != nil {
		zap.L().Error("presence select (GetAll) (PresenceRepository)", zap.Error(err))
		return nil, domain.WrapErrorf(err, domain.ErrInternalServerError, domain.MessageInternalServerError)
	}
	defer rows.Close()
	return r.scanDocs(rows)
}
