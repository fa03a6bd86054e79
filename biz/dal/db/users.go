package db

import (
	"context"
	"database/sql"
	"encoding/json"

	"go.uber.org/zap"

	"drape/leon/admin-service/biz/domain"
)

type UserRepository struct {
	db *Postgres
}

func NewUserRepo(db *Postgres) *UserRepository {
	return &UserRepository{db}
}

func (r *UserRepository) GetAll(ctx context.Context) ([]domain.UserMeta, error) {
	rows, err := r.db.Pool.QueryContext(ctx,
		`SELECT user_id, email, plan, last_known_location, last_known_ip FROM users_meta`)
	if err != nil {
		zap.L().Error("users_meta select (GetAll) (UserRepository)", zap.Error(err))
		return nil, domain.WrapErrorf(err, domain.ErrInternalServerError, domain.MessageInternalServerError)
	}
	defer rows.Close()

	var res []domain.UserMeta
	for rows.Next() {
		var u domain.UserMeta
		var loc []byte
		if err := rows.Scan(&u.UserID, &u.Email, &u.Plan, &loc, &u.LastKnownIP); err != nil {
			zap.L().Error("users_meta scan (GetAll) (UserRepository)", zap.Error(err))
			return nil, domain.WrapErrorf(err, domain.ErrInternalServerError, domain.MessageInternalServerError)
		}
		if len(loc) > 0 {
			var l domain.Location
			if err := json.Unmarshal(loc, &l); err == nil {
				u.LastKnownLocation = &l
			}
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

// SaveLocation upserts the resolved location onto the user document so a
// process restart does not re-geolocate everybody. Callers treat this as
// fire-and-forget.
func (r *UserRepository) SaveLocation(ctx context.Context, userID string, loc *domain.Location, ip string) error {
	raw, err := json.Marshal(loc)
	if err != nil {
		return domain.WrapErrorf(err, domain.ErrInternalServerError, domain.MessageInternalServerError)
	}
	_, err = r.db.Pool.ExecContext(ctx,
		`INSERT INTO users_meta (user_id, last_known_location, last_known_ip)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id)
		 DO UPDATE SET last_known_location = EXCLUDED.last_known_location,
		               last_known_ip = EXCLUDED.last_known_ip`,
		userID, raw, ip)
	if err != nil {
		return domain.WrapErrorf(err, domain.ErrInternalServerError, domain.MessageInternalServerError)
	}
	return nil
}

// GetLocation returns nil without error when the user has no stored location.
func (r *UserRepository) GetLocation(ctx context.Context, userID string) (*domain.Location, error) {
	var loc []byte
	err := r.db.Pool.QueryRowContext(ctx,
		`SELECT last_known_location FROM users_meta WHERE user_id = $1`, userID).Scan(&loc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, domain.WrapErrorf(err, domain.ErrInternalServerError, domain.MessageInternalServerError)
	}
	if len(loc) == 0 {
		return nil, nil
	}
	var l domain.Location
	if err := json.Unmarshal(loc, &l); err != nil {
		return nil, nil
	}
	return &l, nil
}
