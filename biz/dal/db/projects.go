package db

import (
	"context"
	"database/sql"

	"drape/leon/admin-service/biz/domain"
)

type ProjectRepository struct {
	db *Postgres
}

func NewProjectRepo(db *Postgres) *ProjectRepository {
	return &ProjectRepository{db}
}

// GetProjectOwner looks a project up in the current collection. A miss is a
// domain.ErrNotFound, which the ownership chain treats as "try the next
// strategy", never as a failure.
func (r *ProjectRepository) GetProjectOwner(ctx context.Context, projectID string) (string, error) {
	var userID, ownerID sql.NullString
	err := r.db.Pool.QueryRowContext(ctx,
		`SELECT user_id, owner_id FROM projects WHERE id = $1`, projectID).
		Scan(&userID, &ownerID)
	if err == sql.ErrNoRows {
		return "", domain.NewErrorf(domain.ErrNotFound, "project %s not in projects collection", projectID)
	}
	if err != nil {
		return "", domain.WrapErrorf(err, domain.ErrInternalServerError, domain.MessageInternalServerError)
	}
	if userID.Valid && userID.String != "" {
		return userID.String, nil
	}
	if ownerID.Valid && ownerID.String != "" {
		return ownerID.String, nil
	}
	return "", domain.NewErrorf(domain.ErrNotFound, "project %s has no owner field", projectID)
}

// GetLegacyProjectOwner is the fallback against the pre-migration collection.
func (r *ProjectRepository) GetLegacyProjectOwner(ctx context.Context, projectID string) (string, error) {
	var userID sql.NullString
	err := r.db.Pool.QueryRowContext(ctx,
		`SELECT user_id FROM user_projects WHERE id = $1`, projectID).
		Scan(&userID)
	if err == sql.ErrNoRows {
		return "", domain.NewErrorf(domain.ErrNotFound, "project %s not in user_projects collection", projectID)
	}
	if err != nil {
		return "", domain.WrapErrorf(err, domain.ErrInternalServerError, domain.MessageInternalServerError)
	}
	if !userID.Valid || userID.String == "" {
		return "", domain.NewErrorf(domain.ErrNotFound, "project %s has no owner field", projectID)
	}
	return userID.String, nil
}
