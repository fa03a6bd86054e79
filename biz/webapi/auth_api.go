package webapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"drape/leon/admin-service/biz/domain"
	"drape/leon/admin-service/config"
)

// AuthAPI talks to the platform's authentication directory. This service
// never writes there; it resolves user ids to emails and display names.
type AuthAPI struct {
	BaseURL string
	client  *http.Client
}

func NewAuthAPI(cfg *config.Config) *AuthAPI {
	return &AuthAPI{
		BaseURL: cfg.AuthAPI.BaseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (a *AuthAPI) GetUser(ctx context.Context, userID string) (*domain.AuthUser, error) {
	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, "GET", a.BaseURL+"/api/v1/users/"+userID, nil)
	if err != nil {
		zap.L().Error("NewRequest (GetUser) (AuthAPI)", zap.Error(err), zap.String("userID", userID))
		return nil, domain.WrapErrorf(err, domain.ErrInternalServerError, domain.MessageInternalServerError)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		zap.L().Debug("client.Do (GetUser) (AuthAPI)", zap.Error(err), zap.String("userID", userID))
		return nil, domain.WrapErrorf(err, domain.ErrInternalServerError, domain.MessageInternalServerError)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.NewErrorf(domain.ErrNotFound, "user %s not in auth directory", userID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewErrorf(domain.ErrInternalServerError, "auth directory returned %d for user %s", resp.StatusCode, userID)
	}

	var user domain.AuthUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		zap.L().Error("decode auth user (GetUser) (AuthAPI)", zap.Error(err), zap.String("userID", userID))
		return nil, domain.WrapErrorf(err, domain.ErrInternalServerError, domain.MessageInternalServerError)
	}
	return &user, nil
}

// ListUsers returns up to limit directory records.
func (a *AuthAPI) ListUsers(ctx context.Context, limit int) ([]domain.AuthUser, error) {
	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s/api/v1/users?limit=%d", a.BaseURL, limit)
	req, err := http.NewRequestWithContext(reqCtx, "GET", url, nil)
	if err != nil {
		zap.L().Error("NewRequest (ListUsers) (AuthAPI)", zap.Error(err))
		return nil, domain.WrapErrorf(err, domain.ErrInternalServerError, domain.MessageInternalServerError)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		zap.L().Debug("client.Do (ListUsers) (AuthAPI)", zap.Error(err))
		return nil, domain.WrapErrorf(err, domain.ErrInternalServerError, domain.MessageInternalServerError)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewErrorf(domain.ErrInternalServerError, "auth directory returned %d", resp.StatusCode)
	}

	var payload struct {
		Users []domain.AuthUser `json:"users"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		zap.L().Error("decode auth users (ListUsers) (AuthAPI)", zap.Error(err))
		return nil, domain.WrapErrorf(err, domain.ErrInternalServerError, domain.MessageInternalServerError)
	}
	return payload.Users, nil
}
