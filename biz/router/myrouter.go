package router

import (
	"context"
	"errors"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"drape/leon/admin-service/biz/domain"
	"drape/leon/admin-service/biz/router/middleware"
	"drape/leon/admin-service/config"
)

type DiagnosticsService interface {
	GetDiagnostics(ctx context.Context) *domain.DiagnosticsSnapshot
	StopContainer(ctx context.Context, ctrID string) error
	StartContainer(ctx context.Context, ctrID string) error
}

type PresenceService interface {
	GetOnlineUsers(ctx context.Context) ([]domain.PresenceRecord, error)
	UserLocations(ctx context.Context) ([]domain.UserLocation, error)
	LogSnapshot(ctx context.Context) (string, int, error)
}

type AdminHandler struct {
	diag     DiagnosticsService
	presence PresenceService
}

func MyRouter(r *server.Hertz, cfg *config.Config, d DiagnosticsService, p PresenceService) {
	handler := &AdminHandler{
		diag:     d,
		presence: p,
	}

	fly := r.Group("/fly")
	{
		fly.GET("/diagnostics", append(middleware.Protected(cfg), handler.GetDiagnostics)...)
	}

	admin := r.Group("/admin")
	{
		admin.GET("/presence", append(middleware.Protected(cfg), handler.GetPresence)...)
		admin.GET("/user-locations", append(middleware.Protected(cfg), handler.GetUserLocations)...)
		admin.POST("/presence/log", append(middleware.Protected(cfg), handler.LogPresence)...)

		ctrH := admin.Group("/containers")
		{
			ctrH.POST("/:id/stop", append(middleware.Protected(cfg), handler.StopContainer)...)
			ctrH.POST("/:id/start", append(middleware.Protected(cfg), handler.StartContainer)...)
		}
	}
}

// ResponseError represent the response error struct
type ResponseError struct {
	Message string `json:"message"`
}

// GetDiagnostics always answers 200; degradation shows up as a zero-shaped
// snapshot, never as an error page on the dashboard.
func (m *AdminHandler) GetDiagnostics(ctx context.Context, c *app.RequestContext) {
	c.JSON(http.StatusOK, m.diag.GetDiagnostics(ctx))
}

type presenceResp struct {
	Count int                     `json:"count"`
	Users []domain.PresenceRecord `json:"users"`
}

func (m *AdminHandler) GetPresence(ctx context.Context, c *app.RequestContext) {
	users, err := m.presence.GetOnlineUsers(ctx)
	if err != nil {
		// The widget polls this constantly; show nobody online rather
		// than an error banner.
		c.JSON(http.StatusOK, presenceResp{Count: 0, Users: []domain.PresenceRecord{}})
		return
	}
	c.JSON(http.StatusOK, presenceResp{Count: len(users), Users: users})
}

type userLocationsResp struct {
	Locations []domain.UserLocation `json:"locations"`
}

func (m *AdminHandler) GetUserLocations(ctx context.Context, c *app.RequestContext) {
	locations, err := m.presence.UserLocations(ctx)
	if err != nil {
		c.JSON(http.StatusOK, userLocationsResp{Locations: []domain.UserLocation{}})
		return
	}
	if locations == nil {
		locations = []domain.UserLocation{}
	}
	c.JSON(http.StatusOK, userLocationsResp{Locations: locations})
}

type logPresenceResp struct {
	Success bool   `json:"success"`
	Date    string `json:"date"`
	Count   int    `json:"count"`
}

func (m *AdminHandler) LogPresence(ctx context.Context, c *app.RequestContext) {
	date, count, err := m.presence.LogSnapshot(ctx)
	if err != nil {
		c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, logPresenceResp{Success: true, Date: date, Count: count})
}

type containerActionResp struct {
	Success bool `json:"success"`
}

func (m *AdminHandler) StopContainer(ctx context.Context, c *app.RequestContext) {
	ctrID := c.Param("id")
	if ctrID == "" {
		c.JSON(consts.StatusBadRequest, ResponseError{Message: "container id is required"})
		return
	}
	if err := m.diag.StopContainer(ctx, ctrID); err != nil {
		c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, containerActionResp{Success: true})
}

func (m *AdminHandler) StartContainer(ctx context.Context, c *app.RequestContext) {
	ctrID := c.Param("id")
	if ctrID == "" {
		c.JSON(consts.StatusBadRequest, ResponseError{Message: "container id is required"})
		return
	}
	if err := m.diag.StartContainer(ctx, ctrID); err != nil {
		c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, containerActionResp{Success: true})
}

func getStatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var ierr *domain.Error
	if !errors.As(err, &ierr) {
		return http.StatusInternalServerError
	} else {
		switch ierr.Code() {
		case domain.ErrInternalServerError:
			return http.StatusInternalServerError
		case domain.ErrNotFound:
			return http.StatusNotFound
		case domain.ErrConflict:
			return http.StatusConflict
		case domain.ErrBadParamInput:
			return http.StatusBadRequest
		default:
			return http.StatusBadRequest
		}
	}
}
