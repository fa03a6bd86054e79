package webapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"drape/leon/admin-service/biz/domain"
	"drape/leon/admin-service/config"
)

type DkronAPI struct {
	BaseURL      string
	MyServiceURL string
	HTTPPort     string
	ServiceToken string
}

func CreateDkronAPI(cfg *config.Config) *DkronAPI {
	return &DkronAPI{
		BaseURL:      cfg.Dkron.DkronURL,
		MyServiceURL: cfg.MyServiceURL,
		HTTPPort:     cfg.HTTP.Port,
		ServiceToken: cfg.Dkron.ServiceToken,
	}
}

type JobReq struct {
	Name           string            `json:"name"`
	DisplayName    string            `json:"displayname"`
	Schedule       string            `json:"schedule"`
	Timezone       string            `json:"timezone"`
	Owner          string            `json:"owner"`
	Disabled       bool              `json:"disabled"`
	Concurrency    string            `json:"concurrency"`
	Executor       string            `json:"executor"`
	ExecutorConfig map[string]string `json:"executor_config"`
}

func (d *DkronAPI) Enabled() bool {
	return d.BaseURL != ""
}

// RegisterPresenceLogJob schedules the recurring snapshot on dkron, pointing
// back at our own /admin/presence/log endpoint. Registration is idempotent on
// dkron's side for identical job names.
func (d *DkronAPI) RegisterPresenceLogJob(ctx context.Context, intervalMinutes int) error {
	cronURL := fmt.Sprintf("http://%s%s/admin/presence/log", d.MyServiceURL, d.HTTPPort)
	// Fixed name: dkron upserts by name, so a restart replaces the job
	// instead of stacking another recurring trigger.
	jobName := "presence-log"

	payload, err := json.Marshal(JobReq{
		Name:        jobName,
		DisplayName: jobName,
		Schedule:    fmt.Sprintf("@every %dm", intervalMinutes),
		Timezone:    "Europe/Rome",
		Owner:       "drape admin service",
		Disabled:    false,
		Concurrency: "forbid",
		Executor:    "shell",
		ExecutorConfig: map[string]string{
			"command": `curl --location --request POST ` + cronURL + ` \
			--header 'Authorization: Bearer ` + d.ServiceToken + `'`,
		},
	})
	if err != nil {
		zap.L().Error("Marshal JSON (RegisterPresenceLogJob) (DkronAPI)", zap.Error(err))
		return domain.WrapErrorf(err, domain.ErrInternalServerError, domain.MessageInternalServerError)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", d.BaseURL, bytes.NewBuffer(payload))
	if err != nil {
		zap.L().Error("NewRequest (RegisterPresenceLogJob) (DkronAPI)", zap.Error(err))
		return domain.WrapErrorf(err, domain.ErrInternalServerError, domain.MessageInternalServerError)
	}
	req.Header.Set("Content-Type", "application/json")
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		zap.L().Error("client.Do(req) (RegisterPresenceLogJob) (DkronAPI)", zap.Error(err))
		return domain.WrapErrorf(err, domain.ErrInternalServerError, domain.MessageInternalServerError)
	}
	defer resp.Body.Close()
	return nil
}
