package webapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterPresenceLogJob(t *testing.T) {
	var got JobReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	d := &DkronAPI{
		BaseURL:      srv.URL,
		MyServiceURL: "admin-host",
		HTTPPort:     ":4002",
		ServiceToken: "tok",
	}

	require.NoError(t, d.RegisterPresenceLogJob(context.Background(), 15))

	// A fixed name makes re-registration replace the job rather than stack
	// another recurring trigger per restart.
	assert.Equal(t, "presence-log", got.Name)
	assert.Equal(t, "@every 15m", got.Schedule)
	assert.Equal(t, "shell", got.Executor)
	assert.Contains(t, got.ExecutorConfig["command"], "http://admin-host:4002/admin/presence/log")
	assert.Contains(t, got.ExecutorConfig["command"], "Bearer tok")
}
