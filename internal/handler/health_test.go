package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/segyhp/lending-engine/internal/config"
	"github.com/segyhp/lending-engine/internal/handler"
	"github.com/segyhp/lending-engine/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler_Ready(t *testing.T) {
	db, err := repository.Open(context.Background(), config.DatabaseConfig{
		Driver: config.DriverSQLite,
		URL:    filepath.Join(t.TempDir(), "health.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	t.Run("ready without redis", func(t *testing.T) {
		h := handler.NewHealthHandler(db, nil, time.Second)
		w := httptest.NewRecorder()

		h.Ready(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Data handler.HealthStatus `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "ok", body.Data.Checks["database"])
		assert.Equal(t, "disabled", body.Data.Checks["redis"])
	})

	t.Run("unreachable redis is not ready", func(t *testing.T) {
		client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
		t.Cleanup(func() { client.Close() })
		h := handler.NewHealthHandler(db, client, 500*time.Millisecond)
		w := httptest.NewRecorder()

		h.Ready(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		var body struct {
			Success bool                 `json:"success"`
			Data    handler.HealthStatus `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.False(t, body.Success)
		assert.Equal(t, "error", body.Data.Status)
		assert.Contains(t, body.Data.Checks["redis"], "failed")
	})

	t.Run("liveness", func(t *testing.T) {
		h := handler.NewHealthHandler(db, nil, time.Second)
		w := httptest.NewRecorder()

		h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
