package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/smartqueue/backend/internal/domain/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemHandler_Health(t *testing.T) {
	t.Run("all dependencies up", func(t *testing.T) {
		h := NewSystemHandler("1.2.0", map[string]Pinger{
			"database": PingFunc(func(context.Context) error { return nil }),
		})
		router := newRouter(identity.Actor{})
		router.GET("/health", h.Health)

		w := doJSON(router, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, w.Code)
		resp := decode(t, w)
		assert.True(t, resp.Success)
		data := resp.Data.(map[string]any)
		assert.Equal(t, "ok", data["status"])
		assert.Equal(t, "up", data["checks"].(map[string]any)["database"])
	})

	t.Run("database down", func(t *testing.T) {
		h := NewSystemHandler("1.2.0", map[string]Pinger{
			"database": PingFunc(func(context.Context) error { return errors.New("connection refused") }),
			"redis":    PingFunc(func(context.Context) error { return nil }),
		})
		router := newRouter(identity.Actor{})
		router.GET("/health", h.Health)

		w := doJSON(router, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		resp := decode(t, w)
		assert.False(t, resp.Success)
		data := resp.Data.(map[string]any)
		assert.Equal(t, "degraded", data["status"])
		checks := data["checks"].(map[string]any)
		assert.Contains(t, checks["database"], "connection refused")
		assert.Equal(t, "up", checks["redis"])
	})
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	h := NewSystemHandler("1.2.0", nil)
	router := newRouter(staffActor())
	router.GET("/system/info", h.GetSystemInfo)

	resp := decode(t, doJSON(router, http.MethodGet, "/system/info", ""))
	require.True(t, resp.Success)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "SmartQueue API", data["name"])
	assert.Equal(t, "1.2.0", data["version"])
	assert.NotEmpty(t, data["go_version"])
}
