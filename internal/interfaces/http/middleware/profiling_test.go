package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestControllerFromRoute(t *testing.T) {
	cases := map[string]string{
		"/api/v1/queues/:id/call-next": "queues",
		"/api/v1/tickets/mine":         "tickets",
		"/api/v2/payments/callback/:p": "payments",
		"/health":                      "health",
		"/":                            "",
		"/api/v1/:id":                  "",
	}
	for route, want := range cases {
		t.Run(route, func(t *testing.T) {
			assert.Equal(t, want, controllerFromRoute(route))
		})
	}
}

func TestIsVersionSegment(t *testing.T) {
	assert.True(t, isVersionSegment("v1"))
	assert.True(t, isVersionSegment("v12"))
	assert.False(t, isVersionSegment("v"))
	assert.False(t, isVersionSegment("vx"))
	assert.False(t, isVersionSegment("queues"))
}

func TestProfiling(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		router := gin.New()
		router.Use(Profiling(enabled))
		router.GET("/api/v1/queues/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/queues/1", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	}
}
