package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/smartqueue/backend/internal/domain/identity"
	"github.com/smartqueue/backend/internal/infrastructure/auth"
	"github.com/smartqueue/backend/internal/infrastructure/config"
	"github.com/smartqueue/backend/internal/interfaces/http/handler"
	"github.com/smartqueue/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRouter(t *testing.T) {
	t.Run("defaults to v1", func(t *testing.T) {
		r := NewRouter(gin.New())
		assert.Equal(t, "/api/v1", r.BasePath())
	})

	t.Run("custom version", func(t *testing.T) {
		r := NewRouter(gin.New(), WithAPIVersion("v2"))
		assert.Equal(t, "/api/v2", r.BasePath())
	})

	t.Run("setup applies middleware to every group", func(t *testing.T) {
		engine := gin.New()
		r := NewRouter(engine).Use(func(c *gin.Context) {
			c.Header("X-Api", "yes")
			c.Next()
		})
		r.Register(
			NewDomainGroup("queues", "/queues").GET("", func(c *gin.Context) { c.String(http.StatusOK, "queues") }),
			NewDomainGroup("tickets", "/tickets").GET("/:id", func(c *gin.Context) { c.String(http.StatusOK, c.Param("id")) }),
		)
		r.Setup()

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/queues", nil))
		assert.Equal(t, "queues", w.Body.String())
		assert.Equal(t, "yes", w.Header().Get("X-Api"))

		w = httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/tickets/A001", nil))
		assert.Equal(t, "A001", w.Body.String())
		assert.Equal(t, "yes", w.Header().Get("X-Api"))
	})
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("queues", "/queues")
		assert.Equal(t, "queues", g.Name())
		assert.Equal(t, "/queues", g.Prefix())
	})

	t.Run("subgroup middleware stays scoped", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("queues", "/queues")
		g.GET("/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
		g.Group("operator", "").Use(func(c *gin.Context) {
			c.AbortWithStatus(http.StatusForbidden)
		}).POST("/:id/call-next", func(c *gin.Context) { c.Status(http.StatusOK) })
		g.RegisterRoutes(engine.Group("/api/v1"))

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/queues/1", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/queues/1/call-next", nil))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("routes lists full paths", func(t *testing.T) {
		noop := func(*gin.Context) {}
		g := NewDomainGroup("system", "/system")
		g.GET("/info", noop)
		g.Group("outbox", "/outbox").GET("/stats", noop).DELETE("/dead/:id", noop)

		assert.Equal(t, []Route{
			{Method: http.MethodGet, Path: "/system/info"},
			{Method: http.MethodGet, Path: "/system/outbox/stats"},
			{Method: http.MethodDelete, Path: "/system/outbox/dead/:id"},
		}, g.Routes())
	})

	t.Run("empty path maps to the prefix", func(t *testing.T) {
		g := NewDomainGroup("queues", "/queues").GET("", func(*gin.Context) {})
		assert.Equal(t, "/queues", g.Routes()[0].Path)
	})
}

func testHandlers() Handlers {
	return Handlers{
		Auth:          handler.NewAuthHandler(nil),
		Users:         handler.NewUserHandler(nil),
		Organizations: handler.NewOrganizationHandler(nil),
		Services:      handler.NewServiceHandler(nil),
		Queues:        handler.NewQueueHandler(nil, nil, nil),
		Tickets:       handler.NewTicketHandler(nil),
		Appointments:  handler.NewAppointmentHandler(nil),
		Payments:      handler.NewPaymentHandler(nil),
		Notifications: handler.NewNotificationHandler(nil),
		Outbox:        handler.NewOutboxHandler(nil),
		System:        handler.NewSystemHandler("test", nil),
	}
}

func newAPI(t *testing.T) (*gin.Engine, *auth.JWTService) {
	t.Helper()
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                "router-test-secret-at-least-32-chars",
		AccessTokenExpiration: time.Hour,
		Issuer:                "smartqueue-test",
	})
	engine := gin.New()
	engine.Use(middleware.RequestID())
	r := NewRouter(engine)

	paths, prefixes := PublicPaths(r.BasePath())
	r.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:       jwtService,
		SkipPaths:        paths,
		SkipPathPrefixes: prefixes,
	}))
	Mount(engine, r, testHandlers())
	return engine, jwtService
}

func tokenFor(t *testing.T, svc *auth.JWTService, role identity.Role) string {
	t.Helper()
	input := auth.TokenInput{UserID: uuid.New(), Role: string(role), Phone: "+221770000000"}
	if role != identity.RoleCustomer && role != identity.RoleSuperAdmin {
		orgID := uuid.New()
		input.OrganizationID = &orgID
	}
	token, err := svc.GenerateAccessToken(input)
	require.NoError(t, err)
	return token.Token
}

func TestAPIGroups_Routes(t *testing.T) {
	engine, _ := newAPI(t)
	registered := map[string]bool{}
	for _, route := range engine.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	expected := []string{
		"GET /health",
		"POST /api/v1/auth/register",
		"POST /api/v1/auth/login",
		"POST /api/v1/auth/logout",
		"GET /api/v1/auth/me",
		"PUT /api/v1/auth/password",
		"GET /api/v1/users/staff",
		"POST /api/v1/users/staff",
		"POST /api/v1/users/staff/:id/deactivate",
		"GET /api/v1/organizations",
		"POST /api/v1/organizations",
		"GET /api/v1/organizations/:id",
		"PUT /api/v1/organizations/:id",
		"GET /api/v1/services",
		"POST /api/v1/services",
		"GET /api/v1/services/:id",
		"PUT /api/v1/services/:id",
		"POST /api/v1/services/:id/deactivate",
		"GET /api/v1/queues",
		"POST /api/v1/queues",
		"GET /api/v1/queues/:id",
		"PUT /api/v1/queues/:id",
		"POST /api/v1/queues/:id/pause",
		"POST /api/v1/queues/:id/resume",
		"POST /api/v1/queues/:id/status",
		"POST /api/v1/queues/:id/reset-daily",
		"POST /api/v1/queues/:id/call-next",
		"POST /api/v1/queues/:id/take-ticket",
		"GET /api/v1/queues/:id/dashboard",
		"GET /api/v1/queues/:id/stats",
		"GET /api/v1/queues/:id/tickets",
		"GET /api/v1/queues/:id/report",
		"GET /api/v1/tickets/mine",
		"GET /api/v1/tickets/stats",
		"GET /api/v1/tickets/:id",
		"GET /api/v1/tickets/:id/slip.pdf",
		"POST /api/v1/tickets/:id/call-again",
		"POST /api/v1/tickets/:id/start",
		"POST /api/v1/tickets/:id/serve",
		"POST /api/v1/tickets/:id/no-show",
		"POST /api/v1/tickets/:id/skip",
		"POST /api/v1/tickets/:id/cancel",
		"POST /api/v1/tickets/:id/transfer",
		"POST /api/v1/tickets/:id/extend",
		"POST /api/v1/tickets/:id/rate",
		"GET /api/v1/appointments",
		"POST /api/v1/appointments",
		"GET /api/v1/appointments/:id",
		"POST /api/v1/appointments/:id/confirm",
		"POST /api/v1/appointments/:id/cancel",
		"POST /api/v1/appointments/:id/reschedule",
		"POST /api/v1/appointments/:id/check-in",
		"POST /api/v1/appointments/:id/start",
		"POST /api/v1/appointments/:id/complete",
		"POST /api/v1/appointments/:id/no-show",
		"GET /api/v1/payments/providers",
		"GET /api/v1/payments",
		"POST /api/v1/payments",
		"GET /api/v1/payments/:id",
		"POST /api/v1/payments/:id/confirm-cash",
		"POST /api/v1/payments/callback/:provider",
		"GET /api/v1/notifications",
		"GET /api/v1/system/info",
		"GET /api/v1/system/outbox/stats",
		"GET /api/v1/system/outbox/dead",
		"POST /api/v1/system/outbox/dead/:id/retry",
		"POST /api/v1/system/outbox/dead/retry-all",
	}
	for _, route := range expected {
		assert.True(t, registered[route], "missing route %s", route)
	}
	assert.Len(t, engine.Routes(), len(expected))
}

func TestAPIGroups_Access(t *testing.T) {
	engine, jwtService := newAPI(t)
	queueID := uuid.New().String()

	do := func(method, path, token, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w
	}

	tests := []struct {
		name       string
		method     string
		path       string
		role       identity.Role
		body       string
		wantStatus int
	}{
		{"health is public", http.MethodGet, "/health", "", "", http.StatusOK},
		{"system info is public", http.MethodGet, "/api/v1/system/info", "", "", http.StatusOK},
		{"login is public", http.MethodPost, "/api/v1/auth/login", "", "{", http.StatusBadRequest},
		{"callback is public", http.MethodPost, "/api/v1/payments/callback/paypal", "", "{}", http.StatusBadRequest},
		{"queues need a token", http.MethodGet, "/api/v1/queues", "", "", http.StatusUnauthorized},
		{"customer cannot call next", http.MethodPost, "/api/v1/queues/" + queueID + "/call-next", identity.RoleCustomer, "", http.StatusForbidden},
		{"customer cannot serve", http.MethodPost, "/api/v1/tickets/" + queueID + "/serve", identity.RoleCustomer, "", http.StatusForbidden},
		{"customer cannot confirm cash", http.MethodPost, "/api/v1/payments/" + queueID + "/confirm-cash", identity.RoleCustomer, "", http.StatusForbidden},
		{"staff cannot create staff", http.MethodPost, "/api/v1/users/staff", identity.RoleStaff, "{}", http.StatusForbidden},
		{"admin cannot read the outbox", http.MethodGet, "/api/v1/system/outbox/stats", identity.RoleAdmin, "", http.StatusForbidden},
		{"staff path id is validated", http.MethodPost, "/api/v1/queues/A/call-next", identity.RoleStaff, "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := ""
			if tt.role != "" {
				token = tokenFor(t, jwtService, tt.role)
			}
			w := do(tt.method, tt.path, token, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
}

func TestAPIGroups_AuthGuard(t *testing.T) {
	h := testHandlers()
	h.AuthGuard = func(c *gin.Context) { c.AbortWithStatus(http.StatusTooManyRequests) }
	engine := gin.New()
	Mount(engine, NewRouter(engine), h)

	for _, path := range []string{"/api/v1/auth/login", "/api/v1/auth/register"} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, strings.NewReader("{}")))
		assert.Equal(t, http.StatusTooManyRequests, w.Code, path)
	}
}
