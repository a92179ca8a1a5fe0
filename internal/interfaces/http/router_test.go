package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/launch-radar/internal/application/dashboard"
	"github.com/turtacn/launch-radar/internal/application/radar"
	"github.com/turtacn/launch-radar/internal/domain/user"
	"github.com/turtacn/launch-radar/internal/infrastructure/auth"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/internal/interfaces/http/handlers"
	"github.com/turtacn/launch-radar/internal/interfaces/http/middleware"
	"github.com/turtacn/launch-radar/pkg/errors"
)

// stubVerifier accepts the bearer tokens "admin", "editor" and "viewer".
type stubVerifier struct{}

func (stubVerifier) Verify(_ context.Context, token string) (*user.User, error) {
	role := user.Role(token)
	if !role.Valid() {
		return nil, errors.Unauthorized("invalid token")
	}
	return &user.User{ID: "u-" + token, Role: role}, nil
}

type stubDashboard struct{ refreshed int }

func (s *stubDashboard) Heatmap(context.Context, dashboard.HeatmapQuery) (*dashboard.Heatmap, error) {
	return &dashboard.Heatmap{}, nil
}

func (s *stubDashboard) Refresh(context.Context) (*dashboard.State, error) {
	s.refreshed++
	return dashboard.NewState(dashboard.Snapshot{}, time.Now()), nil
}

func (s *stubDashboard) Personal(context.Context, radar.Filter) (*radar.View, error) {
	return &radar.View{}, nil
}

func testConfig(t *testing.T, dash *stubDashboard) RouterConfig {
	t.Helper()
	logger := logging.NewNopLogger()
	return RouterConfig{
		HealthHandler:     handlers.NewHealthHandler("test", nil, logger),
		SessionHandler:    handlers.NewSessionHandler(nil),
		CatalogHandler:    handlers.NewCatalogHandler(nil, logger),
		DashboardHandler:  handlers.NewDashboardHandler(dash, dash, nil, logger),
		BlockerHandler:    handlers.NewBlockerHandler(nil, logger),
		EscalationHandler: handlers.NewEscalationHandler(nil, logger),
		CommentHandler:    handlers.NewCommentHandler(nil, logger),
		Auth:              auth.NewMiddleware(stubVerifier{}, logger),
		Enforcer:          auth.NewEnforcer(nil, logger),
		Logging:           middleware.DefaultLoggingConfig(),
		Logger:            logger,
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		}),
	}
}

func do(h http.Handler, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestNewRouter_PublicEndpoints(t *testing.T) {
	router := NewRouter(testConfig(t, &stubDashboard{}))

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/readyz", "").Code)

	w := do(router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "# metrics", w.Body.String())
}

func TestNewRouter_APIRequiresToken(t *testing.T) {
	router := NewRouter(testConfig(t, &stubDashboard{}))

	w := do(router, http.MethodGet, "/api/v1/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))

	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/api/v1/me", "root").Code)

	w = do(router, http.MethodGet, "/api/v1/me", "viewer")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"u-viewer"`)
}

func TestNewRouter_RefreshNeedsEditor(t *testing.T) {
	dash := &stubDashboard{}
	router := NewRouter(testConfig(t, dash))

	assert.Equal(t, http.StatusForbidden, do(router, http.MethodPost, "/api/v1/dashboard/refresh", "viewer").Code)
	assert.Zero(t, dash.refreshed)

	assert.Equal(t, http.StatusOK, do(router, http.MethodPost, "/api/v1/dashboard/refresh", "editor").Code)
	assert.Equal(t, 1, dash.refreshed)
}

func TestNewRouter_RateLimitsAPI(t *testing.T) {
	cfg := testConfig(t, &stubDashboard{})
	limiter := middleware.NewTokenBucketLimiter(0.001, 1, 0)
	defer limiter.Stop()
	cfg.RateLimiter = limiter
	router := NewRouter(cfg)

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/api/v1/me", "viewer").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(router, http.MethodGet, "/api/v1/me", "viewer").Code)

	// Other users have their own bucket; health is never limited.
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/api/v1/me", "editor").Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/healthz", "").Code)
}

func TestNewRouter_RoutesRegistered(t *testing.T) {
	router := NewRouter(testConfig(t, &stubDashboard{}))

	var got []string
	err := chi.Walk(router.(chi.Routes), func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		got = append(got, method+" "+route)
		return nil
	})
	require.NoError(t, err)
	sort.Strings(got)

	want := []string{
		"GET /api/v1/me",
		"GET /api/v1/markets",
		"POST /api/v1/markets/import",
		"POST /api/v1/markets/bulk-delete",
		"GET /api/v1/markets/{id}/ancestors",
		"GET /api/v1/markets/{id}/cities",
		"GET /api/v1/products",
		"POST /api/v1/products",
		"GET /api/v1/products/{id}",
		"PUT /api/v1/products/{id}",
		"GET /api/v1/products/{id}/blocker-summary",
		"GET /api/v1/coverage",
		"PUT /api/v1/coverage",
		"GET /api/v1/dashboard/heatmap",
		"POST /api/v1/dashboard/refresh",
		"GET /api/v1/radar",
		"GET /api/v1/snapshots",
		"POST /api/v1/snapshots",
		"GET /api/v1/blockers",
		"POST /api/v1/blockers",
		"PATCH /api/v1/blockers",
		"POST /api/v1/blockers/{id}/resolve",
		"GET /api/v1/escalations",
		"POST /api/v1/escalations",
		"GET /api/v1/escalations/{id}",
		"POST /api/v1/escalations/{id}/status",
		"GET /api/v1/escalations/{id}/history",
		"GET /api/v1/comments",
		"POST /api/v1/comments",
		"GET /api/v1/comments/{id}",
		"POST /api/v1/comments/{id}/answer",
	}
	for _, route := range want {
		assert.Contains(t, got, route)
	}
}

func TestNewRouter_NilHandlers(t *testing.T) {
	router := NewRouter(RouterConfig{})

	assert.Equal(t, http.StatusNotFound, do(router, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusNotFound, do(router, http.MethodGet, "/api/v1/blockers", "").Code)
}
