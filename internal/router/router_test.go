package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/swiaape-api/internal/handler"
	"github.com/noah-isme/swiaape-api/internal/repository"
	"github.com/noah-isme/swiaape-api/internal/service"
	"github.com/noah-isme/swiaape-api/pkg/config"
)

func newTestEngine(t *testing.T) http.Handler {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := &config.Config{
		Env:       config.EnvProduction,
		APIPrefix: "/api/v1",
		Session:   config.SessionConfig{CookieName: "swiaape_session", TTL: time.Hour},
	}
	metrics := service.NewMetricsService()
	return New(cfg, Dependencies{
		Sessions:          service.NewSessionService(repository.NewSessionRepository(client), time.Hour, nil),
		Metrics:           metrics,
		NavigationHandler: handler.NewNavigationHandler(nil),
		LandingHandler:    handler.NewLandingHandler(nil),
		AuthHandler:       handler.NewAuthHandler(nil, nil),
		TeacherHandler:    handler.NewTeacherHandler(nil),
		StudyPlanHandler:  handler.NewStudyPlanHandler(nil),
		ChatHandler:       handler.NewChatHandler(nil),
		UserHandler:       handler.NewUserHandler(nil),
		DashboardHandler:  handler.NewDashboardHandler(nil),
		MetricsHandler:    handler.NewMetricsHandler(metrics, nil),
	})
}

func TestViewIssuesSession(t *testing.T) {
	engine := newTestEngine(t)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/view", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Session-ID"))
	assert.Contains(t, rec.Body.String(), `"view":"landing"`)
}

func TestProtectedRoutesRequireSignIn(t *testing.T) {
	engine := newTestEngine(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/teacher/courses"},
		{http.MethodPost, "/api/v1/plans"},
		{http.MethodPost, "/api/v1/chat"},
		{http.MethodGet, "/api/v1/admin/users"},
		{http.MethodGet, "/api/v1/admin/dashboard"},
	} {
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, httptest.NewRequest(route.method, route.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, route.path)
	}
}

func TestOpsRoutes(t *testing.T) {
	engine := newTestEngine(t)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/docs/index.html", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
