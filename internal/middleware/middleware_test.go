package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/swiaape-api/internal/models"
	"github.com/noah-isme/swiaape-api/internal/repository"
	"github.com/noah-isme/swiaape-api/internal/service"
	"github.com/noah-isme/swiaape-api/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newSessionService(t *testing.T) *service.SessionService {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })
	return service.NewSessionService(repository.NewSessionRepository(client), time.Hour, nil)
}

func sessionEngine(store *service.SessionService, handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(Session(store, SessionOptions{CookieName: "swiaape_session", TTL: time.Hour}, nil))
	r.POST("/touch", handlers...)
	return r
}

func TestSessionCreatesAndPersists(t *testing.T) {
	store := newSessionService(t)
	var seenLogID string
	r := sessionEngine(store, func(c *gin.Context) {
		session, ok := SessionFromContext(c)
		require.True(t, ok)
		session.Bump()
		seenLogID = c.GetString(logger.SessionIDKey)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/touch", nil))

	id := w.Header().Get(SessionHeader)
	require.NotEmpty(t, id)
	assert.Equal(t, id, seenLogID)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "swiaape_session="+id)

	saved, err := store.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), saved.Generation)

	req := httptest.NewRequest(http.MethodPost, "/touch", nil)
	req.AddCookie(&http.Cookie{Name: "swiaape_session", Value: id})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, id, w.Header().Get(SessionHeader))

	saved, err = store.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), saved.Generation)
}

func TestSessionDiscardSkipsSave(t *testing.T) {
	store := newSessionService(t)
	r := sessionEngine(store, func(c *gin.Context) {
		session, _ := SessionFromContext(c)
		session.Bump()
		if c.Query("stale") != "" {
			DiscardSession(c)
			c.Status(http.StatusConflict)
			return
		}
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/touch", nil))
	id := w.Header().Get(SessionHeader)

	req := httptest.NewRequest(http.MethodPost, "/touch?stale=1", nil)
	req.Header.Set(SessionHeader, id)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)

	saved, err := store.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, saved.ID)
	assert.Equal(t, uint64(1), saved.Generation)
}

func rbacEngine(identity *models.Identity, roles ...models.UserRole) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		session := models.NewSession("s1", time.Now())
		if identity != nil {
			session.SignIn(*identity)
		}
		c.Set(ContextSessionKey, session)
	})
	r.GET("/guarded", RequireRoles(roles...), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRequireRoles(t *testing.T) {
	cases := []struct {
		name     string
		identity *models.Identity
		want     int
	}{
		{name: "anonymous", want: http.StatusUnauthorized},
		{name: "wrong role", identity: &models.Identity{ID: "u1", Role: models.RoleAdmin}, want: http.StatusForbidden},
		{name: "allowed", identity: &models.Identity{ID: "u2", Role: models.RoleTeacher}, want: http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			rbacEngine(tc.identity, models.RoleTeacher).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/guarded", nil))
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

type recordingAudit struct {
	logs []*models.AuditLog
	err  error
}

func (r *recordingAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	r.logs = append(r.logs, log)
	return r.err
}

func TestAuditRecordsSuccessfulRequests(t *testing.T) {
	repo := &recordingAudit{}
	r := gin.New()
	r.Use(func(c *gin.Context) {
		session := models.NewSession("s1", time.Now())
		session.SignIn(models.Identity{ID: "teacher-1", Role: models.RoleTeacher})
		c.Set(ContextSessionKey, session)
	})
	r.POST("/plans/:id/approve", Audit(repo, models.AuditActionPlanTransition, "study_plan", nil), func(c *gin.Context) {
		if c.Query("fail") != "" {
			c.Status(http.StatusConflict)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/plans/p1/approve", nil))
	require.Len(t, repo.logs, 1)
	assert.Equal(t, "teacher-1", *repo.logs[0].UserID)
	assert.Equal(t, "p1", *repo.logs[0].ResourceID)
	assert.Contains(t, string(repo.logs[0].NewValues), "/plans/:id/approve")

	repo.err = errors.New("db down")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/plans/p1/approve?fail=1", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Len(t, repo.logs, 1)
}

func TestMetricsLabelsUnmatchedRoutes(t *testing.T) {
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/wp-login.php", nil))

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)

	paths := map[string]bool{}
	for _, family := range families {
		if family.GetName() != "http_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "path" {
					paths[label.GetValue()] = true
				}
			}
		}
	}
	assert.True(t, paths["/health"])
	assert.True(t, paths[unmatchedRoute])
	assert.False(t, paths["/wp-login.php"])
}
