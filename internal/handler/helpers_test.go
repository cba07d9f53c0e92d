package handler

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/swiaape-api/internal/middleware"
	"github.com/noah-isme/swiaape-api/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *testError             `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

type testError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// newContext builds a gin test context carrying session. params are
// key/value pairs for path parameters.
func newContext(method, target, body string, session *models.Session, params ...string) (*gin.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	if body != "" {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	if session != nil {
		c.Set(middleware.ContextSessionKey, session)
	}
	for i := 0; i+1 < len(params); i += 2 {
		c.Params = append(c.Params, gin.Param{Key: params[i], Value: params[i+1]})
	}
	return c, rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	var env testEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	env := decode(t, rec)
	require.NoError(t, json.Unmarshal(env.Data, dest))
}

func anonymousSession() *models.Session {
	return models.NewSession("sess-1", time.Date(2024, 5, 20, 8, 0, 0, 0, time.UTC))
}

func signedInSession(role models.UserRole) *models.Session {
	session := anonymousSession()
	session.SignIn(models.Identity{ID: "user-1", Email: "user@swiaape.edu.pe", Name: "User One", Role: role})
	return session
}
