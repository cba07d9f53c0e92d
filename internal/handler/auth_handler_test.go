package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/swiaape-api/internal/models"
	"github.com/noah-isme/swiaape-api/internal/navigation"
	appErrors "github.com/noah-isme/swiaape-api/pkg/errors"
)

type fakeAuth struct {
	router       *navigation.Router
	recoveryErr  error
	resetErr     error
	lastRecovery models.PasswordRecoveryRequest
	lastReset    models.PasswordResetRequest
	lastToken    string
	logouts      int
}

func (f *fakeAuth) Logout(_ context.Context, session *models.Session, _ models.RequestMeta) {
	f.logouts++
	f.router.Logout(session)
}

func (f *fakeAuth) RequestPasswordReset(_ context.Context, req models.PasswordRecoveryRequest) error {
	f.lastRecovery = req
	return f.recoveryErr
}

func (f *fakeAuth) DemoReset(session *models.Session) error {
	return f.router.ShowReset(session, "demo-token-123", false)
}

func (f *fakeAuth) OpenResetLink(session *models.Session, token string) error {
	f.lastToken = token
	if token == "" {
		return appErrors.Clone(appErrors.ErrValidation, "reset link is invalid or expired")
	}
	return f.router.ShowReset(session, token, true)
}

func (f *fakeAuth) ResetPassword(_ context.Context, session *models.Session, req models.PasswordResetRequest, _ models.RequestMeta) error {
	f.lastReset = req
	if f.resetErr != nil {
		return f.resetErr
	}
	return f.router.ResetCompleted(session)
}

func newAuthHandler() (*AuthHandler, *fakeAuth) {
	router := navigation.NewRouter()
	svc := &fakeAuth{router: router}
	return NewAuthHandler(svc, router), svc
}

func TestMe(t *testing.T) {
	h, _ := newAuthHandler()

	c, rec := newContext(http.MethodGet, "/auth/me", "", anonymousSession())
	h.Me(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c, rec = newContext(http.MethodGet, "/auth/me", "", signedInSession(models.RoleAdmin))
	h.Me(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	var identity models.Identity
	decodeData(t, rec, &identity)
	assert.Equal(t, models.RoleAdmin, identity.Role)
}

func TestLogoutRendersLanding(t *testing.T) {
	h, svc := newAuthHandler()
	session := signedInSession(models.RoleTeacher)
	session.View = models.ViewTeacher

	c, rec := newContext(http.MethodPost, "/auth/logout", "", session)
	h.Logout(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.logouts)
	assert.False(t, session.IsAuthenticated())
	var screen navigation.Screen
	decodeData(t, rec, &screen)
	assert.Equal(t, models.ViewLanding, screen.View)
}

func TestRequestRecoveryAcknowledges(t *testing.T) {
	h, svc := newAuthHandler()

	c, rec := newContext(http.MethodPost, "/auth/password-recovery", `{"email":"ana@swiaape.edu.pe"}`, anonymousSession())
	h.RequestRecovery(c)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "ana@swiaape.edu.pe", svc.lastRecovery.Email)

	svc.recoveryErr = appErrors.Clone(appErrors.ErrValidation, "must use institutional email")
	c, rec = newContext(http.MethodPost, "/auth/password-recovery", `{"email":"ana@gmail.com"}`, anonymousSession())
	h.RequestRecovery(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "must use institutional email", decode(t, rec).Error.Message)
}

func TestDemoResetThenReset(t *testing.T) {
	h, svc := newAuthHandler()
	session := anonymousSession()
	session.View = models.ViewPasswordRecovery

	c, rec := newContext(http.MethodPost, "/auth/password-recovery/demo", "", session)
	h.DemoReset(c)
	require.Equal(t, http.StatusOK, rec.Code)
	var screen navigation.Screen
	decodeData(t, rec, &screen)
	assert.Equal(t, models.ViewPasswordReset, screen.View)
	assert.True(t, screen.ResetPending)

	c, rec = newContext(http.MethodPost, "/auth/password-reset", `{"password":"Secret#123","confirm_password":"Secret#123"}`, session)
	h.ResetPassword(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Secret#123", svc.lastReset.ConfirmPassword)
	assert.Equal(t, models.ViewLanding, session.View)
}

func TestOpenResetLink(t *testing.T) {
	h, svc := newAuthHandler()

	c, rec := newContext(http.MethodGet, "/auth/password-reset?token=abc.def", "", anonymousSession())
	h.OpenResetLink(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc.def", svc.lastToken)

	c, rec = newContext(http.MethodGet, "/auth/password-reset", "", anonymousSession())
	h.OpenResetLink(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
