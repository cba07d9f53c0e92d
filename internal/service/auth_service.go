package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	netmail "net/mail"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/swiaape-api/internal/models"
	"github.com/noah-isme/swiaape-api/internal/navigation"
	appErrors "github.com/noah-isme/swiaape-api/pkg/errors"
	"github.com/noah-isme/swiaape-api/pkg/mail"
)

// DemoResetToken is the token used by the demo reset shortcut. It never
// reaches the token store.
const DemoResetToken = "demo-token-123"

const minPasswordLength = 8

var passwordClasses = []*regexp.Regexp{
	regexp.MustCompile(`[a-z]`),
	regexp.MustCompile(`[A-Z]`),
	regexp.MustCompile(`\d`),
	regexp.MustCompile(`[@$!%*?&]`),
}

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateLastAccess(ctx context.Context, id string, ts time.Time) error
	CreateResetToken(ctx context.Context, token *models.PasswordResetToken) error
	FindResetToken(ctx context.Context, id string) (*models.PasswordResetToken, error)
	ConsumeResetToken(ctx context.Context, tokenID, userID, passwordHash string, at time.Time) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	InstitutionalDomain string
	ResetSecret         string
	ResetTTL            time.Duration
	ResetBaseURL        string
	EnableDemoReset     bool
}

// AuthService verifies credentials and runs the password recovery flow.
type AuthService struct {
	repo      authUserRepository
	mailer    mail.Sender
	router    *navigation.Router
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, mailer mail.Sender, router *navigation.Router, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if mailer == nil {
		mailer = mail.NewLogSender(logger)
	}
	if router == nil {
		router = navigation.NewRouter()
	}
	if config.ResetTTL <= 0 {
		config.ResetTTL = time.Hour
	}
	config.InstitutionalDomain = strings.ToLower(strings.TrimPrefix(config.InstitutionalDomain, "@"))
	return &AuthService{repo: repo, mailer: mailer, router: router, validator: validate, logger: logger, config: config, now: time.Now}
}

// IsInstitutional reports whether email mentions the institutional domain.
// It is a form check only; the account lookup decides the rest.
func (s *AuthService) IsInstitutional(email string) bool {
	return strings.Contains(strings.ToLower(strings.TrimSpace(email)), "@"+s.config.InstitutionalDomain)
}

// Authenticate checks credentials against the user store and records the login.
func (s *AuthService) Authenticate(ctx context.Context, email, password string, meta models.RequestMeta) (*models.User, error) {
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if user.Status == models.UserStatusInactive {
		return nil, appErrors.ErrInactiveAccount
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.repo.UpdateLastAccess(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to update last access", zap.Error(err))
	}
	user.LastAccess = &now

	s.audit(ctx, &user.ID, models.AuditActionLogin, "auth", user.ID, []byte(`{"status":"success"}`), meta)
	return user, nil
}

// Logout signs the session out and returns it to landing.
func (s *AuthService) Logout(ctx context.Context, session *models.Session, meta models.RequestMeta) {
	if session.IsAuthenticated() {
		userID := session.Identity.ID
		s.audit(ctx, &userID, models.AuditActionLogout, "auth", userID, nil, meta)
	}
	s.router.Logout(session)
}

// RequestPasswordReset mails a single-use reset link when the account
// exists. The caller cannot tell whether it did.
func (s *AuthService) RequestPasswordReset(ctx context.Context, req models.PasswordRecoveryRequest) error {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return appErrors.Clone(appErrors.ErrValidation, "please enter your email")
	}
	if !s.IsInstitutional(email) {
		return appErrors.Clone(appErrors.ErrValidation, "must use institutional email")
	}
	req.Email = email
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "please enter a valid email")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Info("password reset requested for unknown account")
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "could not send the link, try again")
	}
	if user.Status == models.UserStatusInactive {
		s.logger.Info("password reset requested for inactive account", zap.String("user_id", user.ID))
		return nil
	}

	signed, err := s.issueResetToken(ctx, user)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "could not send the link, try again")
	}

	link := s.config.ResetBaseURL + "?token=" + url.QueryEscape(signed)
	msg := mail.Message{
		To:      netmail.Address{Name: user.FullName, Address: user.Email},
		Subject: "Password recovery",
		Text:    fmt.Sprintf("Hello %s,\n\nUse this link to choose a new password. It expires in %s.\n\n%s\n", user.FullName, s.config.ResetTTL, link),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return appErrors.Wrap(err, appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, "could not send the link, try again")
	}
	return nil
}

// DemoReset jumps from the recovery form straight to the reset form.
func (s *AuthService) DemoReset(session *models.Session) error {
	if !s.config.EnableDemoReset {
		return appErrors.Clone(appErrors.ErrForbidden, "demo reset is disabled")
	}
	if err := s.router.ShowReset(session, DemoResetToken, false); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInvalidTransition.Code, appErrors.ErrInvalidTransition.Status, "open the recovery form first")
	}
	return nil
}

// OpenResetLink verifies an emailed token and opens the reset form.
func (s *AuthService) OpenResetLink(session *models.Session, token string) error {
	if _, err := s.parseResetToken(token); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "reset link is invalid or expired")
	}
	if err := s.router.ShowReset(session, token, true); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInvalidTransition.Code, appErrors.ErrInvalidTransition.Status, "sign out before resetting a password")
	}
	return nil
}

// ResetPassword sets a new password with the session's reset token and
// returns to landing.
func (s *AuthService) ResetPassword(ctx context.Context, session *models.Session, req models.PasswordResetRequest, meta models.RequestMeta) error {
	if err := s.router.Require(session, models.ViewPasswordReset); err != nil {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "open the reset link first")
	}
	token := session.ResetToken
	if req.Token != "" && req.Token != token {
		return appErrors.Clone(appErrors.ErrValidation, "reset link is invalid or expired")
	}
	if err := ValidateNewPassword(req.Password, req.ConfirmPassword); err != nil {
		return err
	}

	if token == DemoResetToken && s.config.EnableDemoReset {
		return s.completeReset(session)
	}

	claims, err := s.parseResetToken(token)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "reset link is invalid or expired")
	}

	now := s.now().UTC()
	stored, err := s.repo.FindResetToken(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "reset link is invalid or expired")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "could not update the password, try again")
	}
	if stored.UsedAt != nil || !stored.ExpiresAt.After(now) || stored.UserID != claims.UserID {
		return appErrors.Clone(appErrors.ErrValidation, "reset link is invalid or expired")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "could not update the password, try again")
	}
	if err := s.repo.ConsumeResetToken(ctx, stored.ID, stored.UserID, string(hash), now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "reset link is invalid or expired")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "could not update the password, try again")
	}

	userID := stored.UserID
	s.audit(ctx, &userID, models.AuditActionPasswordReset, "auth", userID, nil, meta)
	return s.completeReset(session)
}

func (s *AuthService) completeReset(session *models.Session) error {
	if err := s.router.ResetCompleted(session); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInvalidTransition.Code, appErrors.ErrInvalidTransition.Status, "open the reset link first")
	}
	return nil
}

// ValidateNewPassword applies the password rules of the reset form.
func ValidateNewPassword(password, confirm string) error {
	if password == "" || confirm == "" {
		return appErrors.Clone(appErrors.ErrValidation, "please fill in all fields")
	}
	if len(password) < minPasswordLength {
		return appErrors.Clone(appErrors.ErrValidation, "password must be at least 8 characters")
	}
	if password != confirm {
		return appErrors.Clone(appErrors.ErrValidation, "passwords do not match")
	}
	for _, class := range passwordClasses {
		if !class.MatchString(password) {
			return appErrors.Clone(appErrors.ErrValidation, "password must contain at least one upper case letter, one lower case letter, one digit and one special character")
		}
	}
	return nil
}

func (s *AuthService) issueResetToken(ctx context.Context, user *models.User) (string, error) {
	jti, err := randomTokenID()
	if err != nil {
		return "", err
	}
	now := s.now().UTC()
	expires := now.Add(s.config.ResetTTL)

	if err := s.repo.CreateResetToken(ctx, &models.PasswordResetToken{
		ID:        jti,
		UserID:    user.ID,
		ExpiresAt: expires,
		CreatedAt: now,
	}); err != nil {
		return "", err
	}

	claims := models.PasswordResetClaims{
		UserID:  user.ID,
		Purpose: models.PasswordResetPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.ResetSecret))
}

func (s *AuthService) parseResetToken(token string) (*models.PasswordResetClaims, error) {
	if token == "" {
		return nil, errors.New("empty reset token")
	}
	claims := &models.PasswordResetClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.config.ResetSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.Purpose != models.PasswordResetPurpose || claims.ID == "" {
		return nil, errors.New("not a password reset token")
	}
	return claims, nil
}

func (s *AuthService) audit(ctx context.Context, userID *string, action, resource, resourceID string, values []byte, meta models.RequestMeta) {
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     userID,
		Action:     action,
		Resource:   resource,
		ResourceID: &resourceID,
		NewValues:  values,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}

func randomTokenID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
