package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/swiaape-api/internal/models"
	"github.com/noah-isme/swiaape-api/internal/navigation"
	appErrors "github.com/noah-isme/swiaape-api/pkg/errors"
)

var nationalIDPattern = regexp.MustCompile(`^\d{8}$`)

type studentDirectory interface {
	FindByNationalID(ctx context.Context, nationalID string) (*models.Student, error)
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
}

type credentialChecker interface {
	IsInstitutional(email string) bool
	Authenticate(ctx context.Context, email, password string, meta models.RequestMeta) (*models.User, error)
}

type lookupQuota interface {
	Allow(ctx context.Context, sessionID string) bool
	Consume(ctx context.Context, sessionID string) bool
}

type staleGuard interface {
	EnsureCurrent(ctx context.Context, sessionID string, generation uint64) error
}

// LandingService backs the landing page: national ID lookup and credential login.
type LandingService struct {
	students studentDirectory
	auth     credentialChecker
	quota    lookupQuota
	guard    staleGuard
	router   *navigation.Router
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewLandingService constructs a LandingService.
func NewLandingService(students studentDirectory, auth credentialChecker, quota lookupQuota, guard staleGuard, router *navigation.Router, metrics *MetricsService, logger *zap.Logger) *LandingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if router == nil {
		router = navigation.NewRouter()
	}
	return &LandingService{students: students, auth: auth, quota: quota, guard: guard, router: router, metrics: metrics, logger: logger}
}

// Lookup finds a student by national ID and shows their results. The quota
// is checked before the input; only lookups that reach the store use it up.
func (s *LandingService) Lookup(ctx context.Context, session *models.Session, nationalID string) (*models.Student, error) {
	if !s.quota.Allow(ctx, session.ID) {
		s.metrics.RecordLookup(LookupRateLimited)
		return nil, appErrors.Clone(appErrors.ErrRateLimited, "too many lookups, please wait a few minutes")
	}

	nationalID = strings.TrimSpace(nationalID)
	if nationalID == "" {
		s.metrics.RecordLookup(LookupInvalid)
		return nil, appErrors.Clone(appErrors.ErrValidation, "please enter a valid national ID")
	}
	if !nationalIDPattern.MatchString(nationalID) {
		s.metrics.RecordLookup(LookupInvalid)
		return nil, appErrors.Clone(appErrors.ErrValidation, "national ID must contain 8 digits")
	}
	if session.View != models.ViewLanding {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "go back to the start page to search again")
	}

	if !s.quota.Consume(ctx, session.ID) {
		s.metrics.RecordLookup(LookupRateLimited)
		return nil, appErrors.Clone(appErrors.ErrRateLimited, "too many lookups, please wait a few minutes")
	}
	generation := session.Generation
	student, err := s.students.FindByNationalID(ctx, nationalID)
	if staleErr := s.guard.EnsureCurrent(ctx, session.ID, generation); staleErr != nil {
		return nil, staleErr
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordLookup(LookupNotFound)
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no records found for this national ID")
		}
		s.metrics.RecordLookup(LookupFailed)
		s.logger.Error("student lookup failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, "could not search right now, try again")
	}

	if err := s.router.StudentFound(session, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidTransition.Code, appErrors.ErrInvalidTransition.Status, "go back to the start page to search again")
	}
	s.metrics.RecordLookup(LookupFound)
	return student, nil
}

// Login validates the form locally, then authenticates and dispatches to
// the role's view. Every rejection past local validation is reported as
// invalid credentials.
func (s *LandingService) Login(ctx context.Context, session *models.Session, req models.LoginRequest, meta models.RequestMeta) (*models.Identity, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || strings.TrimSpace(req.Password) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "please fill in all fields")
	}
	if !s.auth.IsInstitutional(email) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "must use institutional email")
	}
	if session.View != models.ViewLanding {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "go back to the start page to sign in")
	}

	generation := session.Generation
	identity, student, err := s.authenticate(ctx, email, req.Password, meta)
	if staleErr := s.guard.EnsureCurrent(ctx, session.ID, generation); staleErr != nil {
		return nil, staleErr
	}
	if err != nil {
		s.metrics.RecordLogin(false)
		return nil, err
	}

	if err := s.router.LoginSucceeded(session, *identity, student); err != nil {
		s.metrics.RecordLogin(false)
		s.logger.Info("login rejected by router", zap.String("user_id", identity.ID), zap.Error(err))
		return nil, appErrors.ErrInvalidCredentials
	}
	s.metrics.RecordLogin(true)
	return identity, nil
}

func (s *LandingService) authenticate(ctx context.Context, email, password string, meta models.RequestMeta) (*models.Identity, *models.Student, error) {
	user, err := s.auth.Authenticate(ctx, email, password, meta)
	if err != nil {
		if !appErrors.HasCode(err, appErrors.ErrInvalidCredentials.Code) && !appErrors.HasCode(err, appErrors.ErrInactiveAccount.Code) {
			s.logger.Error("authentication failed", zap.Error(err))
		}
		return nil, nil, appErrors.ErrInvalidCredentials
	}

	identity := user.Identity()
	if identity.Role != models.RoleStudent {
		return &identity, nil, nil
	}

	student, err := s.students.FindByUserID(ctx, user.ID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Error("failed to load linked student", zap.String("user_id", user.ID), zap.Error(err))
		} else {
			s.logger.Warn("student account without student record", zap.String("user_id", user.ID))
		}
		return nil, nil, appErrors.ErrInvalidCredentials
	}
	return &identity, student, nil
}
