package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/swiaape-api/internal/dto"
	"github.com/noah-isme/swiaape-api/internal/models"
	appErrors "github.com/noah-isme/swiaape-api/pkg/errors"
)

type userDirectoryRepository interface {
	ListAll(ctx context.Context) ([]models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type dashboardInvalidator interface {
	Invalidate(ctx context.Context)
}

// UserDirectoryService manages accounts from the admin panel.
type UserDirectoryService struct {
	repo      userDirectoryRepository
	dashboard dashboardInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserDirectoryService constructs a UserDirectoryService.
func NewUserDirectoryService(repo userDirectoryRepository, dashboard dashboardInvalidator, validate *validator.Validate, logger *zap.Logger) *UserDirectoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserDirectoryService{repo: repo, dashboard: dashboard, validator: validate, logger: logger}
}

// FilterUsers keeps users whose name or email contains the search text
// (case-insensitive) and whose role and status match. Empty criteria and
// "all" match everything.
func FilterUsers(users []models.User, filter models.UserFilter) []models.User {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if search != "" &&
			!strings.Contains(strings.ToLower(u.FullName), search) &&
			!strings.Contains(strings.ToLower(u.Email), search) {
			continue
		}
		if !matchesFilter(filter.Role, string(u.Role)) || !matchesFilter(filter.Status, string(u.Status)) {
			continue
		}
		out = append(out, u)
	}
	return out
}

func matchesFilter(want, got string) bool {
	return want == "" || want == models.FilterAll || want == got
}

// List returns the filtered directory.
func (s *UserDirectoryService) List(ctx context.Context, query dto.UserListQuery) ([]models.User, error) {
	users, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return FilterUsers(users, models.UserFilter{Search: query.Search, Role: query.Role, Status: query.Status}), nil
}

// Add creates a Pending account with a hashed temporary password.
func (s *UserDirectoryService) Add(ctx context.Context, req dto.CreateUserRequest, actorID string, meta models.RequestMeta) (*models.User, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Role = strings.TrimSpace(req.Role)
	if req.FullName == "" || req.Email == "" || req.Role == "" || req.TempPassword == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "please fill in all fields")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}
	if err := s.ensureEmailFree(ctx, req.Email, ""); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.TempPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         models.UserRole(req.Role),
		Status:       models.UserStatusPending,
	}
	if user.Role == models.RoleTeacher {
		user.Courses = []string{}
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.changed(ctx, actorID, models.AuditActionUserCreate, user.ID, nil, user, meta)
	return user, nil
}

// Update edits an account. Only teachers keep a course list.
func (s *UserDirectoryService) Update(ctx context.Context, id string, req dto.UpdateUserRequest, actorID string, meta models.RequestMeta) (*models.User, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}

	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(user.Email, req.Email) {
		if err := s.ensureEmailFree(ctx, req.Email, user.ID); err != nil {
			return nil, err
		}
	}

	before := *user
	user.FullName = req.FullName
	user.Email = req.Email
	user.Role = models.UserRole(req.Role)
	user.Courses = nil
	if user.Role == models.RoleTeacher {
		user.Courses = append([]string{}, req.Courses...)
	}
	if err := s.persist(ctx, user); err != nil {
		return nil, err
	}

	s.changed(ctx, actorID, models.AuditActionUserUpdate, user.ID, before, user, meta)
	return user, nil
}

// ToggleStatus flips Active and Inactive. Pending accounts are returned unchanged.
func (s *UserDirectoryService) ToggleStatus(ctx context.Context, id, actorID string, meta models.RequestMeta) (*models.User, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	before := user.Status
	switch user.Status {
	case models.UserStatusActive:
		user.Status = models.UserStatusInactive
	case models.UserStatusInactive:
		user.Status = models.UserStatusActive
	default:
		return user, nil
	}
	if err := s.persist(ctx, user); err != nil {
		return nil, err
	}

	s.changed(ctx, actorID, models.AuditActionUserToggle, user.ID,
		map[string]models.UserStatus{"status": before},
		map[string]models.UserStatus{"status": user.Status}, meta)
	return user, nil
}

// Delete removes an account once the admin has confirmed it.
func (s *UserDirectoryService) Delete(ctx context.Context, id string, confirmed bool, actorID string, meta models.RequestMeta) error {
	if !confirmed {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "confirm the deletion to continue")
	}
	user, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}

	s.changed(ctx, actorID, models.AuditActionUserDelete, user.ID, user, nil, meta)
	return nil
}

func (s *UserDirectoryService) find(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

func (s *UserDirectoryService) persist(ctx context.Context, user *models.User) error {
	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	return nil
}

func (s *UserDirectoryService) ensureEmailFree(ctx context.Context, email, exceptID string) error {
	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.ID != exceptID {
			return appErrors.Clone(appErrors.ErrConflict, "email is already registered")
		}
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return nil
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
}

func (s *UserDirectoryService) changed(ctx context.Context, actorID, action, userID string, oldValues, newValues interface{}, meta models.RequestMeta) {
	if s.dashboard != nil {
		s.dashboard.Invalidate(ctx)
	}

	entry := &models.AuditLog{
		Action:     action,
		Resource:   "user",
		ResourceID: &userID,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if oldValues != nil {
		entry.OldValues, _ = json.Marshal(oldValues)
	}
	if newValues != nil {
		entry.NewValues, _ = json.Marshal(newValues)
	}
	if err := s.repo.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record user audit log", zap.String("action", action), zap.Error(err))
	}
}
