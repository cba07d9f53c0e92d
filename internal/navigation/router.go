package navigation

import (
	"errors"
	"fmt"

	"github.com/noah-isme/swiaape-api/internal/models"
)

var (
	// ErrTransition is returned when an event does not apply to the current view.
	ErrTransition = errors.New("view transition not allowed")
	// ErrNoWebAccess is returned when a role has no web view.
	ErrNoWebAccess = errors.New("role has no web access")
	// ErrGuard is returned when the session does not satisfy a view's guard.
	ErrGuard = errors.New("view guard failed")
)

// Screen is what the client renders for a session.
type Screen struct {
	View         models.View      `json:"view"`
	Identity     *models.Identity `json:"identity,omitempty"`
	Student      *models.Student  `json:"student,omitempty"`
	Courses      []models.Course  `json:"courses,omitempty"`
	ResetPending bool             `json:"reset_pending"`
	AllowedViews []models.View    `json:"allowed_views"`
	Generation   uint64           `json:"generation"`
}

// Router drives the view state machine of a session. Every successful
// transition bumps the session generation.
type Router struct{}

// NewRouter constructs a Router.
func NewRouter() *Router {
	return &Router{}
}

// LoginSucceeded signs identity in and moves to the role's home view. A
// student identity needs its linked student record.
func (r *Router) LoginSucceeded(s *models.Session, identity models.Identity, student *models.Student) error {
	if s.View != models.ViewLanding {
		return fmt.Errorf("%w: login from %s", ErrTransition, s.View)
	}
	variant, ok := VariantFor(identity.Role)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoWebAccess, identity.Role)
	}
	if variant.Home() == models.ViewStudentResults && student == nil {
		return fmt.Errorf("%w: student identity without student record", ErrGuard)
	}

	s.SignIn(identity)
	if variant.Home() == models.ViewStudentResults {
		s.Student = student
	}
	r.move(s, variant.Home())
	return nil
}

// StudentFound shows the results of a national ID lookup.
func (r *Router) StudentFound(s *models.Session, student *models.Student) error {
	if s.View != models.ViewLanding {
		return fmt.Errorf("%w: lookup from %s", ErrTransition, s.View)
	}
	if student == nil {
		return fmt.Errorf("%w: nil student", ErrGuard)
	}
	s.Student = student
	r.move(s, models.ViewStudentResults)
	return nil
}

// ForgotPassword opens the recovery form.
func (r *Router) ForgotPassword(s *models.Session) error {
	if s.View != models.ViewLanding {
		return fmt.Errorf("%w: forgot-password from %s", ErrTransition, s.View)
	}
	r.move(s, models.ViewPasswordRecovery)
	return nil
}

// ShowReset opens the reset form with token. The demo shortcut only works
// from the recovery form; an emailed link may also be opened from landing.
func (r *Router) ShowReset(s *models.Session, token string, viaLink bool) error {
	switch {
	case s.View == models.ViewPasswordRecovery:
	case viaLink && s.View == models.ViewLanding:
	default:
		return fmt.Errorf("%w: reset from %s", ErrTransition, s.View)
	}
	if token == "" {
		return fmt.Errorf("%w: empty reset token", ErrGuard)
	}
	s.ResetToken = token
	r.move(s, models.ViewPasswordReset)
	return nil
}

// ResetCompleted returns to landing after a successful password reset.
func (r *Router) ResetCompleted(s *models.Session) error {
	if s.View != models.ViewPasswordReset {
		return fmt.Errorf("%w: reset completed from %s", ErrTransition, s.View)
	}
	s.ResetToken = ""
	r.move(s, models.ViewLanding)
	return nil
}

// Home returns an authenticated identity to its role's home view.
func (r *Router) Home(s *models.Session) error {
	if !s.IsAuthenticated() {
		return fmt.Errorf("%w: not signed in", ErrGuard)
	}
	variant, ok := VariantFor(s.Identity.Role)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoWebAccess, s.Identity.Role)
	}
	if !r.Allowed(s, variant.Home()) {
		return fmt.Errorf("%w: %s", ErrGuard, variant.Home())
	}
	r.move(s, variant.Home())
	return nil
}

// Logout clears the session unconditionally and returns to landing.
func (r *Router) Logout(s *models.Session) {
	s.SignOut()
	r.move(s, models.ViewLanding)
}

// Back returns to landing, dropping lookup and reset state only.
func (r *Router) Back(s *models.Session) {
	s.ClearTransient()
	r.move(s, models.ViewLanding)
}

// Allowed evaluates the guard of view for the session.
func (r *Router) Allowed(s *models.Session, view models.View) bool {
	switch view {
	case models.ViewLanding, models.ViewPasswordRecovery:
		return true
	case models.ViewStudentResults:
		return s.Student != nil
	case models.ViewPasswordReset:
		return s.ResetToken != ""
	case models.ViewTeacher, models.ViewAdmin:
		if !s.IsAuthenticated() {
			return false
		}
		variant, ok := VariantFor(s.Identity.Role)
		return ok && variant.Home() == view && variant.Allows(view)
	}
	return false
}

// Require fails with ErrGuard unless the session may use view.
func (r *Router) Require(s *models.Session, view models.View) error {
	if !r.Allowed(s, view) {
		return fmt.Errorf("%w: %s", ErrGuard, view)
	}
	return nil
}

// Render returns the screen for the current view. A view whose guard fails
// falls back to landing without an error.
func (r *Router) Render(s *models.Session) Screen {
	if !r.Allowed(s, s.View) {
		s.ClearTransient()
		r.move(s, models.ViewLanding)
	}

	var role models.UserRole
	if s.Identity != nil {
		role = s.Identity.Role
	}
	screen := Screen{
		View:         s.View,
		Identity:     s.Identity,
		ResetPending: s.ResetToken != "",
		AllowedViews: AllowedViews(s.IsAuthenticated(), role),
		Generation:   s.Generation,
	}
	switch s.View {
	case models.ViewStudentResults:
		screen.Student = s.Student
	case models.ViewTeacher:
		screen.Courses = s.Courses
	}
	return screen
}

func (r *Router) move(s *models.Session, view models.View) {
	s.View = view
	s.Bump()
}
