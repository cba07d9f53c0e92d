package models

import "time"

// View is a screen the client can render.
type View string

const (
	ViewLanding          View = "landing"
	ViewStudentResults   View = "student-results"
	ViewTeacher          View = "teacher"
	ViewAdmin            View = "admin"
	ViewPasswordRecovery View = "password-recovery"
	ViewPasswordReset    View = "password-reset"
)

// Session is the server-side state of one browser session.
type Session struct {
	ID         string      `json:"id"`
	View       View        `json:"view"`
	Generation uint64      `json:"generation"`
	Identity   *Identity   `json:"identity,omitempty"`
	Student    *Student    `json:"student,omitempty"`
	Courses    []Course    `json:"courses,omitempty"`
	Draft      *GradeDraft `json:"draft,omitempty"`
	ResetToken string      `json:"reset_token,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// NewSession returns an anonymous session on the landing view.
func NewSession(id string, now time.Time) *Session {
	return &Session{ID: id, View: ViewLanding, CreatedAt: now, UpdatedAt: now}
}

// IsAuthenticated reports whether an identity is signed in.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.Identity != nil
}

// HasRole reports whether the signed-in identity has role.
func (s *Session) HasRole(role UserRole) bool {
	return s.IsAuthenticated() && s.Identity.Role == role
}

// SignIn replaces the current identity and drops data loaded for the previous one.
func (s *Session) SignIn(identity Identity) {
	s.clearLoaded()
	s.Identity = &identity
}

// SignOut clears the identity and everything loaded on its behalf.
func (s *Session) SignOut() {
	s.clearLoaded()
	s.Identity = nil
}

// ClearTransient drops lookup and reset state but keeps the identity.
func (s *Session) ClearTransient() {
	s.Student = nil
	s.ResetToken = ""
}

// Bump advances the generation counter and returns the new value.
func (s *Session) Bump() uint64 {
	s.Generation++
	return s.Generation
}

// Course returns the loaded course with id.
func (s *Session) Course(id string) (*Course, bool) {
	for i := range s.Courses {
		if s.Courses[i].ID == id {
			return &s.Courses[i], true
		}
	}
	return nil, false
}

func (s *Session) clearLoaded() {
	s.Student = nil
	s.Courses = nil
	s.Draft = nil
	s.ResetToken = ""
}
