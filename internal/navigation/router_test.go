package navigation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/swiaape-api/internal/models"
)

func newSession() *models.Session {
	return models.NewSession("s1", time.Now())
}

func TestLoginDispatchesToRoleHome(t *testing.T) {
	r := NewRouter()

	teacher := newSession()
	require.NoError(t, r.LoginSucceeded(teacher, models.Identity{ID: "t1", Role: models.RoleTeacher}, nil))
	assert.Equal(t, models.ViewTeacher, teacher.View)
	assert.Equal(t, uint64(1), teacher.Generation)

	admin := newSession()
	require.NoError(t, r.LoginSucceeded(admin, models.Identity{ID: "a1", Role: models.RoleAdmin}, nil))
	assert.Equal(t, models.ViewAdmin, admin.View)

	student := newSession()
	require.NoError(t, r.LoginSucceeded(student, models.Identity{ID: "u1", Role: models.RoleStudent}, &models.Student{ID: "st1"}))
	assert.Equal(t, models.ViewStudentResults, student.View)
	assert.Equal(t, "st1", student.Student.ID)
}

func TestLoginRejectsRolesWithoutWebView(t *testing.T) {
	r := NewRouter()
	s := newSession()

	err := r.LoginSucceeded(s, models.Identity{ID: "bot", Role: models.RoleAI}, nil)
	assert.ErrorIs(t, err, ErrNoWebAccess)
	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, models.ViewLanding, s.View)
	assert.Zero(t, s.Generation)
}

func TestStudentLoginNeedsRecord(t *testing.T) {
	r := NewRouter()
	s := newSession()

	err := r.LoginSucceeded(s, models.Identity{ID: "u1", Role: models.RoleStudent}, nil)
	assert.ErrorIs(t, err, ErrGuard)
	assert.False(t, s.IsAuthenticated())
}

func TestLoginOnlyFromLanding(t *testing.T) {
	r := NewRouter()
	s := newSession()
	require.NoError(t, r.ForgotPassword(s))

	err := r.LoginSucceeded(s, models.Identity{ID: "t1", Role: models.RoleTeacher}, nil)
	assert.ErrorIs(t, err, ErrTransition)
}

func TestRenderFallsBackWhenRoleDoesNotMatchView(t *testing.T) {
	r := NewRouter()
	s := newSession()
	s.SignIn(models.Identity{ID: "a1", Role: models.RoleAdmin})
	s.View = models.ViewTeacher

	screen := r.Render(s)
	assert.Equal(t, models.ViewLanding, screen.View)
	assert.Equal(t, models.ViewLanding, s.View)
	assert.Nil(t, screen.Courses)
}

func TestRenderFallsBackWithoutStudent(t *testing.T) {
	r := NewRouter()
	s := newSession()
	s.View = models.ViewStudentResults

	screen := r.Render(s)
	assert.Equal(t, models.ViewLanding, screen.View)
}

func TestRenderTeacherScreen(t *testing.T) {
	r := NewRouter()
	s := newSession()
	require.NoError(t, r.LoginSucceeded(s, models.Identity{ID: "t1", Role: models.RoleTeacher}, nil))
	s.Courses = []models.Course{{ID: "c1"}}

	screen := r.Render(s)
	assert.Equal(t, models.ViewTeacher, screen.View)
	assert.Len(t, screen.Courses, 1)
	assert.Contains(t, screen.AllowedViews, models.ViewTeacher)
	assert.NotContains(t, screen.AllowedViews, models.ViewAdmin)
}

func TestLookupFlowAndBack(t *testing.T) {
	r := NewRouter()
	s := newSession()

	require.NoError(t, r.StudentFound(s, &models.Student{ID: "st1"}))
	assert.Equal(t, models.ViewStudentResults, s.View)

	err := r.StudentFound(s, &models.Student{ID: "st2"})
	assert.ErrorIs(t, err, ErrTransition)

	r.Back(s)
	assert.Equal(t, models.ViewLanding, s.View)
	assert.Nil(t, s.Student)
}

func TestBackKeepsIdentityAndHomeReturns(t *testing.T) {
	r := NewRouter()
	s := newSession()
	require.NoError(t, r.LoginSucceeded(s, models.Identity{ID: "t1", Role: models.RoleTeacher}, nil))

	r.Back(s)
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, models.ViewLanding, s.View)

	require.NoError(t, r.Home(s))
	assert.Equal(t, models.ViewTeacher, s.View)
}

func TestHomeRequiresIdentity(t *testing.T) {
	r := NewRouter()
	assert.ErrorIs(t, r.Home(newSession()), ErrGuard)
}

func TestLogoutClearsState(t *testing.T) {
	r := NewRouter()
	s := newSession()
	require.NoError(t, r.LoginSucceeded(s, models.Identity{ID: "t1", Role: models.RoleTeacher}, nil))
	s.Courses = []models.Course{{ID: "c1"}}
	s.Draft = &models.GradeDraft{CourseID: "c1"}
	before := s.Generation

	r.Logout(s)
	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.Courses)
	assert.Nil(t, s.Draft)
	assert.Equal(t, models.ViewLanding, s.View)
	assert.Greater(t, s.Generation, before)
}

func TestPasswordRecoveryFlow(t *testing.T) {
	r := NewRouter()
	s := newSession()

	err := r.ShowReset(s, "tok", false)
	assert.ErrorIs(t, err, ErrTransition)

	require.NoError(t, r.ForgotPassword(s))
	assert.ErrorIs(t, r.ShowReset(s, "", false), ErrGuard)
	require.NoError(t, r.ShowReset(s, "demo-token-123", false))
	assert.Equal(t, models.ViewPasswordReset, s.View)
	assert.True(t, r.Render(s).ResetPending)

	require.NoError(t, r.ResetCompleted(s))
	assert.Equal(t, models.ViewLanding, s.View)
	assert.Empty(t, s.ResetToken)
}

func TestResetLinkOpensFromLanding(t *testing.T) {
	r := NewRouter()
	s := newSession()

	require.NoError(t, r.ShowReset(s, "jwt", true))
	assert.Equal(t, models.ViewPasswordReset, s.View)
}

func TestRequire(t *testing.T) {
	r := NewRouter()
	s := newSession()
	s.SignIn(models.Identity{ID: "t1", Role: models.RoleTeacher})

	assert.NoError(t, r.Require(s, models.ViewTeacher))
	assert.ErrorIs(t, r.Require(s, models.ViewAdmin), ErrGuard)
}

func TestAllowedViews(t *testing.T) {
	anon := AllowedViews(false, "")
	assert.NotContains(t, anon, models.ViewTeacher)
	assert.NotContains(t, anon, models.ViewAdmin)
	assert.Contains(t, anon, models.ViewLanding)

	admin := AllowedViews(true, models.RoleAdmin)
	assert.Contains(t, admin, models.ViewAdmin)
	assert.NotContains(t, admin, models.ViewTeacher)

	ai := AllowedViews(true, models.RoleAI)
	assert.Equal(t, anon, ai)

	student := AllowedViews(true, models.RoleStudent)
	assert.Equal(t, anon, student)
}

func TestVariantsAllowOnlyTheirHome(t *testing.T) {
	for role, variant := range variants {
		assert.Equal(t, role, variant.Role())
		assert.True(t, variant.Allows(variant.Home()))
	}
	teacher, _ := VariantFor(models.RoleTeacher)
	assert.False(t, teacher.Allows(models.ViewAdmin))
	_, ok := VariantFor(models.RoleAI)
	assert.False(t, ok)
}
