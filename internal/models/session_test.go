package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionSignInReplacesIdentityAndLoadedData(t *testing.T) {
	s := NewSession("s1", time.Now())
	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, ViewLanding, s.View)

	s.SignIn(Identity{ID: "t1", Role: RoleTeacher})
	s.Courses = []Course{{ID: "c1"}}
	s.Draft = &GradeDraft{CourseID: "c1"}

	s.SignIn(Identity{ID: "a1", Role: RoleAdmin})
	assert.True(t, s.HasRole(RoleAdmin))
	assert.False(t, s.HasRole(RoleTeacher))
	assert.Nil(t, s.Courses)
	assert.Nil(t, s.Draft)
}

func TestSessionSignOutClearsEverything(t *testing.T) {
	s := NewSession("s1", time.Now())
	s.SignIn(Identity{ID: "t1", Role: RoleTeacher})
	s.Student = &Student{ID: "st1"}
	s.ResetToken = "tok"

	s.SignOut()
	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.Student)
	assert.Empty(t, s.ResetToken)
}

func TestSessionClearTransientKeepsIdentity(t *testing.T) {
	s := NewSession("s1", time.Now())
	s.SignIn(Identity{ID: "t1", Role: RoleTeacher})
	s.Student = &Student{ID: "st1"}
	s.ResetToken = "tok"

	s.ClearTransient()
	assert.True(t, s.IsAuthenticated())
	assert.Nil(t, s.Student)
	assert.Empty(t, s.ResetToken)
}

func TestSessionBumpAndCourseLookup(t *testing.T) {
	s := NewSession("s1", time.Now())
	assert.Equal(t, uint64(1), s.Bump())
	assert.Equal(t, uint64(2), s.Bump())

	s.Courses = []Course{{ID: "c1", Name: "Matemática"}}
	c, ok := s.Course("c1")
	assert.True(t, ok)
	c.Name = "Ciencia"
	assert.Equal(t, "Ciencia", s.Courses[0].Name)
	_, ok = s.Course("missing")
	assert.False(t, ok)
}

func TestStudentWeaknesses(t *testing.T) {
	grade := func(g string) *string { return &g }
	s := Student{Evaluations: []Evaluation{
		{CompetencyName: "Resuelve problemas", Grade: grade(GradeBeginning)},
		{CompetencyName: "Lee textos", Grade: grade(GradeAchieved)},
		{CompetencyName: "Escribe textos", Grade: grade(GradeInProgress)},
		{CompetencyName: "Indaga", Grade: nil},
		{CompetencyName: "Explica", Grade: grade(GradeOutstanding)},
	}}

	weak := s.Weaknesses()
	assert.Len(t, weak, 2)
	assert.Equal(t, "Resuelve problemas", weak[0].CompetencyName)
	assert.Equal(t, "Escribe textos", weak[1].CompetencyName)
}
