package navigation

import "github.com/noah-isme/swiaape-api/internal/models"

// RoleVariant is the navigation behaviour of a role that has a web view.
type RoleVariant interface {
	Role() models.UserRole
	// Home is the view the role lands on after login.
	Home() models.View
	// Allows reports whether the role may render view.
	Allows(view models.View) bool
}

type studentVariant struct{}

func (studentVariant) Role() models.UserRole { return models.RoleStudent }
func (studentVariant) Home() models.View     { return models.ViewStudentResults }
func (studentVariant) Allows(view models.View) bool {
	return isPublic(view)
}

type teacherVariant struct{}

func (teacherVariant) Role() models.UserRole { return models.RoleTeacher }
func (teacherVariant) Home() models.View     { return models.ViewTeacher }
func (teacherVariant) Allows(view models.View) bool {
	return view == models.ViewTeacher || isPublic(view)
}

type adminVariant struct{}

func (adminVariant) Role() models.UserRole { return models.RoleAdmin }
func (adminVariant) Home() models.View     { return models.ViewAdmin }
func (adminVariant) Allows(view models.View) bool {
	return view == models.ViewAdmin || isPublic(view)
}

var variants = map[models.UserRole]RoleVariant{
	models.RoleStudent: studentVariant{},
	models.RoleTeacher: teacherVariant{},
	models.RoleAdmin:   adminVariant{},
}

// VariantFor returns the variant for role. Roles without a web view report false.
func VariantFor(role models.UserRole) (RoleVariant, bool) {
	v, ok := variants[role]
	return v, ok
}

var publicViews = []models.View{
	models.ViewLanding,
	models.ViewStudentResults,
	models.ViewPasswordRecovery,
	models.ViewPasswordReset,
}

func isPublic(view models.View) bool {
	for _, v := range publicViews {
		if v == view {
			return true
		}
	}
	return false
}

// AllowedViews is the set of views reachable for the given authentication
// state and role.
func AllowedViews(authenticated bool, role models.UserRole) []models.View {
	views := append([]models.View(nil), publicViews...)
	if !authenticated {
		return views
	}
	variant, ok := VariantFor(role)
	if !ok {
		return views
	}
	if home := variant.Home(); !isPublic(home) {
		views = append(views, home)
	}
	return views
}
