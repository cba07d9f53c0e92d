package models

import (
	"time"

	"github.com/lib/pq"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
	// RoleAI marks service accounts used by automation. It has no web view.
	RoleAI UserRole = "ai"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin, RoleAI:
		return true
	}
	return false
}

// UserStatus is the lifecycle state of an account in the directory.
type UserStatus string

const (
	UserStatusActive   UserStatus = "Active"
	UserStatusInactive UserStatus = "Inactive"
	UserStatusPending  UserStatus = "Pending"
)

// User represents an application user stored in the users table.
type User struct {
	ID           string         `db:"id" json:"id"`
	Email        string         `db:"email" json:"email"`
	PasswordHash string         `db:"password_hash" json:"-"`
	FullName     string         `db:"full_name" json:"full_name"`
	Role         UserRole       `db:"role" json:"role"`
	Status       UserStatus     `db:"status" json:"status"`
	Courses      pq.StringArray `db:"courses" json:"courses"`
	LastAccess   *time.Time     `db:"last_access" json:"last_access"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// Identity returns the session view of the user.
func (u User) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email, Name: u.FullName, Role: u.Role}
}

// UserFilter captures the directory filter criteria. Empty fields and the
// value "all" match everything.
type UserFilter struct {
	Search string
	Role   string
	Status string
}

// FilterAll matches every value of a filter dimension.
const FilterAll = "all"
