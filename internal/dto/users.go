package dto

// UserListQuery filters the admin user directory.
type UserListQuery struct {
	Search string `form:"search"`
	Role   string `form:"role"`
	Status string `form:"status"`
}

// CreateUserRequest adds an account with a temporary password.
type CreateUserRequest struct {
	FullName     string `json:"full_name" validate:"required,max=120"`
	Email        string `json:"email" validate:"required,email"`
	Role         string `json:"role" validate:"required,oneof=student teacher admin ai"`
	TempPassword string `json:"temp_password" validate:"required"`
}

// UpdateUserRequest edits an account.
type UpdateUserRequest struct {
	FullName string   `json:"full_name" validate:"required,max=120"`
	Email    string   `json:"email" validate:"required,email"`
	Role     string   `json:"role" validate:"required,oneof=student teacher admin ai"`
	Courses  []string `json:"courses" validate:"omitempty,dive,required"`
}

// DeleteUserQuery confirms a deletion.
type DeleteUserQuery struct {
	Confirm bool `form:"confirm"`
}
