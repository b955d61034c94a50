package user

import "CampusEvents/internal/auth"

type CreateUserRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	Role       string `json:"role" validate:"required,oneof=faculty member student coordinator admin"`
	Department string `json:"department" validate:"max=100"`
	Interests  string `json:"interests" validate:"max=500"`
}

// UpdateUserRequest changes only the fields present. An empty password
// keeps the current one.
type UpdateUserRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=1,max=100"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Password   *string `json:"password" validate:"omitempty,min=6"`
	Role       *string `json:"role" validate:"omitempty,oneof=faculty member student coordinator admin"`
	Department *string `json:"department" validate:"omitempty,max=100"`
	Interests  *string `json:"interests" validate:"omitempty,max=500"`
}

type RoleRequest struct {
	Role string `json:"role"`
}

// Page is one page of the admin user listing.
type Page struct {
	Users []*auth.User `json:"users"`
	Total int64        `json:"total"`
	Page  int64        `json:"page"`
	Pages int64        `json:"pages"`
}
