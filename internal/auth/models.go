package auth

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleFaculty     = "faculty"
	RoleMember      = "member"
	RoleStudent     = "student"
	RoleCoordinator = "coordinator"
	RoleAdmin       = "admin"
)

// Roles lists every role a user may hold.
var Roles = []string{RoleFaculty, RoleMember, RoleStudent, RoleCoordinator, RoleAdmin}

// ValidRole reports whether role is one of Roles.
func ValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

type User struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Name       string               `bson:"name" json:"name"`
	Email      string               `bson:"email" json:"email"`
	Password   string               `bson:"password" json:"-"`
	Role       string               `bson:"role" json:"role"`
	Clubs      []primitive.ObjectID `bson:"clubs" json:"clubs"`
	Department string               `bson:"department,omitempty" json:"department,omitempty"`
	Interests  string               `bson:"interests,omitempty" json:"interests,omitempty"` // comma separated
	CreatedAt  time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// UserSummary is the populated shape of a user reference.
type UserSummary struct {
	ID    primitive.ObjectID `bson:"_id" json:"_id"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email" json:"email"`
	Role  string             `bson:"role" json:"role"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// ClubSummary is what login and profile responses carry for each club.
type ClubSummary struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	ImageURL    string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
}

// Profile is the user object returned by login, register and profile.
type Profile struct {
	ID         primitive.ObjectID `json:"id"`
	Name       string             `json:"name"`
	Email      string             `json:"email"`
	Role       string             `json:"role"`
	Department string             `json:"department,omitempty"`
	Interests  string             `json:"interests,omitempty"`
	Clubs      []ClubSummary      `json:"clubs"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=faculty member student coordinator"`
}

type Credential struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Department string `json:"department" validate:"max=100"`
	Interests  string `json:"interests" validate:"max=500"`
}

type AuthResponse struct {
	Token string  `json:"token"`
	User  Profile `json:"user"`
}

// Caller is the authenticated principal a service acts on behalf of.
type Caller struct {
	ID   primitive.ObjectID
	Role string
}

func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }
