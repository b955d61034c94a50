package club

import (
	"time"

	"CampusEvents/internal/auth"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultImageURL = "https://images.unsplash.com/photo-1511632765486-a01980e01a18?w=600&h=400&fit=crop"

type Club struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Name         string               `bson:"name" json:"name"`
	Description  string               `bson:"description" json:"description"`
	ImageURL     string               `bson:"imageUrl" json:"imageUrl"`
	Coordinators []primitive.ObjectID `bson:"coordinators" json:"coordinators"`
	Members      []primitive.ObjectID `bson:"members" json:"members"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt" json:"updatedAt"`
}

func contains(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (c *Club) HasCoordinator(userID primitive.ObjectID) bool {
	return contains(c.Coordinators, userID)
}

func (c *Club) HasMember(userID primitive.ObjectID) bool {
	return contains(c.Members, userID)
}

// CanManage reports whether caller may edit the club or its members.
func (c *Club) CanManage(caller auth.Caller) bool {
	return caller.IsAdmin() || c.HasCoordinator(caller.ID)
}

// ClubDetail is a club with coordinators and members populated.
type ClubDetail struct {
	ID           primitive.ObjectID `bson:"_id" json:"_id"`
	Name         string             `bson:"name" json:"name"`
	Description  string             `bson:"description" json:"description"`
	ImageURL     string             `bson:"imageUrl" json:"imageUrl"`
	Coordinators []auth.UserSummary `bson:"coordinators" json:"coordinators"`
	Members      []auth.UserSummary `bson:"members" json:"members"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type CreateClubRequest struct {
	Name          string `json:"name" validate:"required,max=100"`
	Description   string `json:"description" validate:"required,max=2000"`
	ImageURL      string `json:"imageUrl" validate:"omitempty,max=500"`
	CoordinatorID string `json:"coordinatorId" validate:"omitempty,len=24,hexadecimal"`
}

type UpdateClubRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	ImageURL    *string `json:"imageUrl" validate:"omitempty,max=500"`
}

type CoordinatorRequest struct {
	CoordinatorID string `json:"coordinatorId" validate:"required,len=24,hexadecimal"`
}

type MemberRequest struct {
	UserID string `json:"userId" validate:"required,len=24,hexadecimal"`
}
