package announcement

import (
	"time"

	"CampusEvents/internal/auth"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	PriorityNormal    = "Normal"
	PriorityImportant = "Important"
	PriorityCritical  = "Critical"
)

// rank orders priorities for sorting; higher wins.
func rank(priority string) int {
	switch priority {
	case PriorityCritical:
		return 2
	case PriorityImportant:
		return 1
	}
	return 0
}

type Announcement struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Message     string             `bson:"message" json:"message"`
	Priority    string             `bson:"priority" json:"priority"`
	Rank        int                `bson:"rank" json:"-"`
	PublishDate time.Time          `bson:"publishDate" json:"publishDate"`
	ExpiryDate  *time.Time         `bson:"expiryDate" json:"expiryDate"` // TTL; nil never expires
	Notify      bool               `bson:"notify" json:"notify"`
	NotifiedAt  *time.Time         `bson:"notifiedAt,omitempty" json:"notifiedAt,omitempty"`
	CreatedBy   primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ActiveAt reports whether a is published and unexpired at now.
func (a *Announcement) ActiveAt(now time.Time) bool {
	return !a.PublishDate.After(now) && (a.ExpiryDate == nil || a.ExpiryDate.After(now))
}

// View carries the author's summary in place of the id.
type View struct {
	Announcement `bson:",inline"`
	Author       *auth.UserSummary `bson:"author,omitempty" json:"createdBy,omitempty"`
}

type CreateRequest struct {
	Message     string     `json:"message" validate:"required,max=2000"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=Normal Important Critical"`
	PublishDate *time.Time `json:"publishDate"`
	ExpiryDate  *time.Time `json:"expiryDate"`
	Notify      bool       `json:"notify"`
}

// UpdateRequest replaces the fields present. ClearExpiry removes the
// expiry date.
type UpdateRequest struct {
	Message     *string    `json:"message" validate:"omitempty,min=1,max=2000"`
	Priority    *string    `json:"priority" validate:"omitempty,oneof=Normal Important Critical"`
	PublishDate *time.Time `json:"publishDate"`
	ExpiryDate  *time.Time `json:"expiryDate"`
	ClearExpiry bool       `json:"clearExpiry"`
	Notify      *bool      `json:"notify"`
}
