package attendance

import (
	"time"

	"CampusEvents/internal/auth"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ODPending       = "pending"
	ODApproved      = "approved"
	ODRejected      = "rejected"
	ODNotApplicable = "not_applicable"
)

// ValidDecision reports whether status is a value a coordinator may set.
func ValidDecision(status string) bool {
	return status == ODApproved || status == ODRejected
}

// Attendance is created when a student registers for an event.
type Attendance struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Event       primitive.ObjectID  `bson:"event" json:"event"`
	Student     primitive.ObjectID  `bson:"student" json:"student"`
	Present     bool                `bson:"present" json:"present"`
	CheckedInAt *time.Time          `bson:"checkedInAt,omitempty" json:"checkedInAt,omitempty"`
	ODStatus    string              `bson:"odStatus" json:"odStatus"`
	ODDecidedBy *primitive.ObjectID `bson:"odDecidedBy,omitempty" json:"odDecidedBy,omitempty"`
	ODDecidedAt *time.Time          `bson:"odDecidedAt,omitempty" json:"odDecidedAt,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// EventInfo is the slice of an event document attendance logic reads.
type EventInfo struct {
	ID                primitive.ObjectID `bson:"_id" json:"_id"`
	Name              string             `bson:"name" json:"name"`
	Club              primitive.ObjectID `bson:"club" json:"club"`
	ClubName          string             `bson:"clubName,omitempty" json:"clubName,omitempty"`
	Status            string             `bson:"status" json:"-"`
	Venue             string             `bson:"venue" json:"venue,omitempty"`
	StartDateTime     time.Time          `bson:"startDateTime" json:"startDateTime"`
	EndDateTime       time.Time          `bson:"endDateTime" json:"endDateTime"`
	RequireODApproval bool               `bson:"requireODApproval" json:"-"`
}

// Record is an attendance row with its student and event populated.
type Record struct {
	Attendance `bson:",inline"`
	StudentRef *auth.UserSummary `bson:"studentRef,omitempty" json:"student,omitempty"`
	EventRef   *EventInfo        `bson:"eventRef,omitempty" json:"event,omitempty"`
}

type CheckInRequest struct {
	CheckInID string `json:"checkInId"`
}

type ODDecisionRequest struct {
	ODStatus string `json:"odStatus"`
}
