package event

import (
	"time"

	"CampusEvents/internal/attendance"
	"CampusEvents/internal/auth"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// ValidDecision reports whether status is a value an approver may set.
func ValidDecision(status string) bool {
	return status == StatusApproved || status == StatusRejected
}

const (
	InteractionLike = "like"
	InteractionView = "view"
)

type ContactPerson struct {
	Name         string `bson:"name" json:"name" validate:"required"`
	Phone        string `bson:"phone" json:"phone" validate:"required"`
	Designation  string `bson:"designation,omitempty" json:"designation,omitempty"`
	WhatsappLink string `bson:"whatsappLink" json:"whatsappLink" validate:"required"`
}

type Reply struct {
	ID        primitive.ObjectID `bson:"_id" json:"_id"`
	Text      string             `bson:"text" json:"text"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

type Comment struct {
	ID        primitive.ObjectID `bson:"_id" json:"_id"`
	Text      string             `bson:"text" json:"text"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt *time.Time         `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
	Replies   []Reply            `bson:"replies" json:"replies"`
}

type Event struct {
	ID                   primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Club                 primitive.ObjectID   `bson:"club" json:"club"`
	CreatedBy            primitive.ObjectID   `bson:"createdBy" json:"createdBy"`
	Name                 string               `bson:"name" json:"name"`
	Description          string               `bson:"description" json:"description"`
	EventType            string               `bson:"eventType" json:"eventType"`
	EventCategory        string               `bson:"eventCategory" json:"eventCategory"`
	StartDateTime        time.Time            `bson:"startDateTime" json:"startDateTime"`
	EndDateTime          time.Time            `bson:"endDateTime" json:"endDateTime"`
	RegistrationDeadline *time.Time           `bson:"registrationDeadline,omitempty" json:"registrationDeadline,omitempty"`
	Venue                string               `bson:"venue" json:"venue"`
	Mode                 string               `bson:"mode" json:"mode"`
	RequiresFee          bool                 `bson:"requiresFee" json:"requiresFee"`
	FeeAmount            float64              `bson:"feeAmount,omitempty" json:"feeAmount,omitempty"`
	MaxParticipants      int                  `bson:"maxParticipants,omitempty" json:"maxParticipants,omitempty"` // team size
	TotalSeats           int                  `bson:"totalSeats,omitempty" json:"totalSeats,omitempty"`           // 0 is unlimited
	Eligibility          string               `bson:"eligibility,omitempty" json:"eligibility,omitempty"`
	RegistrationLink     string               `bson:"registrationLink,omitempty" json:"registrationLink,omitempty"`
	ContactPersons       []ContactPerson      `bson:"contactPersons" json:"contactPersons"`
	PosterImage          *primitive.ObjectID  `bson:"posterImage,omitempty" json:"posterImage,omitempty"`
	GalleryImages        []primitive.ObjectID `bson:"galleryImages,omitempty" json:"galleryImages,omitempty"`
	RequireODApproval    bool                 `bson:"requireODApproval" json:"requireODApproval"`
	ThemeColor           string               `bson:"themeColor" json:"themeColor"`
	Status               string               `bson:"status" json:"status"`
	CheckInID            string               `bson:"checkInId,omitempty" json:"checkInId,omitempty"`
	CheckInQRCode        string               `bson:"checkInQRCode,omitempty" json:"checkInQRCode,omitempty"`
	RegisteredStudents   []primitive.ObjectID `bson:"registeredStudents" json:"registeredStudents"`
	ViewsCount           int64                `bson:"viewsCount" json:"viewsCount"`
	LikesCount           int64                `bson:"likesCount" json:"likesCount"`
	Comments             []Comment            `bson:"comments" json:"comments"`
	CreatedAt            time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time            `bson:"updatedAt" json:"updatedAt"`
}

func (e *Event) IsRegistered(studentID primitive.ObjectID) bool {
	for _, id := range e.RegisteredStudents {
		if id == studentID {
			return true
		}
	}
	return false
}

// RemainingCapacity is nil for events without a seat limit.
func (e *Event) RemainingCapacity() *int {
	if e.TotalSeats <= 0 {
		return nil
	}
	left := e.TotalSeats - len(e.RegisteredStudents)
	if left < 0 {
		left = 0
	}
	return &left
}

func (e *Event) findComment(id primitive.ObjectID) *Comment {
	for i := range e.Comments {
		if e.Comments[i].ID == id {
			return &e.Comments[i]
		}
	}
	return nil
}

type ClubRef struct {
	ID   primitive.ObjectID `bson:"_id" json:"_id"`
	Name string             `bson:"name" json:"name"`
}

// View is an event with its club populated and per-caller fields.
type View struct {
	Event             `bson:",inline"`
	ClubRef           *ClubRef `bson:"clubRef,omitempty" json:"club,omitempty"`
	RemainingCapacity *int     `bson:"-" json:"remainingCapacity,omitempty"`
	UserHasLiked      *bool    `bson:"-" json:"userHasLiked,omitempty"`
	IsRegistered      *bool    `bson:"-" json:"isRegistered,omitempty"`
}

// Interaction is one like or view. (eventId, userId, type) is unique.
type Interaction struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	EventID   primitive.ObjectID `bson:"eventId"`
	UserID    primitive.ObjectID `bson:"userId"`
	Type      string             `bson:"type"`
	CreatedAt time.Time          `bson:"createdAt"`
}

type ReplyView struct {
	ID        primitive.ObjectID `json:"_id"`
	Text      string             `json:"text"`
	User      auth.UserSummary   `json:"user"`
	CreatedAt time.Time          `json:"createdAt"`
}

type CommentView struct {
	ID        primitive.ObjectID `json:"_id"`
	Text      string             `json:"text"`
	User      auth.UserSummary   `json:"user"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt *time.Time         `json:"updatedAt,omitempty"`
	Replies   []ReplyView        `json:"replies"`
}

type CreateEventRequest struct {
	ClubID               string          `json:"clubId" validate:"required,len=24,hexadecimal"`
	Name                 string          `json:"name" validate:"required,max=200"`
	Description          string          `json:"description" validate:"required"`
	EventType            string          `json:"eventType" validate:"required,oneof=technical non-technical workshop cultural sports"`
	EventCategory        string          `json:"eventCategory" validate:"required,oneof=club department college"`
	StartDateTime        time.Time       `json:"startDateTime" validate:"required"`
	EndDateTime          time.Time       `json:"endDateTime" validate:"required,gtefield=StartDateTime"`
	RegistrationDeadline *time.Time      `json:"registrationDeadline"`
	Venue                string          `json:"venue" validate:"required"`
	Mode                 string          `json:"mode" validate:"required,oneof=online offline hybrid"`
	RequiresFee          bool            `json:"requiresFee"`
	FeeAmount            float64         `json:"feeAmount" validate:"gte=0"`
	MaxParticipants      int             `json:"maxParticipants" validate:"gte=0"`
	TotalSeats           int             `json:"totalSeats" validate:"gte=0"`
	Eligibility          string          `json:"eligibility"`
	RegistrationLink     string          `json:"registrationLink" validate:"omitempty,url"`
	ContactPersons       []ContactPerson `json:"contactPersons" validate:"dive"`
	PosterImage          string          `json:"posterImage" validate:"omitempty,len=24,hexadecimal"`
	GalleryImages        []string        `json:"galleryImages" validate:"dive,len=24,hexadecimal"`
	RequireODApproval    bool            `json:"requireODApproval"`
	ThemeColor           string          `json:"themeColor" validate:"omitempty,hexcolor"`
}

// UpdateEventRequest lists the fields an organizer may change. Status,
// registrations, counters and comments are not among them.
type UpdateEventRequest struct {
	Name                 *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description          *string          `json:"description" validate:"omitempty,min=1"`
	EventType            *string          `json:"eventType" validate:"omitempty,oneof=technical non-technical workshop cultural sports"`
	EventCategory        *string          `json:"eventCategory" validate:"omitempty,oneof=club department college"`
	StartDateTime        *time.Time       `json:"startDateTime"`
	EndDateTime          *time.Time       `json:"endDateTime"`
	RegistrationDeadline *time.Time       `json:"registrationDeadline"`
	Venue                *string          `json:"venue" validate:"omitempty,min=1"`
	Mode                 *string          `json:"mode" validate:"omitempty,oneof=online offline hybrid"`
	RequiresFee          *bool            `json:"requiresFee"`
	FeeAmount            *float64         `json:"feeAmount" validate:"omitempty,gte=0"`
	MaxParticipants      *int             `json:"maxParticipants" validate:"omitempty,gte=0"`
	TotalSeats           *int             `json:"totalSeats" validate:"omitempty,gte=0"`
	Eligibility          *string          `json:"eligibility"`
	RegistrationLink     *string          `json:"registrationLink" validate:"omitempty,url"`
	ContactPersons       *[]ContactPerson `json:"contactPersons"`
	PosterImage          *string          `json:"posterImage" validate:"omitempty,len=24,hexadecimal"`
	RequireODApproval    *bool            `json:"requireODApproval"`
	ThemeColor           *string          `json:"themeColor" validate:"omitempty,hexcolor"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

type TextRequest struct {
	Text string `json:"text" validate:"required,min=1,max=1000"`
}

type RegisterResult struct {
	Message           string `json:"message"`
	AlreadyRegistered bool   `json:"alreadyRegistered"`
	Event             *Event `json:"event"`
}

type LikeResult struct {
	LikesCount   int64 `json:"likesCount"`
	UserHasLiked bool  `json:"userHasLiked"`
}

type ViewResult struct {
	ViewsCount int64 `json:"viewsCount"`
	Counted    bool  `json:"counted"`
}

type QRInfo struct {
	CheckInID     string `json:"checkInId"`
	CheckInQRCode string `json:"checkInQRCode"`
	CheckInURL    string `json:"checkInUrl"`
}

type Registrations struct {
	RegisteredStudents []auth.UserSummary   `json:"registeredStudents"`
	Attendance         []*attendance.Record `json:"attendance"`
}
