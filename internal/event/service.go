package event

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"CampusEvents/internal/attendance"
	"CampusEvents/internal/auth"
	"CampusEvents/internal/club"
	"CampusEvents/internal/qr"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrEventNotFound       = errors.New("Event not found")
	ErrClubNotFound        = errors.New("Associated club not found")
	ErrNotEventStaff       = errors.New("User not authorized for this event")
	ErrNotClubCoordinator  = errors.New("Only a coordinator of this club can approve or reject its events")
	ErrInvalidStatus       = errors.New("Invalid status value")
	ErrInvalidSchedule     = errors.New("End date must not be before start date")
	ErrInvalidImage        = errors.New("Invalid image id")
	ErrRegistrationNotOpen = errors.New("Event is not open for registration")
	ErrRegistrationClosed  = errors.New("Registration deadline has passed")
	ErrEventFull           = errors.New("Event is full")
	ErrNotRegistered       = errors.New("Student is not registered for this event")
	ErrCommentNotFound     = errors.New("Comment not found")
	ErrReplyNotFound       = errors.New("Reply not found")
	ErrNotCommentOwner     = errors.New("User not authorized to modify this comment")
	ErrTextRequired        = errors.New("Text is required")
	ErrNameRequired        = errors.New("Event name is required")
)

const defaultThemeColor = "#3b82f6"

// ClubLookup resolves the club an event belongs to.
type ClubLookup interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*club.Club, error)
	FindByCoordinator(ctx context.Context, userID primitive.ObjectID) ([]*club.Club, error)
}

// Ledger keeps attendance rows in step with registrations.
type Ledger interface {
	Enroll(ctx context.Context, eventID, studentID primitive.ObjectID, odStatus string) error
	Withdraw(ctx context.Context, eventID, studentID primitive.ObjectID) error
	DeleteForEvent(ctx context.Context, eventID primitive.ObjectID) error
	ListForEvent(ctx context.Context, eventID primitive.ObjectID) ([]*attendance.Record, error)
}

type EventService struct {
	events Store
	clubs  ClubLookup
	ledger Ledger
	users  auth.UserStore
	qr     *qr.Generator
	logger *zap.Logger
	now    func() time.Time
}

func NewEventService(events Store, clubs ClubLookup, ledger Ledger, users auth.UserStore, gen *qr.Generator, logger *zap.Logger) *EventService {
	return &EventService{
		events: events,
		clubs:  clubs,
		ledger: ledger,
		users:  users,
		qr:     gen,
		logger: logger,
		now:    time.Now,
	}
}

func (s *EventService) find(ctx context.Context, id primitive.ObjectID) (*Event, error) {
	ev, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, ErrEventNotFound
	}
	return ev, nil
}

func (s *EventService) clubOf(ctx context.Context, id primitive.ObjectID) (*club.Club, error) {
	c, err := s.clubs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrClubNotFound
	}
	return c, nil
}

// isStaff reports whether caller runs clubID: an admin, or a coordinator
// or member of the club.
func (s *EventService) isStaff(ctx context.Context, caller auth.Caller, clubID primitive.ObjectID) (bool, error) {
	if caller.IsAdmin() {
		return true, nil
	}
	c, err := s.clubs.FindByID(ctx, clubID)
	if err != nil || c == nil {
		return false, err
	}
	return c.HasCoordinator(caller.ID) || c.HasMember(caller.ID), nil
}

func (s *EventService) requireStaff(ctx context.Context, caller auth.Caller, ev *Event) error {
	c, err := s.clubOf(ctx, ev.Club)
	if err != nil {
		return err
	}
	if caller.IsAdmin() || c.HasCoordinator(caller.ID) || c.HasMember(caller.ID) {
		return nil
	}
	return ErrNotEventStaff
}

func parseImages(poster string, gallery []string) (*primitive.ObjectID, []primitive.ObjectID, error) {
	var posterID *primitive.ObjectID
	if poster != "" {
		id, err := primitive.ObjectIDFromHex(poster)
		if err != nil {
			return nil, nil, ErrInvalidImage
		}
		posterID = &id
	}
	var galleryIDs []primitive.ObjectID
	for _, h := range gallery {
		id, err := primitive.ObjectIDFromHex(h)
		if err != nil {
			return nil, nil, ErrInvalidImage
		}
		galleryIDs = append(galleryIDs, id)
	}
	return posterID, galleryIDs, nil
}

// Create stores a new event for a club the caller belongs to. Events
// created by one of the club's coordinators skip the approval step.
func (s *EventService) Create(ctx context.Context, caller auth.Caller, req CreateEventRequest) (*Event, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	clubID, err := primitive.ObjectIDFromHex(req.ClubID)
	if err != nil {
		return nil, ErrClubNotFound
	}
	c, err := s.clubOf(ctx, clubID)
	if err != nil {
		return nil, err
	}
	coordinates := c.HasCoordinator(caller.ID)
	if !coordinates && !c.HasMember(caller.ID) {
		return nil, ErrNotEventStaff
	}
	if req.EndDateTime.Before(req.StartDateTime) {
		return nil, ErrInvalidSchedule
	}
	poster, gallery, err := parseImages(req.PosterImage, req.GalleryImages)
	if err != nil {
		return nil, err
	}

	checkInID, qrCode, err := s.qr.GenerateEventQRCode("")
	if err != nil {
		return nil, err
	}

	status := StatusPending
	if coordinates {
		status = StatusApproved
	}
	theme := req.ThemeColor
	if theme == "" {
		theme = defaultThemeColor
	}
	ev := &Event{
		Club:                 clubID,
		CreatedBy:            caller.ID,
		Name:                 name,
		Description:          req.Description,
		EventType:            req.EventType,
		EventCategory:        req.EventCategory,
		StartDateTime:        req.StartDateTime,
		EndDateTime:          req.EndDateTime,
		RegistrationDeadline: req.RegistrationDeadline,
		Venue:                req.Venue,
		Mode:                 req.Mode,
		RequiresFee:          req.RequiresFee,
		FeeAmount:            req.FeeAmount,
		MaxParticipants:      req.MaxParticipants,
		TotalSeats:           req.TotalSeats,
		Eligibility:          req.Eligibility,
		RegistrationLink:     req.RegistrationLink,
		ContactPersons:       req.ContactPersons,
		PosterImage:          poster,
		GalleryImages:        gallery,
		RequireODApproval:    req.RequireODApproval,
		ThemeColor:           theme,
		Status:               status,
		CheckInID:            checkInID,
		CheckInQRCode:        qrCode,
	}
	if err := s.events.Create(ctx, ev); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.logger.Info("Event created",
		zap.String("eventId", ev.ID.Hex()),
		zap.String("clubId", clubID.Hex()),
		zap.String("status", status),
		zap.String("by", caller.ID.Hex()))
	return ev, nil
}

// redact strips the check-in secret from views shown to non-staff.
func redact(views ...*View) {
	for _, v := range views {
		v.CheckInID = ""
		v.CheckInQRCode = ""
	}
}

func (s *EventService) list(ctx context.Context, q Query) ([]*View, error) {
	views, err := s.events.ListViews(ctx, q)
	if err != nil {
		return nil, err
	}
	redact(views...)
	for _, v := range views {
		v.RemainingCapacity = v.Event.RemainingCapacity()
	}
	return views, nil
}

// Approved lists approved events newest first.
func (s *EventService) Approved(ctx context.Context) ([]*View, error) {
	return s.list(ctx, Query{Status: StatusApproved})
}

// ApprovedByIDs returns approved events in the order of ids.
func (s *EventService) ApprovedByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*View, error) {
	if len(ids) == 0 {
		return []*View{}, nil
	}
	views, err := s.list(ctx, Query{IDs: ids, Status: StatusApproved})
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]*View, len(views))
	for _, v := range views {
		byID[v.ID] = v
	}
	ordered := make([]*View, 0, len(views))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			ordered = append(ordered, v)
			delete(byID, id)
		}
	}
	return ordered, nil
}

func (s *EventService) MyEvents(ctx context.Context, caller auth.Caller) ([]*View, error) {
	return s.list(ctx, Query{Registered: caller.ID})
}

// PendingApprovals lists pending events of the clubs caller coordinates.
func (s *EventService) PendingApprovals(ctx context.Context, caller auth.Caller) ([]*View, error) {
	clubs, err := s.clubs.FindByCoordinator(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	if len(clubs) == 0 {
		return []*View{}, nil
	}
	ids := make([]primitive.ObjectID, 0, len(clubs))
	for _, c := range clubs {
		ids = append(ids, c.ID)
	}
	return s.list(ctx, Query{Status: StatusPending, Clubs: ids})
}

// ByClub lists a club's events. Club staff see every status, others only
// approved events.
func (s *EventService) ByClub(ctx context.Context, caller auth.Caller, clubID primitive.ObjectID) ([]*View, error) {
	staff, err := s.isStaff(ctx, caller, clubID)
	if err != nil {
		return nil, err
	}
	q := Query{Clubs: []primitive.ObjectID{clubID}}
	if !staff {
		q.Status = StatusApproved
	}
	return s.list(ctx, q)
}

func (s *EventService) decorate(ctx context.Context, v *View, caller *auth.Caller) error {
	v.RemainingCapacity = v.Event.RemainingCapacity()
	if caller == nil {
		return nil
	}
	liked, err := s.events.HasLiked(ctx, v.ID, caller.ID)
	if err != nil {
		return err
	}
	registered := v.Event.IsRegistered(caller.ID)
	v.UserHasLiked = &liked
	v.IsRegistered = &registered
	return nil
}

// Detail returns one event. Non-approved events and the check-in secret
// are visible to the club's staff only.
func (s *EventService) Detail(ctx context.Context, caller auth.Caller, id primitive.ObjectID) (*View, error) {
	v, err := s.events.FindView(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrEventNotFound
	}
	staff, err := s.isStaff(ctx, caller, v.Club)
	if err != nil {
		return nil, err
	}
	if !staff {
		if v.Status != StatusApproved {
			return nil, ErrEventNotFound
		}
		redact(v)
	}
	if err := s.decorate(ctx, v, &caller); err != nil {
		return nil, err
	}
	return v, nil
}

// PublicDetail returns an approved event. caller is nil for guests.
func (s *EventService) PublicDetail(ctx context.Context, caller *auth.Caller, id primitive.ObjectID) (*View, error) {
	v, err := s.events.FindView(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil || v.Status != StatusApproved {
		return nil, ErrEventNotFound
	}
	redact(v)
	if err := s.decorate(ctx, v, caller); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *EventService) Update(ctx context.Context, caller auth.Caller, id primitive.ObjectID, req UpdateEventRequest) (*Event, error) {
	ev, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireStaff(ctx, caller, ev); err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		req.Name = &name
	}

	start, end := ev.StartDateTime, ev.EndDateTime
	if req.StartDateTime != nil {
		start = *req.StartDateTime
	}
	if req.EndDateTime != nil {
		end = *req.EndDateTime
	}
	if end.Before(start) {
		return nil, ErrInvalidSchedule
	}

	set := bson.M{}
	put := func(key string, ok bool, v interface{}) {
		if ok {
			set[key] = v
		}
	}
	put("name", req.Name != nil, deref(req.Name))
	put("description", req.Description != nil, deref(req.Description))
	put("eventType", req.EventType != nil, deref(req.EventType))
	put("eventCategory", req.EventCategory != nil, deref(req.EventCategory))
	put("startDateTime", req.StartDateTime != nil, start)
	put("endDateTime", req.EndDateTime != nil, end)
	put("registrationDeadline", req.RegistrationDeadline != nil, req.RegistrationDeadline)
	put("venue", req.Venue != nil, deref(req.Venue))
	put("mode", req.Mode != nil, deref(req.Mode))
	put("eligibility", req.Eligibility != nil, deref(req.Eligibility))
	put("registrationLink", req.RegistrationLink != nil, deref(req.RegistrationLink))
	put("themeColor", req.ThemeColor != nil, deref(req.ThemeColor))
	if req.RequiresFee != nil {
		set["requiresFee"] = *req.RequiresFee
	}
	if req.FeeAmount != nil {
		set["feeAmount"] = *req.FeeAmount
	}
	if req.MaxParticipants != nil {
		set["maxParticipants"] = *req.MaxParticipants
	}
	if req.TotalSeats != nil {
		set["totalSeats"] = *req.TotalSeats
	}
	if req.RequireODApproval != nil {
		set["requireODApproval"] = *req.RequireODApproval
	}
	if req.ContactPersons != nil {
		set["contactPersons"] = *req.ContactPersons
	}
	if req.PosterImage != nil {
		poster, _, err := parseImages(*req.PosterImage, nil)
		if err != nil {
			return nil, err
		}
		set["posterImage"] = poster
	}
	if len(set) == 0 {
		return ev, nil
	}

	updated, err := s.events.Update(ctx, id, set)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	if updated == nil {
		return nil, ErrEventNotFound
	}
	s.logger.Info("Event updated", zap.String("eventId", id.Hex()), zap.String("by", caller.ID.Hex()))
	return updated, nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Delete removes the event with its attendance rows and interactions.
func (s *EventService) Delete(ctx context.Context, caller auth.Caller, id primitive.ObjectID) error {
	ev, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireStaff(ctx, caller, ev); err != nil {
		return err
	}
	deleted, err := s.events.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if !deleted {
		return ErrEventNotFound
	}
	if err := s.ledger.DeleteForEvent(ctx, id); err != nil {
		return fmt.Errorf("delete attendance: %w", err)
	}
	s.logger.Info("Event deleted", zap.String("eventId", id.Hex()), zap.String("by", caller.ID.Hex()))
	return nil
}

// SetStatus approves or rejects an event. The value is checked before
// anything is read so an invalid request never touches the stored status.
func (s *EventService) SetStatus(ctx context.Context, caller auth.Caller, id primitive.ObjectID, status string) (*Event, error) {
	if !ValidDecision(status) {
		return nil, ErrInvalidStatus
	}
	ev, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	c, err := s.clubOf(ctx, ev.Club)
	if err != nil {
		return nil, err
	}
	if !c.HasCoordinator(caller.ID) {
		return nil, ErrNotClubCoordinator
	}
	updated, err := s.events.Update(ctx, id, bson.M{"status": status})
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if updated == nil {
		return nil, ErrEventNotFound
	}
	s.logger.Info("Event status changed",
		zap.String("eventId", id.Hex()),
		zap.String("from", ev.Status),
		zap.String("to", status),
		zap.String("by", caller.ID.Hex()))
	return updated, nil
}

func odStatusFor(ev *Event) string {
	if ev.RequireODApproval {
		return attendance.ODPending
	}
	return attendance.ODNotApplicable
}

// Register adds caller to the event. Repeating it is a no-op reported
// through AlreadyRegistered.
func (s *EventService) Register(ctx context.Context, caller auth.Caller, id primitive.ObjectID) (*RegisterResult, error) {
	ev, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if ev.IsRegistered(caller.ID) {
		return s.alreadyRegistered(ctx, caller, ev)
	}

	now := s.now()
	updated, err := s.events.Register(ctx, id, caller.ID, now)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if updated == nil {
		current, err := s.find(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.IsRegistered(caller.ID) {
			return s.alreadyRegistered(ctx, caller, current)
		}
		return nil, registrationRefusal(current, now)
	}

	if err := s.ledger.Enroll(ctx, id, caller.ID, odStatusFor(updated)); err != nil {
		return nil, fmt.Errorf("create attendance: %w", err)
	}
	s.logger.Info("Student registered", zap.String("eventId", id.Hex()), zap.String("studentId", caller.ID.Hex()))
	return &RegisterResult{Message: "Student registered for event successfully", Event: updated}, nil
}

func (s *EventService) alreadyRegistered(ctx context.Context, caller auth.Caller, ev *Event) (*RegisterResult, error) {
	if err := s.ledger.Enroll(ctx, ev.ID, caller.ID, odStatusFor(ev)); err != nil {
		return nil, fmt.Errorf("create attendance: %w", err)
	}
	return &RegisterResult{Message: "Student already registered for this event", AlreadyRegistered: true, Event: ev}, nil
}

func registrationRefusal(ev *Event, now time.Time) error {
	switch {
	case ev.Status != StatusApproved:
		return ErrRegistrationNotOpen
	case ev.RegistrationDeadline != nil && ev.RegistrationDeadline.Before(now):
		return ErrRegistrationClosed
	case ev.TotalSeats > 0 && len(ev.RegisteredStudents) >= ev.TotalSeats:
		return ErrEventFull
	}
	return ErrRegistrationNotOpen
}

func (s *EventService) Unregister(ctx context.Context, caller auth.Caller, id primitive.ObjectID) error {
	removed, err := s.events.Unregister(ctx, id, caller.ID)
	if err != nil {
		return fmt.Errorf("unregister: %w", err)
	}
	if !removed {
		if _, err := s.find(ctx, id); err != nil {
			return err
		}
		return ErrNotRegistered
	}
	if err := s.ledger.Withdraw(ctx, id, caller.ID); err != nil {
		return fmt.Errorf("delete attendance: %w", err)
	}
	s.logger.Info("Student unregistered", zap.String("eventId", id.Hex()), zap.String("studentId", caller.ID.Hex()))
	return nil
}

// Registrations lists registered students and their attendance rows.
// Members and coordinators must belong to the event's club.
func (s *EventService) Registrations(ctx context.Context, caller auth.Caller, id primitive.ObjectID) (*Registrations, error) {
	ev, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.Role != auth.RoleFaculty {
		if err := s.requireStaff(ctx, caller, ev); err != nil {
			return nil, err
		}
	}
	students, err := s.summaries(ctx, ev.RegisteredStudents)
	if err != nil {
		return nil, err
	}
	records, err := s.ledger.ListForEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &Registrations{RegisteredStudents: make([]auth.UserSummary, 0, len(students)), Attendance: records}
	for _, sid := range ev.RegisteredStudents {
		if u, ok := students[sid]; ok {
			out.RegisteredStudents = append(out.RegisteredStudents, u)
		}
	}
	return out, nil
}

func (s *EventService) summaries(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]auth.UserSummary, error) {
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]auth.UserSummary, len(users))
	for _, u := range users {
		out[u.ID] = u.Summary()
	}
	return out, nil
}

func (s *EventService) Like(ctx context.Context, caller auth.Caller, id primitive.ObjectID) (*LikeResult, error) {
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}
	liked, count, err := s.events.ToggleLike(ctx, id, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("toggle like: %w", err)
	}
	return &LikeResult{LikesCount: count, UserHasLiked: liked}, nil
}

func (s *EventService) View(ctx context.Context, caller auth.Caller, id primitive.ObjectID) (*ViewResult, error) {
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}
	counted, count, err := s.events.RecordView(ctx, id, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("record view: %w", err)
	}
	return &ViewResult{ViewsCount: count, Counted: counted}, nil
}
