package attendance

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"CampusEvents/internal/auth"
	"CampusEvents/internal/config"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrCheckInIDRequired      = errors.New("Check-in ID is required.")
	ErrInvalidCheckIn         = errors.New("Invalid or expired check-in QR code.")
	ErrEventNotActive         = errors.New("This event is not currently active for check-in.")
	ErrNotRegistered          = errors.New("You are not registered for this event.")
	ErrAlreadyPresent         = errors.New("You are already marked as present for this event.")
	ErrRecordNotFound         = errors.New("Attendance record not found")
	ErrEventNotFound          = errors.New("Event not found")
	ErrInvalidODStatus        = errors.New("Invalid odStatus value")
	ErrNotClubStaff           = errors.New("User not authorized for this event")
	ErrCertificateUnavailable = errors.New("OD certificate is only available for approved requests")
	ErrNotRecordOwner         = errors.New("Not authorized to access this attendance record")
)

// Store is the persistence surface of the attendance service.
type Store interface {
	Find(ctx context.Context, eventID, studentID primitive.ObjectID) (*Attendance, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*Attendance, error)
	Toggle(ctx context.Context, id primitive.ObjectID) (*Attendance, error)
	CheckIn(ctx context.Context, eventID, studentID primitive.ObjectID, at time.Time) (*Attendance, error)
	DecideOD(ctx context.Context, id primitive.ObjectID, status string, by primitive.ObjectID, at time.Time) (*Attendance, error)
	ListForEvent(ctx context.Context, eventID primitive.ObjectID) ([]*Record, error)
	ForStudent(ctx context.Context, studentID primitive.ObjectID) ([]*Record, error)
	PendingOD(ctx context.Context, eventIDs []primitive.ObjectID) ([]*Record, error)
	FindEventByCheckIn(ctx context.Context, checkInID string) (*EventInfo, error)
	FindEventByID(ctx context.Context, id primitive.ObjectID) (*EventInfo, error)
	EventIDsCoordinatedBy(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
	ClubRoles(ctx context.Context, clubID, userID primitive.ObjectID) (coordinator, member bool, err error)
	FindUser(ctx context.Context, id primitive.ObjectID) (*auth.UserSummary, error)
}

type AttendanceService struct {
	store  Store
	mailer config.Mailer
	logger *zap.Logger
	now    func() time.Time
}

func NewAttendanceService(store Store, mailer config.Mailer, logger *zap.Logger) *AttendanceService {
	return &AttendanceService{store: store, mailer: mailer, logger: logger, now: time.Now}
}

type CheckInResult struct {
	Message    string      `json:"message"`
	Attendance *Attendance `json:"attendance"`
}

func (s *AttendanceService) CheckIn(ctx context.Context, caller auth.Caller, checkInID string) (*CheckInResult, error) {
	if checkInID == "" {
		return nil, ErrCheckInIDRequired
	}
	ev, err := s.store.FindEventByCheckIn(ctx, checkInID)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, ErrInvalidCheckIn
	}
	if ev.Status != "approved" {
		return nil, ErrEventNotActive
	}

	row, err := s.store.CheckIn(ctx, ev.ID, caller.ID, s.now())
	if err != nil {
		return nil, err
	}
	if row == nil {
		existing, err := s.store.Find(ctx, ev.ID, caller.ID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, ErrNotRegistered
		}
		return nil, ErrAlreadyPresent
	}
	s.logger.Info("Student checked in", zap.String("eventId", ev.ID.Hex()), zap.String("studentId", caller.ID.Hex()))
	return &CheckInResult{Message: fmt.Sprintf("Successfully checked in for %s!", ev.Name), Attendance: row}, nil
}

// eventOf loads the row and its event, requiring caller to be staff of the
// event's club. coordinatorOnly excludes plain members.
func (s *AttendanceService) eventOf(ctx context.Context, caller auth.Caller, row *Attendance, coordinatorOnly bool) (*EventInfo, error) {
	ev, err := s.store.FindEventByID(ctx, row.Event)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, ErrEventNotFound
	}
	if err := s.requireStaff(ctx, caller, ev, coordinatorOnly); err != nil {
		return nil, err
	}
	return ev, nil
}

func (s *AttendanceService) requireStaff(ctx context.Context, caller auth.Caller, ev *EventInfo, coordinatorOnly bool) error {
	if caller.IsAdmin() {
		return nil
	}
	coordinator, member, err := s.store.ClubRoles(ctx, ev.Club, caller.ID)
	if err != nil {
		return err
	}
	if coordinator || (member && !coordinatorOnly) {
		return nil
	}
	return ErrNotClubStaff
}

func (s *AttendanceService) row(ctx context.Context, id primitive.ObjectID) (*Attendance, error) {
	row, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrRecordNotFound
	}
	return row, nil
}

func (s *AttendanceService) Toggle(ctx context.Context, caller auth.Caller, id primitive.ObjectID) (*Attendance, error) {
	row, err := s.row(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.eventOf(ctx, caller, row, false); err != nil {
		return nil, err
	}
	updated, err := s.store.Toggle(ctx, id)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrRecordNotFound
	}
	s.logger.Info("Attendance toggled",
		zap.String("attendanceId", id.Hex()),
		zap.Bool("present", updated.Present),
		zap.String("by", caller.ID.Hex()))
	return updated, nil
}

func (s *AttendanceService) DecideOD(ctx context.Context, caller auth.Caller, id primitive.ObjectID, status string) (*Attendance, error) {
	if !ValidDecision(status) {
		return nil, ErrInvalidODStatus
	}
	row, err := s.row(ctx, id)
	if err != nil {
		return nil, err
	}
	ev, err := s.eventOf(ctx, caller, row, true)
	if err != nil {
		return nil, err
	}
	updated, err := s.store.DecideOD(ctx, id, status, caller.ID, s.now())
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrRecordNotFound
	}
	s.logger.Info("OD decision recorded",
		zap.String("attendanceId", id.Hex()),
		zap.String("odStatus", status),
		zap.String("by", caller.ID.Hex()))
	s.notifyDecision(ctx, updated, ev)
	return updated, nil
}

// notifyDecision emails the student. Failures are logged only.
func (s *AttendanceService) notifyDecision(ctx context.Context, row *Attendance, ev *EventInfo) {
	student, err := s.store.FindUser(ctx, row.Student)
	if err != nil || student == nil || student.Email == "" {
		s.logger.Warn("Skipping OD notification", zap.String("attendanceId", row.ID.Hex()), zap.Error(err))
		return
	}
	subject := fmt.Sprintf("Your OD request for %s was %s", ev.Name, row.ODStatus)
	body := fmt.Sprintf("<p>Hi %s,</p><p>Your on-duty request for <strong>%s</strong> on %s has been <strong>%s</strong>.</p>",
		html.EscapeString(student.Name), html.EscapeString(ev.Name), ev.StartDateTime.Format("02 Jan 2006"), row.ODStatus)
	if err := s.mailer.Send(ctx, student.Email, subject, body); err != nil {
		s.logger.Warn("OD notification failed", zap.String("attendanceId", row.ID.Hex()), zap.Error(err))
	}
}

// PendingOD lists pending OD rows for events of clubs caller coordinates.
func (s *AttendanceService) PendingOD(ctx context.Context, caller auth.Caller) ([]*Record, error) {
	eventIDs, err := s.store.EventIDsCoordinatedBy(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	return s.store.PendingOD(ctx, eventIDs)
}

func (s *AttendanceService) MyOD(ctx context.Context, caller auth.Caller) ([]*Record, error) {
	return s.store.ForStudent(ctx, caller.ID)
}

type Certificate struct {
	Filename string
	PDF      []byte
}

// Certificate renders the OD certificate of an approved row owned by caller.
func (s *AttendanceService) Certificate(ctx context.Context, caller auth.Caller, id primitive.ObjectID) (*Certificate, error) {
	row, err := s.row(ctx, id)
	if err != nil {
		return nil, err
	}
	if row.Student != caller.ID {
		return nil, ErrNotRecordOwner
	}
	if row.ODStatus != ODApproved {
		return nil, ErrCertificateUnavailable
	}
	ev, err := s.store.FindEventByID(ctx, row.Event)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, ErrEventNotFound
	}
	student, err := s.store.FindUser(ctx, row.Student)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, auth.ErrUserNotFound
	}

	decidedAt := row.UpdatedAt
	if row.ODDecidedAt != nil {
		decidedAt = *row.ODDecidedAt
	}
	pdf, err := RenderCertificate(*student, *ev, row.Present, decidedAt)
	if err != nil {
		return nil, err
	}
	return &Certificate{Filename: fmt.Sprintf("od-certificate-%s.pdf", row.ID.Hex()), PDF: pdf}, nil
}

// EventRecords returns the rows of eventID for staff of its club.
func (s *AttendanceService) EventRecords(ctx context.Context, caller auth.Caller, eventID primitive.ObjectID) (*EventInfo, []*Record, error) {
	ev, err := s.store.FindEventByID(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	if ev == nil {
		return nil, nil, ErrEventNotFound
	}
	if err := s.requireStaff(ctx, caller, ev, false); err != nil {
		return nil, nil, err
	}
	records, err := s.store.ListForEvent(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	return ev, records, nil
}
