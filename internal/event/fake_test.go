package event

import (
	"context"
	"sort"
	"sync"
	"time"

	"CampusEvents/internal/attendance"
	"CampusEvents/internal/club"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type interactionKey struct {
	event, user primitive.ObjectID
	kind        string
}

type memEvents struct {
	mu           sync.Mutex
	events       map[primitive.ObjectID]*Event
	interactions map[interactionKey]bool
}

func newMemEvents() *memEvents {
	return &memEvents{
		events:       map[primitive.ObjectID]*Event{},
		interactions: map[interactionKey]bool{},
	}
}

func cloneEvent(ev *Event) *Event {
	cp := *ev
	cp.RegisteredStudents = append([]primitive.ObjectID{}, ev.RegisteredStudents...)
	cp.Comments = make([]Comment, len(ev.Comments))
	for i, c := range ev.Comments {
		c.Replies = append([]Reply{}, c.Replies...)
		cp.Comments[i] = c
	}
	return &cp
}

func (m *memEvents) Create(_ context.Context, ev *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ev.ID.IsZero() {
		ev.ID = primitive.NewObjectID()
	}
	if ev.RegisteredStudents == nil {
		ev.RegisteredStudents = []primitive.ObjectID{}
	}
	m.events[ev.ID] = cloneEvent(ev)
	return nil
}

func (m *memEvents) FindByID(_ context.Context, id primitive.ObjectID) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ev, ok := m.events[id]; ok {
		return cloneEvent(ev), nil
	}
	return nil, nil
}

func (m *memEvents) FindView(ctx context.Context, id primitive.ObjectID) (*View, error) {
	views, err := m.ListViews(ctx, Query{IDs: []primitive.ObjectID{id}})
	if err != nil || len(views) == 0 {
		return nil, err
	}
	return views[0], nil
}

func (m *memEvents) ListViews(_ context.Context, q Query) ([]*View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in := func(ids []primitive.ObjectID, id primitive.ObjectID) bool {
		for _, v := range ids {
			if v == id {
				return true
			}
		}
		return false
	}
	out := []*View{}
	for _, ev := range m.events {
		switch {
		case len(q.IDs) > 0 && !in(q.IDs, ev.ID):
		case q.Status != "" && ev.Status != q.Status:
		case len(q.Clubs) > 0 && !in(q.Clubs, ev.Club):
		case !q.Registered.IsZero() && !ev.IsRegistered(q.Registered):
		default:
			out = append(out, &View{Event: *cloneEvent(ev)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDateTime.After(out[j].StartDateTime) })
	return out, nil
}

func (m *memEvents) Update(_ context.Context, id primitive.ObjectID, set bson.M) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[id]
	if !ok {
		return nil, nil
	}
	for k, v := range set {
		switch k {
		case "name":
			ev.Name = v.(string)
		case "venue":
			ev.Venue = v.(string)
		case "status":
			ev.Status = v.(string)
		case "totalSeats":
			ev.TotalSeats = v.(int)
		case "startDateTime":
			ev.StartDateTime = v.(time.Time)
		case "endDateTime":
			ev.EndDateTime = v.(time.Time)
		case "checkInId":
			ev.CheckInID = v.(string)
		case "checkInQRCode":
			ev.CheckInQRCode = v.(string)
		}
	}
	return cloneEvent(ev), nil
}

func (m *memEvents) Delete(_ context.Context, id primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return false, nil
	}
	delete(m.events, id)
	for k := range m.interactions {
		if k.event == id {
			delete(m.interactions, k)
		}
	}
	return true, nil
}

func (m *memEvents) Register(_ context.Context, id, studentID primitive.ObjectID, now time.Time) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[id]
	switch {
	case !ok, ev.Status != StatusApproved, ev.IsRegistered(studentID):
		return nil, nil
	case ev.RegistrationDeadline != nil && ev.RegistrationDeadline.Before(now):
		return nil, nil
	case ev.TotalSeats > 0 && len(ev.RegisteredStudents) >= ev.TotalSeats:
		return nil, nil
	}
	ev.RegisteredStudents = append(ev.RegisteredStudents, studentID)
	return cloneEvent(ev), nil
}

func (m *memEvents) Unregister(_ context.Context, id, studentID primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[id]
	if !ok || !ev.IsRegistered(studentID) {
		return false, nil
	}
	out := []primitive.ObjectID{}
	for _, s := range ev.RegisteredStudents {
		if s != studentID {
			out = append(out, s)
		}
	}
	ev.RegisteredStudents = out
	return true, nil
}

func (m *memEvents) toggle(id, userID primitive.ObjectID, kind string, remove bool) (bool, int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev := m.events[id]
	counter := &ev.ViewsCount
	if kind == InteractionLike {
		counter = &ev.LikesCount
	}
	key := interactionKey{id, userID, kind}
	if !m.interactions[key] {
		m.interactions[key] = true
		*counter++
		return true, *counter
	}
	if remove {
		delete(m.interactions, key)
		if *counter > 0 {
			*counter--
		}
	}
	return false, *counter
}

func (m *memEvents) ToggleLike(_ context.Context, id, userID primitive.ObjectID) (bool, int64, error) {
	liked, n := m.toggle(id, userID, InteractionLike, true)
	return liked, n, nil
}

func (m *memEvents) RecordView(_ context.Context, id, userID primitive.ObjectID) (bool, int64, error) {
	counted, n := m.toggle(id, userID, InteractionView, false)
	return counted, n, nil
}

func (m *memEvents) HasLiked(_ context.Context, id, userID primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interactions[interactionKey{id, userID, InteractionLike}], nil
}

func (m *memEvents) withComment(id, commentID primitive.ObjectID, fn func(ev *Event, i int)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[id]
	if !ok {
		return false
	}
	for i := range ev.Comments {
		if ev.Comments[i].ID == commentID {
			fn(ev, i)
			return true
		}
	}
	return false
}

func (m *memEvents) AddComment(_ context.Context, id primitive.ObjectID, comment Comment) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[id]
	if !ok {
		return false, nil
	}
	ev.Comments = append(ev.Comments, comment)
	return true, nil
}

func (m *memEvents) EditComment(_ context.Context, id, commentID primitive.ObjectID, text string, at time.Time) (bool, error) {
	return m.withComment(id, commentID, func(ev *Event, i int) {
		ev.Comments[i].Text = text
		ev.Comments[i].UpdatedAt = &at
	}), nil
}

func (m *memEvents) DeleteComment(_ context.Context, id, commentID primitive.ObjectID) (bool, error) {
	return m.withComment(id, commentID, func(ev *Event, i int) {
		ev.Comments = append(ev.Comments[:i], ev.Comments[i+1:]...)
	}), nil
}

func (m *memEvents) AddReply(_ context.Context, id, commentID primitive.ObjectID, reply Reply) (bool, error) {
	return m.withComment(id, commentID, func(ev *Event, i int) {
		ev.Comments[i].Replies = append(ev.Comments[i].Replies, reply)
	}), nil
}

func (m *memEvents) DeleteReply(_ context.Context, id, commentID, replyID primitive.ObjectID) (bool, error) {
	return m.withComment(id, commentID, func(ev *Event, i int) {
		kept := []Reply{}
		for _, r := range ev.Comments[i].Replies {
			if r.ID != replyID {
				kept = append(kept, r)
			}
		}
		ev.Comments[i].Replies = kept
	}), nil
}

type fakeClubs map[primitive.ObjectID]*club.Club

func (f fakeClubs) FindByID(_ context.Context, id primitive.ObjectID) (*club.Club, error) {
	return f[id], nil
}

func (f fakeClubs) FindByCoordinator(_ context.Context, userID primitive.ObjectID) ([]*club.Club, error) {
	out := []*club.Club{}
	for _, c := range f {
		if c.HasCoordinator(userID) {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeLedger struct {
	mu   sync.Mutex
	rows map[[2]primitive.ObjectID]*attendance.Attendance
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{rows: map[[2]primitive.ObjectID]*attendance.Attendance{}}
}

func (l *fakeLedger) Enroll(_ context.Context, eventID, studentID primitive.ObjectID, odStatus string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := [2]primitive.ObjectID{eventID, studentID}
	if _, ok := l.rows[key]; !ok {
		l.rows[key] = &attendance.Attendance{ID: primitive.NewObjectID(), Event: eventID, Student: studentID, ODStatus: odStatus}
	}
	return nil
}

func (l *fakeLedger) Withdraw(_ context.Context, eventID, studentID primitive.ObjectID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.rows, [2]primitive.ObjectID{eventID, studentID})
	return nil
}

func (l *fakeLedger) DeleteForEvent(_ context.Context, eventID primitive.ObjectID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for k := range l.rows {
		if k[0] == eventID {
			delete(l.rows, k)
		}
	}
	return nil
}

func (l *fakeLedger) ListForEvent(_ context.Context, eventID primitive.ObjectID) ([]*attendance.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []*attendance.Record{}
	for k, row := range l.rows {
		if k[0] == eventID {
			out = append(out, &attendance.Record{Attendance: *row})
		}
	}
	return out, nil
}

func (l *fakeLedger) row(eventID, studentID primitive.ObjectID) *attendance.Attendance {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rows[[2]primitive.ObjectID{eventID, studentID}]
}
