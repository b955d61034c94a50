package announcement

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memStore struct {
	mu   sync.Mutex
	rows map[primitive.ObjectID]*Announcement
}

func newMemStore() *memStore {
	return &memStore{rows: map[primitive.ObjectID]*Announcement{}}
}

func (m *memStore) Create(_ context.Context, a *Announcement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	a.CreatedAt = time.Now()
	cp := *a
	m.rows[a.ID] = &cp
	return nil
}

func (m *memStore) get(id primitive.ObjectID) *Announcement {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.rows[id]; ok {
		cp := *a
		return &cp
	}
	return nil
}

func (m *memStore) FindByID(_ context.Context, id primitive.ObjectID) (*Announcement, error) {
	return m.get(id), nil
}

func (m *memStore) Update(_ context.Context, id primitive.ObjectID, set, unset bson.M) (*Announcement, error) {
	m.mu.Lock()
	a, ok := m.rows[id]
	if !ok {
		m.mu.Unlock()
		return nil, nil
	}
	for k, v := range set {
		switch k {
		case "message":
			a.Message = v.(string)
		case "priority":
			a.Priority = v.(string)
		case "rank":
			a.Rank = v.(int)
		case "publishDate":
			a.PublishDate = v.(time.Time)
		case "expiryDate":
			if t, ok := v.(time.Time); ok {
				a.ExpiryDate = &t
			} else {
				a.ExpiryDate = nil
			}
		case "notify":
			a.Notify = v.(bool)
		}
	}
	if _, ok := unset["notifiedAt"]; ok {
		a.NotifiedAt = nil
	}
	m.mu.Unlock()
	return m.get(id), nil
}

func (m *memStore) Delete(_ context.Context, id primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[id]
	delete(m.rows, id)
	return ok, nil
}

func (m *memStore) Active(_ context.Context, now time.Time) (*Announcement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *Announcement
	for _, a := range m.rows {
		if !a.ActiveAt(now) {
			continue
		}
		if best == nil || a.Rank > best.Rank || (a.Rank == best.Rank && a.PublishDate.After(best.PublishDate)) {
			best = a
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (m *memStore) List(_ context.Context, publishedBy *time.Time) ([]*View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*View{}
	for _, a := range m.rows {
		if publishedBy != nil && a.PublishDate.After(*publishedBy) {
			continue
		}
		out = append(out, &View{Announcement: *a})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) DueForNotify(_ context.Context, now time.Time) ([]*Announcement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Announcement
	for _, a := range m.rows {
		if a.Notify && a.NotifiedAt == nil && a.ActiveAt(now) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) ClaimNotify(_ context.Context, id primitive.ObjectID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok || a.NotifiedAt != nil {
		return false, nil
	}
	a.NotifiedAt = &at
	return true, nil
}

type recordingMailer struct {
	mu     sync.Mutex
	sent   map[string]string
	failTo string
}

func (r *recordingMailer) Send(_ context.Context, to, _, html string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if to == r.failTo {
		return errMailDown
	}
	if r.sent == nil {
		r.sent = map[string]string{}
	}
	r.sent[to] = html
	return nil
}
