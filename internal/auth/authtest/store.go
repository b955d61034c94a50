// Package authtest provides an in-memory auth.UserStore for tests.
package authtest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"CampusEvents/internal/auth"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MemoryUserStore struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*auth.User
}

func NewMemoryUserStore(users ...*auth.User) *MemoryUserStore {
	s := &MemoryUserStore{users: map[primitive.ObjectID]*auth.User{}}
	for _, u := range users {
		_ = s.CreateUser(context.Background(), u)
	}
	return s
}

func clone(u *auth.User) *auth.User {
	cp := *u
	cp.Clubs = append([]primitive.ObjectID{}, u.Clubs...)
	return &cp
}

// Get returns a copy of the stored user, bypassing the interface.
func (s *MemoryUserStore) Get(id primitive.ObjectID) *auth.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return clone(u)
	}
	return nil
}

func (s *MemoryUserStore) FindByID(_ context.Context, id primitive.ObjectID) (*auth.User, error) {
	return s.Get(id), nil
}

func (s *MemoryUserStore) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, nil
}

func (s *MemoryUserStore) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*auth.User{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, clone(u))
		}
	}
	return out, nil
}

func (s *MemoryUserStore) CreateUser(_ context.Context, user *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return auth.ErrEmailTaken
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.Clubs == nil {
		user.Clubs = []primitive.ObjectID{}
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	s.users[user.ID] = clone(user)
	return nil
}

func (s *MemoryUserStore) UpdateUser(_ context.Context, id primitive.ObjectID, set bson.M) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	for k, v := range set {
		switch k {
		case "name":
			u.Name = v.(string)
		case "email":
			u.Email = v.(string)
		case "password":
			u.Password = v.(string)
		case "role":
			u.Role = v.(string)
		case "department":
			u.Department = v.(string)
		case "interests":
			u.Interests = v.(string)
		}
	}
	u.UpdatedAt = time.Now()
	return clone(u), nil
}

func (s *MemoryUserStore) DeleteUser(_ context.Context, id primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return false, nil
	}
	delete(s.users, id)
	return true, nil
}

func (s *MemoryUserStore) AddClub(_ context.Context, userID, clubID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil
	}
	for _, c := range u.Clubs {
		if c == clubID {
			return nil
		}
	}
	u.Clubs = append(u.Clubs, clubID)
	return nil
}

func (s *MemoryUserStore) RemoveClub(_ context.Context, userID, clubID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.Clubs = without(u.Clubs, clubID)
	}
	return nil
}

func (s *MemoryUserStore) PullClubFromAll(_ context.Context, clubID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		u.Clubs = without(u.Clubs, clubID)
	}
	return nil
}

func (s *MemoryUserStore) sorted(match func(*auth.User) bool) []*auth.User {
	out := []*auth.User{}
	for _, u := range s.users {
		if match(u) {
			out = append(out, clone(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func matches(u *auth.User, term string) bool {
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(u.Name), term) || strings.Contains(strings.ToLower(u.Email), term)
}

func (s *MemoryUserStore) Search(_ context.Context, term string, limit int64) ([]*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.sorted(func(u *auth.User) bool { return matches(u, term) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryUserStore) FindByRole(_ context.Context, role string) ([]*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorted(func(u *auth.User) bool { return u.Role == role }), nil
}

func (s *MemoryUserStore) List(_ context.Context, search string, page, limit int64) ([]*auth.User, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.sorted(func(u *auth.User) bool { return search == "" || matches(u, search) })
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= total {
		return []*auth.User{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (s *MemoryUserStore) FindAll(_ context.Context) ([]*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorted(func(*auth.User) bool { return true }), nil
}

func (s *MemoryUserStore) FindRecent(_ context.Context, limit int64) ([]*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.sorted(func(u *auth.User) bool { return u.Role != auth.RoleAdmin })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryUserStore) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.users)), nil
}

func (s *MemoryUserStore) CountByRole(_ context.Context) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]int64{}
	for _, u := range s.users {
		out[u.Role]++
	}
	return out, nil
}

func (s *MemoryUserStore) AllEmails(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, u := range s.users {
		out = append(out, u.Email)
	}
	sort.Strings(out)
	return out, nil
}

func without(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
