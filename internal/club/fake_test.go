package club

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memStore struct {
	mu    sync.Mutex
	clubs map[primitive.ObjectID]*Club
}

func newMemStore(clubs ...*Club) *memStore {
	s := &memStore{clubs: map[primitive.ObjectID]*Club{}}
	for _, c := range clubs {
		_ = s.Create(context.Background(), c)
	}
	return s
}

func cloneClub(c *Club) *Club {
	cp := *c
	cp.Coordinators = append([]primitive.ObjectID{}, c.Coordinators...)
	cp.Members = append([]primitive.ObjectID{}, c.Members...)
	return &cp
}

func addTo(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	if contains(ids, id) {
		return ids
	}
	return append(ids, id)
}

func pullFrom(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := []primitive.ObjectID{}
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func (s *memStore) Create(_ context.Context, club *Club) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clubs {
		if c.Name == club.Name {
			return ErrClubNameTaken
		}
	}
	if club.ID.IsZero() {
		club.ID = primitive.NewObjectID()
	}
	s.clubs[club.ID] = cloneClub(club)
	return nil
}

func (s *memStore) FindByID(_ context.Context, id primitive.ObjectID) (*Club, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clubs[id]; ok {
		return cloneClub(c), nil
	}
	return nil, nil
}

func (s *memStore) FindDetail(_ context.Context, id primitive.ObjectID) (*ClubDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clubs[id]
	if !ok {
		return nil, nil
	}
	return &ClubDetail{ID: c.ID, Name: c.Name, Description: c.Description}, nil
}

func (s *memStore) List(_ context.Context) ([]*ClubDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*ClubDetail{}
	for _, c := range s.clubs {
		out = append(out, &ClubDetail{ID: c.ID, Name: c.Name})
	}
	return out, nil
}

func (s *memStore) mutate(id primitive.ObjectID, fn func(*Club)) (*Club, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clubs[id]
	if !ok {
		return nil, nil
	}
	fn(c)
	return cloneClub(c), nil
}

func (s *memStore) Update(_ context.Context, id primitive.ObjectID, set bson.M) (*Club, error) {
	return s.mutate(id, func(c *Club) {
		if v, ok := set["name"]; ok {
			c.Name = v.(string)
		}
		if v, ok := set["description"]; ok {
			c.Description = v.(string)
		}
		if v, ok := set["imageUrl"]; ok {
			c.ImageURL = v.(string)
		}
	})
}

func (s *memStore) Delete(_ context.Context, id primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clubs[id]; !ok {
		return false, nil
	}
	delete(s.clubs, id)
	return true, nil
}

func (s *memStore) AddCoordinator(_ context.Context, clubID, userID primitive.ObjectID) (*Club, error) {
	return s.mutate(clubID, func(c *Club) {
		c.Coordinators = addTo(c.Coordinators, userID)
		c.Members = addTo(c.Members, userID)
	})
}

func (s *memStore) RemoveCoordinator(_ context.Context, clubID, userID primitive.ObjectID) (*Club, error) {
	return s.mutate(clubID, func(c *Club) {
		c.Coordinators = pullFrom(c.Coordinators, userID)
		c.Members = pullFrom(c.Members, userID)
	})
}

func (s *memStore) AddMember(_ context.Context, clubID, userID primitive.ObjectID) (*Club, error) {
	return s.mutate(clubID, func(c *Club) { c.Members = addTo(c.Members, userID) })
}

func (s *memStore) RemoveMember(_ context.Context, clubID, userID primitive.ObjectID) (*Club, error) {
	return s.mutate(clubID, func(c *Club) { c.Members = pullFrom(c.Members, userID) })
}
