// Package admin serves the administrator dashboard.
package admin

import (
	"context"
	"fmt"
	"sort"
	"time"

	"CampusEvents/internal/auth"
	"CampusEvents/internal/club"
	"CampusEvents/internal/event"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	activityFetch = 15
	activityShown = 10
)

const (
	ActivityClub  = "club"
	ActivityUser  = "user"
	ActivityEvent = "event"
)

type EventSource interface {
	ListViews(ctx context.Context, q event.Query) ([]*event.View, error)
	FindRecent(ctx context.Context, limit int64) ([]*event.Event, error)
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type ClubSource interface {
	FindRecent(ctx context.Context, limit int64) ([]*club.Club, error)
	Summaries(ctx context.Context, ids []primitive.ObjectID) ([]auth.ClubSummary, error)
	Count(ctx context.Context) (int64, error)
}

type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// Activity is one line of the dashboard feed.
type Activity struct {
	ID        primitive.ObjectID `json:"id"`
	Type      string             `json:"type"`
	Title     string             `json:"title"`
	Timestamp time.Time          `json:"timestamp"`
}

type Stats struct {
	Users          int64            `json:"users"`
	UsersByRole    map[string]int64 `json:"usersByRole"`
	Clubs          int64            `json:"clubs"`
	Events         int64            `json:"events"`
	EventsByStatus map[string]int64 `json:"eventsByStatus"`
	Attendance     int64            `json:"attendance"`
}

type AdminService struct {
	events     EventSource
	clubs      ClubSource
	users      auth.UserStore
	attendance Counter
	logger     *zap.Logger
}

func NewAdminService(events EventSource, clubs ClubSource, users auth.UserStore, attendance Counter, logger *zap.Logger) *AdminService {
	return &AdminService{events: events, clubs: clubs, users: users, attendance: attendance, logger: logger}
}

// Events lists every event regardless of status, newest first.
func (s *AdminService) Events(ctx context.Context) ([]*event.View, error) {
	return s.events.ListViews(ctx, event.Query{})
}

func (s *AdminService) Users(ctx context.Context) ([]*auth.User, error) {
	return s.users.FindAll(ctx)
}

// RecentActivity merges the newest clubs, users and events into one feed.
func (s *AdminService) RecentActivity(ctx context.Context) ([]Activity, error) {
	var (
		clubs  []*club.Club
		users  []*auth.User
		events []*event.Event
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		clubs, err = s.clubs.FindRecent(gctx, activityFetch)
		return err
	})
	g.Go(func() (err error) {
		users, err = s.users.FindRecent(gctx, activityFetch)
		return err
	})
	g.Go(func() (err error) {
		events, err = s.events.FindRecent(gctx, activityFetch)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load recent activity: %w", err)
	}

	clubNames, err := s.clubNames(ctx, events)
	if err != nil {
		return nil, err
	}

	feed := make([]Activity, 0, len(clubs)+len(users)+len(events))
	for _, c := range clubs {
		feed = append(feed, Activity{ID: c.ID, Type: ActivityClub, Timestamp: c.CreatedAt,
			Title: fmt.Sprintf("New club '%s' was created.", c.Name)})
	}
	for _, u := range users {
		feed = append(feed, Activity{ID: u.ID, Type: ActivityUser, Timestamp: u.CreatedAt,
			Title: fmt.Sprintf("User '%s' has registered.", u.Name)})
	}
	for _, e := range events {
		name, ok := clubNames[e.Club]
		if !ok {
			name = "an unknown club"
		}
		feed = append(feed, Activity{ID: e.ID, Type: ActivityEvent, Timestamp: e.CreatedAt,
			Title: fmt.Sprintf("Event '%s' was created in %s.", e.Name, name)})
	}
	sort.SliceStable(feed, func(i, j int) bool { return feed[i].Timestamp.After(feed[j].Timestamp) })
	if len(feed) > activityShown {
		feed = feed[:activityShown]
	}
	return feed, nil
}

func (s *AdminService) clubNames(ctx context.Context, events []*event.Event) (map[primitive.ObjectID]string, error) {
	seen := map[primitive.ObjectID]bool{}
	var ids []primitive.ObjectID
	for _, e := range events {
		if !seen[e.Club] {
			seen[e.Club] = true
			ids = append(ids, e.Club)
		}
	}
	summaries, err := s.clubs.Summaries(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load club names: %w", err)
	}
	names := make(map[primitive.ObjectID]string, len(summaries))
	for _, c := range summaries {
		names[c.ID] = c.Name
	}
	return names, nil
}

func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		st.Users, err = s.users.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		st.UsersByRole, err = s.users.CountByRole(gctx)
		return err
	})
	g.Go(func() (err error) {
		st.Clubs, err = s.clubs.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		st.Events, err = s.events.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		st.EventsByStatus, err = s.events.CountByStatus(gctx)
		return err
	})
	g.Go(func() (err error) {
		st.Attendance, err = s.attendance.Count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}
	return &st, nil
}
