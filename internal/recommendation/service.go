// Package recommendation ranks approved events for a student's profile
// using an external script.
package recommendation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"CampusEvents/internal/auth"
	"CampusEvents/internal/event"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var ErrIncompleteProfile = errors.New("User profile is incomplete. Please set your interests and department.")

// Catalog resolves ranked ids into approved events, keeping their order.
type Catalog interface {
	ApprovedByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*event.View, error)
}

type RecommendationService struct {
	users   auth.UserStore
	runner  Runner
	catalog Catalog
	logger  *zap.Logger
}

func NewRecommendationService(users auth.UserStore, runner Runner, catalog Catalog, logger *zap.Logger) *RecommendationService {
	return &RecommendationService{users: users, runner: runner, catalog: catalog, logger: logger}
}

func (s *RecommendationService) For(ctx context.Context, userID primitive.ObjectID) ([]*event.View, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, auth.ErrUserNotFound
	}
	interests, department := strings.TrimSpace(user.Interests), strings.TrimSpace(user.Department)
	if interests == "" || department == "" {
		return nil, ErrIncompleteProfile
	}

	out, err := s.runner.Run(ctx, interests, department)
	if err != nil {
		return nil, err
	}
	ids, err := parseRanking(out)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Recommendations ranked", zap.String("userId", userID.Hex()), zap.Int("candidates", len(ids)))
	return s.catalog.ApprovedByIDs(ctx, ids)
}

// parseRanking reads a JSON array of event ids, skipping entries that are
// not hex ObjectIDs. Duplicates keep their first position.
func parseRanking(out []byte) ([]primitive.ObjectID, error) {
	var raw []interface{}
	if err := json.Unmarshal(out, &raw); err != nil {
		return nil, fmt.Errorf("parse recommender output: %w", err)
	}
	seen := map[primitive.ObjectID]bool{}
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}
