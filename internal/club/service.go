package club

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"CampusEvents/internal/auth"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrClubNotFound        = errors.New("Club not found")
	ErrNotClubCoordinator  = errors.New("User not authorized")
	ErrCoordinatorNotFound = errors.New("Coordinator not found or user is not a coordinator.")
)

type ClubService struct {
	clubs  Store
	users  auth.UserStore
	logger *zap.Logger
}

func NewClubService(clubs Store, users auth.UserStore, logger *zap.Logger) *ClubService {
	return &ClubService{clubs: clubs, users: users, logger: logger}
}

func (s *ClubService) List(ctx context.Context) ([]*ClubDetail, error) {
	return s.clubs.List(ctx)
}

func (s *ClubService) Get(ctx context.Context, id primitive.ObjectID) (*ClubDetail, error) {
	club, err := s.clubs.FindDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if club == nil {
		return nil, ErrClubNotFound
	}
	return club, nil
}

func (s *ClubService) coordinatorUser(ctx context.Context, id primitive.ObjectID) (*auth.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Role != auth.RoleCoordinator {
		return nil, ErrCoordinatorNotFound
	}
	return user, nil
}

func (s *ClubService) Create(ctx context.Context, req CreateClubRequest) (*Club, error) {
	club := &Club{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		ImageURL:    req.ImageURL,
	}
	if club.ImageURL == "" {
		club.ImageURL = DefaultImageURL
	}

	var coordinator *auth.User
	if req.CoordinatorID != "" {
		id, err := primitive.ObjectIDFromHex(req.CoordinatorID)
		if err != nil {
			return nil, ErrCoordinatorNotFound
		}
		if coordinator, err = s.coordinatorUser(ctx, id); err != nil {
			return nil, err
		}
		club.Coordinators = []primitive.ObjectID{id}
		club.Members = []primitive.ObjectID{id}
	}

	if err := s.clubs.Create(ctx, club); err != nil {
		return nil, err
	}
	if coordinator != nil {
		if err := s.users.AddClub(ctx, coordinator.ID, club.ID); err != nil {
			return nil, fmt.Errorf("link coordinator: %w", err)
		}
	}
	s.logger.Info("Club created", zap.String("clubId", club.ID.Hex()), zap.String("name", club.Name))
	return club, nil
}

func (s *ClubService) managed(ctx context.Context, caller auth.Caller, id primitive.ObjectID) (*Club, error) {
	club, err := s.clubs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if club == nil {
		return nil, ErrClubNotFound
	}
	if !club.CanManage(caller) {
		return nil, ErrNotClubCoordinator
	}
	return club, nil
}

func (s *ClubService) Update(ctx context.Context, caller auth.Caller, id primitive.ObjectID, req UpdateClubRequest) (*Club, error) {
	if _, err := s.managed(ctx, caller, id); err != nil {
		return nil, err
	}
	set := bson.M{}
	if req.Name != nil {
		set["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if req.ImageURL != nil {
		set["imageUrl"] = *req.ImageURL
	}
	club, err := s.clubs.Update(ctx, id, set)
	if err != nil {
		return nil, err
	}
	if club == nil {
		return nil, ErrClubNotFound
	}
	return club, nil
}

func (s *ClubService) Delete(ctx context.Context, id primitive.ObjectID) error {
	deleted, err := s.clubs.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrClubNotFound
	}
	if err := s.users.PullClubFromAll(ctx, id); err != nil {
		return fmt.Errorf("unlink club from users: %w", err)
	}
	s.logger.Info("Club deleted", zap.String("clubId", id.Hex()))
	return nil
}

func (s *ClubService) AddCoordinator(ctx context.Context, clubID, userID primitive.ObjectID) (*Club, error) {
	if _, err := s.coordinatorUser(ctx, userID); err != nil {
		return nil, err
	}
	club, err := s.clubs.AddCoordinator(ctx, clubID, userID)
	if err != nil {
		return nil, err
	}
	if club == nil {
		return nil, ErrClubNotFound
	}
	if err := s.users.AddClub(ctx, userID, clubID); err != nil {
		return nil, fmt.Errorf("link coordinator: %w", err)
	}
	s.logger.Info("Coordinator assigned", zap.String("clubId", clubID.Hex()), zap.String("userId", userID.Hex()))
	return club, nil
}

func (s *ClubService) RemoveCoordinator(ctx context.Context, clubID, userID primitive.ObjectID) (*Club, error) {
	club, err := s.clubs.RemoveCoordinator(ctx, clubID, userID)
	if err != nil {
		return nil, err
	}
	if club == nil {
		return nil, ErrClubNotFound
	}
	if err := s.users.RemoveClub(ctx, userID, clubID); err != nil {
		return nil, fmt.Errorf("unlink coordinator: %w", err)
	}
	return club, nil
}

// AddMember adds userID to the club. Students are promoted to member.
func (s *ClubService) AddMember(ctx context.Context, caller auth.Caller, clubID, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	if _, err := s.managed(ctx, caller, clubID); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, auth.ErrUserNotFound
	}

	club, err := s.clubs.AddMember(ctx, clubID, userID)
	if err != nil {
		return nil, err
	}
	if club == nil {
		return nil, ErrClubNotFound
	}
	if err := s.users.AddClub(ctx, userID, clubID); err != nil {
		return nil, fmt.Errorf("link member: %w", err)
	}
	if user.Role == auth.RoleStudent {
		if _, err := s.users.UpdateUser(ctx, userID, bson.M{"role": auth.RoleMember}); err != nil {
			return nil, fmt.Errorf("promote member: %w", err)
		}
		s.logger.Info("User role updated", zap.String("userId", userID.Hex()), zap.String("role", auth.RoleMember))
	}
	return club.Members, nil
}

func (s *ClubService) RemoveMember(ctx context.Context, caller auth.Caller, clubID, userID primitive.ObjectID) error {
	if _, err := s.managed(ctx, caller, clubID); err != nil {
		return err
	}
	club, err := s.clubs.RemoveMember(ctx, clubID, userID)
	if err != nil {
		return err
	}
	if club == nil {
		return ErrClubNotFound
	}
	return s.users.RemoveClub(ctx, userID, clubID)
}
