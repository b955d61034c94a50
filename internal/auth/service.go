package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials = errors.New("Invalid credentials")
	ErrUserNotFound       = errors.New("User not found")
)

// ClubDirectory resolves club ids into summaries for profile responses.
type ClubDirectory interface {
	Summaries(ctx context.Context, ids []primitive.ObjectID) ([]ClubSummary, error)
}

type UserService struct {
	repo   UserStore
	clubs  ClubDirectory
	tokens *TokenManager
	logger *zap.Logger
}

func NewUserService(repo UserStore, clubs ClubDirectory, tokens *TokenManager, logger *zap.Logger) *UserService {
	return &UserService{repo: repo, clubs: clubs, tokens: tokens, logger: logger}
}

func (s *UserService) RegisterUser(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	role := req.Role
	if role == "" {
		role = RoleStudent
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: hashed,
		Role:     role,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("User registered", zap.String("userId", user.ID.Hex()), zap.String("role", user.Role))
	return s.issue(ctx, user)
}

func (s *UserService) AuthenticateUser(ctx context.Context, cred Credential) (*AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(cred.Email)))
	if err != nil {
		return nil, err
	}
	if user == nil || !CheckPasswordHash(cred.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(ctx, user)
}

func (s *UserService) issue(ctx context.Context, user *User) (*AuthResponse, error) {
	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	profile, err := s.profileOf(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, User: *profile}, nil
}

func (s *UserService) profileOf(ctx context.Context, user *User) (*Profile, error) {
	clubs := []ClubSummary{}
	if len(user.Clubs) > 0 {
		var err error
		clubs, err = s.clubs.Summaries(ctx, user.Clubs)
		if err != nil {
			return nil, fmt.Errorf("load clubs: %w", err)
		}
	}
	return &Profile{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Role:       user.Role,
		Department: user.Department,
		Interests:  user.Interests,
		Clubs:      clubs,
	}, nil
}

// Profile returns the caller's profile with club summaries.
func (s *UserService) Profile(ctx context.Context, userID primitive.ObjectID) (*Profile, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return s.profileOf(ctx, user)
}

// Me returns the caller's stored user document.
func (s *UserService) Me(ctx context.Context, userID primitive.ObjectID) (*User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile stores department and interests, the inputs of recommendations.
func (s *UserService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, req UpdateProfileRequest) (*User, error) {
	user, err := s.repo.UpdateUser(ctx, userID, bson.M{
		"department": strings.TrimSpace(req.Department),
		"interests":  normalizeInterests(req.Interests),
	})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func normalizeInterests(raw string) string {
	var parts []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ",")
}
