package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"CampusEvents/internal/auth"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	searchLimit  = 10
	defaultLimit = 20
	maxLimit     = 100
)

var (
	ErrCannotDeleteSelf = errors.New("You cannot delete your own account")
	ErrInvalidRole      = errors.New("Invalid role specified.")
)

// UserCleaner drops references to a user that is about to be deleted.
type UserCleaner interface {
	RemoveUserFromAll(ctx context.Context, userID primitive.ObjectID) error
}

type ServiceParams struct {
	fx.In

	Users    auth.UserStore
	Cleaners []UserCleaner `group:"user_cleaners"`
	Logger   *zap.Logger
}

type UserService struct {
	users    auth.UserStore
	cleaners []UserCleaner
	logger   *zap.Logger
}

func NewUserService(p ServiceParams) *UserService {
	return &UserService{users: p.Users, cleaners: p.Cleaners, logger: p.Logger}
}

func summaries(users []*auth.User) []auth.UserSummary {
	out := make([]auth.UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, u.Summary())
	}
	return out
}

// Search matches name or email case-insensitively. A blank term matches
// nothing.
func (s *UserService) Search(ctx context.Context, term string) ([]auth.UserSummary, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []auth.UserSummary{}, nil
	}
	users, err := s.users.Search(ctx, term, searchLimit)
	if err != nil {
		return nil, err
	}
	return summaries(users), nil
}

func (s *UserService) Coordinators(ctx context.Context) ([]auth.UserSummary, error) {
	users, err := s.users.FindByRole(ctx, auth.RoleCoordinator)
	if err != nil {
		return nil, err
	}
	return summaries(users), nil
}

func (s *UserService) List(ctx context.Context, search string, page, limit int64) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	users, total, err := s.users.List(ctx, strings.TrimSpace(search), page, limit)
	if err != nil {
		return nil, err
	}
	return &Page{Users: users, Total: total, Page: page, Pages: (total + limit - 1) / limit}, nil
}

func (s *UserService) All(ctx context.Context) ([]*auth.User, error) {
	return s.users.FindAll(ctx)
}

func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*auth.User, error) {
	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &auth.User{
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		Password:   hashed,
		Role:       req.Role,
		Department: strings.TrimSpace(req.Department),
		Interests:  req.Interests,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("User created by admin", zap.String("userId", u.ID.Hex()), zap.String("role", u.Role))
	return u, nil
}

func (s *UserService) Update(ctx context.Context, id primitive.ObjectID, req UpdateUserRequest) (*auth.User, error) {
	set := bson.M{}
	if req.Name != nil {
		set["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		set["email"] = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Role != nil {
		set["role"] = *req.Role
	}
	if req.Department != nil {
		set["department"] = strings.TrimSpace(*req.Department)
	}
	if req.Interests != nil {
		set["interests"] = *req.Interests
	}
	if req.Password != nil && *req.Password != "" {
		hashed, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		set["password"] = hashed
	}
	if len(set) == 0 {
		return s.find(ctx, id)
	}
	u, err := s.users.UpdateUser(ctx, id, set)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, auth.ErrUserNotFound
	}
	return u, nil
}

// SetRole changes a user's role. Admin rights cannot be granted here.
func (s *UserService) SetRole(ctx context.Context, id primitive.ObjectID, role string) (*auth.User, error) {
	if !auth.ValidRole(role) || role == auth.RoleAdmin {
		return nil, ErrInvalidRole
	}
	u, err := s.users.UpdateUser(ctx, id, bson.M{"role": role})
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, auth.ErrUserNotFound
	}
	s.logger.Info("User role changed", zap.String("userId", id.Hex()), zap.String("role", role))
	return u, nil
}

func (s *UserService) find(ctx context.Context, id primitive.ObjectID) (*auth.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, auth.ErrUserNotFound
	}
	return u, nil
}

// Delete removes the user after clearing every reference to them: club
// rosters, registrations, attendance rows and interactions.
func (s *UserService) Delete(ctx context.Context, caller auth.Caller, id primitive.ObjectID) error {
	if caller.ID == id {
		return ErrCannotDeleteSelf
	}
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	for _, c := range s.cleaners {
		if err := c.RemoveUserFromAll(ctx, id); err != nil {
			return fmt.Errorf("remove user references: %w", err)
		}
	}
	deleted, err := s.users.DeleteUser(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return auth.ErrUserNotFound
	}
	s.logger.Info("User deleted", zap.String("userId", id.Hex()), zap.String("by", caller.ID.Hex()))
	return nil
}
