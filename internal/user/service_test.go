package user_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"CampusEvents/internal/auth"
	"CampusEvents/internal/auth/authtest"
	"CampusEvents/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// rosterCleaner stands in for the club store: it tracks which clubs list
// a user as coordinator.
type rosterCleaner struct {
	coordinators map[primitive.ObjectID][]primitive.ObjectID
	err          error
}

func (r *rosterCleaner) RemoveUserFromAll(_ context.Context, userID primitive.ObjectID) error {
	if r.err != nil {
		return r.err
	}
	for club, ids := range r.coordinators {
		kept := []primitive.ObjectID{}
		for _, id := range ids {
			if id != userID {
				kept = append(kept, id)
			}
		}
		r.coordinators[club] = kept
	}
	return nil
}

func newService(store auth.UserStore, cleaners ...user.UserCleaner) *user.UserService {
	return user.NewUserService(user.ServiceParams{Users: store, Cleaners: cleaners, Logger: zap.NewNop()})
}

func seedUsers(n int) (*authtest.MemoryUserStore, []*auth.User) {
	var users []*auth.User
	base := time.Now()
	for i := 0; i < n; i++ {
		users = append(users, &auth.User{
			ID:        primitive.NewObjectID(),
			Name:      fmt.Sprintf("Student %02d", i),
			Email:     fmt.Sprintf("s%02d@college.edu", i),
			Role:      auth.RoleStudent,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return authtest.NewMemoryUserStore(users...), users
}

func TestSearch(t *testing.T) {
	store, _ := seedUsers(15)
	svc := newService(store)
	ctx := context.Background()

	empty, err := svc.Search(ctx, "   ")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	hits, err := svc.Search(ctx, "STUDENT")
	require.NoError(t, err)
	assert.Len(t, hits, 10)

	one, err := svc.Search(ctx, "s03@")
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "Student 03", one[0].Name)
}

func TestListPaginates(t *testing.T) {
	store, _ := seedUsers(25)
	svc := newService(store)

	page, err := svc.List(context.Background(), "", 3, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(25), page.Total)
	assert.Equal(t, int64(3), page.Page)
	assert.Equal(t, int64(3), page.Pages)
	assert.Len(t, page.Users, 5)
}

func TestCreateAndUpdate(t *testing.T) {
	store := authtest.NewMemoryUserStore()
	svc := newService(store)
	ctx := context.Background()

	u, err := svc.Create(ctx, user.CreateUserRequest{Name: "Fac", Email: "FAC@College.edu", Password: "secret1", Role: auth.RoleFaculty})
	require.NoError(t, err)
	assert.Equal(t, "fac@college.edu", u.Email)
	assert.True(t, auth.CheckPasswordHash("secret1", store.Get(u.ID).Password))

	_, err = svc.Create(ctx, user.CreateUserRequest{Name: "Dup", Email: "fac@college.edu", Password: "secret1", Role: auth.RoleStudent})
	assert.ErrorIs(t, err, auth.ErrEmailTaken)

	empty := ""
	name := "Faculty One"
	updated, err := svc.Update(ctx, u.ID, user.UpdateUserRequest{Name: &name, Password: &empty})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.True(t, auth.CheckPasswordHash("secret1", store.Get(u.ID).Password))

	_, err = svc.Update(ctx, primitive.NewObjectID(), user.UpdateUserRequest{Name: &name})
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestSetRoleAllowList(t *testing.T) {
	store, users := seedUsers(1)
	svc := newService(store)
	ctx := context.Background()

	for _, bad := range []string{auth.RoleAdmin, "superuser", ""} {
		_, err := svc.SetRole(ctx, users[0].ID, bad)
		assert.ErrorIs(t, err, user.ErrInvalidRole, bad)
	}
	u, err := svc.SetRole(ctx, users[0].ID, auth.RoleMember)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleMember, u.Role)
}

func TestDeleteClearsClubRosters(t *testing.T) {
	store, users := seedUsers(2)
	victim, other := users[0], users[1]
	club := primitive.NewObjectID()
	roster := &rosterCleaner{coordinators: map[primitive.ObjectID][]primitive.ObjectID{
		club: {victim.ID, other.ID},
	}}
	svc := newService(store, roster)
	admin := auth.Caller{ID: primitive.NewObjectID(), Role: auth.RoleAdmin}
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, admin, victim.ID))
	assert.Equal(t, []primitive.ObjectID{other.ID}, roster.coordinators[club])
	assert.Nil(t, store.Get(victim.ID))

	assert.ErrorIs(t, svc.Delete(ctx, admin, victim.ID), auth.ErrUserNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, auth.Caller{ID: other.ID, Role: auth.RoleAdmin}, other.ID), user.ErrCannotDeleteSelf)
}

func TestDeleteKeepsUserWhenCleanupFails(t *testing.T) {
	store, users := seedUsers(1)
	svc := newService(store, &rosterCleaner{err: errors.New("boom")})

	err := svc.Delete(context.Background(), auth.Caller{ID: primitive.NewObjectID(), Role: auth.RoleAdmin}, users[0].ID)
	require.Error(t, err)
	assert.NotNil(t, store.Get(users[0].ID))
}
