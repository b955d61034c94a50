package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"CampusEvents/internal/auth"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAuthorizer_Policy(t *testing.T) {
	a, err := NewAuthorizer(zap.NewNop())
	require.NoError(t, err)

	cases := []struct {
		role, path, method string
		want               bool
	}{
		{auth.RoleCoordinator, "/api/events/:id/status", http.MethodPatch, true},
		{auth.RoleMember, "/api/events/:id/status", http.MethodPatch, false},
		{auth.RoleStudent, "/api/events/:id/status", http.MethodPatch, false},
		{auth.RoleStudent, "/api/events/:id/register", http.MethodPost, true},
		{auth.RoleMember, "/api/events/:id/register", http.MethodPost, false},
		{auth.RoleMember, "/api/events", http.MethodPost, true},
		{auth.RoleStudent, "/api/events", http.MethodPost, false},
		{auth.RoleFaculty, "/api/events", http.MethodGet, false},
		{auth.RoleCoordinator, "/api/attendance/:id/od", http.MethodPatch, true},
		{auth.RoleMember, "/api/attendance/:id/od", http.MethodPatch, false},
		{auth.RoleMember, "/api/attendance/:id/toggle", http.MethodPatch, true},
		{auth.RoleStudent, "/api/attendance/check-in", http.MethodPost, true},
		{auth.RoleAdmin, "/api/admin/users/:id/role", http.MethodPatch, true},
		{auth.RoleAdmin, "/api/admin/stats", http.MethodGet, true},
		{auth.RoleCoordinator, "/api/admin/stats", http.MethodGet, false},
		{auth.RoleAdmin, "/api/users/:id", http.MethodDelete, true},
		{auth.RoleCoordinator, "/api/users/:id", http.MethodDelete, false},
		{auth.RoleFaculty, "/api/auth/profile", http.MethodGet, true},
		{auth.RoleStudent, "/api/recommendations", http.MethodGet, true},
		{auth.RoleCoordinator, "/api/recommendations", http.MethodGet, false},
		{"dean", "/api/auth/profile", http.MethodGet, false},
		{auth.RoleAdmin, "/api/unknown", http.MethodGet, false},
	}
	for _, tc := range cases {
		got, err := a.Allowed(tc.role, tc.path, tc.method)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s %s %s", tc.role, tc.method, tc.path)
	}
}

func TestAuthorizer_Middleware(t *testing.T) {
	a, err := NewAuthorizer(zap.NewNop())
	require.NoError(t, err)

	withRole := func(role string) echo.MiddlewareFunc {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				if role != "" {
					c.Set(auth.ContextKey, &auth.JWTClaims{ID: "x", Role: role})
				}
				return next(c)
			}
		}
	}

	for _, tc := range []struct {
		role string
		want int
	}{
		{auth.RoleCoordinator, http.StatusOK},
		{auth.RoleStudent, http.StatusForbidden},
		{"", http.StatusUnauthorized},
	} {
		e := echo.New()
		e.PATCH("/api/events/:id/status", func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		}, withRole(tc.role), a.Middleware())

		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/events/abc/status", nil))
		assert.Equal(t, tc.want, rec.Code, tc.role)
	}
}
