package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"CampusEvents/internal/auth"
	"CampusEvents/internal/auth/authtest"
	"CampusEvents/pkg/middleware"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuthServer(t *testing.T) (*echo.Echo, *auth.TokenManager) {
	t.Helper()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	svc := auth.NewUserService(authtest.NewMemoryUserStore(), stubClubs{}, tokens, zap.NewNop())
	h := auth.NewAuthHandler(svc, zap.NewNop())

	e := echo.New()
	e.Validator = middleware.NewValidator()
	e.POST("/api/auth/register", h.Register)
	e.POST("/api/auth/login", h.Login)
	e.GET("/api/auth/profile", h.Profile, middleware.JWTMiddleware(tokens, zap.NewNop()))
	e.PUT("/api/profile", h.UpdateProfile, middleware.JWTMiddleware(tokens, zap.NewNop()))
	return e, tokens
}

func do(e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthHandler_RegisterLoginProfile(t *testing.T) {
	e, _ := newAuthServer(t)

	rec := do(e, http.MethodPost, "/api/auth/register",
		`{"name":"A","email":"a@x.com","password":"secret1","role":"student"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(e, http.MethodPost, "/api/auth/register",
		`{"name":"A2","email":"a@x.com","password":"secret1"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "already exists")

	rec = do(e, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"wrong"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid credentials"}`, rec.Body.String())

	rec = do(e, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"secret1"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp auth.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "A", resp.User.Name)
	assert.Equal(t, auth.RoleStudent, resp.User.Role)

	rec = do(e, http.MethodGet, "/api/auth/profile", "", resp.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"a@x.com"`)

	rec = do(e, http.MethodPut, "/api/profile", `{"department":"ECE","interests":"music, art"}`, resp.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"interests":"music,art"`)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestAuthHandler_RegisterRejectsAdminRole(t *testing.T) {
	e, _ := newAuthServer(t)

	rec := do(e, http.MethodPost, "/api/auth/register",
		`{"name":"Root","email":"root@x.com","password":"secret1","role":"admin"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_ProfileRequiresToken(t *testing.T) {
	e, _ := newAuthServer(t)

	rec := do(e, http.MethodGet, "/api/auth/profile", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
