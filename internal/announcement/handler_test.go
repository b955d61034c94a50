package announcement

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"CampusEvents/internal/auth"
	"CampusEvents/pkg/middleware"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func asCaller(caller auth.Caller) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(auth.ContextKey, &auth.JWTClaims{ID: caller.ID.Hex(), Role: caller.Role})
			return next(c)
		}
	}
}

func serve(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAnnouncementHandler(t *testing.T) {
	f := newFixture(t)
	h := NewAnnouncementHandler(f.svc, zap.NewNop())

	e := echo.New()
	e.Validator = middleware.NewValidator()
	e.GET("/api/announcements/active", h.Active)
	admin := e.Group("/api/announcements", asCaller(f.admin))
	admin.POST("", h.Create)
	admin.PUT("/:id", h.Update)
	admin.DELETE("/:id", h.Delete)

	rec := serve(e, http.MethodGet, "/api/announcements/active", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))

	rec = serve(e, http.MethodPost, "/api/announcements", `{"priority":"Urgent","message":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(e, http.MethodPost, "/api/announcements", `{"message":"Exams moved","priority":"Critical"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = serve(e, http.MethodGet, "/api/announcements/active", "")
	assert.Contains(t, rec.Body.String(), "Exams moved")

	missing := "/api/announcements/" + primitive.NewObjectID().Hex()
	assert.Equal(t, http.StatusNotFound, serve(e, http.MethodDelete, missing, "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(e, http.MethodDelete, "/api/announcements/nothex", "").Code)
}
