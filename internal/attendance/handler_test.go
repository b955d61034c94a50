package attendance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"CampusEvents/internal/auth"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestAttendanceHandler_CertificateStatus(t *testing.T) {
	w := newWorld(t)
	_, err := w.svc.DecideOD(context.Background(), w.coordinator, w.row.ID, ODApproved)
	require.NoError(t, err)
	h := NewAttendanceHandler(w.svc, zap.NewNop())

	get := func(caller auth.Caller, id primitive.ObjectID) *httptest.ResponseRecorder {
		e := echo.New()
		e.GET("/api/attendance/:id/od-certificate", h.Certificate, func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				c.Set(auth.ContextKey, &auth.JWTClaims{ID: caller.ID.Hex(), Role: caller.Role})
				return next(c)
			}
		})
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/attendance/"+id.Hex()+"/od-certificate", nil))
		return rec
	}

	stranger := auth.Caller{ID: primitive.NewObjectID(), Role: auth.RoleStudent}
	assert.Equal(t, http.StatusForbidden, get(stranger, w.row.ID).Code)
	assert.Equal(t, http.StatusNotFound, get(w.student, primitive.NewObjectID()).Code)

	rec := get(w.student, w.row.ID)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
}
