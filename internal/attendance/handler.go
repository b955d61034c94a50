package attendance

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"CampusEvents/internal/auth"
	"CampusEvents/pkg/request"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type AttendanceHandler struct {
	service *AttendanceService
	logger  *zap.Logger
}

func NewAttendanceHandler(service *AttendanceService, logger *zap.Logger) *AttendanceHandler {
	return &AttendanceHandler{service: service, logger: logger}
}

func (h *AttendanceHandler) fail(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrCheckInIDRequired), errors.Is(err, ErrInvalidODStatus):
		status = http.StatusBadRequest
	case errors.Is(err, ErrInvalidCheckIn), errors.Is(err, ErrRecordNotFound), errors.Is(err, ErrEventNotFound), errors.Is(err, auth.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrEventNotActive), errors.Is(err, ErrNotRegistered), errors.Is(err, ErrNotClubStaff), errors.Is(err, ErrCertificateUnavailable),
		errors.Is(err, ErrNotRecordOwner):
		status = http.StatusForbidden
	case errors.Is(err, ErrAlreadyPresent):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("Attendance request failed", zap.String("path", c.Path()), zap.Error(err))
		return c.JSON(status, map[string]string{"error": "Server error"})
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}

func (h *AttendanceHandler) CheckIn(c echo.Context) error {
	caller, _ := auth.CallerFrom(c)
	var req CheckInRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	res, err := h.service.CheckIn(c.Request().Context(), caller, strings.TrimSpace(req.CheckInID))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *AttendanceHandler) Toggle(c echo.Context) error {
	id, err := request.ObjectID(c, "id")
	if err != nil {
		return err
	}
	caller, _ := auth.CallerFrom(c)
	row, err := h.service.Toggle(c.Request().Context(), caller, id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, row)
}

func (h *AttendanceHandler) DecideOD(c echo.Context) error {
	id, err := request.ObjectID(c, "id")
	if err != nil {
		return err
	}
	caller, _ := auth.CallerFrom(c)
	var req ODDecisionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	row, err := h.service.DecideOD(c.Request().Context(), caller, id, req.ODStatus)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"message": "OD status updated", "attendance": row})
}

func (h *AttendanceHandler) PendingOD(c echo.Context) error {
	caller, _ := auth.CallerFrom(c)
	records, err := h.service.PendingOD(c.Request().Context(), caller)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, records)
}

func (h *AttendanceHandler) MyOD(c echo.Context) error {
	caller, _ := auth.CallerFrom(c)
	records, err := h.service.MyOD(c.Request().Context(), caller)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, records)
}

func (h *AttendanceHandler) Certificate(c echo.Context) error {
	id, err := request.ObjectID(c, "id")
	if err != nil {
		return err
	}
	caller, _ := auth.CallerFrom(c)
	cert, err := h.service.Certificate(c.Request().Context(), caller, id)
	if err != nil {
		return h.fail(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", cert.Filename))
	return c.Blob(http.StatusOK, "application/pdf", cert.PDF)
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func (h *AttendanceHandler) Export(c echo.Context) error {
	eventID, err := request.ObjectID(c, "eventId")
	if err != nil {
		return err
	}
	caller, _ := auth.CallerFrom(c)
	ev, records, err := h.service.EventRecords(c.Request().Context(), caller, eventID)
	if err != nil {
		return h.fail(c, err)
	}

	name := strings.Trim(unsafeFilename.ReplaceAllString(ev.Name, "-"), "-")
	if name == "" {
		name = ev.ID.Hex()
	}
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "attendance-"+name+".csv"))
	res.WriteHeader(http.StatusOK)
	if err := WriteCSV(res, records); err != nil {
		h.logger.Error("CSV export failed", zap.String("eventId", eventID.Hex()), zap.Error(err))
	}
	return nil
}
