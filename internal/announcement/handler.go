package announcement

import (
	"errors"
	"net/http"

	"CampusEvents/internal/auth"
	"CampusEvents/pkg/request"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type AnnouncementHandler struct {
	service *AnnouncementService
	logger  *zap.Logger
}

func NewAnnouncementHandler(service *AnnouncementService, logger *zap.Logger) *AnnouncementHandler {
	return &AnnouncementHandler{service: service, logger: logger}
}

func (h *AnnouncementHandler) fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrAnnouncementNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrMessageRequired), errors.Is(err, ErrInvalidExpiry):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	h.logger.Error("Announcement request failed", zap.String("path", c.Path()), zap.Error(err))
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Server Error"})
}

// Active responds with null when nothing is live.
func (h *AnnouncementHandler) Active(c echo.Context) error {
	a, err := h.service.Active(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *AnnouncementHandler) List(c echo.Context) error {
	caller, _ := auth.CallerFrom(c)
	list, err := h.service.List(c.Request().Context(), caller)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *AnnouncementHandler) Create(c echo.Context) error {
	caller, _ := auth.CallerFrom(c)
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	a, err := h.service.Create(c.Request().Context(), caller, req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *AnnouncementHandler) Update(c echo.Context) error {
	id, err := request.ObjectID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	a, err := h.service.Update(c.Request().Context(), id, req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *AnnouncementHandler) Delete(c echo.Context) error {
	id, err := request.ObjectID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Announcement deleted successfully."})
}
