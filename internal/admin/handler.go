package admin

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type AdminHandler struct {
	service *AdminService
	logger  *zap.Logger
}

func NewAdminHandler(service *AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{service: service, logger: logger}
}

func (h *AdminHandler) fail(c echo.Context, err error) error {
	h.logger.Error("Admin request failed", zap.String("path", c.Path()), zap.Error(err))
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Server Error"})
}

func (h *AdminHandler) Events(c echo.Context) error {
	events, err := h.service.Events(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, events)
}

func (h *AdminHandler) Users(c echo.Context) error {
	users, err := h.service.Users(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *AdminHandler) RecentActivity(c echo.Context) error {
	feed, err := h.service.RecentActivity(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, feed)
}

func (h *AdminHandler) Stats(c echo.Context) error {
	stats, err := h.service.Stats(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}
