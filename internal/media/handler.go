package media

import (
	"errors"
	"net/http"

	"CampusEvents/pkg/request"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type MediaHandler struct {
	service *MediaService
	logger  *zap.Logger
}

func NewMediaHandler(service *MediaService, logger *zap.Logger) *MediaHandler {
	return &MediaHandler{service: service, logger: logger}
}

func (h *MediaHandler) Upload(c echo.Context) error {
	header, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No file uploaded"})
	}
	upload, err := h.service.Save(c.Request().Context(), header)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotImage):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, ErrFileTooLarge):
			return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{"error": err.Error()})
		}
		h.logger.Error("Image upload failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Server Error"})
	}
	return c.JSON(http.StatusCreated, upload)
}

func (h *MediaHandler) Image(c echo.Context) error {
	id, err := request.ObjectID(c, "id")
	if err != nil {
		return err
	}
	r, file, err := h.service.Open(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrImageNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		h.logger.Error("Image download failed", zap.String("fileId", id.Hex()), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Server Error"})
	}
	defer r.Close()
	header := c.Response().Header()
	header.Set("Cache-Control", "public, max-age=86400")
	header.Set(echo.HeaderXContentTypeOptions, "nosniff")
	header.Set(echo.HeaderContentSecurityPolicy, "default-src 'none'; sandbox")
	return c.Stream(http.StatusOK, file.ContentType, r)
}
