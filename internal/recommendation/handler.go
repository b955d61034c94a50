package recommendation

import (
	"errors"
	"net/http"

	"CampusEvents/internal/auth"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type RecommendationHandler struct {
	service *RecommendationService
	logger  *zap.Logger
}

func NewRecommendationHandler(service *RecommendationService, logger *zap.Logger) *RecommendationHandler {
	return &RecommendationHandler{service: service, logger: logger}
}

func (h *RecommendationHandler) Get(c echo.Context) error {
	caller, _ := auth.CallerFrom(c)
	events, err := h.service.For(c.Request().Context(), caller.ID)
	if err == nil {
		return c.JSON(http.StatusOK, events)
	}

	var scriptErr *ScriptError
	switch {
	case errors.Is(err, ErrIncompleteProfile):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, auth.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &scriptErr):
		h.logger.Error("Recommender failed", zap.Int("exitCode", scriptErr.ExitCode), zap.String("stderr", scriptErr.Stderr))
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error":   "Could not generate recommendations.",
			"details": scriptErr.Stderr,
		})
	case errors.Is(err, ErrTimeout):
		h.logger.Error("Recommender timed out")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Could not generate recommendations."})
	}
	h.logger.Error("Recommendation request failed", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Server Error"})
}
