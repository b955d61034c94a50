package club

import (
	"errors"
	"net/http"

	"CampusEvents/internal/auth"
	"CampusEvents/pkg/request"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type ClubHandler struct {
	service *ClubService
	logger  *zap.Logger
}

func NewClubHandler(service *ClubService, logger *zap.Logger) *ClubHandler {
	return &ClubHandler{service: service, logger: logger}
}

func (h *ClubHandler) fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrClubNotFound), errors.Is(err, ErrCoordinatorNotFound), errors.Is(err, auth.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrNotClubCoordinator):
		return c.JSON(http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrClubNameTaken):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	}
	h.logger.Error("Club request failed", zap.String("path", c.Path()), zap.Error(err))
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Server Error"})
}

func (h *ClubHandler) List(c echo.Context) error {
	clubs, err := h.service.List(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, clubs)
}

func (h *ClubHandler) Get(c echo.Context) error {
	id, err := request.ObjectID(c, "id")
	if err != nil {
		return err
	}
	club, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, club)
}

func (h *ClubHandler) Create(c echo.Context) error {
	var req CreateClubRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	club, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, club)
}

func (h *ClubHandler) Update(c echo.Context) error {
	id, err := request.ObjectID(c, "id")
	if err != nil {
		return err
	}
	caller, _ := auth.CallerFrom(c)
	var req UpdateClubRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	club, err := h.service.Update(c.Request().Context(), caller, id, req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, club)
}

func (h *ClubHandler) Delete(c echo.Context) error {
	id, err := request.ObjectID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Club deleted"})
}

func (h *ClubHandler) AddCoordinator(c echo.Context) error {
	clubID, err := request.ObjectID(c, "id")
	if err != nil {
		return err
	}
	var req CoordinatorRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	userID, _ := primitive.ObjectIDFromHex(req.CoordinatorID)
	club, err := h.service.AddCoordinator(c.Request().Context(), clubID, userID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, club)
}

func (h *ClubHandler) RemoveCoordinator(c echo.Context) error {
	clubID, err := request.ObjectID(c, "id")
	if err != nil {
		return err
	}
	userID, err := request.ObjectID(c, "coordinatorId")
	if err != nil {
		return err
	}
	club, err := h.service.RemoveCoordinator(c.Request().Context(), clubID, userID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, club)
}

func (h *ClubHandler) AddMember(c echo.Context) error {
	clubID, err := request.ObjectID(c, "id")
	if err != nil {
		return err
	}
	caller, _ := auth.CallerFrom(c)
	var req MemberRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	userID, _ := primitive.ObjectIDFromHex(req.UserID)
	members, err := h.service.AddMember(c.Request().Context(), caller, clubID, userID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, members)
}

func (h *ClubHandler) RemoveMember(c echo.Context) error {
	clubID, err := request.ObjectID(c, "id")
	if err != nil {
		return err
	}
	memberID, err := request.ObjectID(c, "memberId")
	if err != nil {
		return err
	}
	caller, _ := auth.CallerFrom(c)
	if err := h.service.RemoveMember(c.Request().Context(), caller, clubID, memberID); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Member removed"})
}
