package event

import (
	"errors"
	"net/http"

	"CampusEvents/internal/auth"
	"CampusEvents/pkg/request"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type EventHandler struct {
	service *EventService
	logger  *zap.Logger
}

func NewEventHandler(service *EventService, logger *zap.Logger) *EventHandler {
	return &EventHandler{service: service, logger: logger}
}

func (h *EventHandler) fail(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrInvalidSchedule), errors.Is(err, ErrInvalidImage), errors.Is(err, ErrNotRegistered),
		errors.Is(err, ErrTextRequired), errors.Is(err, ErrNameRequired):
		status = http.StatusBadRequest
	case errors.Is(err, ErrEventNotFound), errors.Is(err, ErrClubNotFound), errors.Is(err, ErrCommentNotFound), errors.Is(err, ErrReplyNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrNotEventStaff), errors.Is(err, ErrNotClubCoordinator), errors.Is(err, ErrNotCommentOwner),
		errors.Is(err, ErrRegistrationNotOpen), errors.Is(err, ErrRegistrationClosed):
		status = http.StatusForbidden
	case errors.Is(err, ErrEventFull):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("Event request failed", zap.String("path", c.Path()), zap.Error(err))
		return c.JSON(status, map[string]string{"error": "Server Error"})
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}

func (h *EventHandler) Create(c echo.Context) error {
	caller, _ := auth.CallerFrom(c)
	var req CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	ev, err := h.service.Create(c.Request().Context(), caller, req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, ev)
}

func (h *EventHandler) List(c echo.Context) error {
	events, err := h.service.Approved(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, events)
}

func (h *EventHandler) Public(c echo.Context) error {
	return h.List(c)
}

// PublicDetail serves guests and, when a valid token is sent, adds the
// caller's like and registration flags.
func (h *EventHandler) PublicDetail(c echo.Context) error {
	id, err := request.ObjectID(c, "id")
	if err != nil {
		return err
	}
	var caller *auth.Caller
	if cl, ok := auth.CallerFrom(c); ok {
		caller = &cl
	}
	ev, err := h.service.PublicDetail(c.Request().Context(), caller, id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, ev)
}

func (h *EventHandler) MyEvents(c echo.Context) error {
	caller, _ := auth.CallerFrom(c)
	events, err := h.service.MyEvents(c.Request().Context(), caller)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, events)
}

func (h *EventHandler) PendingApprovals(c echo.Context) error {
	caller, _ := auth.CallerFrom(c)
	events, err := h.service.PendingApprovals(c.Request().Context(), caller)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, events)
}

func (h *EventHandler) ByClub(c echo.Context) error {
	clubID, err := request.ObjectID(c, "clubId")
	if err != nil {
		return err
	}
	caller, _ := auth.CallerFrom(c)
	events, err := h.service.ByClub(c.Request().Context(), caller, clubID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, events)
}

func (h *EventHandler) Get(c echo.Context) error {
	id, err := request.ObjectID(c, "id")
	if err != nil {
		return err
	}
	caller, _ := auth.CallerFrom(c)
	ev, err := h.service.Detail(c.Request().Context(), caller, id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, ev)
}

func (h *EventHandler) Update(c echo.Context) error {
	id, err := request.ObjectID(c, "id")
	if err != nil {
		return err
	}
	caller, _ := auth.CallerFrom(c)
	var req UpdateEventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	ev, err := h.service.Update(c.Request().Context(), caller, id, req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, ev)
}

func (h *EventHandler) Delete(c echo.Context) error {
	id, err := request.ObjectID(c, "id")
	if err != nil {
		return err
	}
	caller, _ := auth.CallerFrom(c)
	if err := h.service.Delete(c.Request().Context(), caller, id); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Event and associated attendance records removed"})
}

func (h *EventHandler) SetStatus(c echo.Context) error {
	id, err := request.ObjectID(c, "id")
	if err != nil {
		return err
	}
	caller, _ := auth.CallerFrom(c)
	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	ev, err := h.service.SetStatus(c.Request().Context(), caller, id, req.Status)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, ev)
}

func (h *EventHandler) Register(c echo.Context) error {
	id, err := request.ObjectID(c, "id")
	if err != nil {
		return err
	}
	caller, _ := auth.CallerFrom(c)
	res, err := h.service.Register(c.Request().Context(), caller, id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *EventHandler) Unregister(c echo.Context) error {
	id, err := request.ObjectID(c, "id")
	if err != nil {
		return err
	}
	caller, _ := auth.CallerFrom(c)
	if err := h.service.Unregister(c.Request().Context(), caller, id); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Student unregistered from event successfully"})
}

func (h *EventHandler) Registrations(c echo.Context) error {
	id, err := request.ObjectID(c, "id")
	if err != nil {
		return err
	}
	caller, _ := auth.CallerFrom(c)
	regs, err := h.service.Registrations(c.Request().Context(), caller, id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, regs)
}

func (h *EventHandler) Like(c echo.Context) error {
	id, err := request.ObjectID(c, "id")
	if err != nil {
		return err
	}
	caller, _ := auth.CallerFrom(c)
	res, err := h.service.Like(c.Request().Context(), caller, id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *EventHandler) View(c echo.Context) error {
	id, err := request.ObjectID(c, "id")
	if err != nil {
		return err
	}
	caller, _ := auth.CallerFrom(c)
	res, err := h.service.View(c.Request().Context(), caller, id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *EventHandler) Comments(c echo.Context) error {
	id, err := request.ObjectID(c, "id")
	if err != nil {
		return err
	}
	comments, err := h.service.Comments(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, comments)
}

func (h *EventHandler) AddComment(c echo.Context) error {
	id, err := request.ObjectID(c, "id")
	if err != nil {
		return err
	}
	caller, _ := auth.CallerFrom(c)
	var req TextRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	comment, err := h.service.AddComment(c.Request().Context(), caller, id, req.Text)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, comment)
}

func (h *EventHandler) EditComment(c echo.Context) error {
	id, err := request.ObjectID(c, "id")
	if err != nil {
		return err
	}
	commentID, err := request.ObjectID(c, "commentId")
	if err != nil {
		return err
	}
	caller, _ := auth.CallerFrom(c)
	var req TextRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	comment, err := h.service.EditComment(c.Request().Context(), caller, id, commentID, req.Text)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, comment)
}

func (h *EventHandler) DeleteComment(c echo.Context) error {
	id, err := request.ObjectID(c, "id")
	if err != nil {
		return err
	}
	commentID, err := request.ObjectID(c, "commentId")
	if err != nil {
		return err
	}
	caller, _ := auth.CallerFrom(c)
	if err := h.service.DeleteComment(c.Request().Context(), caller, id, commentID); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Comment deleted"})
}

func (h *EventHandler) AddReply(c echo.Context) error {
	id, err := request.ObjectID(c, "id")
	if err != nil {
		return err
	}
	commentID, err := request.ObjectID(c, "commentId")
	if err != nil {
		return err
	}
	caller, _ := auth.CallerFrom(c)
	var req TextRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	comment, err := h.service.AddReply(c.Request().Context(), caller, id, commentID, req.Text)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, comment)
}

func (h *EventHandler) DeleteReply(c echo.Context) error {
	id, err := request.ObjectID(c, "id")
	if err != nil {
		return err
	}
	commentID, err := request.ObjectID(c, "commentId")
	if err != nil {
		return err
	}
	replyID, err := request.ObjectID(c, "replyId")
	if err != nil {
		return err
	}
	caller, _ := auth.CallerFrom(c)
	if err := h.service.DeleteReply(c.Request().Context(), caller, id, commentID, replyID); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Reply deleted"})
}

func (h *EventHandler) QR(c echo.Context) error {
	id, err := request.ObjectID(c, "id")
	if err != nil {
		return err
	}
	caller, _ := auth.CallerFrom(c)
	info, err := h.service.QR(c.Request().Context(), caller, id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, info)
}

func (h *EventHandler) RotateQR(c echo.Context) error {
	id, err := request.ObjectID(c, "id")
	if err != nil {
		return err
	}
	caller, _ := auth.CallerFrom(c)
	info, err := h.service.RotateQR(c.Request().Context(), caller, id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, info)
}
