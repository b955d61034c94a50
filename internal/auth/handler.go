package auth

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ContextKey is where the JWT middleware stores *JWTClaims.
const ContextKey = "user"

// ClaimsFrom returns the authenticated caller, or nil.
func ClaimsFrom(c echo.Context) *JWTClaims {
	claims, _ := c.Get(ContextKey).(*JWTClaims)
	return claims
}

// CallerID returns the authenticated caller's id.
func CallerID(c echo.Context) (primitive.ObjectID, bool) {
	claims := ClaimsFrom(c)
	if claims == nil {
		return primitive.NilObjectID, false
	}
	id, err := claims.UserID()
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// CallerFrom returns the authenticated caller as a Caller.
func CallerFrom(c echo.Context) (Caller, bool) {
	claims := ClaimsFrom(c)
	if claims == nil {
		return Caller{}, false
	}
	id, err := claims.UserID()
	if err != nil {
		return Caller{}, false
	}
	return Caller{ID: id, Role: claims.Role}, true
}

type AuthHandler struct {
	service *UserService
	logger  *zap.Logger
}

func NewAuthHandler(service *UserService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{service: service, logger: logger}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	resp, err := h.service.RegisterUser(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		h.logger.Error("Registration failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Registration failed"})
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var cred Credential
	if err := c.Bind(&cred); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := c.Validate(&cred); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": ErrInvalidCredentials.Error()})
	}

	resp, err := h.service.AuthenticateUser(c.Request().Context(), cred)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		h.logger.Error("Login failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Login failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Profile(c echo.Context) error {
	userID, ok := CallerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or missing token"})
	}
	profile, err := h.service.Profile(c.Request().Context(), userID)
	if err != nil {
		return h.userError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"user": profile})
}

func (h *AuthHandler) Me(c echo.Context) error {
	userID, ok := CallerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or missing token"})
	}
	user, err := h.service.Me(c.Request().Context(), userID)
	if err != nil {
		return h.userError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	userID, ok := CallerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or missing token"})
	}
	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	user, err := h.service.UpdateProfile(c.Request().Context(), userID, req)
	if err != nil {
		return h.userError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) userError(c echo.Context, err error) error {
	if errors.Is(err, ErrUserNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	h.logger.Error("Profile request failed", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Server error while fetching profile"})
}
