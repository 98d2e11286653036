package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bizflow/bizflow/internal/auth"
	"github.com/bizflow/bizflow/internal/events"
	"github.com/bizflow/bizflow/internal/identity"
)

type AuthHandler struct {
	Identity  *identity.Service
	JWTSecret []byte
	Producer  *events.Producer
}

func (h *AuthHandler) publish(c echo.Context, key string, event map[string]interface{}) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", key, event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *AuthHandler) Signup(c echo.Context) error {
	var req struct {
		Name         string `json:"name"`
		Email        string `json:"email"`
		Password     string `json:"password"`
		Role         string `json:"role"`
		Subscription string `json:"subscription"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name, email and password are required")
	}

	user, err := h.Identity.Signup(req.Name, req.Email, req.Password, req.Role, req.Subscription)
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			return echo.NewHTTPError(http.StatusConflict, "email already registered")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	token, err := auth.SignSessionToken(user.ID, user.Role, h.JWTSecret)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	c.SetCookie(auth.CreateCookie(auth.CookieName, token, "/", time.Now().Add(auth.SessionTTL)))

	h.publish(c, user.ID, map[string]interface{}{
		"type":   "user_registered",
		"userID": user.ID,
		"email":  user.Email,
	})

	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	user, err := h.Identity.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	token, err := auth.SignSessionToken(user.ID, user.Role, h.JWTSecret)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	c.SetCookie(auth.CreateCookie(auth.CookieName, token, "/", time.Now().Add(auth.SessionTTL)))

	h.publish(c, user.ID, map[string]interface{}{
		"type":   "user_logged_in",
		"userID": user.ID,
		"email":  user.Email,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"user":     user,
		"is_admin": user.Role == "admin",
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.Identity.Logout(); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	expired := time.Now().Add(-1 * time.Hour)
	c.SetCookie(auth.CreateCookie(auth.CookieName, "", "/", expired))

	return c.JSON(http.StatusOK, echo.Map{
		"message":  "logged out",
		"redirect": "/",
	})
}

func (h *AuthHandler) Me(c echo.Context) error {
	user := h.Identity.CurrentUser()
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "no active session")
	}
	return c.JSON(http.StatusOK, user)
}
