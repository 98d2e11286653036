package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bizflow/bizflow/internal/identity"
	"github.com/bizflow/bizflow/internal/models"
)

// Middleware guards routes by role. The cookie must parse and its subject
// must match the active session; a valid cookie for a stale session is
// rejected the same as no cookie.
type Middleware struct {
	Identity *identity.Service
	Secret   []byte
}

func (m *Middleware) RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return m.require(models.RoleUser, next)
}

func (m *Middleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.require(models.RoleAdmin, next)
}

func (m *Middleware) require(role string, next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(CookieName)
		if err != nil || cookie.Value == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing session cookie")
		}

		userID, tokenRole, err := ParseSessionToken(cookie.Value, m.Secret)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
		}

		current := m.Identity.CurrentUser()
		if current == nil || current.ID != userID {
			return echo.NewHTTPError(http.StatusUnauthorized, "no active session")
		}
		if current.Role != role || tokenRole != role {
			return echo.NewHTTPError(http.StatusForbidden, echo.Map{
				"message": "not enough rights",
				"home":    HomeRoute(current.Role),
			})
		}

		c.Set("userID", current.ID)
		c.Set("role", current.Role)
		return next(c)
	}
}

// HomeRoute is the role's landing destination, mirrored in 403 responses
// so the client can redirect.
func HomeRoute(role string) string {
	if role == models.RoleAdmin {
		return "/admin"
	}
	return "/dashboard"
}
