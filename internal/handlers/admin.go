package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bizflow/bizflow/internal/identity"
)

type AdminHandler struct {
	Identity *identity.Service
}

// ListAccounts returns every registered account, credential-stripped.
func (h *AdminHandler) ListAccounts(c echo.Context) error {
	users, err := h.Identity.Accounts()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, users)
}
