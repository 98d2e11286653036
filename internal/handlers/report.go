package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bizflow/bizflow/internal/kvstore"
	"github.com/bizflow/bizflow/internal/tenant"
)

type ReportHandler struct {
	Tenant *tenant.Service
	Store  kvstore.Store
}

func (h *ReportHandler) Summary(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Tenant.Summary())
}

// DataCenter lists the active tenant's stored blobs and their sizes.
func (h *ReportHandler) DataCenter(c echo.Context) error {
	ownerID, _ := c.Get("userID").(string)
	if ownerID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "no active session")
	}

	entries, err := h.Store.Keys(kvstore.PartitionPrefix(ownerID))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	totalBytes := 0
	for _, e := range entries {
		totalBytes += e.Size
	}
	return c.JSON(http.StatusOK, echo.Map{
		"entries":     entries,
		"total_bytes": totalBytes,
	})
}
