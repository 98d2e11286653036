package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bizflow/bizflow/internal/events"
	"github.com/bizflow/bizflow/internal/tenant"
	"github.com/bizflow/bizflow/internal/util"
)

type SaleHandler struct {
	Tenant   *tenant.Service
	Producer *events.Producer
}

func (h *SaleHandler) publish(c echo.Context, key string, event map[string]interface{}) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "sale_events", key, event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// ListSales pages through the sales log, newest first.
func (h *SaleHandler) ListSales(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, limit := util.Calculate(page, size)

	sales := h.Tenant.Sales()
	total := len(sales)

	if from > total {
		from = total
	}
	end := from + limit
	if end > total {
		end = total
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": sales[from:end],
		"meta": echo.Map{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + limit - 1) / limit,
			"has_prev":    page > 1,
			"has_next":    end < total,
		},
	})
}

func (h *SaleHandler) RecordSale(c echo.Context) error {
	var req struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	if req.Quantity < 1 {
		return errorResponse(c, http.StatusBadRequest, "quantity must be positive")
	}

	sale, err := h.Tenant.RecordSale(req.ProductID, req.Quantity)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	if sale == nil {
		return errorResponse(c, http.StatusConflict, "sale not recorded")
	}

	h.publish(c, sale.OwnerID, map[string]interface{}{
		"type":      "sale_recorded",
		"saleID":    sale.ID,
		"productID": sale.ProductID,
		"quantity":  sale.Quantity,
	})

	return c.JSON(http.StatusCreated, sale)
}
