package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/bizflow/bizflow/internal/events"
	"github.com/bizflow/bizflow/internal/models"
	"github.com/bizflow/bizflow/internal/search"
	"github.com/bizflow/bizflow/internal/tenant"
)

type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type ProductHandler struct {
	Tenant   *tenant.Service
	Producer *events.Producer
	ES       *elasticsearch.Client
	Index    string
}

func errorResponse(c echo.Context, code int, msg string) error {
	return c.JSON(code, Response{Status: "error", Message: msg})
}

func (h *ProductHandler) publish(c echo.Context, key string, event map[string]interface{}) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "product_events", key, event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *ProductHandler) index(c echo.Context, p models.Product) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := search.IndexProduct(ctx, h.ES, h.Index, p); err != nil {
		c.Logger().Errorf("ES index error: %v", err)
	}
}

func (h *ProductHandler) ListProducts(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Tenant.Products())
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req tenant.ProductInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	if req.Name == "" {
		return errorResponse(c, http.StatusBadRequest, "product name is required")
	}
	if req.StockQuantity < 0 {
		return errorResponse(c, http.StatusBadRequest, "stock quantity cannot be negative")
	}

	p, err := h.Tenant.AddProduct(req)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	if p == nil {
		return errorResponse(c, http.StatusUnauthorized, "no active session")
	}

	h.publish(c, p.OwnerID, map[string]interface{}{
		"type":      "product_created",
		"productID": p.ID,
		"name":      p.Name,
	})
	h.index(c, *p)

	return c.JSON(http.StatusCreated, p)
}

func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	var req models.Product
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	req.ID = c.Param("id")

	p, err := h.Tenant.UpdateProduct(req)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	if p == nil {
		return errorResponse(c, http.StatusNotFound, "product not found")
	}

	h.publish(c, p.OwnerID, map[string]interface{}{
		"type":      "product_updated",
		"productID": p.ID,
		"name":      p.Name,
	})
	h.index(c, *p)

	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id := c.Param("id")
	p, err := h.Tenant.DeleteProduct(id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}
	if p == nil {
		return errorResponse(c, http.StatusNotFound, "product not found")
	}

	h.publish(c, p.OwnerID, map[string]interface{}{
		"type":      "product_deleted",
		"productID": id,
	})
	if h.ES != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := search.DeleteProduct(ctx, h.ES, h.Index, id); err != nil {
			c.Logger().Errorf("ES delete error: %v", err)
		}
	}

	return c.NoContent(http.StatusNoContent)
}
