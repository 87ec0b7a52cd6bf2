package handlers

import (
	"net/http"
	"strconv"
	"time"

	"boxoffice/internal/models"
	"boxoffice/internal/search"

	"github.com/gin-gonic/gin"
)

// GetOrder - GET /api/orders/:id
func (h *Handlers) GetOrder(c *gin.Context) {
	order, err := h.services.Orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "Failed to get order")
		return
	}

	c.JSON(http.StatusOK, order)
}

// ListOrders - GET /api/admin/orders
func (h *Handlers) ListOrders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	orders, err := h.services.Orders.List(c.Request.Context(), limit, offset)
	if err != nil {
		handleServiceError(c, err, "Failed to list orders")
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}

	c.JSON(http.StatusOK, orders)
}

// RefundOrder - POST /api/admin/orders/:id/refund
func (h *Handlers) RefundOrder(c *gin.Context) {
	order, err := h.services.Orders.Refund(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "Failed to refund order")
		return
	}

	c.JSON(http.StatusOK, order)
}

// SearchOrders - GET /api/admin/orders/search
func (h *Handlers) SearchOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	if page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page must be >= 1"})
		return
	}
	if pageSize < 1 || pageSize > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pageSize must be between 1 and 100"})
		return
	}

	q := search.SearchQuery{
		Query:    c.Query("query"),
		Status:   c.Query("status"),
		Page:     page,
		PageSize: pageSize,
	}
	if v := c.Query("event_id"); v != "" {
		eventID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event_id"})
			return
		}
		q.EventID = eventID
	}

	res, err := h.services.Admin.SearchOrders(c.Request.Context(), q)
	if err != nil {
		handleServiceError(c, err, "Failed to search orders")
		return
	}

	c.JSON(http.StatusOK, res)
}

// InvalidateVenueCache - DELETE /api/admin/venues/:id/cache
func (h *Handlers) InvalidateVenueCache(c *gin.Context) {
	venueID, ok := parseInt64Param(c, "id")
	if !ok {
		return
	}

	if err := h.services.Admin.InvalidateVenue(c.Request.Context(), venueID); err != nil {
		handleServiceError(c, err, "Failed to invalidate venue cache")
		return
	}

	c.Status(http.StatusNoContent)
}

// ResetEvent - POST /api/admin/events/:id/reset
func (h *Handlers) ResetEvent(c *gin.Context) {
	eventID, ok := parseInt64Param(c, "id")
	if !ok {
		return
	}

	freed, err := h.services.Admin.ResetEvent(c.Request.Context(), eventID)
	if err != nil {
		handleServiceError(c, err, "Failed to reset event")
		return
	}

	c.JSON(http.StatusOK, models.ResetEventResponse{EventID: eventID, Freed: freed})
}

// HoldTicket - POST /api/admin/tickets/:id/hold
func (h *Handlers) HoldTicket(c *gin.Context) {
	var req models.HoldTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ttl := time.Duration(req.TTLSeconds) * time.Second
	if err := h.services.Admin.HoldTicket(c.Request.Context(), c.Param("id"), ttl); err != nil {
		handleServiceError(c, err, "Failed to hold ticket")
		return
	}

	c.Status(http.StatusNoContent)
}

// ReleaseTicket - POST /api/admin/tickets/:id/release
func (h *Handlers) ReleaseTicket(c *gin.Context) {
	if err := h.services.Admin.ReleaseTicket(c.Request.Context(), c.Param("id")); err != nil {
		handleServiceError(c, err, "Failed to release ticket")
		return
	}

	c.Status(http.StatusNoContent)
}
