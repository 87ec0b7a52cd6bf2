package handlers

import (
	"net/http"

	"boxoffice/internal/models"
	"boxoffice/internal/service"

	"github.com/gin-gonic/gin"
)

// OpenSession - POST /api/sessions
func (h *Handlers) OpenSession(c *gin.Context) {
	var req models.OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var view *service.SessionView
	var err error
	if req.Viewport != nil {
		saved := *req.Viewport
		if saved.CanvasWidth <= 0 || saved.CanvasHeight <= 0 {
			saved.CanvasWidth, saved.CanvasHeight = req.CanvasWidth, req.CanvasHeight
		}
		view, err = h.services.Sessions.Resume(c.Request.Context(), req.EventID, saved)
	} else {
		view, err = h.services.Sessions.Open(c.Request.Context(), req.EventID, req.CanvasWidth, req.CanvasHeight)
	}
	if err != nil {
		handleServiceError(c, err, "Failed to open session")
		return
	}

	c.JSON(http.StatusCreated, view)
}

// GetSession - GET /api/sessions/:id
func (h *Handlers) GetSession(c *gin.Context) {
	view, err := h.services.Sessions.View(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "Failed to get session")
		return
	}

	c.JSON(http.StatusOK, view)
}

// CloseSession - DELETE /api/sessions/:id
func (h *Handlers) CloseSession(c *gin.Context) {
	if err := h.services.Sessions.Close(c.Request.Context(), c.Param("id")); err != nil {
		handleServiceError(c, err, "Failed to close session")
		return
	}

	c.Status(http.StatusNoContent)
}

// RefreshSession - POST /api/sessions/:id/refresh
func (h *Handlers) RefreshSession(c *gin.Context) {
	view, err := h.services.Sessions.Refresh(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "Failed to refresh session")
		return
	}

	c.JSON(http.StatusOK, view)
}

// ToggleSeat - POST /api/sessions/:id/seats/:shape/toggle
func (h *Handlers) ToggleSeat(c *gin.Context) {
	view, err := h.services.Sessions.ToggleSeat(c.Request.Context(), c.Param("id"), c.Param("shape"))
	if err != nil {
		handleServiceError(c, err, "Failed to toggle seat")
		return
	}

	c.JSON(http.StatusOK, view)
}

// SelectZoneQuantity - POST /api/sessions/:id/zones/:shape
func (h *Handlers) SelectZoneQuantity(c *gin.Context) {
	var req models.ZoneQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.services.Sessions.SelectZoneQuantity(c.Request.Context(), c.Param("id"), c.Param("shape"), req.Quantity)
	if err != nil {
		handleServiceError(c, err, "Failed to select zone quantity")
		return
	}

	c.JSON(http.StatusOK, view)
}

// RemoveEntry - DELETE /api/sessions/:id/entries/:entry
func (h *Handlers) RemoveEntry(c *gin.Context) {
	view, err := h.services.Sessions.RemoveEntry(c.Request.Context(), c.Param("id"), c.Param("entry"))
	if err != nil {
		handleServiceError(c, err, "Failed to remove entry")
		return
	}

	c.JSON(http.StatusOK, view)
}

// Checkout - POST /api/sessions/:id/checkout
func (h *Handlers) Checkout(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.services.Sessions.Checkout(c.Request.Context(), c.Param("id"), req.Contact())
	if err != nil {
		handleServiceError(c, err, "Failed to checkout")
		return
	}

	c.JSON(http.StatusCreated, order)
}

// Viewport - POST /api/sessions/:id/viewport
func (h *Handlers) Viewport(c *gin.Context) {
	var req models.ViewportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.services.Sessions.Viewport(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		handleServiceError(c, err, "Failed to update viewport")
		return
	}

	c.JSON(http.StatusOK, res)
}

// Gestures - POST /api/sessions/:id/viewport/gestures
func (h *Handlers) Gestures(c *gin.Context) {
	var req models.GesturesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.services.Sessions.Gestures(c.Request.Context(), c.Param("id"), req.Events)
	if err != nil {
		handleServiceError(c, err, "Failed to apply gestures")
		return
	}

	c.JSON(http.StatusOK, res)
}

// Click - POST /api/sessions/:id/click
func (h *Handlers) Click(c *gin.Context) {
	var req models.ClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.services.Sessions.Click(c.Request.Context(), c.Param("id"), req.X, req.Y)
	if err != nil {
		handleServiceError(c, err, "Failed to handle click")
		return
	}

	c.JSON(http.StatusOK, res)
}

// SeatMapSVG - GET /api/sessions/:id/seatmap.svg
func (h *Handlers) SeatMapSVG(c *gin.Context) {
	out, err := h.services.Sessions.RenderSVG(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "Failed to render seat map")
		return
	}

	c.Data(http.StatusOK, "image/svg+xml", out)
}
