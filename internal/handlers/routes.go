package handlers

import (
	"boxoffice/internal/logger"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the storefront routes on api and the back-office
// routes on admin.
func (h *Handlers) RegisterRoutes(api, admin *gin.RouterGroup) {
	sessions := api.Group("/sessions", sessionLogging())
	{
		sessions.POST("", h.OpenSession)
		sessions.GET("/:id", h.GetSession)
		sessions.DELETE("/:id", h.CloseSession)
		sessions.POST("/:id/refresh", h.RefreshSession)
		sessions.POST("/:id/seats/:shape/toggle", h.ToggleSeat)
		sessions.POST("/:id/zones/:shape", h.SelectZoneQuantity)
		sessions.DELETE("/:id/entries/:entry", h.RemoveEntry)
		sessions.POST("/:id/checkout", h.Checkout)
		sessions.POST("/:id/viewport", h.Viewport)
		sessions.POST("/:id/viewport/gestures", h.Gestures)
		sessions.POST("/:id/click", h.Click)
		sessions.GET("/:id/seatmap.svg", h.SeatMapSVG)
	}

	api.GET("/orders/:id", h.GetOrder)

	admin.GET("/orders", h.ListOrders)
	admin.GET("/orders/search", h.SearchOrders)
	admin.POST("/orders/:id/refund", h.RefundOrder)
	admin.DELETE("/venues/:id/cache", h.InvalidateVenueCache)
	admin.POST("/events/:id/reset", h.ResetEvent)
	admin.POST("/tickets/:id/hold", h.HoldTicket)
	admin.POST("/tickets/:id/release", h.ReleaseTicket)
}

// sessionLogging tags the request context with the shopper session id
func sessionLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.Param("id"); id != "" {
			c.Request = c.Request.WithContext(logger.ContextWithSessionID(c.Request.Context(), id))
		}
		c.Next()
	}
}
