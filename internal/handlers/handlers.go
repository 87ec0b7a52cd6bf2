package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	apperrors "boxoffice/internal/errors"
	"boxoffice/internal/service"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	services *service.Services
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		services: services,
	}
}

// handleServiceError maps domain errors to HTTP statuses. Expected errors are
// returned to the client as is; anything else is logged and hidden behind msg.
func handleServiceError(c *gin.Context, err error, msg string) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, apperrors.ErrNoInventoryAvailable),
		errors.Is(err, apperrors.ErrInsufficientInventory),
		errors.Is(err, apperrors.ErrNoPriceForCategory),
		errors.Is(err, apperrors.ErrInvalidQuantity),
		errors.Is(err, apperrors.ErrEmptySelection),
		errors.Is(err, apperrors.ErrDuplicateUnit),
		errors.Is(err, apperrors.ErrCurrencyMismatch):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrUnitNoLongerAvailable),
		errors.Is(err, apperrors.ErrOrderNotRefundable):
		status = http.StatusConflict
	case errors.Is(err, apperrors.ErrEventNotFound),
		errors.Is(err, apperrors.ErrVenueNotFound),
		errors.Is(err, apperrors.ErrSessionNotFound),
		errors.Is(err, apperrors.ErrEntryNotFound),
		errors.Is(err, apperrors.ErrOrderNotFound),
		errors.Is(err, apperrors.ErrUnknownShape):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrInvalidAction):
		status = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrSearchUnavailable):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		slog.Error(msg, "error", err, "path", c.FullPath())
		c.JSON(status, gin.H{"error": msg})
		return
	}

	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
