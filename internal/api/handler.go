package api

import (
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"mailbox-status-backend/internal/model"
	"mailbox-status-backend/internal/notification"
	"mailbox-status-backend/internal/realtime"
	"mailbox-status-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store         store.Store
	notifications *notification.Service
	hub           *realtime.Hub
	webpush       *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, n *notification.Service, hub *realtime.Hub, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:         s,
		notifications: n,
		hub:           hub,
		webpush:       webpushOptions,
	}
}

// writeError maps a domain error onto the HTTP taxonomy: validation
// 400, not-found 404, conflict 409, everything else 500. A malformed
// event id deliberately lands in the 500 branch (see DeleteEvent).
func writeError(c *gin.Context, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, model.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
