package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mailbox-status-backend/internal/model"
)

type subscriberRequest struct {
	Email string `json:"email" binding:"required"`
}

// PostSubscriber handles POST /api/subscribers: inserts a new active
// subscriber or reactivates a deactivated one. Subscribing an
// already-active address is a conflict.
func (h *Handler) PostSubscriber(c *gin.Context) {
	var req subscriberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, model.MissingField("email"))
		return
	}
	if !strings.Contains(req.Email, "@") {
		writeError(c, model.InvalidField("email", "not a plausible email address"))
		return
	}

	sub, err := h.store.Subscribe(c.Request.Context(), req.Email)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sub)
}

// DeleteSubscriber handles DELETE /api/subscribers: deactivates the
// address. The row is kept so re-subscribing later is frictionless.
func (h *Handler) DeleteSubscriber(c *gin.Context) {
	var req subscriberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, model.MissingField("email"))
		return
	}

	if err := h.store.Unsubscribe(c.Request.Context(), req.Email); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetSubscribers handles GET /api/subscribers.
func (h *Handler) GetSubscribers(c *gin.Context) {
	subs, err := h.store.ListSubscribers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscribers": subs, "count": len(subs)})
}
