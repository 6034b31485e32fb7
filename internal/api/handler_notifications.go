package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetNotifications handles GET /api/notifications.
func (h *Handler) GetNotifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	notifications, err := h.notifications.List(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications, "count": len(notifications)})
}

type postNotificationRequest struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DeviceID    string `json:"deviceID"`
}

// PostNotification handles POST /api/notifications: the free-standing
// creation call, fanning out exactly like an event-triggered one.
func (h *Handler) PostNotification(c *gin.Context) {
	var req postNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	n, err := h.notifications.Create(c.Request.Context(), req.Type, req.Title, req.Description, req.DeviceID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, n)
}

// MarkNotificationRead handles PATCH /api/notifications/:id/read.
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	if err := h.notifications.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification marked as read"})
}

// MarkAllNotificationsRead handles POST /api/notifications/read-all. It
// always succeeds, even with zero unread rows.
func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	updated, err := h.notifications.MarkAllRead(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// DeleteNotification handles DELETE /api/notifications/:id.
func (h *Handler) DeleteNotification(c *gin.Context) {
	if err := h.notifications.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
