package api

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"mailbox-status-backend/internal/model"
	"mailbox-status-backend/internal/store"
)

const dateLayout = "2006-01-02"

// GetEvents handles GET /api/events: a filtered, paginated history
// query. Date bounds are evaluated at day granularity; endDate means
// end of that day.
func (h *Handler) GetEvents(c *gin.Context) {
	filter := store.EventFilter{
		Type:   c.Query("type"),
		Search: c.Query("search"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))

	if raw := c.Query("startDate"); raw != "" {
		day, err := time.ParseInLocation(dateLayout, raw, time.UTC)
		if err != nil {
			writeError(c, model.InvalidField("startDate", "expected YYYY-MM-DD"))
			return
		}
		filter.Start = &day
	}
	if raw := c.Query("endDate"); raw != "" {
		day, err := time.ParseInLocation(dateLayout, raw, time.UTC)
		if err != nil {
			writeError(c, model.InvalidField("endDate", "expected YYYY-MM-DD"))
			return
		}
		endExclusive := day.AddDate(0, 0, 1)
		filter.End = &endExclusive
	}

	page, err := h.store.QueryEvents(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events":     page.Items,
		"page":       page.Page,
		"limit":      page.Limit,
		"total":      page.Total,
		"totalPages": page.TotalPages,
	})
}

type postEventRequest struct {
	Type       string     `json:"type"`
	DeviceID   string     `json:"deviceID"`
	OccurredAt *time.Time `json:"occurredAt"`
}

// PostEvent handles POST /api/events: appends a domain event and, for
// notifiable types, triggers the notification fan-out.
func (h *Handler) PostEvent(c *gin.Context) {
	var req postEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Type == "" {
		writeError(c, model.MissingField("type"))
		return
	}
	if req.DeviceID == "" {
		writeError(c, model.MissingField("deviceID"))
		return
	}

	occurredAt := time.Now().UTC()
	if req.OccurredAt != nil {
		occurredAt = req.OccurredAt.UTC()
	}

	ev := model.Event{
		Type:       req.Type,
		DeviceID:   req.DeviceID,
		OccurredAt: occurredAt,
	}
	if err := h.store.CreateEvent(c.Request.Context(), &ev); err != nil {
		writeError(c, err)
		return
	}

	if _, err := h.notifications.CreateFromEvent(c.Request.Context(), ev); err != nil {
		// The event is the durable record; a notification failure must
		// not fail its ingestion.
		log.Printf("Error creating notification for event %s: %v", ev.ID, err)
	}

	c.JSON(http.StatusCreated, ev)
}

// DeleteEvent handles DELETE /api/events/:id. A malformed id yields a
// server-error-class response while a well-formed but absent one yields
// 404.
func (h *Handler) DeleteEvent(c *gin.Context) {
	if err := h.store.DeleteEvent(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "event deleted"})
}
