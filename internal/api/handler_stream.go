package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// StreamNotifications handles GET /api/notifications/stream: a
// long-lived Server-Sent Events connection. The observer receives a
// synthetic welcome message, then every notification created while it
// stays connected, in creation order. Push supplements polling: clients
// reconcile via the list endpoint on (re)connect.
func (h *Handler) StreamNotifications(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	obs := h.hub.Subscribe()
	defer h.hub.Unsubscribe(obs)

	fmt.Fprintf(c.Writer, "event: welcome\ndata: {\"message\":\"connected\"}\n\n")
	flusher.Flush()

	for {
		select {
		case n, open := <-obs.C:
			if !open {
				// Dropped by the hub.
				return
			}
			data, err := json.Marshal(n)
			if err != nil {
				continue
			}
			fmt.Fprintf(c.Writer, "event: notification\ndata: %s\n\n", data)
			flusher.Flush()

		case <-c.Request.Context().Done():
			return
		}
	}
}
