package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"mailbox-status-backend/internal/mw"
)

// RouterOptions carries the tunables the router wires into middleware.
type RouterOptions struct {
	RateLimitPerSec float64
	RateLimitBurst  int
	CacheTTL        time.Duration // zero disables response caching
}

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	r := gin.Default()

	if opts.RateLimitPerSec <= 0 {
		opts.RateLimitPerSec = 10
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = 5
	}
	rateLimiter := mw.RateLimiter(rate.Limit(opts.RateLimitPerSec), opts.RateLimitBurst)

	caching := func(c *gin.Context) { c.Next() }
	if opts.CacheTTL > 0 {
		cacheStore := cache.New(opts.CacheTTL, 2*opts.CacheTTL)
		caching = mw.Cache(cacheStore, opts.CacheTTL)
	}

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Heartbeats
		api.POST("/heartbeat", h.PostHeartbeat)
		api.GET("/heartbeat/latest", h.GetLatestHeartbeat)
		api.GET("/heartbeat/history", caching, h.GetHeartbeatHistory)

		// Event history
		api.GET("/events", h.GetEvents)
		api.POST("/events", h.PostEvent)
		api.DELETE("/events/:id", h.DeleteEvent)

		// Notifications
		api.GET("/notifications", h.GetNotifications)
		api.POST("/notifications", h.PostNotification)
		api.PATCH("/notifications/:id/read", h.MarkNotificationRead)
		api.POST("/notifications/read-all", h.MarkAllNotificationsRead)
		api.DELETE("/notifications/:id", h.DeleteNotification)
		// The SSE stream bypasses caching; each observer holds the
		// connection open.
		api.GET("/notifications/stream", h.StreamNotifications)

		// Email subscribers
		api.GET("/subscribers", h.GetSubscribers)
		api.POST("/subscribers", h.PostSubscriber)
		api.DELETE("/subscribers", h.DeleteSubscriber)

		// Browser push subscriptions
		api.PUT("/push-subscriptions", h.PutPushSubscription)
		api.DELETE("/push-subscriptions", h.DeletePushSubscription)
		api.GET("/vapid-public-key", h.GetVAPIDPublicKey)
	}

	return r
}
