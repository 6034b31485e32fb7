package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// cachedResponse is a replayable copy of a successful GET response.
// Heartbeat history is append-only between sweeps, so a short TTL
// serves repeated dashboard polls without touching the database.
type cachedResponse struct {
	status      int
	contentType string
	body        []byte
}

type teeWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *teeWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *teeWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Cache replays recent successful GET responses keyed by request URI.
// Non-GET requests and error responses pass through uncached.
func Cache(store *cache.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.RequestURI
		if hit, found := store.Get(key); found {
			cached := hit.(cachedResponse)
			c.Data(cached.status, cached.contentType, cached.body)
			c.Abort()
			return
		}

		tee := &teeWriter{ResponseWriter: c.Writer, body: bytes.NewBuffer(nil)}
		c.Writer = tee

		c.Next()

		if tee.Status() >= 200 && tee.Status() < 300 {
			store.Set(key, cachedResponse{
				status:      tee.Status(),
				contentType: tee.Header().Get("Content-Type"),
				body:        tee.body.Bytes(),
			}, ttl)
		}
	}
}
