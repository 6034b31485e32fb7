package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"mailbox-status-backend/internal/model"
	"mailbox-status-backend/internal/notification"
	"mailbox-status-backend/internal/realtime"
	"mailbox-status-backend/internal/store"
)

// newTestRouter assembles a full router over an in-memory database,
// with response caching off and an effectively unlimited rate budget.
func newTestRouter(t *testing.T) (*gin.Engine, store.Store) {
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Heartbeat{},
		&model.Event{},
		&model.Notification{},
		&model.Subscriber{},
		&model.PushSubscription{},
	))

	s := store.NewGormStore(db)
	hub := realtime.NewHub()
	notifications := notification.NewService(s, hub, nil, nil)
	h := NewHandler(s, notifications, hub, nil)

	return NewRouter(h, RouterOptions{RateLimitPerSec: 10000, RateLimitBurst: 10000}), s
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPostHeartbeatValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	testCases := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"missing deviceID", `{"observedAt":"2026-03-14T12:00:00Z"}`, http.StatusBadRequest, "deviceID"},
		{"missing observedAt", `{"deviceID":"d1"}`, http.StatusBadRequest, "observedAt"},
		{"unparsable observedAt", `{"deviceID":"d1","observedAt":"yesterday"}`, http.StatusBadRequest, "observedAt"},
		{"rfc3339 accepted", `{"deviceID":"d1","observedAt":"2026-03-14T12:00:00Z","rssi":-55}`, http.StatusCreated, ""},
		{"epoch accepted", `{"deviceID":"d1","observedAt":1770000000}`, http.StatusCreated, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/heartbeat", tc.body)
			assert.Equal(t, tc.wantCode, w.Code)
			if tc.wantErr != "" {
				assert.Contains(t, w.Body.String(), tc.wantErr)
			}
		})
	}
}

func TestGetLatestHeartbeat(t *testing.T) {
	r, _ := newTestRouter(t)

	t.Run("missing deviceID parameter", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/heartbeat/latest", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "deviceID")
	})

	t.Run("unknown device is disconnected with null lastSeen", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/heartbeat/latest?deviceID=ghost", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, false, resp["connected"])
		assert.Equal(t, "disconnected", resp["status"])
		assert.Nil(t, resp["lastSeen"])
		_, hasAge := resp["ageSeconds"]
		assert.False(t, hasAge)
	})

	t.Run("fresh sample classifies connected", func(t *testing.T) {
		body := fmt.Sprintf(`{"deviceID":"d1","observedAt":%q,"rssi":-45}`,
			time.Now().UTC().Format(time.RFC3339))
		require.Equal(t, http.StatusCreated, doJSON(t, r, http.MethodPost, "/api/heartbeat", body).Code)

		w := doJSON(t, r, http.MethodGet, "/api/heartbeat/latest?deviceID=d1", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Connected     bool    `json:"connected"`
			Status        string  `json:"status"`
			AgeSeconds    *int64  `json:"ageSeconds"`
			SignalQuality string  `json:"signalQuality"`
			LastSeen      *string `json:"lastSeen"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Connected)
		assert.Equal(t, "connected", resp.Status)
		require.NotNil(t, resp.AgeSeconds)
		assert.LessOrEqual(t, *resp.AgeSeconds, int64(1))
		assert.Equal(t, "excellent", resp.SignalQuality)
		assert.NotNil(t, resp.LastSeen)
	})

	t.Run("stale sample classifies disconnected", func(t *testing.T) {
		body := fmt.Sprintf(`{"deviceID":"stale","observedAt":%q}`,
			time.Now().UTC().Add(-10*time.Minute).Format(time.RFC3339))
		require.Equal(t, http.StatusCreated, doJSON(t, r, http.MethodPost, "/api/heartbeat", body).Code)

		w := doJSON(t, r, http.MethodGet, "/api/heartbeat/latest?deviceID=stale", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"disconnected"`)
		assert.Contains(t, w.Body.String(), `"connected":false`)
	})
}

func TestGetHeartbeatHistory(t *testing.T) {
	r, _ := newTestRouter(t)

	for i := 0; i < 25; i++ {
		body := fmt.Sprintf(`{"deviceID":"d1","observedAt":%q}`,
			time.Now().UTC().Add(-time.Duration(i)*time.Minute).Format(time.RFC3339))
		require.Equal(t, http.StatusCreated, doJSON(t, r, http.MethodPost, "/api/heartbeat", body).Code)
	}

	var resp struct {
		Count      int               `json:"count"`
		Heartbeats []model.Heartbeat `json:"heartbeats"`
	}

	w := doJSON(t, r, http.MethodGet, "/api/heartbeat/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, store.DefaultHeartbeatLimit, resp.Count)

	w = doJSON(t, r, http.MethodGet, "/api/heartbeat/history?limit=5&deviceID=d1", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 5, resp.Count)
}

func TestEventEndpoints(t *testing.T) {
	r, s := newTestRouter(t)

	t.Run("create validates fields", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/events", `{"deviceID":"d1"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "type")
	})

	t.Run("create and query with filters", func(t *testing.T) {
		for day := 1; day <= 6; day++ {
			body := fmt.Sprintf(`{"type":"mail","deviceID":"box-1","occurredAt":"2025-12-%02dT10:00:00Z"}`, day)
			w := doJSON(t, r, http.MethodPost, "/api/events", body)
			require.Equal(t, http.StatusCreated, w.Code)
		}

		var resp struct {
			Events     []model.Event `json:"events"`
			Page       int           `json:"page"`
			Total      int64         `json:"total"`
			TotalPages int           `json:"totalPages"`
		}

		w := doJSON(t, r, http.MethodGet, "/api/events?limit=2", "")
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(6), resp.Total)
		assert.Equal(t, 3, resp.TotalPages)
		assert.Len(t, resp.Events, 2)

		w = doJSON(t, r, http.MethodGet, "/api/events?page=2&limit=2", "")
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Events, 2)
		assert.Equal(t, 2, resp.Page)

		w = doJSON(t, r, http.MethodGet, "/api/events?startDate=2025-12-04&endDate=2025-12-05", "")
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(2), resp.Total)
	})

	t.Run("malformed date is a validation error", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/events?startDate=last-tuesday", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "startDate")
	})

	t.Run("notifiable event creates a notification", func(t *testing.T) {
		notifications, err := s.ListNotifications(context.Background(), 100)
		require.NoError(t, err)
		assert.NotEmpty(t, notifications)
	})

	t.Run("delete distinguishes malformed from absent ids", func(t *testing.T) {
		w := doJSON(t, r, http.MethodDelete, "/api/events/not-a-uuid", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)

		w = doJSON(t, r, http.MethodDelete, "/api/events/8e1f0a5e-92c2-44f0-a6e7-0cbb3b2fb0de", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete removes an existing event", func(t *testing.T) {
		page, err := s.QueryEvents(context.Background(), store.EventFilter{Limit: 1})
		require.NoError(t, err)
		require.NotEmpty(t, page.Items)

		w := doJSON(t, r, http.MethodDelete, "/api/events/"+page.Items[0].ID, "")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestNotificationEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	t.Run("create requires all fields", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/notifications", `{"type":"mail","title":"X","deviceID":"d1"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "description")
	})

	var created model.Notification
	t.Run("create persists unread", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/notifications",
			`{"type":"mail","title":"X","description":"Y","deviceID":"d1"}`)
		require.Equal(t, http.StatusCreated, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.True(t, created.IsNew)
		assert.NotEmpty(t, created.ID)
	})

	t.Run("mark one read twice is idempotent", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			w := doJSON(t, r, http.MethodPatch, "/api/notifications/"+created.ID+"/read", "")
			assert.Equal(t, http.StatusOK, w.Code)
		}

		var resp struct {
			Notifications []model.Notification `json:"notifications"`
		}
		w := doJSON(t, r, http.MethodGet, "/api/notifications", "")
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Notifications, 1)
		assert.False(t, resp.Notifications[0].IsNew)
	})

	t.Run("mark absent notification read", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPatch, "/api/notifications/2c484422-5a0b-4d2b-8a2b-1f2d3c4b5a69/read", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("mark all succeeds with zero unread", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/notifications/read-all", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"updated":0`)
	})

	t.Run("delete", func(t *testing.T) {
		w := doJSON(t, r, http.MethodDelete, "/api/notifications/"+created.ID, "")
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = doJSON(t, r, http.MethodDelete, "/api/notifications/"+created.ID, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestSubscriberEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	t.Run("rejects implausible email", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/subscribers", `{"email":"not-an-address"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("subscribe then conflict", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/subscribers", `{"email":"User@Example.com"}`)
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), "user@example.com")

		w = doJSON(t, r, http.MethodPost, "/api/subscribers", `{"email":"user@example.com"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("unsubscribe then resubscribe reactivates", func(t *testing.T) {
		w := doJSON(t, r, http.MethodDelete, "/api/subscribers", `{"email":"user@example.com"}`)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = doJSON(t, r, http.MethodPost, "/api/subscribers", `{"email":"user@example.com"}`)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("unsubscribe unknown address", func(t *testing.T) {
		w := doJSON(t, r, http.MethodDelete, "/api/subscribers", `{"email":"nobody@example.com"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestPushSubscriptionEndpoints(t *testing.T) {
	r, s := newTestRouter(t)

	t.Run("put requires all key material", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPut, "/api/push-subscriptions", `{"endpoint":"https://push.example.com/e"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("put and delete", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPut, "/api/push-subscriptions",
			`{"endpoint":"https://push.example.com/e","p256dh":"k","auth":"a"}`)
		assert.Equal(t, http.StatusCreated, w.Code)

		subs, err := s.ListPushSubscriptions(context.Background())
		require.NoError(t, err)
		assert.Len(t, subs, 1)

		w = doJSON(t, r, http.MethodDelete, "/api/push-subscriptions", `{"endpoint":"https://push.example.com/e"}`)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("vapid key unavailable when unconfigured", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/vapid-public-key", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
