package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"mailbox-status-backend/internal/connectivity"
	"mailbox-status-backend/internal/model"
	"mailbox-status-backend/internal/store"
)

// heartbeatRequest is the device-facing ingest payload. ObservedAt is
// decoded leniently: devices send either RFC3339 strings or unix epoch
// seconds.
type heartbeatRequest struct {
	DeviceID       string   `json:"deviceID"`
	ObservedAt     any      `json:"observedAt"`
	UptimeSeconds  *int64   `json:"uptimeSeconds"`
	EventCount     *int     `json:"eventCount"`
	RSSI           *int     `json:"rssi"`
	WeightGrams    *float64 `json:"weightGrams"`
	BeamBlocked    *bool    `json:"beamBlocked"`
	BatteryPercent *int     `json:"batteryPercent"`
}

// parseObservedAt accepts an RFC3339 string or an epoch-seconds number.
func parseObservedAt(v any) (time.Time, error) {
	switch ts := v.(type) {
	case string:
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			return t, nil
		}
		if secs, err := strconv.ParseInt(ts, 10, 64); err == nil {
			return time.Unix(secs, 0).UTC(), nil
		}
		return time.Time{}, model.InvalidField("observedAt", "not an RFC3339 or epoch timestamp")
	case float64:
		return time.Unix(int64(ts), 0).UTC(), nil
	case nil:
		return time.Time{}, model.MissingField("observedAt")
	default:
		return time.Time{}, model.InvalidField("observedAt", "not an RFC3339 or epoch timestamp")
	}
}

// PostHeartbeat handles POST /api/heartbeat.
func (h *Handler) PostHeartbeat(c *gin.Context) {
	var req heartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.DeviceID == "" {
		writeError(c, model.MissingField("deviceID"))
		return
	}
	observedAt, err := parseObservedAt(req.ObservedAt)
	if err != nil {
		writeError(c, err)
		return
	}

	hb := model.Heartbeat{
		DeviceID:       req.DeviceID,
		ObservedAt:     observedAt,
		UptimeSeconds:  req.UptimeSeconds,
		EventCount:     req.EventCount,
		RSSI:           req.RSSI,
		WeightGrams:    req.WeightGrams,
		BeamBlocked:    req.BeamBlocked,
		BatteryPercent: req.BatteryPercent,
	}
	if err := h.store.CreateHeartbeat(c.Request.Context(), &hb); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, hb)
}

// latestResponse is the derived connectivity view of a device.
type latestResponse struct {
	Connected     bool                `json:"connected"`
	Status        connectivity.Status `json:"status"`
	AgeSeconds    *int64              `json:"ageSeconds,omitempty"`
	LastSeen      *time.Time          `json:"lastSeen"`
	SignalQuality string              `json:"signalQuality,omitempty"`
	Heartbeat     *model.Heartbeat    `json:"heartbeat,omitempty"`
}

// GetLatestHeartbeat handles GET /api/heartbeat/latest. The status is
// recomputed from the stored sample on every call; nothing derived is
// ever persisted.
func (h *Handler) GetLatestHeartbeat(c *gin.Context) {
	deviceID := c.Query("deviceID")
	if deviceID == "" {
		writeError(c, model.MissingField("deviceID"))
		return
	}

	hb, err := h.store.LatestHeartbeat(c.Request.Context(), deviceID)
	if errors.Is(err, model.ErrNotFound) {
		// Never heard from: disconnected, with no age to report.
		c.JSON(http.StatusOK, latestResponse{
			Connected: false,
			Status:    connectivity.StatusDisconnected,
			LastSeen:  nil,
		})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}

	status, age := connectivity.Classify(hb.ObservedAt, time.Now().UTC())
	c.JSON(http.StatusOK, latestResponse{
		Connected:     status == connectivity.StatusConnected,
		Status:        status,
		AgeSeconds:    &age,
		LastSeen:      &hb.ObservedAt,
		SignalQuality: connectivity.SignalQuality(hb.RSSI),
		Heartbeat:     hb,
	})
}

// GetHeartbeatHistory handles GET /api/heartbeat/history.
func (h *Handler) GetHeartbeatHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if limit <= 0 {
		limit = store.DefaultHeartbeatLimit
	}

	samples, err := h.store.HeartbeatHistory(c.Request.Context(), c.Query("deviceID"), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"heartbeats": samples, "count": len(samples)})
}
