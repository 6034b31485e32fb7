// Package connectivity derives a device's liveness from the age of its
// most recent heartbeat sample. Classification is a pure function of
// (last seen, now); it is recomputed on every read and never persisted,
// so no background timer is needed to keep it current.
package connectivity

import "time"

// Status is the derived connectivity classification of a device.
type Status string

const (
	StatusConnected    Status = "connected"
	StatusWarning      Status = "warning"
	StatusDisconnected Status = "disconnected"
)

// Age thresholds, in seconds of heartbeat silence.
const (
	warningAfterSeconds    = 60
	disconnectAfterSeconds = 300
)

// Classify returns the connectivity status for a device whose latest
// heartbeat was observed at lastSeen, evaluated at now, along with the
// sample age in whole seconds. Clock skew (lastSeen after now) is
// clamped to age 0.
func Classify(lastSeen, now time.Time) (Status, int64) {
	age := int64(now.Sub(lastSeen).Seconds())
	if age < 0 {
		age = 0
	}
	switch {
	case age < warningAfterSeconds:
		return StatusConnected, age
	case age < disconnectAfterSeconds:
		return StatusWarning, age
	default:
		return StatusDisconnected, age
	}
}

// SignalQuality bands a raw RSSI reading into a human-readable
// descriptor. A nil reading yields "n/a".
func SignalQuality(rssi *int) string {
	if rssi == nil {
		return "n/a"
	}
	switch {
	case *rssi >= -50:
		return "excellent"
	case *rssi >= -60:
		return "very good"
	case *rssi >= -70:
		return "good"
	default:
		return "weak"
	}
}
