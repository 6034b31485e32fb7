package store

import (
	"time"

	"mailbox-status-backend/internal/model"
)

// Defaults applied when a caller omits or mangles pagination values.
const (
	DefaultEventPage      = 1
	DefaultEventLimit     = 10
	DefaultHeartbeatLimit = 20
)

// TypeFilterAll is the sentinel type value meaning "no type filter".
const TypeFilterAll = "all"

// EventFilter describes a filtered, paginated event history query.
// All filter fields are optional and combine with logical AND.
type EventFilter struct {
	// Type matches exactly; empty or TypeFilterAll disables the filter.
	Type string

	// Start is the inclusive lower bound on OccurredAt.
	Start *time.Time

	// End is the exclusive upper bound on OccurredAt. Day-granularity
	// callers pass the start of the day after the requested end date.
	End *time.Time

	// Search matches case-insensitively as a substring of either the
	// device id or the event type.
	Search string

	Page  int
	Limit int
}

// normalize clamps pagination values to their defaults.
func (f *EventFilter) normalize() {
	if f.Page <= 0 {
		f.Page = DefaultEventPage
	}
	if f.Limit <= 0 {
		f.Limit = DefaultEventLimit
	}
}

// EventPage is one page of a filtered event history query. Total and
// TotalPages always reflect the count of rows matching the filter, not
// the unfiltered store.
type EventPage struct {
	Items      []model.Event
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}
