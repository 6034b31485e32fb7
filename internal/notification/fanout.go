// Package notification owns the notification lifecycle and fans each
// new notification out to its sinks: the persisted record (source of
// truth, written first), the real-time observer hub, the web-push
// worker pool and the email dispatcher. The two outbound sinks are
// best-effort and never fail or delay the create call.
package notification

import (
	"context"
	"time"

	"mailbox-status-backend/internal/model"
	"mailbox-status-backend/internal/realtime"
	"mailbox-status-backend/internal/store"
)

// EmailDispatcher is the asynchronous email sink.
type EmailDispatcher interface {
	Dispatch(ctx context.Context, n model.Notification)
}

// PushDispatcher is the browser web-push sink.
type PushDispatcher interface {
	Dispatch(n model.Notification)
}

// Service orchestrates notification creation, mutation and fan-out.
type Service struct {
	store store.Store
	hub   *realtime.Hub
	email EmailDispatcher
	push  PushDispatcher
}

// NewService wires the fan-out engine. email and push may be nil when
// the corresponding sink is not configured.
func NewService(s store.Store, hub *realtime.Hub, email EmailDispatcher, push PushDispatcher) *Service {
	return &Service{store: s, hub: hub, email: email, push: push}
}

// Create validates, persists and fans out a new notification. It
// returns once the record is durable and the real-time broadcast has
// been attempted; email delivery continues in the background.
func (s *Service) Create(ctx context.Context, typ, title, description, deviceID string) (*model.Notification, error) {
	switch {
	case typ == "":
		return nil, model.MissingField("type")
	case title == "":
		return nil, model.MissingField("title")
	case description == "":
		return nil, model.MissingField("description")
	case deviceID == "":
		return nil, model.MissingField("deviceID")
	}

	n := &model.Notification{
		Type:        typ,
		Title:       title,
		Description: description,
		DeviceID:    deviceID,
		CreatedAt:   time.Now().UTC(),
	}

	// Persist first: a client receiving the push and a client calling
	// List immediately after must observe the same record.
	if err := s.store.CreateNotification(ctx, n); err != nil {
		return nil, err
	}

	s.hub.Broadcast(*n)
	if s.push != nil {
		s.push.Dispatch(*n)
	}
	if s.email != nil {
		// Detached from the request context: the create call must not
		// wait on, or be able to cancel, SMTP round-trips.
		go s.email.Dispatch(context.Background(), *n)
	}

	return n, nil
}

// CreateFromEvent creates the notification a notifiable domain event
// triggers. Events of other types create none.
func (s *Service) CreateFromEvent(ctx context.Context, ev model.Event) (*model.Notification, error) {
	title, description, ok := describeEvent(ev.Type)
	if !ok {
		return nil, nil
	}
	return s.Create(ctx, ev.Type, title, description, ev.DeviceID)
}

// List returns notifications, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]model.Notification, error) {
	return s.store.ListNotifications(ctx, limit)
}

// MarkRead marks one notification read. Idempotent.
func (s *Service) MarkRead(ctx context.Context, id string) error {
	return s.store.MarkNotificationRead(ctx, id)
}

// MarkAllRead marks every unread notification read and reports how many
// changed.
func (s *Service) MarkAllRead(ctx context.Context) (int64, error) {
	return s.store.MarkAllNotificationsRead(ctx)
}

// Delete permanently removes a notification.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.DeleteNotification(ctx, id)
}

// describeEvent maps a notifiable event type to user-facing copy.
func describeEvent(typ string) (title, description string, ok bool) {
	switch typ {
	case model.EventTypeMail:
		return "Mail arrived", "New mail was detected in your mailbox.", true
	case model.EventTypePackage:
		return "Package arrived", "A package was placed in your mailbox.", true
	case model.EventTypeOpening:
		return "Mailbox opened", "Your mailbox was just opened.", true
	default:
		return "", "", false
	}
}
