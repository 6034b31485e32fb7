package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mailbox-status-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	// Heartbeats
	CreateHeartbeat(ctx context.Context, hb *model.Heartbeat) error
	LatestHeartbeat(ctx context.Context, deviceID string) (*model.Heartbeat, error)
	HeartbeatHistory(ctx context.Context, deviceID string, limit int) ([]model.Heartbeat, error)
	PruneHeartbeats(ctx context.Context, before time.Time) (int64, error)

	// Events
	CreateEvent(ctx context.Context, ev *model.Event) error
	QueryEvents(ctx context.Context, filter EventFilter) (*EventPage, error)
	DeleteEvent(ctx context.Context, id string) error

	// Notifications
	CreateNotification(ctx context.Context, n *model.Notification) error
	ListNotifications(ctx context.Context, limit int) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) (int64, error)
	DeleteNotification(ctx context.Context, id string) error

	// Subscribers
	Subscribe(ctx context.Context, email string) (*model.Subscriber, error)
	Unsubscribe(ctx context.Context, email string) error
	ListSubscribers(ctx context.Context) ([]model.Subscriber, error)
	ActiveSubscriberEmails(ctx context.Context) ([]string, error)

	// Browser push subscriptions
	UpsertPushSubscription(ctx context.Context, sub *model.PushSubscription) error
	DeletePushSubscription(ctx context.Context, endpoint string) error
	ListPushSubscriptions(ctx context.Context) ([]model.PushSubscription, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying GORM handle for handlers that query directly.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// --- Heartbeats ---

func (s *gormStore) CreateHeartbeat(ctx context.Context, hb *model.Heartbeat) error {
	if err := s.db.WithContext(ctx).Create(hb).Error; err != nil {
		return fmt.Errorf("failed to persist heartbeat for device %s: %w", hb.DeviceID, err)
	}
	return nil
}

// LatestHeartbeat returns the sample with the greatest ObservedAt for
// the device; ties are broken by insertion order (last write wins).
func (s *gormStore) LatestHeartbeat(ctx context.Context, deviceID string) (*model.Heartbeat, error) {
	var hb model.Heartbeat
	err := s.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("observed_at DESC, id DESC").
		First(&hb).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &hb, nil
}

func (s *gormStore) HeartbeatHistory(ctx context.Context, deviceID string, limit int) ([]model.Heartbeat, error) {
	if limit <= 0 {
		limit = DefaultHeartbeatLimit
	}
	q := s.db.WithContext(ctx).Order("observed_at DESC, id DESC").Limit(limit)
	if deviceID != "" {
		q = q.Where("device_id = ?", deviceID)
	}
	var samples []model.Heartbeat
	if err := q.Find(&samples).Error; err != nil {
		return nil, err
	}
	return samples, nil
}

func (s *gormStore) PruneHeartbeats(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("observed_at < ?", before).Delete(&model.Heartbeat{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to prune heartbeats: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// --- Events ---

func (s *gormStore) CreateEvent(ctx context.Context, ev *model.Event) error {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if err := s.db.WithContext(ctx).Create(ev).Error; err != nil {
		return fmt.Errorf("failed to persist event %s: %w", ev.ID, err)
	}
	return nil
}

// QueryEvents runs a filtered, paginated history query. Sort order is
// always OccurredAt descending. A page beyond the last one returns an
// empty item slice with totals still populated.
func (s *gormStore) QueryEvents(ctx context.Context, filter EventFilter) (*EventPage, error) {
	filter.normalize()

	q := s.db.WithContext(ctx).Model(&model.Event{})
	if filter.Type != "" && filter.Type != TypeFilterAll {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Start != nil {
		q = q.Where("occurred_at >= ?", *filter.Start)
	}
	if filter.End != nil {
		q = q.Where("occurred_at < ?", *filter.End)
	}
	if filter.Search != "" {
		term := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where("LOWER(device_id) LIKE ? OR LOWER(type) LIKE ?", term, term)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	if totalPages < 1 {
		totalPages = 1
	}

	items := make([]model.Event, 0, filter.Limit)
	err := q.Order("occurred_at DESC, created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}

	return &EventPage{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
	}, nil
}

// DeleteEvent removes an event. A structurally malformed id yields
// ErrInvalidID; a well-formed but absent one yields ErrNotFound.
func (s *gormStore) DeleteEvent(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", model.ErrInvalidID, id)
	}
	res := s.db.WithContext(ctx).Delete(&model.Event{ID: id})
	if res.Error != nil {
		return fmt.Errorf("failed to delete event %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// --- Notifications ---

func (s *gormStore) CreateNotification(ctx context.Context, n *model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	n.IsNew = true
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("failed to persist notification %s: %w", n.ID, err)
	}
	return nil
}

func (s *gormStore) ListNotifications(ctx context.Context, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	var notifications []model.Notification
	err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkNotificationRead flips IsNew to false. Marking an already-read
// notification is a no-op success; IsNew never transitions back to true.
func (s *gormStore) MarkNotificationRead(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ?", id).
		Update("is_new", false)
	if res.Error != nil {
		return fmt.Errorf("failed to mark notification %s read: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		// The update matches read rows too (is_new is simply rewritten),
		// so zero affected rows means the record does not exist.
		var count int64
		if err := s.db.WithContext(ctx).Model(&model.Notification{}).
			Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return model.ErrNotFound
		}
	}
	return nil
}

func (s *gormStore) MarkAllNotificationsRead(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("is_new = ?", true).
		Update("is_new", false)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark all notifications read: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *gormStore) DeleteNotification(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&model.Notification{ID: id})
	if res.Error != nil {
		return fmt.Errorf("failed to delete notification %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// --- Subscribers ---

// Subscribe inserts a new active subscriber or reactivates a previously
// unsubscribed one. Subscribing an already-active email is a conflict.
// Emails are unique case-insensitively.
func (s *gormStore) Subscribe(ctx context.Context, email string) (*model.Subscriber, error) {
	email = NormalizeEmail(email)

	var sub model.Subscriber
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("email = ?", email).First(&sub).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			sub = model.Subscriber{Email: email, Active: true}
			return tx.Create(&sub).Error
		case err != nil:
			return err
		case sub.Active:
			return fmt.Errorf("%w: %s is already subscribed", model.ErrConflict, email)
		default:
			sub.Active = true
			return tx.Model(&sub).Update("active", true).Error
		}
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Unsubscribe deactivates a subscriber. The row is kept so a later
// re-subscribe reactivates it.
func (s *gormStore) Unsubscribe(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	res := s.db.WithContext(ctx).
		Model(&model.Subscriber{}).
		Where("email = ?", email).
		Update("active", false)
	if res.Error != nil {
		return fmt.Errorf("failed to unsubscribe %s: %w", email, res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&model.Subscriber{}).
			Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return model.ErrNotFound
		}
	}
	return nil
}

func (s *gormStore) ListSubscribers(ctx context.Context) ([]model.Subscriber, error) {
	var subs []model.Subscriber
	if err := s.db.WithContext(ctx).Order("created_at").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (s *gormStore) ActiveSubscriberEmails(ctx context.Context) ([]string, error) {
	var emails []string
	err := s.db.WithContext(ctx).
		Model(&model.Subscriber{}).
		Where("active = ?", true).
		Order("email").
		Pluck("email", &emails).Error
	if err != nil {
		return nil, err
	}
	return emails, nil
}

// NormalizeEmail lower-cases and trims an address so uniqueness is
// enforced case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// --- Browser push subscriptions ---

func (s *gormStore) UpsertPushSubscription(ctx context.Context, sub *model.PushSubscription) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
	}).Create(sub).Error
}

func (s *gormStore) DeletePushSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: endpoint}).Error
}

func (s *gormStore) ListPushSubscriptions(ctx context.Context) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}
