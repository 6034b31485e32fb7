// Package push delivers mailbox notifications to browser push
// subscriptions through the Web Push protocol. Like email, it is a
// best-effort supplemental sink: failures are logged and never surface
// to the notification create call.
package push

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"mailbox-status-backend/internal/model"
	"mailbox-status-backend/internal/store"
)

// Sender defines the interface for sending a web push message.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of Sender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool manages a pool of workers fanning notifications out to
// every stored push subscription.
type WorkerPool struct {
	size    int
	jobs    chan model.Notification
	store   store.Store
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, s store.Store, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan model.Notification, size*4),
		store:   s,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Push worker %d started", id)
	for {
		select {
		case n := <-wp.jobs:
			wp.sendToSubscriptions(ctx, n)
		case <-ctx.Done():
			log.Printf("Push worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a notification for push delivery. When the queue is
// full the notification is dropped rather than blocking the caller.
func (wp *WorkerPool) Dispatch(n model.Notification) {
	select {
	case wp.jobs <- n:
	default:
		log.Printf("Push queue full, dropping notification %s", n.ID)
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan model.Notification {
	return wp.jobs
}

// sendToSubscriptions delivers one notification to every stored push
// subscription.
func (wp *WorkerPool) sendToSubscriptions(ctx context.Context, n model.Notification) {
	subscriptions, err := wp.store.ListPushSubscriptions(ctx)
	if err != nil {
		log.Printf("Error fetching push subscriptions for notification %s: %v", n.ID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(n)
	if err != nil {
		log.Printf("Error encoding notification %s: %v", n.ID, err)
		return
	}

	log.Printf("Sending %d push messages for notification %s", len(subscriptions), n.ID)
	for _, sub := range subscriptions {
		wp.sendOne(ctx, sub, payload)
	}
}

// sendOne sends a single web push message.
func (wp *WorkerPool) sendOne(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending push to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		log.Printf("Push subscription %s is expired. Deleting.", sub.Endpoint)
		if err := wp.store.DeletePushSubscription(ctx, sub.Endpoint); err != nil {
			log.Printf("Failed to delete expired push subscription %s: %v", sub.Endpoint, err)
		}
	}
}

// SetSender overrides the outbound sender. Used by tests.
func (wp *WorkerPool) SetSender(s Sender) {
	wp.sender = s
}
