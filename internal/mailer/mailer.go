// Package mailer delivers notification emails to the subscriber list.
// Delivery is best-effort and at-most-once: a failed address is logged
// and dropped, and never surfaces as a failure of the notification
// create call. The system of record is the notification store.
package mailer

import (
	"context"
	"fmt"
	"log"
	"sync"

	"gopkg.in/gomail.v2"

	"mailbox-status-backend/internal/model"
)

// Sender is the outbound SMTP capability: it accepts a rendered message
// and reports success or failure for a single recipient.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender is the real Sender implementation backed by gomail.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender creates a Sender that dials the configured SMTP host
// for each message.
func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// Send delivers one message to one recipient.
func (s *SMTPSender) Send(_ context.Context, to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	return s.dialer.DialAndSend(m)
}

// SubscriberSource provides the active recipient list, read before
// every fan-out.
type SubscriberSource interface {
	ActiveSubscriberEmails(ctx context.Context) ([]string, error)
}

// Dispatcher renders a notification into a single message and attempts
// delivery to every active subscriber independently.
type Dispatcher struct {
	sender      Sender
	subscribers SubscriberSource
}

// NewDispatcher creates an email dispatcher.
func NewDispatcher(sender Sender, subscribers SubscriberSource) *Dispatcher {
	return &Dispatcher{sender: sender, subscribers: subscribers}
}

// Dispatch sends the notification to every active subscriber. The
// message content is rendered once; delivery attempts run concurrently
// and per-address failures are isolated from each other.
func (d *Dispatcher) Dispatch(ctx context.Context, n model.Notification) {
	emails, err := d.subscribers.ActiveSubscriberEmails(ctx)
	if err != nil {
		log.Printf("Error loading subscriber list for notification %s: %v", n.ID, err)
		return
	}
	if len(emails) == 0 {
		return
	}

	subject, body := render(n)

	var wg sync.WaitGroup
	for _, to := range emails {
		wg.Add(1)
		go func(to string) {
			defer wg.Done()
			if err := d.sender.Send(ctx, to, subject, body); err != nil {
				log.Printf("Error sending notification %s to %s: %v", n.ID, to, err)
			}
		}(to)
	}
	wg.Wait()
}

// render builds the message shared by all recipients.
func render(n model.Notification) (subject, body string) {
	subject = fmt.Sprintf("Mailbox alert: %s", n.Title)
	body = fmt.Sprintf("%s\n\n%s\n\nDevice: %s\nTime: %s\n",
		n.Title, n.Description, n.DeviceID, n.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	return subject, body
}
