package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Subjects published by the platform.
const (
	SubjectBookingCreated   = "bookings.created"
	SubjectBookingConfirmed = "bookings.confirmed"
	SubjectBookingCancelled = "bookings.cancelled"
	SubjectBookingCompleted = "bookings.completed"
	SubjectPaymentProcessed = "payments.processed"
	SubjectPaymentRefunded  = "payments.refunded"
	SubjectPaymentUpdated   = "payments.updated"
	SubjectSupportUpdated   = "support.updated"
	SubjectAdminRequested   = "admin.requested"
	SubjectAdminDecided     = "admin.decided"
)

// Event is the envelope every message is wrapped in.
type Event struct {
	ID         string      `json:"id"`
	Subject    string      `json:"subject"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

// Publisher emits domain events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close()
}

// NewEvent wraps data into an envelope with a fresh ID.
func NewEvent(subject string, data interface{}) Event {
	return Event{ID: uuid.NewString(), Subject: subject, OccurredAt: time.Now().UTC(), Data: data}
}

type natsPublisher struct {
	conn *nats.Conn
}

// Connect opens a NATS publisher, retrying while the server comes up.
// An empty URL yields a publisher that only logs.
func Connect(url string, attempts int) (Publisher, error) {
	if url == "" {
		log.Println("NATS_URL not set, domain events will only be logged.")
		return NewLogPublisher(), nil
	}
	var (
		conn *nats.Conn
		err  error
	)
	for i := 0; i < attempts; i++ {
		conn, err = nats.Connect(url, nats.Name("hotel-booking"), nats.MaxReconnects(-1))
		if err == nil {
			break
		}
		log.Printf("Waiting for NATS to be ready... (%v)", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	fmt.Println("Successfully connected to NATS!")
	return &natsPublisher{conn: conn}, nil
}

func (p *natsPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(NewEvent(subject, data))
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", subject, err)
	}
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", subject, err)
	}
	return nil
}

func (p *natsPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		log.Printf("Error draining NATS connection: %v", err)
	}
}

type logPublisher struct{}

// NewLogPublisher returns a Publisher that writes events to the log.
func NewLogPublisher() Publisher {
	return logPublisher{}
}

func (logPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", subject, err)
	}
	log.Printf("Event %s: %s", subject, payload)
	return nil
}

func (logPublisher) Close() {}
