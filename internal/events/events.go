// Package events publishes domain events to the message broker. Publishing
// is best-effort and never part of the finalizer's atomic write.
package events

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/streadway/amqp"
)

// BookingConfirmed is emitted once a session has been promoted to a booking.
type BookingConfirmed struct {
	BookingID  string    `json:"bookingId"`
	SessionID  string    `json:"sessionId"`
	CustomerID string    `json:"customerId"`
	Total      string    `json:"total"`
	Currency   string    `json:"currency"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Publisher interface {
	PublishBookingConfirmed(ctx context.Context, ev BookingConfirmed) error
}

const bookingConfirmedQueue = "booking.confirmed"

// AMQPPublisher publishes events to a RabbitMQ queue.
type AMQPPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPPublisher dials the broker and declares the queues it publishes to.
func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(bookingConfirmedQueue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &AMQPPublisher{conn: conn, ch: ch}, nil
}

func (p *AMQPPublisher) PublishBookingConfirmed(_ context.Context, ev BookingConfirmed) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.ch.Publish("", bookingConfirmedQueue, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Body:         body,
	})
}

func (p *AMQPPublisher) Close() error {
	p.ch.Close()
	return p.conn.Close()
}

// Noop discards events; used when no broker is configured.
type Noop struct{}

func (Noop) PublishBookingConfirmed(context.Context, BookingConfirmed) error { return nil }
