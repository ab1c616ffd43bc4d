/**
 * @description
 * RabbitMQ producer for ledger transaction events. The engine publishes one event per
 * committed history entry so downstream consumers (notifications, reporting) can react
 * without reading the account store. Publishing is strictly post-commit and
 * fire-and-forget: a broker outage never fails or rolls back a ledger operation.
 *
 * @dependencies
 * - github.com/rabbitmq/amqp091-go: the RabbitMQ client library.
 */

package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// TransactionEvent is the payload published for each committed ledger entry.
type TransactionEvent struct {
	EventID     uuid.UUID `json:"event_id"`
	AccountID   string    `json:"account_id"`
	Reference   string    `json:"reference"`
	Direction   string    `json:"direction"`
	Amount      int64     `json:"amount"` // in kobo
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Publisher is the interface implemented by types that can publish ledger events.
type Publisher interface {
	PublishTransactionEvent(ctx context.Context, routingKey string, event TransactionEvent) error
	Close()
}

// NoopPublisher is the fallback used when RabbitMQ is unavailable at startup.
type NoopPublisher struct {
	Logger *zap.Logger
}

func (p *NoopPublisher) PublishTransactionEvent(ctx context.Context, routingKey string, event TransactionEvent) error {
	if p.Logger != nil {
		p.Logger.Warn("event publish skipped; rabbitmq unavailable",
			zap.String("routing_key", routingKey),
			zap.String("reference", event.Reference))
	}
	return nil
}

func (p *NoopPublisher) Close() {}

// Producer holds the RabbitMQ connection and channel for publishing messages.
type Producer struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	if idx := strings.Index(strings.ToLower(clean), "amqp"); idx > 0 {
		clean = clean[idx:]
	}
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewProducer dials RabbitMQ with a bounded timeout so startup does not hang.
func NewProducer(amqpURL, exchange string) (*Producer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &Producer{conn: conn, channel: ch, exchange: exchange}, nil
}

// PublishTransactionEvent sends the event to the configured durable topic exchange,
// reopening the channel once if the broker dropped it.
func (p *Producer) PublishTransactionEvent(ctx context.Context, routingKey string, event TransactionEvent) error {
	if err := p.channel.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		if p.conn == nil {
			return err
		}
		ch, chErr := p.conn.Channel()
		if chErr != nil {
			return chErr
		}
		p.channel = ch
		if err := p.channel.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
			return err
		}
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	publish := func() error {
		return p.channel.PublishWithContext(ctx,
			p.exchange, routingKey, false, false,
			amqp091.Publishing{
				ContentType: "application/json",
				Timestamp:   time.Now(),
				Body:        body,
			},
		)
	}

	if err := publish(); err != nil {
		// One-shot retry on a fresh channel.
		if p.conn != nil {
			if ch, chErr := p.conn.Channel(); chErr == nil {
				p.channel = ch
				if exErr := p.channel.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); exErr == nil {
					return publish()
				}
			}
		}
		return err
	}
	return nil
}

// Close gracefully closes the channel and connection to RabbitMQ.
func (p *Producer) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
