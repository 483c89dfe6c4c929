// Package notify delivers lead notifications to a message broker for an
// out-of-process mailer. Delivery is fire-and-forget from the dialogue
// flow's perspective.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"assurbot/internal/config"
)

const maxDialDelay = 60 * time.Second

// Envelope is the wire format of one notification message.
type Envelope struct {
	ID         string            `json:"id"`
	OccurredAt time.Time         `json:"occurred_at"`
	Recipient  string            `json:"recipient"`
	Subject    string            `json:"subject"`
	TemplateID string            `json:"template_id"`
	Payload    map[string]string `json:"payload"`
}

// NewEnvelope builds a notification envelope with a fresh id.
func NewEnvelope(recipient, subject, templateID string, payload map[string]string) Envelope {
	return Envelope{
		ID:         uuid.NewString(),
		OccurredAt: time.Now(),
		Recipient:  recipient,
		Subject:    subject,
		TemplateID: templateID,
		Payload:    payload,
	}
}

// Publisher sends notification envelopes to a RabbitMQ topic exchange.
type Publisher struct {
	conn       *amqp091.Connection
	exchange   string
	routingKey string
	logger     *logrus.Logger
}

// DialWithRetry connects to RabbitMQ with exponential backoff, respecting
// context cancellation for graceful shutdown.
func DialWithRetry(ctx context.Context, cfg config.RabbitMQConfig, logger *logrus.Logger) (*amqp091.Connection, error) {
	var lastErr error

	for i := 1; i <= cfg.DialAttempts; i++ {
		conn, err := amqp091.Dial(cfg.URL)
		if err == nil {
			if i > 1 {
				logger.WithField("attempt", i).Info("RabbitMQ connected")
			}
			return conn, nil
		}
		lastErr = err

		sleep := cfg.DialBaseDelay * time.Duration(math.Pow(2, float64(i-1)))
		if sleep > maxDialDelay {
			sleep = maxDialDelay
		}
		logger.WithError(err).WithFields(logrus.Fields{
			"attempt": i,
			"sleep":   sleep,
		}).Warn("RabbitMQ dial failed")

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.New("dial cancelled: " + ctx.Err().Error())
		case <-timer.C:
		}
	}

	return nil, fmt.Errorf("connect to RabbitMQ after %d attempts: %w", cfg.DialAttempts, lastErr)
}

// NewPublisher connects and declares the topic exchange.
func NewPublisher(ctx context.Context, cfg config.RabbitMQConfig, logger *logrus.Logger) (*Publisher, error) {
	if logger == nil {
		logger = logrus.New()
	}
	conn, err := DialWithRetry(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(
		cfg.Exchange, "topic", true, false, false, false, nil,
	); err != nil {
		conn.Close()
		return nil, err
	}

	return &Publisher{
		conn:       conn,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		logger:     logger,
	}, nil
}

// Notify publishes one notification envelope.
func (p *Publisher) Notify(recipient, subject, templateID string, payload map[string]string) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	env := NewEnvelope(recipient, subject, templateID, payload)
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = ch.PublishWithContext(
		ctx, p.exchange, p.routingKey, false, false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    env.ID,
			Timestamp:    env.OccurredAt,
			Body:         body,
		},
	)
	if err == nil {
		p.logger.WithFields(logrus.Fields{
			"exchange":    p.exchange,
			"routing_key": p.routingKey,
			"recipient":   recipient,
		}).Info("Notification published")
	}
	return err
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	return p.conn.Close()
}

// NopNotifier drops notifications, logging them at debug level. Used when
// no broker is configured.
type NopNotifier struct {
	Logger *logrus.Logger
}

// Notify logs and discards the notification.
func (n NopNotifier) Notify(recipient, subject, templateID string, payload map[string]string) error {
	if n.Logger != nil {
		n.Logger.WithFields(logrus.Fields{
			"recipient": recipient,
			"subject":   subject,
			"template":  templateID,
		}).Debug("Notification dropped (no broker configured)")
	}
	return nil
}
