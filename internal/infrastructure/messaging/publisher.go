// Package messaging publishes inventory sync events to AMQP.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/paypos/backend/internal/domain/integration"
)

// TopicInventorySynced is the topic of finished sync runs
const TopicInventorySynced = "inventory_synced"

// channel is the subset of *amqp.Channel used by the publisher
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher implements integration.SyncEventPublisher on a topic exchange
type AMQPPublisher struct {
	openChannel func() (channel, error)
	prefix      string
	logger      *zap.Logger
}

// Connect dials the broker
func Connect(url string) (*amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to AMQP broker: %w", err)
	}
	return conn, nil
}

// NewAMQPPublisher declares the sync topic on the connection and returns a publisher
func NewAMQPPublisher(conn *amqp.Connection, prefix string, logger *zap.Logger) (*AMQPPublisher, error) {
	return newAMQPPublisher(func() (channel, error) {
		return conn.Channel()
	}, prefix, logger)
}

func newAMQPPublisher(openChannel func() (channel, error), prefix string, logger *zap.Logger) (*AMQPPublisher, error) {
	p := &AMQPPublisher{
		openChannel: openChannel,
		prefix:      prefix,
		logger:      logger.Named("amqp_publisher"),
	}
	if err := p.defineTopic(TopicInventorySynced); err != nil {
		return nil, err
	}
	return p, nil
}

// PublishInventorySynced sends the event as JSON, routed by the exchange name
func (p *AMQPPublisher) PublishInventorySynced(ctx context.Context, event integration.InventorySyncedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	ch, err := p.openChannel()
	if err != nil {
		return fmt.Errorf("failed to open AMQP channel: %w", err)
	}
	defer ch.Close()

	name := p.exchangeName(TopicInventorySynced)
	if err := ch.PublishWithContext(ctx,
		name,
		name,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.RunID.String(),
			Timestamp:    event.OccurredAt,
			Type:         TopicInventorySynced,
			Body:         body,
		},
	); err != nil {
		return fmt.Errorf("failed to publish %s: %w", name, err)
	}

	p.logger.Debug("Published inventory synced event",
		zap.String("exchange", name),
		zap.String("sync_run_id", event.RunID.String()),
		zap.String("sales_channel_id", event.SalesChannelID.String()),
	)
	return nil
}

// defineTopic declares a durable topic exchange and a queue of the same name bound to it
func (p *AMQPPublisher) defineTopic(topic string) error {
	ch, err := p.openChannel()
	if err != nil {
		return fmt.Errorf("failed to open AMQP channel: %w", err)
	}
	defer ch.Close()

	name := p.exchangeName(topic)
	if err := ch.ExchangeDeclare(
		name,    // name
		"topic", // type
		true,    // durable
		false,   // auto-delete
		false,   // internal
		false,   // noWait
		nil,     // arguments
	); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", name, err)
	}
	if _, err := ch.QueueDeclare(
		name,  // name of the queue
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // noWait
		nil,   // arguments
	); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", name, err)
	}
	if err := ch.QueueBind(name, name, name, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", name, err)
	}
	return nil
}

func (p *AMQPPublisher) exchangeName(topic string) string {
	return fmt.Sprintf("%s_%s", p.prefix, topic)
}

var _ integration.SyncEventPublisher = (*AMQPPublisher)(nil)

// ---------------------------------------------------------------------------
// NopPublisher
// ---------------------------------------------------------------------------

// NopPublisher drops events. It is used when messaging is disabled.
type NopPublisher struct {
	logger *zap.Logger
}

// NewNopPublisher creates a publisher that only logs
func NewNopPublisher(logger *zap.Logger) *NopPublisher {
	return &NopPublisher{logger: logger}
}

// PublishInventorySynced logs the event at debug level
func (p *NopPublisher) PublishInventorySynced(_ context.Context, event integration.InventorySyncedEvent) error {
	p.logger.Debug("Messaging disabled, dropping inventory synced event",
		zap.String("sync_run_id", event.RunID.String()),
		zap.String("status", string(event.Status)),
		zap.Time("occurred_at", event.OccurredAt),
	)
	return nil
}

var _ integration.SyncEventPublisher = (*NopPublisher)(nil)
