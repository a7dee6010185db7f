package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"

	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/storage"
)

// message is the wire form published to brokers.
type message struct {
	ID         string            `json:"id"`
	ActorID    string            `json:"actorId"`
	Action     string            `json:"action"`
	EntityType string            `json:"entityType"`
	EntityID   string            `json:"entityId"`
	Details    map[string]string `json:"details,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

func encode(entry models.ActivityLog) ([]byte, error) {
	return json.Marshal(message{
		ID:         entry.ID.String(),
		ActorID:    entry.ActorID.String(),
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID.String(),
		Details:    entry.Details,
		Timestamp:  entry.Timestamp,
	})
}

// StoreSink appends entries to the activity_logs collection.
type StoreSink struct {
	Storage *storage.Storage
}

func (s *StoreSink) Write(ctx context.Context, entry models.ActivityLog) error {
	w, err := s.Storage.Write(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := w.Activity.Insert(ctx, &entry); err != nil {
		_ = w.Rollback()
		return fmt.Errorf("insert: %w", err)
	}
	return w.Commit()
}

func (s *StoreSink) Close() error { return nil }

// NopSink discards entries.
type NopSink struct{}

func (NopSink) Write(context.Context, models.ActivityLog) error { return nil }
func (NopSink) Close() error                                   { return nil }

// AMQPSink publishes entries as persistent JSON messages on a durable direct
// exchange, routed to a queue of the same name.
type AMQPSink struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	queue    string
}

func NewAMQPSink(url, exchange, queue string) (*AMQPSink, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	s := &AMQPSink{conn: conn, channel: channel, exchange: exchange, queue: queue}
	if err := s.setup(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	return s, nil
}

func (s *AMQPSink) setup() error {
	if err := s.channel.ExchangeDeclare(s.exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := s.channel.QueueDeclare(s.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := s.channel.QueueBind(s.queue, s.queue, s.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

func (s *AMQPSink) Write(ctx context.Context, entry models.ActivityLog) error {
	body, err := encode(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	err = s.channel.PublishWithContext(ctx, s.exchange, s.queue, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    entry.ID.String(),
		Type:         entry.Action,
		Timestamp:    entry.Timestamp,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish entry: %w", err)
	}
	return nil
}

func (s *AMQPSink) Close() error {
	if s.channel != nil {
		_ = s.channel.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// messageWriter is the part of kafka.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes entries keyed by entity id, so the history of one
// entity stays ordered within a partition.
type KafkaSink struct {
	writer messageWriter
}

func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
	}
}

func (s *KafkaSink) Write(ctx context.Context, entry models.ActivityLog) error {
	body, err := encode(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(entry.EntityID.String()),
		Value: body,
		Headers: []kafka.Header{
			{Key: "action", Value: []byte(entry.Action)},
		},
		Time: entry.Timestamp,
	})
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
