package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/segmentio/kafka-go"
	"github.com/smallbiznis/barberdesk/internal/config"
	obscontext "github.com/smallbiznis/barberdesk/internal/observability/context"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type EventType string

const (
	EventTypeInvoiceCreated EventType = "invoice.created"
	EventTypeInvoiceUpdated EventType = "invoice.updated"
)

const defaultTopic = "barberdesk.invoices"

// InvoiceEvent is the payload written to the invoices topic, keyed by invoice id.
type InvoiceEvent struct {
	ID            string    `json:"id"`
	Type          EventType `json:"type"`
	InvoiceID     string    `json:"invoice_id"`
	CustomerID    string    `json:"customer_id"`
	Status        string    `json:"status"`
	PaymentMethod string    `json:"payment_method"`
	Total         float64   `json:"total"`
	TipAmount     float64   `json:"tip_amount"`
	OccurredAt    time.Time `json:"occurred_at"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// NewInvoiceEvent stamps an event with a ULID so consumers can sort by id.
func NewInvoiceEvent(ctx context.Context, eventType EventType, at time.Time) InvoiceEvent {
	return InvoiceEvent{
		ID:            ulid.Make().String(),
		Type:          eventType,
		OccurredAt:    at.UTC(),
		CorrelationID: obscontext.RequestIDFromContext(ctx),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event InvoiceEvent) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
	topic  string
	log    *zap.Logger
}

func NewKafkaPublisher(cfg config.KafkaConfig, log *zap.Logger) *KafkaPublisher {
	topic := cfg.Topic
	if topic == "" {
		topic = defaultTopic
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaPublisher{writer: writer, topic: topic, log: log.Named("events.kafka")}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event InvoiceEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.InvoiceID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("publish invoice event failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.String("invoice_id", event.InvoiceID),
			zap.Error(err),
		)
		return err
	}

	p.log.Debug("invoice event published",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("invoice_id", event.InvoiceID),
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher drops events; used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, InvoiceEvent) error { return nil }

func NewPublisher(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) Publisher {
	if !cfg.Kafka.Enabled() {
		log.Info("kafka disabled, invoice events will not be published")
		return NoopPublisher{}
	}

	publisher := NewKafkaPublisher(cfg.Kafka, log)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return publisher.Close()
		},
	})
	return publisher
}

var Module = fx.Module("events",
	fx.Provide(NewPublisher),
)
