package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/segmentio/kafka-go"
	obscontext "github.com/smallbiznis/barberdesk/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestNewInvoiceEvent(t *testing.T) {
	ctx := obscontext.WithRequestID(context.Background(), "req-42")
	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.FixedZone("WIB", 7*3600))

	event := NewInvoiceEvent(ctx, EventTypeInvoiceCreated, at)

	_, err := ulid.Parse(event.ID)
	require.NoError(t, err)
	assert.Equal(t, EventTypeInvoiceCreated, event.Type)
	assert.Equal(t, time.UTC, event.OccurredAt.Location())
	assert.Equal(t, "req-42", event.CorrelationID)
}

func TestKafkaPublisherWritesKeyedMessage(t *testing.T) {
	writer := &recordingWriter{}
	p := &KafkaPublisher{writer: writer, topic: defaultTopic, log: zap.NewNop()}

	event := NewInvoiceEvent(context.Background(), EventTypeInvoiceUpdated, time.Now())
	event.InvoiceID = "INV-ZX81QW00"
	event.Total = 61.33

	require.NoError(t, p.Publish(context.Background(), event))
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	assert.Equal(t, "INV-ZX81QW00", string(msg.Key))
	assert.Equal(t, "invoice.updated", string(msg.Headers[0].Value))

	var decoded InvoiceEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, 61.33, decoded.Total)
}

func TestKafkaPublisherReturnsWriteError(t *testing.T) {
	p := &KafkaPublisher{writer: &recordingWriter{err: errors.New("broker down")}, log: zap.NewNop()}
	err := p.Publish(context.Background(), InvoiceEvent{InvoiceID: "INV-1"})
	assert.EqualError(t, err, "broker down")

	assert.NoError(t, NoopPublisher{}.Publish(context.Background(), InvoiceEvent{}))
}
