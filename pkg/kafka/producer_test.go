package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/FocusGate/pkg/logger"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func headerValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// --- Event tests ---

func TestNewEvent_Fields(t *testing.T) {
	type unlockData struct {
		UnlockID string `json:"unlockId"`
		Domain   string `json:"domain"`
	}

	data := unlockData{UnlockID: "unl-1", Domain: "reddit.com"}
	event, err := NewEvent("unlock.granted", "unl-1", "unlock", "focusgate", data)
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "unlock.granted", event.EventType)
	assert.Equal(t, "unl-1", event.AggregateID)
	assert.Equal(t, "unlock", event.AggregateType)
	assert.Equal(t, 1, event.Version)
	assert.WithinDuration(t, time.Now().UTC(), event.Timestamp, 2*time.Second)
	assert.NotNil(t, event.Metadata)

	var got unlockData
	require.NoError(t, event.UnmarshalData(&got))
	assert.Equal(t, data, got)
}

func TestNewEvent_InvalidData(t *testing.T) {
	_, err := NewEvent("test.event", "agg-1", "test", "focusgate", make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "marshal test.event payload")
}

func TestEvent_KeyPrefersUser(t *testing.T) {
	event, err := NewEvent("session.ended", "sess-1", "session", "focusgate", nil)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", event.Key())

	event.WithUserID("user-9").WithCorrelationID("corr-1").WithMetadata("reason", "session_end")
	assert.Equal(t, "user-9", event.Key())
	assert.Equal(t, "corr-1", event.CorrelationID)
	assert.Equal(t, "session_end", event.Metadata["reason"])
}

func TestEvent_MarshalRoundTrip(t *testing.T) {
	original, err := NewEvent("challenge.completed", "ch-1", "challenge", "focusgate", map[string]int{"xpAwarded": 35})
	require.NoError(t, err)
	original.WithUserID("user-1")

	raw, err := original.Marshal()
	require.NoError(t, err)

	restored, err := UnmarshalEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, original.EventID, restored.EventID)
	assert.Equal(t, "user-1", restored.UserID)
	assert.JSONEq(t, string(original.Data), string(restored.Data))
}

func TestUnmarshalEvent_InvalidJSON(t *testing.T) {
	_, err := UnmarshalEvent([]byte(`{broken`))
	require.Error(t, err)
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "focusgate.unlock.revoked", Topic("unlock", "revoked"))
}

// --- Producer tests ---

func TestDefaultProducerConfig(t *testing.T) {
	cfg := DefaultProducerConfig([]string{"broker1:9092"})
	assert.Equal(t, []string{"broker1:9092"}, cfg.Brokers)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 10*time.Millisecond, cfg.BatchTimeout)
	assert.Equal(t, 5*time.Second, cfg.WriteTimeout)
	assert.False(t, cfg.Async)
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, logger: logger.Discard()}
	topic := Topic("test", "publish-ok")

	event, err := NewEvent("unlock.granted", "unl-1", "unlock", "focusgate", nil)
	require.NoError(t, err)
	event.WithUserID("user-1").WithCorrelationID("corr-1")

	require.NoError(t, p.Publish(context.Background(), topic, event))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, topic, msg.Topic)
	assert.Equal(t, "user-1", string(msg.Key))
	assert.Equal(t, "unlock.granted", headerValue(msg, "event_type"))
	assert.Equal(t, "corr-1", headerValue(msg, "correlation_id"))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.EventID, decoded.EventID)

	assert.Equal(t, 1.0, testutil.ToFloat64(ProducerMessagesPublished.WithLabelValues(topic)))
}

func TestProducer_PublishError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := &Producer{writer: w, logger: logger.Discard()}
	topic := Topic("test", "publish-fail")

	event, err := NewEvent("session.ended", "sess-1", "session", "focusgate", nil)
	require.NoError(t, err)

	err = p.Publish(context.Background(), topic, event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
	assert.Equal(t, 1.0, testutil.ToFloat64(ProducerPublishErrors.WithLabelValues(topic)))
	assert.Equal(t, 0.0, testutil.ToFloat64(ProducerMessagesPublished.WithLabelValues(topic)))
}

func TestMessage_InjectsTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	event, err := NewEvent("challenge.completed", "ch-1", "challenge", "focusgate", nil)
	require.NoError(t, err)

	msg, err := Message(ctx, Topic("challenge", "completed"), event)
	require.NoError(t, err)
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", headerValue(msg, "traceparent"))
}

func TestHeaderCarrier_SetOverwrites(t *testing.T) {
	headers := []kafka.Header{{Key: "existing", Value: []byte("v1")}}
	c := headerCarrier{headers: &headers}

	c.Set("existing", "v2")
	c.Set("new", "v3")

	assert.Equal(t, "v2", c.Get("existing"))
	assert.Equal(t, "v3", c.Get("new"))
	assert.Equal(t, "", c.Get("missing"))
	assert.ElementsMatch(t, []string{"existing", "new"}, c.Keys())
}

func TestProducer_Close(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, logger: logger.Discard()}
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestNewProducer_DoesNotConnect(t *testing.T) {
	p := NewProducer(DefaultProducerConfig([]string{"localhost:19092"}), nil)
	require.NotNil(t, p)
	assert.Equal(t, []string{"localhost:19092"}, p.brokers)
	assert.NoError(t, p.Close())
}

func TestPingBrokers_NoBrokers(t *testing.T) {
	err := PingBrokers(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no brokers configured")
}
