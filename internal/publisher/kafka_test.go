package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_cart/pos-service/internal/domain"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

type mockWriter struct {
	mu       sync.RWMutex
	messages []kafkaGo.Message
	err      error
	calls    int
	closed   bool
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msgs...)
	return nil
}

func (m *mockWriter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func testEvent(id string, typ domain.EventType) domain.TransactionEvent {
	return domain.TransactionEvent{
		Type: typ,
		Transaction: domain.Transaction{
			ID:         id,
			GrandTotal: 176000,
			Status:     domain.StatusPending,
		},
		OccurredAt: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestKafkaPublisher_Publish_Success(t *testing.T) {
	w := &mockWriter{}
	sut := newKafkaPublisher(w, DefaultBreakerSettings())

	require.NoError(t, sut.Publish(context.Background(), testEvent("TXN-1", domain.EventTransactionCreated)))

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, "TXN-1", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, "transaction.created", string(msg.Headers[0].Value))

	var got domain.TransactionEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, domain.EventTransactionCreated, got.Type)
	assert.Equal(t, int64(176000), got.Transaction.GrandTotal)
}

func TestKafkaPublisher_BreakerOpensAfterFailures(t *testing.T) {
	w := &mockWriter{err: errors.New("broker down")}
	sut := newKafkaPublisher(w, BreakerSettings{ConsecutiveFailures: 3, OpenTimeout: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.Error(t, sut.Publish(ctx, testEvent("TXN-1", domain.EventTransactionCreated)))
	}
	assert.Equal(t, gobreaker.StateOpen, sut.State())

	err := sut.Publish(ctx, testEvent("TXN-1", domain.EventTransactionCreated))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, w.calls)
}

func TestKafkaPublisher_Close(t *testing.T) {
	w := &mockWriter{}
	sut := newKafkaPublisher(w, BreakerSettings{})
	require.NoError(t, sut.Close())
	assert.True(t, w.closed)
}

func setupKafka(t *testing.T) string {
	ctx := context.Background()

	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	})

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers, "broker address should not be empty")
	return brokers[0]
}

func TestKafkaPublisher_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping kafka integration test in short mode")
	}
	broker := setupKafka(t)
	topic := "pos-transactions-test"

	sut := NewKafkaPublisher([]string{broker}, topic, DefaultBreakerSettings())
	defer sut.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	require.Eventually(t, func() bool {
		return sut.Publish(ctx, testEvent("TXN-int", domain.EventTransactionCompleted)) == nil
	}, 30*time.Second, time.Second)

	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:  []string{broker},
		Topic:    topic,
		GroupID:  "pos-test",
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	msg, err := reader.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "TXN-int", string(msg.Key))
}
