package kafka

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/studio/domain"
	"github.com/fastygo/studio/internal/config"
)

type recordingWriter struct {
	mu      sync.Mutex
	batches [][]kafka.Message
	closed  bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.batches = append(w.batches, msgs)
	return nil
}

func (w *recordingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *recordingWriter) keys() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var keys []string
	for _, batch := range w.batches {
		for _, msg := range batch {
			keys = append(keys, string(msg.Key))
		}
	}
	return keys
}

// silentBroker accepts connections and never answers.
func silentBroker(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var mu sync.Mutex
	var conns []net.Conn
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, conn := range conns {
			conn.Close()
		}
	})
	return ln.Addr().String()
}

func event(id string) domain.AuditEvent {
	return domain.AuditEvent{Domain: "pages", Action: "update", EntityType: "page", EntityID: id, CreatedAt: time.Now()}
}

func TestNewPublisher_DisabledWithoutBrokers(t *testing.T) {
	assert.Nil(t, NewPublisher(config.KafkaConfig{Topic: "audit"}, nil))
	assert.Nil(t, NewPublisher(config.KafkaConfig{Brokers: []string{" "}, Topic: "audit"}, nil))

	var p *Publisher
	assert.NoError(t, p.Publish(context.Background(), event("p1")))
	assert.NoError(t, p.Run(context.Background()))
	assert.Zero(t, p.Pending())
}

func TestPublisher_PublishDoesNotWaitForBroker(t *testing.T) {
	p := NewPublisher(config.KafkaConfig{
		Brokers:      []string{silentBroker(t)},
		Topic:        "audit",
		WriteTimeout: 200 * time.Millisecond,
	}, nil)
	require.NotNil(t, p)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	start := time.Now()
	for i := 0; i < 20; i++ {
		require.NoError(t, p.Publish(context.Background(), event("p1")))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("publisher did not stop after cancellation")
	}
}

func TestPublisher_QueueFullDropsEvent(t *testing.T) {
	p := newPublisher(&recordingWriter{}, config.KafkaConfig{QueueSize: 1}, nil)

	require.NoError(t, p.Publish(context.Background(), event("p1")))
	assert.ErrorIs(t, p.Publish(context.Background(), event("p2")), ErrQueueFull)
	assert.Equal(t, 1, p.Pending())
}

func TestPublisher_RunFlushesQueueOnShutdown(t *testing.T) {
	writer := &recordingWriter{}
	p := newPublisher(writer, config.KafkaConfig{}, nil)
	for _, id := range []string{"p1", "p2", "p3"} {
		require.NoError(t, p.Publish(context.Background(), event(id)))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, p.Run(ctx))

	assert.Equal(t, []string{"page:p1", "page:p2", "page:p3"}, writer.keys())
	assert.True(t, writer.closed)
	assert.Zero(t, p.Pending())
}

func TestPublisher_RunBatchesQueuedEvents(t *testing.T) {
	writer := &recordingWriter{}
	p := newPublisher(writer, config.KafkaConfig{}, nil)
	for _, id := range []string{"p1", "p2"} {
		require.NoError(t, p.Publish(context.Background(), event(id)))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return len(writer.keys()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	writer.mu.Lock()
	defer writer.mu.Unlock()
	assert.Len(t, writer.batches, 1, "queued events go out together")
}
