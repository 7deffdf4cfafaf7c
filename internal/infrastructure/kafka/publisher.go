package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/fastygo/studio/domain"
	"github.com/fastygo/studio/internal/config"
)

// ErrQueueFull is returned by Publish when the outbound queue has no room left.
var ErrQueueFull = errors.New("audit publish queue is full")

const (
	defaultQueueSize = 1024
	maxBatch         = 100
)

// messageWriter is the part of kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher forwards stored audit events to a Kafka topic. Publish only queues; Run does
// the network writes, so a slow broker never holds up the caller.
type Publisher struct {
	writer       messageWriter
	queue        chan kafka.Message
	writeTimeout time.Duration
	logger       *zap.Logger
}

// NewPublisher returns nil when no broker is configured; a nil Publisher skips every publish.
func NewPublisher(cfg config.KafkaConfig, logger *zap.Logger) *Publisher {
	brokers := make([]string, 0, len(cfg.Brokers))
	for _, broker := range cfg.Brokers {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	if len(brokers) == 0 || cfg.Topic == "" {
		return nil
	}
	return newPublisher(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: cfg.WriteTimeout,
	}, cfg, logger)
}

func newPublisher(writer messageWriter, cfg config.KafkaConfig, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	size := cfg.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Publisher{
		writer:       writer,
		queue:        make(chan kafka.Message, size),
		writeTimeout: timeout,
		logger:       logger.With(zap.String("component", "audit_publisher")),
	}
}

// Publish queues event keyed by entity so one document's events stay ordered. It never
// blocks; a full queue drops the event and reports ErrQueueFull.
func (p *Publisher) Publish(_ context.Context, event domain.AuditEvent) error {
	if p == nil {
		return nil
	}
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.EntityType + ":" + event.EntityID),
		Value: value,
		Time:  event.CreatedAt,
	}
	select {
	case p.queue <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Pending reports how many events wait to be written.
func (p *Publisher) Pending() int {
	if p == nil {
		return 0
	}
	return len(p.queue)
}

// Run writes queued events until ctx is cancelled, then flushes what is left within one
// write timeout and closes the writer.
func (p *Publisher) Run(ctx context.Context) error {
	if p == nil {
		return nil
	}
	defer func() {
		if err := p.writer.Close(); err != nil {
			p.logger.Warn("closing kafka writer failed", zap.Error(err))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			p.flush()
			return nil
		case msg := <-p.queue:
			writeCtx, cancel := context.WithTimeout(ctx, p.writeTimeout)
			p.write(writeCtx, p.batch(msg))
			cancel()
		}
	}
}

// batch collects msg plus whatever is already queued, up to maxBatch messages.
func (p *Publisher) batch(msg kafka.Message) []kafka.Message {
	msgs := []kafka.Message{msg}
	for len(msgs) < maxBatch {
		select {
		case next := <-p.queue:
			msgs = append(msgs, next)
		default:
			return msgs
		}
	}
	return msgs
}

func (p *Publisher) flush() {
	if len(p.queue) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.writeTimeout)
	defer cancel()
	for len(p.queue) > 0 && ctx.Err() == nil {
		p.write(ctx, p.batch(<-p.queue))
	}
	if left := len(p.queue); left > 0 {
		p.logger.Warn("audit events not published before shutdown", zap.Int("dropped", left))
	}
}

func (p *Publisher) write(ctx context.Context, msgs []kafka.Message) {
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.logger.Warn("audit publish failed", zap.Int("events", len(msgs)), zap.Error(err))
	}
}
