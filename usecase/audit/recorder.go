package audit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/studio/domain"
	"github.com/fastygo/studio/repository"
	"github.com/fastygo/studio/usecase"
)

// Sink receives audit events after they are stored, e.g. a message broker. Publish runs on
// the caller's path and must return without waiting on the network.
type Sink interface {
	Publish(ctx context.Context, event domain.AuditEvent) error
}

// Recorder stores audit events on a best-effort basis. Record never fails the caller.
type Recorder struct {
	events      repository.AuditRepository
	buffer      usecase.OperationBuffer
	sink        Sink
	environment string
	clock       func() time.Time
	logger      *zap.Logger
}

type Options struct {
	Buffer      usecase.OperationBuffer
	Sink        Sink
	Environment string
	Clock       func() time.Time
}

func NewRecorder(events repository.AuditRepository, opts Options, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }
	}
	return &Recorder{
		events:      events,
		buffer:      opts.Buffer,
		sink:        opts.Sink,
		environment: Clean(opts.Environment, "production", 40),
		clock:       opts.Clock,
		logger:      logger,
	}
}

// Record fills in the actor, environment and time, then stores the event. Storage failures
// and panics are logged; failed events go to the operation buffer.
func (r *Recorder) Record(ctx context.Context, actor domain.Actor, event domain.AuditEvent) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("audit recorder panicked",
				zap.String("domain", event.Domain),
				zap.String("action", event.Action),
				zap.Any("panic", p))
		}
	}()

	normalized := r.normalize(actor, event)
	if r.events == nil {
		return
	}
	if err := r.events.Append(ctx, &normalized); err != nil {
		r.logger.Warn("audit write failed",
			zap.String("domain", normalized.Domain),
			zap.String("action", normalized.Action),
			zap.String("entity_id", normalized.EntityID),
			zap.Error(err))
		if r.buffer != nil {
			if err := r.buffer.BufferAudit(ctx, &normalized); err != nil {
				r.logger.Error("failed to buffer audit event", zap.Error(err))
			}
		}
		return
	}

	if r.sink != nil {
		if err := r.sink.Publish(ctx, normalized); err != nil {
			r.logger.Warn("audit sink publish failed", zap.Int64("event_id", normalized.ID), zap.Error(err))
		}
	}
}

// List returns events newest first.
func (r *Recorder) List(ctx context.Context, filter repository.AuditFilter) ([]domain.AuditEvent, error) {
	if filter.Limit <= 0 || filter.Limit > repository.MaxListLimit {
		filter.Limit = repository.MaxListLimit
	}
	events, err := r.events.List(ctx, filter)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "listing audit events", err)
	}
	return events, nil
}

func (r *Recorder) normalize(actor domain.Actor, event domain.AuditEvent) domain.AuditEvent {
	event.Domain = Clean(event.Domain, "", 50)
	event.Action = Clean(event.Action, "", 50)
	event.EntityType = Clean(event.EntityType, "", 60)
	event.EntityID = Clean(event.EntityID, "", 120)
	event.ActorID = Clean(actor.ID, "", 64)
	event.ActorName = Clean(actor.Username, "system", 120)
	event.ActorIP = Clean(actor.IP, "unknown", 64)
	event.ActorUserAgent = Clean(actor.UserAgent, "", 320)
	event.Environment = Clean(event.Environment, r.environment, 40)
	if event.CreatedAt.IsZero() {
		event.CreatedAt = r.clock()
	}
	return event
}

// Clean trims and truncates value, falling back when it ends up empty.
func Clean(value, fallback string, max int) string {
	if cleaned := domain.Clean(value, max); cleaned != "" {
		return cleaned
	}
	return fallback
}
