package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/studio/domain"
	"github.com/fastygo/studio/internal/infrastructure/buffer"
	"github.com/fastygo/studio/repository"
)

// ConnectionHealth reports whether primary storage accepts writes.
type ConnectionHealth interface {
	IsOnline() bool
}

// ProcessorConfig controls how frequently the buffer is drained.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	// Retention drops items buffered longer ago than this; zero keeps everything.
	Retention time.Duration
}

// DrainReport summarizes one or more drain passes.
type DrainReport struct {
	Replayed     int `json:"replayed"`
	Requeued     int `json:"requeued"`
	DeadLettered int `json:"dead_lettered"`
}

func (r *DrainReport) add(other DrainReport) {
	r.Replayed += other.Replayed
	r.Requeued += other.Requeued
	r.DeadLettered += other.DeadLettered
}

// BufferProcessor replays buffered version and audit writes once primary storage is back.
// Only one drain runs at a time; overlapping calls return an empty report.
type BufferProcessor struct {
	store    *buffer.Store
	monitor  ConnectionHealth
	versions repository.VersionRepository
	audits   repository.AuditRepository
	logger   *zap.Logger
	cron     *cron.Cron
	cfg      ProcessorConfig
	draining sync.Mutex
}

func NewBufferProcessor(
	store *buffer.Store,
	monitor ConnectionHealth,
	versions repository.VersionRepository,
	audits repository.AuditRepository,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *BufferProcessor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bp := &BufferProcessor{
		store:    store,
		monitor:  monitor,
		versions: versions,
		audits:   audits,
		logger:   logger,
		cfg:      cfg,
		cron:     cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", max(1, int(cfg.Interval.Seconds())))
	_, _ = bp.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if _, err := bp.Drain(ctx); err != nil {
			bp.logger.Error("buffer drain failed", zap.Error(err))
		}
		if _, err := bp.Prune(time.Now()); err != nil {
			bp.logger.Error("buffer prune failed", zap.Error(err))
		}
	})

	return bp
}

// Start launches the cron scheduler.
func (bp *BufferProcessor) Start() {
	if bp == nil || bp.cron == nil {
		return
	}
	bp.cron.Start()
	bp.logger.Info("buffer processor started", zap.Duration("interval", bp.cfg.Interval))
}

// Stop gracefully stops the scheduler.
func (bp *BufferProcessor) Stop(ctx context.Context) {
	if bp == nil || bp.cron == nil {
		return
	}
	stopCtx := bp.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	bp.logger.Info("buffer processor stopped")
}

// Drain replays one batch synchronously. Items that keep failing move to the dead-letter
// bucket after MaxRetries attempts.
func (bp *BufferProcessor) Drain(ctx context.Context) (DrainReport, error) {
	var report DrainReport
	if bp == nil || bp.store == nil {
		return report, nil
	}
	if bp.monitor != nil && !bp.monitor.IsOnline() {
		bp.logger.Debug("skipping buffer drain (offline)")
		return report, nil
	}
	if !bp.draining.TryLock() {
		return report, nil
	}
	defer bp.draining.Unlock()

	items, err := bp.store.GetBatch(bp.cfg.BatchSize)
	if err != nil {
		return report, err
	}

	for _, item := range items {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		if err := bp.processItem(ctx, item); err != nil {
			bp.logger.Error("failed to replay buffer item",
				zap.String("item_id", item.ID),
				zap.String("entity", item.Entity),
				zap.String("subject", item.Subject),
				zap.Error(err))

			item.Retries++
			item.LastError = err.Error()
			if item.Retries >= bp.cfg.MaxRetries {
				bp.logger.Warn("moving buffer item to dead letters", zap.String("item_id", item.ID), zap.Int("retries", item.Retries))
				if err := bp.store.Bury(item); err != nil {
					bp.logger.Error("failed to dead-letter buffer item", zap.Error(err))
				}
				report.DeadLettered++
				continue
			}
			if err := bp.store.Requeue(item); err != nil {
				bp.logger.Error("failed to requeue buffer item", zap.Error(err))
			}
			report.Requeued++
			continue
		}

		if err := bp.store.Remove(item); err != nil {
			bp.logger.Warn("failed to purge replayed buffer item", zap.Error(err))
		}
		report.Replayed++
	}
	if report != (DrainReport{}) {
		bp.logger.Info("buffer drained",
			zap.Int("replayed", report.Replayed),
			zap.Int("requeued", report.Requeued),
			zap.Int("dead_lettered", report.DeadLettered))
	}
	return report, nil
}

// DrainAll repeats Drain until the buffer is empty, a batch makes no progress, or maxBatches
// batches ran.
func (bp *BufferProcessor) DrainAll(ctx context.Context, maxBatches int) (DrainReport, error) {
	var total DrainReport
	for i := 0; i < maxBatches && bp.Size() > 0; i++ {
		report, err := bp.Drain(ctx)
		total.add(report)
		if err != nil {
			return total, err
		}
		if report.Replayed == 0 && report.DeadLettered == 0 {
			break
		}
	}
	return total, nil
}

// BufferOperation retries the write once right away and persists it when that fails too.
func (bp *BufferProcessor) BufferOperation(ctx context.Context, item buffer.Item) error {
	if bp == nil || bp.store == nil {
		return errors.New("buffer processor not configured")
	}

	if bp.monitor == nil || bp.monitor.IsOnline() {
		err := bp.processItem(ctx, item)
		if err == nil {
			return nil
		}
		bp.logger.Warn("immediate replay failed, buffering", zap.String("entity", item.Entity), zap.Error(err))
		item.LastError = err.Error()
	}
	return bp.store.Enqueue(item)
}

// Prune removes items older than the retention window.
func (bp *BufferProcessor) Prune(now time.Time) (int, error) {
	if bp == nil || bp.store == nil || bp.cfg.Retention <= 0 {
		return 0, nil
	}
	removed, err := bp.store.Cleanup(now.Add(-bp.cfg.Retention))
	if removed > 0 {
		bp.logger.Warn("expired buffer items removed", zap.Int("count", removed))
	}
	return removed, err
}

// Size returns the number of pending items.
func (bp *BufferProcessor) Size() int {
	if bp == nil || bp.store == nil {
		return 0
	}
	size, err := bp.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (bp *BufferProcessor) processItem(ctx context.Context, item buffer.Item) error {
	switch item.Entity {
	case buffer.EntityVersion:
		version, err := item.Version()
		if err != nil {
			return err
		}
		return bp.replayVersion(ctx, version)

	case buffer.EntityAudit:
		event, err := item.Audit()
		if err != nil {
			return err
		}
		return bp.audits.Append(ctx, event)

	default:
		return fmt.Errorf("unsupported entity %s", item.Entity)
	}
}

// replayVersion keeps the buffered number when it is still free and takes the next one
// otherwise, so replays never overwrite history.
func (bp *BufferProcessor) replayVersion(ctx context.Context, version *domain.Version) error {
	if version.Number > 0 {
		err := bp.versions.Insert(ctx, version)
		if err == nil || !errors.Is(err, domain.ErrVersionConflict) {
			return err
		}
	}
	latest, err := bp.versions.LatestNumber(ctx, version.DocumentID)
	if err != nil {
		return err
	}
	version.Number = latest + 1
	return bp.versions.Insert(ctx, version)
}
