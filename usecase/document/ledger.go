package document

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/studio/domain"
	"github.com/fastygo/studio/repository"
	"github.com/fastygo/studio/usecase"
)

const maxAppendAttempts = 3

// Ledger numbers and stores document versions.
type Ledger struct {
	versions repository.VersionRepository
	buffer   usecase.OperationBuffer
	clock    func() time.Time
	logger   *zap.Logger
}

func NewLedger(versions repository.VersionRepository, buffer usecase.OperationBuffer, clock func() time.Time, logger *zap.Logger) *Ledger {
	if clock == nil {
		clock = Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		versions: versions,
		buffer:   buffer,
		clock:    clock,
		logger:   logger,
	}
}

// Append stores snapshot as the next version of documentID. The number is the highest
// recorded one plus one; a concurrent writer taking the same number causes a re-read.
func (l *Ledger) Append(ctx context.Context, documentID string, snapshot domain.Snapshot, note string, actor domain.Actor) (*domain.Version, error) {
	version, err := l.append(ctx, documentID, snapshot, note, actor, maxAppendAttempts)
	if err != nil {
		return nil, err
	}
	return version, nil
}

// appendInTx makes a single attempt. A unique violation aborts a Postgres transaction, so
// re-reading the latest number inside it would only fail again; the conflict is returned.
func (l *Ledger) appendInTx(ctx context.Context, documentID string, snapshot domain.Snapshot, note string, actor domain.Actor) error {
	_, err := l.append(ctx, documentID, snapshot, note, actor, 1)
	return err
}

// Record is Append for callers that must not fail on history: errors are logged and the
// version is handed to the operation buffer for replay.
func (l *Ledger) Record(ctx context.Context, documentID string, snapshot domain.Snapshot, note string, actor domain.Actor) *domain.Version {
	version, err := l.append(ctx, documentID, snapshot, note, actor, maxAppendAttempts)
	if err == nil {
		return version
	}

	l.logger.Warn("version append failed",
		zap.String("document_id", documentID),
		zap.Int("version_number", version.Number),
		zap.Error(err))
	if l.buffer == nil {
		return nil
	}
	if err := l.buffer.BufferVersion(ctx, version); err != nil {
		l.logger.Error("failed to buffer version", zap.String("document_id", documentID), zap.Error(err))
	}
	return nil
}

// History lists versions newest first.
func (l *Ledger) History(ctx context.Context, documentID string, limit int) ([]domain.Version, error) {
	return l.versions.List(ctx, documentID, limit)
}

func (l *Ledger) Get(ctx context.Context, documentID string, number int) (*domain.Version, error) {
	return l.versions.Get(ctx, documentID, number)
}

func (l *Ledger) append(ctx context.Context, documentID string, snapshot domain.Snapshot, note string, actor domain.Actor, attempts int) (*domain.Version, error) {
	version := &domain.Version{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		Snapshot:   snapshot.Bytes(),
		ChangeNote: domain.Clean(note, domain.ChangeNoteLimit),
		CreatedBy:  actor.ID,
		CreatedAt:  l.clock(),
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		var latest int
		latest, err = l.versions.LatestNumber(ctx, documentID)
		if err != nil {
			return version, err
		}
		version.Number = latest + 1

		err = l.versions.Insert(ctx, version)
		if err == nil {
			return version, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) || attempt == attempts {
			return version, err
		}
		l.logger.Debug("version number taken, retrying",
			zap.String("document_id", documentID),
			zap.Int("version_number", version.Number),
			zap.Int("attempt", attempt))
	}
	return version, err
}

// Now is the store clock: UTC, truncated to the precision every backend keeps.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
