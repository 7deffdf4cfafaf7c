package services

import (
	"context"

	"github.com/fastygo/studio/domain"
	"github.com/fastygo/studio/internal/infrastructure/buffer"
	"github.com/fastygo/studio/usecase"
)

// BufferBridge lets the ledger and the audit recorder hand failed writes to the processor
// without depending on the bolt buffer.
type BufferBridge struct {
	processor *BufferProcessor
}

func NewBufferBridge(processor *BufferProcessor) *BufferBridge {
	return &BufferBridge{processor: processor}
}

func (b *BufferBridge) BufferVersion(ctx context.Context, version *domain.Version) error {
	item, err := buffer.VersionItem(version)
	if err != nil {
		return err
	}
	return b.processor.BufferOperation(ctx, item)
}

func (b *BufferBridge) BufferAudit(ctx context.Context, event *domain.AuditEvent) error {
	item, err := buffer.AuditItem(event)
	if err != nil {
		return err
	}
	return b.processor.BufferOperation(ctx, item)
}

var _ usecase.OperationBuffer = (*BufferBridge)(nil)
