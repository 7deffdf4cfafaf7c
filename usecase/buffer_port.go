package usecase

import (
	"context"

	"github.com/fastygo/studio/domain"
)

// OperationBuffer abstracts the buffer processor so use cases stay storage-agnostic. It takes
// the best-effort writes that failed against primary storage.
type OperationBuffer interface {
	BufferVersion(ctx context.Context, version *domain.Version) error
	BufferAudit(ctx context.Context, event *domain.AuditEvent) error
}
