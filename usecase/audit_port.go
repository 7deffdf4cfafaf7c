package usecase

import (
	"context"

	"github.com/fastygo/studio/domain"
)

// Auditor records mutating actions. Implementations never fail the caller; event carries the
// entity fields and the recorder fills in the actor, environment and time.
type Auditor interface {
	Record(ctx context.Context, actor domain.Actor, event domain.AuditEvent)
}
