package repository

import "context"

// Transactor runs fn inside one storage transaction. Repositories called with the context
// passed to fn take part in it.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// MaxListLimit caps every list query.
const MaxListLimit = 200

// ClampLimit applies the default and the upper bound to a requested page size.
func ClampLimit(limit, fallback int) int {
	if limit <= 0 {
		limit = fallback
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return limit
}
