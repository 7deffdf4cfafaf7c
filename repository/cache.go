package repository

import "context"

// DocumentCache holds encoded read models keyed by a caller-chosen string.
type DocumentCache interface {
	// Get reports a miss with ok=false and a nil error.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Invalidate(ctx context.Context, keys ...string) error
}
