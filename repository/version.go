package repository

import (
	"context"

	"github.com/fastygo/studio/domain"
)

type VersionRepository interface {
	// LatestNumber returns the highest recorded version number, 0 when there is none.
	LatestNumber(ctx context.Context, documentID string) (int, error)
	// Insert fails with domain.ErrVersionConflict when the number is already taken.
	Insert(ctx context.Context, version *domain.Version) error
	List(ctx context.Context, documentID string, limit int) ([]domain.Version, error)
	Get(ctx context.Context, documentID string, number int) (*domain.Version, error)
}
