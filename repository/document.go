package repository

import (
	"context"

	"github.com/fastygo/studio/domain"
)

type DocumentFilter struct {
	Kind    string
	Query   string
	Status  domain.Status
	Trashed *bool
	Limit   int
	Offset  int
}

type DocumentRepository interface {
	Get(ctx context.Context, kind, id string) (*domain.Record, error)
	List(ctx context.Context, filter DocumentFilter) ([]domain.Record, error)
	FindByKey(ctx context.Context, kind, field, value string) (*domain.Record, error)
	// KeyTaken reports whether another document of kind already holds field=value.
	KeyTaken(ctx context.Context, kind, field, value, excludeID string) (bool, error)
	Save(ctx context.Context, record *domain.Record) error
	// Delete removes the document together with its keys and versions.
	Delete(ctx context.Context, kind, id string) error
}
