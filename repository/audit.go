package repository

import (
	"context"

	"github.com/fastygo/studio/domain"
)

// AuditFilter matches Domain, Action and Environment as case-insensitive substrings and the
// entity fields exactly.
type AuditFilter struct {
	Domain      string
	Action      string
	Environment string
	EntityType  string
	EntityID    string
	Limit       int
}

type AuditRepository interface {
	Append(ctx context.Context, event *domain.AuditEvent) error
	List(ctx context.Context, filter AuditFilter) ([]domain.AuditEvent, error)
}

type PromotionRepository interface {
	Create(ctx context.Context, event *domain.PromotionEvent) error
	List(ctx context.Context, limit int) ([]domain.PromotionEvent, error)
}
