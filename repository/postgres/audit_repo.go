package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/studio/domain"
	"github.com/fastygo/studio/repository"
)

type auditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a Postgres-backed AuditRepository implementation.
func NewAuditRepository(pool *pgxpool.Pool) repository.AuditRepository {
	return &auditRepository{pool: pool}
}

func (r *auditRepository) Append(ctx context.Context, event *domain.AuditEvent) error {
	if event == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO audit_events (domain, action, entity_type, entity_id, before_json, after_json,
		actor_id, actor_name, actor_ip, actor_user_agent, environment, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, COALESCE($12, NOW()))
	RETURNING id, created_at
	`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		event.Domain,
		event.Action,
		event.EntityType,
		event.EntityID,
		nullText(event.Before),
		nullText(event.After),
		event.ActorID,
		event.ActorName,
		event.ActorIP,
		event.ActorUserAgent,
		event.Environment,
		nullTime(event.CreatedAt),
	).Scan(&event.ID, &event.CreatedAt)
}

func (r *auditRepository) List(ctx context.Context, filter repository.AuditFilter) ([]domain.AuditEvent, error) {
	const query = `
	SELECT id, domain, action, entity_type, entity_id, before_json, after_json,
		actor_id, actor_name, actor_ip, actor_user_agent, environment, created_at
	FROM audit_events
	WHERE ($1 = '' OR domain ILIKE $2)
	  AND ($3 = '' OR action ILIKE $4)
	  AND ($5 = '' OR environment ILIKE $6)
	  AND ($7 = '' OR entity_type = $7)
	  AND ($8 = '' OR entity_id = $8)
	ORDER BY created_at DESC, id DESC
	LIMIT $9
	`
	rows, err := conn(ctx, r.pool).Query(ctx, query,
		filter.Domain, likePattern(filter.Domain),
		filter.Action, likePattern(filter.Action),
		filter.Environment, likePattern(filter.Environment),
		filter.EntityType,
		filter.EntityID,
		repository.ClampLimit(filter.Limit, repository.MaxListLimit),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.AuditEvent
	for rows.Next() {
		var (
			event         domain.AuditEvent
			before, after *string
		)
		if err := rows.Scan(
			&event.ID,
			&event.Domain,
			&event.Action,
			&event.EntityType,
			&event.EntityID,
			&before,
			&after,
			&event.ActorID,
			&event.ActorName,
			&event.ActorIP,
			&event.ActorUserAgent,
			&event.Environment,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		if before != nil {
			event.Before = []byte(*before)
		}
		if after != nil {
			event.After = []byte(*after)
		}
		event.CreatedAt = event.CreatedAt.UTC()
		events = append(events, event)
	}
	return events, rows.Err()
}

type promotionRepository struct {
	pool *pgxpool.Pool
}

// NewPromotionRepository creates a Postgres-backed PromotionRepository implementation.
func NewPromotionRepository(pool *pgxpool.Pool) repository.PromotionRepository {
	return &promotionRepository{pool: pool}
}

func (r *promotionRepository) Create(ctx context.Context, event *domain.PromotionEvent) error {
	if event == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO promotion_events (source_environment, target_environment, resource_type, resource_id,
		version_number, status, notes, promoted_by, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, NOW()))
	RETURNING id, created_at
	`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		event.SourceEnvironment,
		event.TargetEnvironment,
		event.ResourceType,
		event.ResourceID,
		event.VersionNumber,
		event.Status,
		event.Notes,
		event.PromotedBy,
		nullTime(event.CreatedAt),
	).Scan(&event.ID, &event.CreatedAt)
}

func (r *promotionRepository) List(ctx context.Context, limit int) ([]domain.PromotionEvent, error) {
	const query = `
	SELECT id, source_environment, target_environment, resource_type, resource_id,
		version_number, status, notes, promoted_by, created_at
	FROM promotion_events
	ORDER BY created_at DESC, id DESC
	LIMIT $1
	`
	rows, err := conn(ctx, r.pool).Query(ctx, query, repository.ClampLimit(limit, 50))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.PromotionEvent
	for rows.Next() {
		var event domain.PromotionEvent
		if err := rows.Scan(
			&event.ID,
			&event.SourceEnvironment,
			&event.TargetEnvironment,
			&event.ResourceType,
			&event.ResourceID,
			&event.VersionNumber,
			&event.Status,
			&event.Notes,
			&event.PromotedBy,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		event.CreatedAt = event.CreatedAt.UTC()
		events = append(events, event)
	}
	return events, rows.Err()
}
