package sqlite

import (
	"context"
	"database/sql"

	"github.com/fastygo/studio/domain"
	"github.com/fastygo/studio/repository"
)

type auditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a SQLite-backed AuditRepository implementation.
func NewAuditRepository(db *sql.DB) repository.AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Append(ctx context.Context, event *domain.AuditEvent) error {
	if event == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO audit_events (domain, action, entity_type, entity_id, before_json, after_json,
		actor_id, actor_name, actor_ip, actor_user_agent, environment, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	event.CreatedAt = orNow(event.CreatedAt)
	res, err := conn(ctx, r.db).ExecContext(ctx, query,
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
		formatTime(event.CreatedAt),
	)
	if err != nil {
		return err
	}
	event.ID, err = res.LastInsertId()
	return err
}

func (r *auditRepository) List(ctx context.Context, filter repository.AuditFilter) ([]domain.AuditEvent, error) {
	const query = `
	SELECT id, domain, action, entity_type, entity_id, before_json, after_json,
		actor_id, actor_name, actor_ip, actor_user_agent, environment, created_at
	FROM audit_events
	WHERE (? = '' OR domain LIKE ? ESCAPE '\')
	  AND (? = '' OR action LIKE ? ESCAPE '\')
	  AND (? = '' OR environment LIKE ? ESCAPE '\')
	  AND (? = '' OR entity_type = ?)
	  AND (? = '' OR entity_id = ?)
	ORDER BY created_at DESC, id DESC
	LIMIT ?
	`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query,
		filter.Domain, likePattern(filter.Domain),
		filter.Action, likePattern(filter.Action),
		filter.Environment, likePattern(filter.Environment),
		filter.EntityType, filter.EntityType,
		filter.EntityID, filter.EntityID,
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
			before, after sql.NullString
			created       string
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
			&created,
		); err != nil {
			return nil, err
		}
		if before.Valid {
			event.Before = []byte(before.String)
		}
		if after.Valid {
			event.After = []byte(after.String)
		}
		if event.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

type promotionRepository struct {
	db *sql.DB
}

// NewPromotionRepository creates a SQLite-backed PromotionRepository implementation.
func NewPromotionRepository(db *sql.DB) repository.PromotionRepository {
	return &promotionRepository{db: db}
}

func (r *promotionRepository) Create(ctx context.Context, event *domain.PromotionEvent) error {
	if event == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO promotion_events (source_environment, target_environment, resource_type, resource_id,
		version_number, status, notes, promoted_by, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	event.CreatedAt = orNow(event.CreatedAt)
	res, err := conn(ctx, r.db).ExecContext(ctx, query,
		event.SourceEnvironment,
		event.TargetEnvironment,
		event.ResourceType,
		event.ResourceID,
		event.VersionNumber,
		event.Status,
		event.Notes,
		event.PromotedBy,
		formatTime(event.CreatedAt),
	)
	if err != nil {
		return err
	}
	event.ID, err = res.LastInsertId()
	return err
}

func (r *promotionRepository) List(ctx context.Context, limit int) ([]domain.PromotionEvent, error) {
	const query = `
	SELECT id, source_environment, target_environment, resource_type, resource_id,
		version_number, status, notes, promoted_by, created_at
	FROM promotion_events
	ORDER BY created_at DESC, id DESC
	LIMIT ?
	`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, repository.ClampLimit(limit, 50))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.PromotionEvent
	for rows.Next() {
		var (
			event   domain.PromotionEvent
			created string
		)
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
			&created,
		); err != nil {
			return nil, err
		}
		if event.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
