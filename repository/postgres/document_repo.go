package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/studio/domain"
	"github.com/fastygo/studio/repository"
)

type documentRepository struct {
	pool *pgxpool.Pool
}

// NewDocumentRepository creates a Postgres-backed DocumentRepository implementation.
func NewDocumentRepository(pool *pgxpool.Pool) repository.DocumentRepository {
	return &documentRepository{pool: pool}
}

const documentColumns = `id, kind, title, status, scheduled_publish_at, published_at, is_trashed, trashed_at,
	payload, created_by, updated_by, created_at, updated_at`

func (r *documentRepository) Get(ctx context.Context, kind, id string) (*domain.Record, error) {
	const query = `
	SELECT ` + documentColumns + `
	FROM documents
	WHERE kind = $1 AND id = $2
	`
	return scanRecord(conn(ctx, r.pool).QueryRow(ctx, query, kind, id))
}

func (r *documentRepository) List(ctx context.Context, filter repository.DocumentFilter) ([]domain.Record, error) {
	const query = `
	SELECT ` + documentColumns + `
	FROM documents
	WHERE kind = $1
	  AND ($2 = '' OR title ILIKE $3 OR primary_key ILIKE $3)
	  AND ($4 = '' OR status = $4)
	  AND ($5::boolean IS NULL OR is_trashed = $5)
	ORDER BY updated_at DESC
	LIMIT $6 OFFSET $7
	`
	rows, err := conn(ctx, r.pool).Query(ctx, query,
		filter.Kind,
		filter.Query,
		likePattern(filter.Query),
		string(filter.Status),
		filter.Trashed,
		repository.ClampLimit(filter.Limit, 50),
		filter.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (r *documentRepository) FindByKey(ctx context.Context, kind, field, value string) (*domain.Record, error) {
	const query = `
	SELECT ` + documentColumns + `
	FROM documents
	WHERE id = (SELECT document_id FROM document_keys WHERE kind = $1 AND field = $2 AND value = $3)
	`
	return scanRecord(conn(ctx, r.pool).QueryRow(ctx, query, kind, field, value))
}

func (r *documentRepository) KeyTaken(ctx context.Context, kind, field, value, excludeID string) (bool, error) {
	const query = `
	SELECT EXISTS (
		SELECT 1 FROM document_keys
		WHERE kind = $1 AND field = $2 AND value = $3 AND document_id <> $4
	)
	`
	var taken bool
	err := conn(ctx, r.pool).QueryRow(ctx, query, kind, field, value, excludeID).Scan(&taken)
	return taken, err
}

func (r *documentRepository) Save(ctx context.Context, record *domain.Record) error {
	if record == nil || record.ID == "" {
		return domain.ErrInvalidPayload
	}

	const upsert = `
	INSERT INTO documents (id, kind, title, primary_key, status, scheduled_publish_at, published_at, is_trashed,
		trashed_at, payload, created_by, updated_by, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, COALESCE($13, NOW()), COALESCE($14, NOW()))
	ON CONFLICT (id) DO UPDATE
	SET title = EXCLUDED.title,
		primary_key = EXCLUDED.primary_key,
		status = EXCLUDED.status,
		scheduled_publish_at = EXCLUDED.scheduled_publish_at,
		published_at = EXCLUDED.published_at,
		is_trashed = EXCLUDED.is_trashed,
		trashed_at = EXCLUDED.trashed_at,
		payload = EXCLUDED.payload,
		updated_by = EXCLUDED.updated_by,
		updated_at = EXCLUDED.updated_at
	`
	const insertKey = `INSERT INTO document_keys (kind, field, value, document_id) VALUES ($1, $2, $3, $4)`

	primaryKey := ""
	if len(record.Keys) > 0 {
		primaryKey = record.Keys[0].Value
	}

	err := inTx(ctx, r.pool, func(q querier) error {
		if _, err := q.Exec(ctx, upsert,
			record.ID,
			record.Kind,
			record.Title,
			primaryKey,
			string(record.Status),
			utcPtr(record.ScheduledPublishAt),
			utcPtr(record.PublishedAt),
			record.Trashed,
			utcPtr(record.TrashedAt),
			string(record.Payload),
			record.CreatedBy,
			record.UpdatedBy,
			nullTime(record.CreatedAt),
			nullTime(record.UpdatedAt),
		); err != nil {
			return err
		}
		if _, err := q.Exec(ctx, `DELETE FROM document_keys WHERE document_id = $1`, record.ID); err != nil {
			return err
		}
		for _, key := range record.Keys {
			if _, err := q.Exec(ctx, insertKey, record.Kind, key.Field, key.Value, record.ID); err != nil {
				if isUniqueViolation(err) {
					return &domain.KeyConflict{Field: key.Field}
				}
				return err
			}
		}
		return nil
	})
	if isUniqueViolation(err) {
		return domain.ErrDuplicateKey
	}
	return err
}

func (r *documentRepository) Delete(ctx context.Context, kind, id string) error {
	return inTx(ctx, r.pool, func(q querier) error {
		if _, err := q.Exec(ctx, `DELETE FROM document_versions WHERE document_id = $1`, id); err != nil {
			return err
		}
		if _, err := q.Exec(ctx, `DELETE FROM document_keys WHERE document_id = $1`, id); err != nil {
			return err
		}
		tag, err := q.Exec(ctx, `DELETE FROM documents WHERE kind = $1 AND id = $2`, kind, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrDocumentNotFound
		}
		return nil
	})
}

func scanRecord(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Record, error) {
	var (
		rec     domain.Record
		status  string
		payload string
	)

	if err := row.Scan(
		&rec.ID,
		&rec.Kind,
		&rec.Title,
		&status,
		&rec.ScheduledPublishAt,
		&rec.PublishedAt,
		&rec.Trashed,
		&rec.TrashedAt,
		&payload,
		&rec.CreatedBy,
		&rec.UpdatedBy,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}

	rec.Status = domain.Status(status)
	rec.Payload = []byte(payload)
	rec.ScheduledPublishAt = utcPtr(rec.ScheduledPublishAt)
	rec.PublishedAt = utcPtr(rec.PublishedAt)
	rec.TrashedAt = utcPtr(rec.TrashedAt)
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return &rec, nil
}
