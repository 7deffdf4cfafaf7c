package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fastygo/studio/domain"
	"github.com/fastygo/studio/repository"
)

type documentRepository struct {
	db *sql.DB
}

// NewDocumentRepository creates a SQLite-backed DocumentRepository implementation.
func NewDocumentRepository(db *sql.DB) repository.DocumentRepository {
	return &documentRepository{db: db}
}

const documentColumns = `id, kind, title, status, scheduled_publish_at, published_at, is_trashed, trashed_at,
	payload, created_by, updated_by, created_at, updated_at`

func (r *documentRepository) Get(ctx context.Context, kind, id string) (*domain.Record, error) {
	const query = `SELECT ` + documentColumns + ` FROM documents WHERE kind = ? AND id = ?`
	return scanRecord(conn(ctx, r.db).QueryRowContext(ctx, query, kind, id))
}

func (r *documentRepository) List(ctx context.Context, filter repository.DocumentFilter) ([]domain.Record, error) {
	const query = `
	SELECT ` + documentColumns + `
	FROM documents
	WHERE kind = ?
	  AND (? = '' OR title LIKE ? ESCAPE '\' OR primary_key LIKE ? ESCAPE '\')
	  AND (? = '' OR status = ?)
	  AND (? IS NULL OR is_trashed = ?)
	ORDER BY updated_at DESC, id
	LIMIT ? OFFSET ?
	`
	pattern := likePattern(filter.Query)
	var trashed any
	if filter.Trashed != nil {
		trashed = *filter.Trashed
	}
	rows, err := conn(ctx, r.db).QueryContext(ctx, query,
		filter.Kind,
		filter.Query, pattern, pattern,
		string(filter.Status), string(filter.Status),
		trashed, trashed,
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
	WHERE id = (SELECT document_id FROM document_keys WHERE kind = ? AND field = ? AND value = ?)
	`
	return scanRecord(conn(ctx, r.db).QueryRowContext(ctx, query, kind, field, value))
}

func (r *documentRepository) KeyTaken(ctx context.Context, kind, field, value, excludeID string) (bool, error) {
	const query = `
	SELECT EXISTS (
		SELECT 1 FROM document_keys
		WHERE kind = ? AND field = ? AND value = ? AND document_id <> ?
	)
	`
	var taken bool
	err := conn(ctx, r.db).QueryRowContext(ctx, query, kind, field, value, excludeID).Scan(&taken)
	return taken, err
}

func (r *documentRepository) Save(ctx context.Context, record *domain.Record) error {
	if record == nil || record.ID == "" {
		return domain.ErrInvalidPayload
	}

	const upsert = `
	INSERT INTO documents (id, kind, title, primary_key, status, scheduled_publish_at, published_at, is_trashed,
		trashed_at, payload, created_by, updated_by, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE
	SET title = excluded.title,
		primary_key = excluded.primary_key,
		status = excluded.status,
		scheduled_publish_at = excluded.scheduled_publish_at,
		published_at = excluded.published_at,
		is_trashed = excluded.is_trashed,
		trashed_at = excluded.trashed_at,
		payload = excluded.payload,
		updated_by = excluded.updated_by,
		updated_at = excluded.updated_at
	`
	const insertKey = `INSERT INTO document_keys (kind, field, value, document_id) VALUES (?, ?, ?, ?)`

	primaryKey := ""
	if len(record.Keys) > 0 {
		primaryKey = record.Keys[0].Value
	}
	record.CreatedAt = orNow(record.CreatedAt)
	record.UpdatedAt = orNow(record.UpdatedAt)

	err := inTx(ctx, r.db, func(q querier) error {
		if _, err := q.ExecContext(ctx, upsert,
			record.ID,
			record.Kind,
			record.Title,
			primaryKey,
			string(record.Status),
			nullTime(record.ScheduledPublishAt),
			nullTime(record.PublishedAt),
			record.Trashed,
			nullTime(record.TrashedAt),
			string(record.Payload),
			record.CreatedBy,
			record.UpdatedBy,
			formatTime(record.CreatedAt),
			formatTime(record.UpdatedAt),
		); err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM document_keys WHERE document_id = ?`, record.ID); err != nil {
			return err
		}
		for _, key := range record.Keys {
			if _, err := q.ExecContext(ctx, insertKey, record.Kind, key.Field, key.Value, record.ID); err != nil {
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
	return inTx(ctx, r.db, func(q querier) error {
		res, err := q.ExecContext(ctx, `DELETE FROM documents WHERE kind = ? AND id = ?`, kind, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrDocumentNotFound
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM document_keys WHERE document_id = ?`, id); err != nil {
			return err
		}
		_, err = q.ExecContext(ctx, `DELETE FROM document_versions WHERE document_id = ?`, id)
		return err
	})
}

func scanRecord(row interface {
	Scan(dest ...any) error
}) (*domain.Record, error) {
	var (
		rec                          domain.Record
		status, payload              string
		scheduled, published, trashd sql.NullString
		created, updated             string
	)

	if err := row.Scan(
		&rec.ID,
		&rec.Kind,
		&rec.Title,
		&status,
		&scheduled,
		&published,
		&rec.Trashed,
		&trashd,
		&payload,
		&rec.CreatedBy,
		&rec.UpdatedBy,
		&created,
		&updated,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}

	var err error
	if rec.ScheduledPublishAt, err = parseNullTime(scheduled); err != nil {
		return nil, err
	}
	if rec.PublishedAt, err = parseNullTime(published); err != nil {
		return nil, err
	}
	if rec.TrashedAt, err = parseNullTime(trashd); err != nil {
		return nil, err
	}
	if rec.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if rec.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	rec.Status = domain.Status(status)
	rec.Payload = []byte(payload)
	return &rec, nil
}
