package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/studio/domain"
	"github.com/fastygo/studio/repository"
)

type versionRepository struct {
	pool *pgxpool.Pool
}

// NewVersionRepository creates a Postgres-backed VersionRepository implementation.
func NewVersionRepository(pool *pgxpool.Pool) repository.VersionRepository {
	return &versionRepository{pool: pool}
}

func (r *versionRepository) LatestNumber(ctx context.Context, documentID string) (int, error) {
	const query = `SELECT COALESCE(MAX(version_number), 0) FROM document_versions WHERE document_id = $1`
	var latest int
	err := conn(ctx, r.pool).QueryRow(ctx, query, documentID).Scan(&latest)
	return latest, err
}

func (r *versionRepository) Insert(ctx context.Context, version *domain.Version) error {
	if version == nil || version.ID == "" || version.DocumentID == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO document_versions (id, document_id, version_number, snapshot, change_note, created_by, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))
	RETURNING created_at
	`
	err := conn(ctx, r.pool).QueryRow(ctx, query,
		version.ID,
		version.DocumentID,
		version.Number,
		string(version.Snapshot),
		version.ChangeNote,
		version.CreatedBy,
		nullTime(version.CreatedAt),
	).Scan(&version.CreatedAt)
	if isUniqueViolation(err) {
		return domain.ErrVersionConflict
	}
	return err
}

func (r *versionRepository) List(ctx context.Context, documentID string, limit int) ([]domain.Version, error) {
	const query = `
	SELECT id, document_id, version_number, snapshot, change_note, created_by, created_at
	FROM document_versions
	WHERE document_id = $1
	ORDER BY version_number DESC
	LIMIT $2
	`
	rows, err := conn(ctx, r.pool).Query(ctx, query, documentID, repository.ClampLimit(limit, 40))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []domain.Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, *v)
	}
	return versions, rows.Err()
}

func (r *versionRepository) Get(ctx context.Context, documentID string, number int) (*domain.Version, error) {
	const query = `
	SELECT id, document_id, version_number, snapshot, change_note, created_by, created_at
	FROM document_versions
	WHERE document_id = $1 AND version_number = $2
	`
	return scanVersion(conn(ctx, r.pool).QueryRow(ctx, query, documentID, number))
}

func scanVersion(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Version, error) {
	var (
		v        domain.Version
		snapshot string
	)
	if err := row.Scan(&v.ID, &v.DocumentID, &v.Number, &snapshot, &v.ChangeNote, &v.CreatedBy, &v.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVersionNotFound
		}
		return nil, err
	}
	v.Snapshot = []byte(snapshot)
	v.CreatedAt = v.CreatedAt.UTC()
	return &v, nil
}
