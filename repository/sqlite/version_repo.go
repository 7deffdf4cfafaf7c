package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fastygo/studio/domain"
	"github.com/fastygo/studio/repository"
)

type versionRepository struct {
	db *sql.DB
}

// NewVersionRepository creates a SQLite-backed VersionRepository implementation.
func NewVersionRepository(db *sql.DB) repository.VersionRepository {
	return &versionRepository{db: db}
}

func (r *versionRepository) LatestNumber(ctx context.Context, documentID string) (int, error) {
	const query = `SELECT COALESCE(MAX(version_number), 0) FROM document_versions WHERE document_id = ?`
	var latest int
	err := conn(ctx, r.db).QueryRowContext(ctx, query, documentID).Scan(&latest)
	return latest, err
}

func (r *versionRepository) Insert(ctx context.Context, version *domain.Version) error {
	if version == nil || version.ID == "" || version.DocumentID == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO document_versions (id, document_id, version_number, snapshot, change_note, created_by, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	version.CreatedAt = orNow(version.CreatedAt)
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		version.ID,
		version.DocumentID,
		version.Number,
		string(version.Snapshot),
		version.ChangeNote,
		version.CreatedBy,
		formatTime(version.CreatedAt),
	)
	if isUniqueViolation(err) {
		return domain.ErrVersionConflict
	}
	return err
}

func (r *versionRepository) List(ctx context.Context, documentID string, limit int) ([]domain.Version, error) {
	const query = `
	SELECT id, document_id, version_number, snapshot, change_note, created_by, created_at
	FROM document_versions
	WHERE document_id = ?
	ORDER BY version_number DESC
	LIMIT ?
	`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, documentID, repository.ClampLimit(limit, 40))
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
	WHERE document_id = ? AND version_number = ?
	`
	return scanVersion(conn(ctx, r.db).QueryRowContext(ctx, query, documentID, number))
}

func scanVersion(row interface {
	Scan(dest ...any) error
}) (*domain.Version, error) {
	var (
		v                 domain.Version
		snapshot, created string
	)
	if err := row.Scan(&v.ID, &v.DocumentID, &v.Number, &snapshot, &v.ChangeNote, &v.CreatedBy, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrVersionNotFound
		}
		return nil, err
	}
	createdAt, err := parseTime(created)
	if err != nil {
		return nil, err
	}
	v.Snapshot = []byte(snapshot)
	v.CreatedAt = createdAt
	return &v, nil
}
