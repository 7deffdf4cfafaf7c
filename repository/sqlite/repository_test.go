package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/studio/domain"
	sqliteinfra "github.com/fastygo/studio/internal/infrastructure/sqlite"
	"github.com/fastygo/studio/repository"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	db, err := sqliteinfra.Open(ctx, filepath.Join(t.TempDir(), "studio.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqliteinfra.EnsureSchema(ctx, db))
	return db
}

func pageRecord(t *testing.T, id, slug string, updated time.Time) *domain.Record {
	t.Helper()
	page := domain.NewPage()
	require.NoError(t, page.Bind(domain.Fields{"title": "Page " + slug, "slug": slug}))
	page.ID = id
	page.Status = domain.StatusDraft
	page.CreatedAt = updated
	page.UpdatedAt = updated
	return domain.NewRecord(page)
}

func TestDocumentRepository_SaveGetList(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository(setupTestDB(t))
	base := time.Date(2026, 3, 1, 10, 0, 0, 123000, time.UTC)

	require.NoError(t, repo.Save(ctx, pageRecord(t, "a", "alpha", base)))
	require.NoError(t, repo.Save(ctx, pageRecord(t, "b", "beta", base.Add(time.Minute))))

	got, err := repo.Get(ctx, "page", "a")
	require.NoError(t, err)
	assert.Equal(t, "Page alpha", got.Title)
	assert.Equal(t, base, got.CreatedAt)
	assert.Nil(t, got.PublishedAt)

	_, err = repo.Get(ctx, "dashboard", "a")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	list, err := repo.List(ctx, repository.DocumentFilter{Kind: "page"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID, "most recently updated first")

	list, err = repo.List(ctx, repository.DocumentFilter{Kind: "page", Query: "ALPH"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].ID)

	trashed := true
	list, err = repo.List(ctx, repository.DocumentFilter{Kind: "page", Trashed: &trashed})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDocumentRepository_Keys(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository(setupTestDB(t))
	now := time.Now().UTC()

	require.NoError(t, repo.Save(ctx, pageRecord(t, "a", "alpha", now)))

	found, err := repo.FindByKey(ctx, "page", "slug", "alpha")
	require.NoError(t, err)
	assert.Equal(t, "a", found.ID)

	taken, err := repo.KeyTaken(ctx, "page", "slug", "alpha", "b")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.KeyTaken(ctx, "page", "slug", "alpha", "a")
	require.NoError(t, err)
	assert.False(t, taken, "own key is not taken")

	err = repo.Save(ctx, pageRecord(t, "b", "alpha", now))
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)
	var conflict *domain.KeyConflict
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "slug", conflict.Field)
	_, err = repo.Get(ctx, "page", "b")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound, "failed save must not leave a row")

	renamed := pageRecord(t, "a", "gamma", now)
	require.NoError(t, repo.Save(ctx, renamed))
	_, err = repo.FindByKey(ctx, "page", "slug", "alpha")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestDocumentRepository_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	docs := NewDocumentRepository(db)
	versions := NewVersionRepository(db)

	require.NoError(t, docs.Save(ctx, pageRecord(t, "a", "alpha", time.Now())))
	require.NoError(t, versions.Insert(ctx, &domain.Version{ID: "v1", DocumentID: "a", Number: 1, Snapshot: []byte(`{}`)}))

	require.NoError(t, docs.Delete(ctx, "page", "a"))
	latest, err := versions.LatestNumber(ctx, "a")
	require.NoError(t, err)
	assert.Zero(t, latest)
	assert.ErrorIs(t, docs.Delete(ctx, "page", "a"), domain.ErrDocumentNotFound)
}

func TestVersionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewVersionRepository(setupTestDB(t))

	latest, err := repo.LatestNumber(ctx, "doc")
	require.NoError(t, err)
	assert.Zero(t, latest)

	for i := 1; i <= 3; i++ {
		require.NoError(t, repo.Insert(ctx, &domain.Version{
			ID: "v" + string(rune('0'+i)), DocumentID: "doc", Number: i, Snapshot: []byte(`{"n":1}`), ChangeNote: "note",
		}))
	}
	err = repo.Insert(ctx, &domain.Version{ID: "dup", DocumentID: "doc", Number: 2, Snapshot: []byte(`{}`)})
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	latest, err = repo.LatestNumber(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, 3, latest)

	list, err := repo.List(ctx, "doc", 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 3, list[0].Number)
	assert.Equal(t, 2, list[1].Number)

	v, err := repo.Get(ctx, "doc", 1)
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1}`, string(v.Snapshot))

	_, err = repo.Get(ctx, "doc", 9)
	assert.ErrorIs(t, err, domain.ErrVersionNotFound)
}

func TestAuditRepository_Filters(t *testing.T) {
	ctx := context.Background()
	repo := NewAuditRepository(setupTestDB(t))
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	events := []domain.AuditEvent{
		{Domain: "pages", Action: "create", EntityType: "page", EntityID: "1", ActorName: "alice", ActorIP: "127.0.0.1", Environment: "production", CreatedAt: base},
		{Domain: "pages", Action: "workflow", EntityType: "page", EntityID: "1", ActorName: "alice", ActorIP: "127.0.0.1", Environment: "production", CreatedAt: base.Add(time.Second), After: []byte(`{"status":"published"}`)},
		{Domain: "dashboards", Action: "create", EntityType: "dashboard", EntityID: "2", ActorName: "bob", ActorIP: "10.0.0.1", Environment: "staging", CreatedAt: base.Add(2 * time.Second)},
	}
	for i := range events {
		require.NoError(t, repo.Append(ctx, &events[i]))
		assert.NotZero(t, events[i].ID)
	}

	all, err := repo.List(ctx, repository.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "dashboards", all[0].Domain, "newest first")
	assert.Nil(t, all[0].Before)

	pages, err := repo.List(ctx, repository.AuditFilter{Domain: "PAGE"})
	require.NoError(t, err)
	assert.Len(t, pages, 2)

	flow, err := repo.List(ctx, repository.AuditFilter{Action: "flow", EntityID: "1"})
	require.NoError(t, err)
	require.Len(t, flow, 1)
	assert.JSONEq(t, `{"status":"published"}`, string(flow[0].After))

	staging, err := repo.List(ctx, repository.AuditFilter{Environment: "stag", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, staging, 1)
}

func TestPromotionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewPromotionRepository(setupTestDB(t))

	event := &domain.PromotionEvent{SourceEnvironment: "staging", TargetEnvironment: "production",
		ResourceType: "page", ResourceID: "p1", VersionNumber: 3, Status: domain.PromotionRecorded}
	require.NoError(t, repo.Create(ctx, event))
	assert.NotZero(t, event.ID)
	assert.False(t, event.CreatedAt.IsZero())

	list, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 3, list[0].VersionNumber)
}

func TestTransactor_RollsBack(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	docs := NewDocumentRepository(db)
	tx := NewTransactor(db)

	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, docs.Save(ctx, pageRecord(t, "a", "alpha", time.Now())))
		return domain.ErrVersionConflict
	})
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	_, err = docs.Get(ctx, "page", "a")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}
