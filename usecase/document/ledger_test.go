package document

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/studio/domain"
	"github.com/fastygo/studio/repository"
)

// racyVersions lets another writer take the computed number right before each insert.
type racyVersions struct {
	repository.VersionRepository
	races   int
	inserts int
}

func (r *racyVersions) Insert(ctx context.Context, version *domain.Version) error {
	r.inserts++
	if r.races > 0 {
		r.races--
		rival := *version
		rival.ID = uuid.NewString()
		if err := r.VersionRepository.Insert(ctx, &rival); err != nil {
			return err
		}
	}
	return r.VersionRepository.Insert(ctx, version)
}

func TestLedger_AppendNumbersFromLatest(t *testing.T) {
	env := newTestEnv(t)
	ledger := NewLedger(env.versions, nil, env.clock.Now, nil)
	snap := domain.NewSnapshot().String("title", "Home")

	for want := 1; want <= 3; want++ {
		version, err := ledger.Append(ctx, "doc-1", *snap, "note", editor)
		require.NoError(t, err)
		assert.Equal(t, want, version.Number)
		assert.Equal(t, "u-1", version.CreatedBy)
	}

	other, err := ledger.Append(ctx, "doc-2", *snap, "", editor)
	require.NoError(t, err)
	assert.Equal(t, 1, other.Number, "numbering is per document")
}

func TestLedger_RetriesOnConflict(t *testing.T) {
	env := newTestEnv(t)
	racy := &racyVersions{VersionRepository: env.versions, races: 2}
	ledger := NewLedger(racy, nil, env.clock.Now, nil)

	version, err := ledger.Append(ctx, "doc-1", *domain.NewSnapshot(), "", editor)
	require.NoError(t, err)
	assert.Equal(t, 3, version.Number)

	history, err := ledger.History(ctx, "doc-1", 0)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2, 1}, versionNumbers(t, history))
}

func TestLedger_GivesUpAfterBoundedRetries(t *testing.T) {
	env := newTestEnv(t)
	buffer := &capturingBuffer{}
	ledger := NewLedger(&racyVersions{VersionRepository: env.versions, races: maxAppendAttempts}, buffer, env.clock.Now, nil)

	_, err := ledger.Append(ctx, "doc-1", *domain.NewSnapshot(), "", editor)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	ledger = NewLedger(&racyVersions{VersionRepository: env.versions, races: maxAppendAttempts}, buffer, env.clock.Now, nil)
	assert.Nil(t, ledger.Record(ctx, "doc-1", *domain.NewSnapshot(), "", editor))
	require.Len(t, buffer.versions, 1)
}

func TestLedger_TruncatesChangeNote(t *testing.T) {
	env := newTestEnv(t)
	ledger := NewLedger(env.versions, nil, env.clock.Now, nil)
	long := make([]rune, 400)
	for i := range long {
		long[i] = 'é'
	}

	version, err := ledger.Append(ctx, "doc-1", *domain.NewSnapshot(), "  "+string(long), editor)
	require.NoError(t, err)
	assert.Len(t, []rune(version.ChangeNote), domain.ChangeNoteLimit)

	stored, err := ledger.Get(ctx, "doc-1", 1)
	require.NoError(t, err)
	assert.Equal(t, version.ChangeNote, stored.ChangeNote)
}
