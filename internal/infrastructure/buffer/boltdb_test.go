package buffer

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/studio/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "buffer", "pending.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func ids(items []Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func TestStore_OrdersByPriorityThenAge(t *testing.T) {
	store := openTestStore(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Enqueue(Item{ID: "audit-old", Entity: EntityAudit, Timestamp: base}))
	require.NoError(t, store.Enqueue(Item{ID: "version-new", Entity: EntityVersion, Timestamp: base.Add(time.Hour)}))
	require.NoError(t, store.Enqueue(Item{ID: "version-old", Entity: EntityVersion, Timestamp: base}))
	require.NoError(t, store.Enqueue(Item{ID: "unknown", Entity: "thumbnail", Timestamp: base}))

	items, err := store.GetBatch(10)
	require.NoError(t, err)
	assert.Equal(t, []string{"version-old", "version-new", "audit-old", "unknown"}, ids(items))
	assert.Equal(t, 1, items[0].Priority)
	assert.Equal(t, 5, items[3].Priority)

	counts, err := store.Counts()
	require.NoError(t, err)
	assert.Equal(t, Counts{Pending: 4, ByEntity: map[string]int{EntityVersion: 2, EntityAudit: 1, "thumbnail": 1}}, counts)
}

func TestStore_RemoveAndRequeue(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Enqueue(Item{ID: "a", Entity: EntityAudit, Timestamp: time.Now().Add(-time.Hour)}))
	require.NoError(t, store.Enqueue(Item{ID: "b", Entity: EntityAudit}))

	items, err := store.GetBatch(1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].ID)

	items[0].Retries++
	require.NoError(t, store.Requeue(items[0]))
	size, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 2, size)

	items, err = store.GetBatch(10)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids(items), "requeued item moves behind")
	assert.Equal(t, 1, items[1].Retries)

	require.NoError(t, store.Remove(Item{ID: "b"}))
	require.NoError(t, store.Remove(Item{ID: "never-stored"}))
	size, err = store.Size()
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

func TestStore_SameVersionBufferedTwice(t *testing.T) {
	store := openTestStore(t)
	item, err := VersionItem(&domain.Version{ID: "v-1", DocumentID: "doc", Number: 3})
	require.NoError(t, err)

	require.NoError(t, store.Enqueue(item))
	require.NoError(t, store.Remove(item))
	require.NoError(t, store.Enqueue(item))

	items, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	version, err := items[0].Version()
	require.NoError(t, err)
	assert.Equal(t, 3, version.Number)
	assert.Equal(t, "doc", items[0].Subject)

	_, err = items[0].Audit()
	assert.Error(t, err)
}

func TestStore_DeadLetters(t *testing.T) {
	store := openTestStore(t)
	item, err := AuditItem(&domain.AuditEvent{ID: 9, EntityID: "doc", Action: domain.ActionUpdate})
	require.NoError(t, err)
	item.ID = "audit-1"
	require.NoError(t, store.Enqueue(item))

	item.Retries = 5
	item.LastError = "disk full"
	require.NoError(t, store.Bury(item))

	counts, err := store.Counts()
	require.NoError(t, err)
	assert.Equal(t, 0, counts.Pending)
	assert.Equal(t, 1, counts.Dead)

	dead, err := store.Dead(0)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, "disk full", dead[0].LastError)

	revived, err := store.Revive()
	require.NoError(t, err)
	assert.Equal(t, 1, revived)

	items, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Zero(t, items[0].Retries)
	event, err := items[0].Audit()
	require.NoError(t, err)
	assert.Zero(t, event.ID, "replayed audit events get a fresh id")
	assert.Equal(t, "doc", event.EntityID)
}

func TestStore_Cleanup(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Enqueue(Item{ID: "stale", Timestamp: time.Now().Add(-48 * time.Hour)}))
	require.NoError(t, store.Enqueue(Item{ID: "fresh"}))
	require.NoError(t, store.Bury(Item{ID: "stale-dead", Timestamp: time.Now().Add(-48 * time.Hour)}))

	removed, err := store.Cleanup(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	counts, err := store.Counts()
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Pending)
	assert.Zero(t, counts.Dead)

	var nilStore *Store
	_, err = nilStore.Size()
	assert.Error(t, err)
}
