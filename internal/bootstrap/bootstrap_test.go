package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/studio/domain"
	"github.com/fastygo/studio/internal/config"
	"github.com/fastygo/studio/usecase/document"
)

func TestOpenStorage_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{Storage: config.StorageConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "nested", "studio.db"),
	}}

	storage, err := OpenStorage(ctx, cfg, nil)
	require.NoError(t, err)
	defer storage.Close()
	assert.Equal(t, config.DriverSQLite, storage.Driver)
	require.NoError(t, storage.Ping(ctx))

	stores := NewStores(document.Deps{Documents: storage.Documents, Versions: storage.Versions, Tx: storage.Tx})
	kinds := stores.Kinds()
	require.Len(t, kinds, 8)
	assert.Equal(t, "page", kinds[0].Name)

	entryType, err := stores.ContentTypes.Save(ctx, domain.SystemActor, document.SaveInput{Fields: domain.Fields{"name": "FAQ", "key": "faq"}})
	require.NoError(t, err)
	entry, err := stores.ContentEntries.Save(ctx, domain.SystemActor, document.SaveInput{Fields: domain.Fields{
		"content_type_id": entryType.ID, "entry_key": "shipping", "title": "Shipping",
	}})
	require.NoError(t, err)

	versions, err := storage.Versions.List(ctx, entry.ID, 10)
	require.NoError(t, err)
	assert.Len(t, versions, 1)
}

func TestOpenStorage_UnknownDriver(t *testing.T) {
	_, err := OpenStorage(context.Background(), &config.Config{Storage: config.StorageConfig{Driver: "mongo"}}, nil)
	assert.Error(t, err)
}
