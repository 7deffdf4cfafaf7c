package monitor

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/studio/internal/infrastructure/buffer"
)

func TestMonitor_Refresh(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store, err := buffer.Open(filepath.Join(t.TempDir(), "buffer.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Enqueue(buffer.Item{Entity: buffer.EntityAudit}))
	require.NoError(t, store.Bury(buffer.Item{ID: "dead", Entity: buffer.EntityAudit}))

	var pingErr error
	m := New("sqlite", func(context.Context) error { return pingErr }, client, store, 0, nil)
	recovered := 0
	m.OnRecover(func() { recovered++ })
	m.Refresh()

	status := m.GetStatus()
	assert.True(t, m.IsOnline())
	assert.True(t, status.Healthy())
	assert.Equal(t, "sqlite", status.Driver)
	assert.Equal(t, BufferStatus{Online: true, Pending: 1, Dead: 1}, status.Buffer)
	assert.True(t, status.Cache.Enabled)

	mr.Close()
	m.Refresh()
	assert.True(t, m.IsOnline(), "the cache does not gate replay")
	assert.False(t, m.GetStatus().Healthy())
	assert.NotEmpty(t, m.GetStatus().Cache.Error)

	pingErr = errors.New("connection refused")
	m.Refresh()
	assert.False(t, m.IsOnline())
	assert.Equal(t, "connection refused", m.GetStatus().Store.Error)
	assert.Zero(t, recovered)

	pingErr = nil
	m.Refresh()
	m.Refresh()
	assert.Equal(t, 1, recovered, "recovery hooks fire once per outage")

	m.Stop()
	m.Stop()
}

func TestMonitor_WithoutCache(t *testing.T) {
	m := New("postgres", func(context.Context) error { return nil }, nil, nil, 0, nil)
	m.Refresh()
	status := m.GetStatus()
	assert.True(t, status.Healthy())
	assert.False(t, status.Cache.Enabled)
	assert.False(t, status.Buffer.Online)

	assert.False(t, New("postgres", nil, nil, nil, 0, nil).GetStatus().Healthy())
}
