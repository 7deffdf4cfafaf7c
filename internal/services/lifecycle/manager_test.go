package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestShutdown_ReverseOrderAndErrors(t *testing.T) {
	m := New(time.Second, nil, zap.NewNop())

	var order []string
	m.Register("storage", func(context.Context) error {
		order = append(order, "storage")
		return nil
	})
	m.RegisterCloser("buffer", closerFunc(func() error {
		order = append(order, "buffer")
		return errors.New("locked")
	}))
	m.Register("monitor", func(context.Context) error {
		order = append(order, "monitor")
		panic("boom")
	})
	m.Register("skipped", nil)

	err := m.Shutdown(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "buffer: locked")
	assert.Contains(t, err.Error(), "monitor: panic: boom")
	assert.Equal(t, []string{"monitor", "buffer", "storage"}, order)

	again := m.Shutdown(context.Background())
	assert.Equal(t, err, again)
	assert.Len(t, order, 3, "hooks run once")
}

func TestGo_FailureCancelsApplication(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := New(time.Second, cancel, zap.New(core))

	m.Go("http_server", func() error { return errors.New("address in use") })

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("application was not cancelled")
	}
	require.NoError(t, m.Shutdown(context.Background()))
	require.Error(t, m.Err())
	assert.Equal(t, "http_server: address in use", m.Err().Error())
	assert.Equal(t, 1, logs.FilterMessage("component failed").Len())
}

func TestShutdown_WaitsForSupervisedComponents(t *testing.T) {
	m := New(50*time.Millisecond, nil, nil)
	stop := make(chan struct{})
	m.Go("listener", func() error {
		<-stop
		return nil
	})
	m.Register("listener", func(context.Context) error {
		close(stop)
		return nil
	})
	require.NoError(t, m.Shutdown(context.Background()))
	assert.NoError(t, m.Err())

	stuck := New(20*time.Millisecond, nil, nil)
	block := make(chan struct{})
	defer close(block)
	stuck.Go("stuck", func() error {
		<-block
		return nil
	})
	assert.ErrorIs(t, stuck.Shutdown(context.Background()), context.DeadlineExceeded)
}
