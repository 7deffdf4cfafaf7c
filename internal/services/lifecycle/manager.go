package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// ShutdownFunc describes a graceful shutdown callback.
type ShutdownFunc func(ctx context.Context) error

type hook struct {
	name string
	fn   ShutdownFunc
}

// Manager owns the studio's long-running components: it starts supervised goroutines,
// cancels the application when one of them fails or a signal arrives, and stops the
// registered components in reverse order.
type Manager struct {
	timeout time.Duration
	logger  *zap.Logger
	cancel  context.CancelFunc

	mu    sync.Mutex
	hooks []hook

	once    sync.Once
	result  error
	failed  error
	failMu  sync.Mutex
	running sync.WaitGroup
}

// New creates a lifecycle manager bound to cancel, which is called when the application
// must stop. A zero timeout falls back to 15 seconds.
func New(timeout time.Duration, cancel context.CancelFunc, logger *zap.Logger) *Manager {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cancel == nil {
		cancel = func() {}
	}
	return &Manager{
		timeout: timeout,
		logger:  logger,
		cancel:  cancel,
	}
}

// Register adds a shutdown hook. Hooks are executed in reverse order.
func (m *Manager) Register(name string, fn ShutdownFunc) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, hook{name: name, fn: fn})
}

// RegisterCloser adds a hook that closes c.
func (m *Manager) RegisterCloser(name string, c io.Closer) {
	if c == nil {
		return
	}
	m.Register(name, func(context.Context) error { return c.Close() })
}

// Go runs a blocking component such as a listener. When run returns an error the
// application is cancelled and the error is reported by Err.
func (m *Manager) Go(name string, run func() error) {
	m.running.Add(1)
	go func() {
		defer m.running.Done()
		defer func() {
			if p := recover(); p != nil {
				m.fail(name, fmt.Errorf("panic: %v", p))
			}
		}()
		if err := run(); err != nil {
			m.fail(name, err)
		}
	}()
}

func (m *Manager) fail(name string, err error) {
	m.logger.Error("component failed", zap.String("component", name), zap.Error(err))
	m.failMu.Lock()
	m.failed = errors.Join(m.failed, fmt.Errorf("%s: %w", name, err))
	m.failMu.Unlock()
	m.cancel()
}

// Err returns the errors reported by components started with Go.
func (m *Manager) Err() error {
	m.failMu.Lock()
	defer m.failMu.Unlock()
	return m.failed
}

// Shutdown executes all registered hooks once, respecting the configured timeout, then
// waits for the supervised goroutines within the same deadline.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.once.Do(func() {
		m.result = m.shutdown(ctx)
	})
	return m.result
}

func (m *Manager) shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	m.mu.Lock()
	hooks := append([]hook(nil), m.hooks...)
	m.mu.Unlock()

	var result error
	for i := len(hooks) - 1; i >= 0; i-- {
		h := hooks[i]
		if err := m.runHook(ctx, h); err != nil {
			m.logger.Error("shutdown hook failed", zap.String("component", h.name), zap.Error(err))
			result = errors.Join(result, fmt.Errorf("%s: %w", h.name, err))
			continue
		}
		m.logger.Info("component stopped", zap.String("component", h.name))
	}

	done := make(chan struct{})
	go func() {
		m.running.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("supervised components did not stop in time")
		result = errors.Join(result, ctx.Err())
	}
	return result
}

func (m *Manager) runHook(ctx context.Context, h hook) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return h.fn(ctx)
}

// Listen cancels the application when an OS termination signal is received.
func (m *Manager) Listen() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		defer signal.Stop(sigCh)
		sig := <-sigCh
		m.logger.Info("shutdown signal received", zap.String("signal", sig.String()))
		m.cancel()
	}()
}
