package monitor

import (
	"context"
	"sync"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fastygo/studio/internal/infrastructure/buffer"
)

// PingFunc checks the primary store, e.g. pgxpool.Pool.Ping or sql.DB.PingContext.
type PingFunc func(ctx context.Context) error

// Monitor polls the document store's dependencies. Replay of buffered writes is gated on the
// primary store only; the cache is optional and a nil redis client means it is disabled.
type Monitor struct {
	driver string
	ping   PingFunc
	redis  *redislib.Client
	buffer *buffer.Store

	status    Status
	mu        sync.RWMutex
	onRecover []func()
	interval  time.Duration
	stopCh    chan struct{}
	stopOnce  sync.Once
	logger    *zap.Logger
}

func New(driver string, ping PingFunc, redis *redislib.Client, buf *buffer.Store, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		driver:   driver,
		ping:     ping,
		redis:    redis,
		buffer:   buf,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

// OnRecover registers fn to run, on the polling goroutine, each time the primary store comes
// back after being unreachable. Register before Start.
func (m *Monitor) OnRecover(fn func()) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	m.onRecover = append(m.onRecover, fn)
	m.mu.Unlock()
}

func (m *Monitor) Start() {
	m.Refresh()
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// IsOnline reports whether buffered writes can be replayed against the primary store.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Store.Online
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Refresh()
		case <-m.stopCh:
			return
		}
	}
}

// Refresh runs every check once and publishes the result.
func (m *Monitor) Refresh() {
	status := Status{
		Driver:    m.driver,
		Store:     m.probe(3*time.Second, m.ping),
		Cache:     Probe{},
		Buffer:    m.checkBuffer(),
		LastCheck: time.Now(),
	}
	if m.redis != nil {
		status.Cache = m.probe(2*time.Second, func(ctx context.Context) error {
			return m.redis.Ping(ctx).Err()
		})
	}

	m.mu.Lock()
	previous := m.status
	m.status = status
	hooks := m.onRecover
	m.mu.Unlock()

	if previous.LastCheck.IsZero() || previous.Store.Online == status.Store.Online {
		return
	}
	if !status.Store.Online {
		m.logger.Warn("primary store unreachable", zap.String("driver", m.driver), zap.String("error", status.Store.Error))
		return
	}
	m.logger.Info("primary store recovered", zap.String("driver", m.driver), zap.Int("pending", status.Buffer.Pending))
	for _, fn := range hooks {
		fn()
	}
}

func (m *Monitor) probe(timeout time.Duration, check func(ctx context.Context) error) Probe {
	if check == nil {
		return Probe{}
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	started := time.Now()
	err := check(ctx)
	result := Probe{Enabled: true, Online: err == nil, LatencyMS: time.Since(started).Milliseconds()}
	if err != nil {
		result.Error = err.Error()
	}
	return result
}

func (m *Monitor) checkBuffer() BufferStatus {
	if m.buffer == nil {
		return BufferStatus{}
	}
	counts, err := m.buffer.Counts()
	if err != nil {
		m.logger.Warn("buffer check failed", zap.Error(err))
		return BufferStatus{}
	}
	return BufferStatus{Online: true, Pending: counts.Pending, Dead: counts.Dead}
}
