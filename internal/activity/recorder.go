// AngelaMos | 2026
// recorder.go

package activity

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Recorder accepts activity entries without blocking the caller.
type Recorder interface {
	Record(ctx context.Context, e Entry)
}

// Sink persists a single activity.
type Sink interface {
	Write(ctx context.Context, a *Activity) error
}

type Discard struct{}

func (Discard) Record(context.Context, Entry) {}

// RepositorySink writes straight to the activities table.
type RepositorySink struct {
	repo Repository
}

func NewRepositorySink(repo Repository) *RepositorySink {
	return &RepositorySink{repo: repo}
}

func (s *RepositorySink) Write(ctx context.Context, a *Activity) error {
	return s.repo.Create(ctx, a)
}

type DispatcherConfig struct {
	Buffer       int
	Workers      int
	WriteTimeout time.Duration
}

// Dispatcher fans entries out to a fixed pool of workers over a bounded
// buffer. When the buffer is full the entry is dropped and logged.
type Dispatcher struct {
	sink    Sink
	queue   chan *Activity
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time

	wg        sync.WaitGroup
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool

	written atomic.Int64
	failed  atomic.Int64
	dropped atomic.Int64
}

type DispatcherStats struct {
	Queued   int   `json:"queued"`
	Capacity int   `json:"capacity"`
	Written  int64 `json:"written"`
	Failed   int64 `json:"failed"`
	Dropped  int64 `json:"dropped"`
}

func NewDispatcher(sink Sink, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 256
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dispatcher{
		sink:    sink,
		queue:   make(chan *Activity, cfg.Buffer),
		timeout: cfg.WriteTimeout,
		logger:  logger,
		now:     time.Now,
	}

	d.wg.Add(cfg.Workers)
	for range cfg.Workers {
		go d.work()
	}

	return d
}

func (d *Dispatcher) Record(ctx context.Context, e Entry) {
	a := &Activity{
		ID:          uuid.New().String(),
		Type:        e.Type,
		Description: e.Description,
		Metadata:    e.Metadata,
		Timestamp:   d.now().UTC(),
	}
	if e.UserID != "" {
		uid := e.UserID
		a.UserID = &uid
	}
	if a.Metadata == nil {
		a.Metadata = Metadata{}
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.dropped.Add(1)
		d.logger.Warn("activity dropped after shutdown", "type", e.Type)
		return
	}

	select {
	case d.queue <- a:
	default:
		d.dropped.Add(1)
		d.logger.Warn("activity buffer full, dropping entry",
			"type", e.Type,
			"user_id", e.UserID,
		)
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()

	for a := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := d.sink.Write(ctx, a); err != nil {
			d.failed.Add(1)
			d.logger.Error("failed to write activity",
				"type", a.Type,
				"error", err,
			)
		} else {
			d.written.Add(1)
		}
		cancel()
	}
}

func (d *Dispatcher) Stats() DispatcherStats {
	return DispatcherStats{
		Queued:   len(d.queue),
		Capacity: cap(d.queue),
		Written:  d.written.Load(),
		Failed:   d.failed.Load(),
		Dropped:  d.dropped.Load(),
	}
}

// Close stops intake and waits for buffered entries to be written or for
// ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
