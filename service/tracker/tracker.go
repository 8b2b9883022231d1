// Package tracker follows tasks on the platform until they reach a terminal
// state, caching the latest status snapshot for concurrent readers.
package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/viant/mlkit/model/task"
)

// Polling interval bounds. Intervals outside the range fall back to the
// default rather than the nearest bound.
const (
	DefaultInterval = 10 * time.Second
	MinInterval     = 5 * time.Second
	MaxInterval     = 300 * time.Second
)

// waitPollInterval paces cooperative Wait loops. Overridable in tests.
var waitPollInterval = time.Second

// StatusSource queries the current status of a task.
type StatusSource interface {
	GetTask(ctx context.Context, taskID string) (*task.Status, error)
}

// Config represents tracker configuration.
type Config struct {
	// Interval is how often the tracker polls the task status.
	Interval time.Duration
	// PrintProgress logs the task state on every poll.
	PrintProgress bool
	// OnTerminal, when set, runs once after the tracker observes a terminal
	// state. It is never invoked for trackers stopped early.
	OnTerminal func(status *task.Status)
}

// DefaultConfig returns the default tracker configuration.
func DefaultConfig() Config {
	return Config{Interval: DefaultInterval}
}

// Tracker polls a single task in the background. The cached status is
// guarded so callers may read it while the polling goroutine updates it.
type Tracker struct {
	source   StatusSource
	logger   *logrus.Logger
	taskID   string
	interval time.Duration
	progress bool

	onTerminal func(status *task.Status)

	mux    sync.RWMutex
	status *task.Status

	shutdownCh chan struct{}
	doneCh     chan struct{}
	stopOnce   sync.Once
}

// New creates a tracker seeded with the task's initial status.
func New(source StatusSource, initial *task.Status, config Config, logger *logrus.Logger) *Tracker {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	interval := config.Interval
	if interval == 0 {
		interval = DefaultInterval
	} else if interval < MinInterval || interval > MaxInterval {
		logger.Warnf("tracking interval must be between %s and %s, using default %s instead",
			MinInterval, MaxInterval, DefaultInterval)
		interval = DefaultInterval
	}
	return &Tracker{
		source:     source,
		logger:     logger,
		taskID:     initial.ID,
		interval:   interval,
		progress:   config.PrintProgress,
		onTerminal: config.OnTerminal,
		status:     initial,
		shutdownCh: make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start launches the polling goroutine. It must be called at most once.
func (t *Tracker) Start(ctx context.Context) {
	go t.track(ctx)
}

// track polls the task until its state is terminal. Query failures are
// logged and retried on the next tick; once a terminal state is cached the
// loop exits and no further queries are made.
func (t *Tracker) track(ctx context.Context) {
	defer close(t.doneCh)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for !t.State().IsTerminal() {
		select {
		case <-ctx.Done():
			return
		case <-t.shutdownCh:
			return
		case <-ticker.C:
			status, err := t.source.GetTask(ctx, t.taskID)
			if err != nil {
				t.logger.Errorf("failed to query task %v: %v", t.taskID, err)
			} else {
				t.mux.Lock()
				t.status = status
				t.mux.Unlock()
			}
			if t.progress {
				t.logger.Infof("task %v current state: %v", t.taskID, t.State())
			}
		}
	}

	if t.onTerminal != nil {
		t.onTerminal(t.Status())
	}
}

// Status returns a copy of the latest status snapshot.
func (t *Tracker) Status() *task.Status {
	t.mux.RLock()
	defer t.mux.RUnlock()
	return t.status.Clone()
}

// State returns the latest known task state.
func (t *Tracker) State() task.State {
	t.mux.RLock()
	defer t.mux.RUnlock()
	return t.status.State
}

// Done reports whether the task reached a terminal state.
func (t *Tracker) Done() bool {
	return t.State().IsTerminal()
}

// Wait blocks until the task reaches a terminal state or ctx is cancelled,
// polling the cached snapshot at a fixed cadence.
func (t *Tracker) Wait(ctx context.Context) (*task.Status, error) {
	for {
		if t.State().IsTerminal() {
			return t.Status(), nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(waitPollInterval):
		}
	}
}

// Stop ends the polling goroutine without affecting the task on the
// platform. It is safe to call multiple times.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() {
		close(t.shutdownCh)
	})
}

// Finished exposes completion of the polling goroutine, whether due to a
// terminal state, a Stop call or context cancellation.
func (t *Tracker) Finished() <-chan struct{} {
	return t.doneCh
}
