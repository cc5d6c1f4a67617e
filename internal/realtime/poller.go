package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/stillwaterhq/stillwater/internal/database"
	"github.com/stillwaterhq/stillwater/internal/logging"
)

// TaskSource supplies tasks created after a given instant.
type TaskSource interface {
	ListTasksCreatedSince(ctx context.Context, since time.Time) ([]database.Task, error)
}

// TaskPoller detects new task assignments by polling, as a fallback for
// deployments where the realtime websocket is unavailable. Poll errors are
// logged and the next tick retries.
type TaskPoller struct {
	source   TaskSource
	interval time.Duration
	handler  Handler
	logger   *logging.Logger

	mu      sync.Mutex
	since   time.Time
	stopCh  chan struct{}
	running bool
	// now is swappable for tests.
	now func() time.Time
}

// NewTaskPoller creates a poller emitting EventInsert for tasks created
// after the poller starts.
func NewTaskPoller(source TaskSource, interval time.Duration, handler Handler, logger *logging.Logger) *TaskPoller {
	return &TaskPoller{
		source:   source,
		interval: interval,
		handler:  handler,
		logger:   logger,
		now:      time.Now,
	}
}

// Start begins polling until Stop is called or ctx is done. Starting a
// running poller is a no-op.
func (p *TaskPoller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true
	p.since = p.now()
	p.stopCh = make(chan struct{})
	go p.loop(ctx, p.stopCh)
}

// Stop halts polling. The poller can be started again.
func (p *TaskPoller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		close(p.stopCh)
		p.running = false
	}
}

func (p *TaskPoller) loop(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *TaskPoller) tick(ctx context.Context) {
	p.mu.Lock()
	since := p.since
	p.mu.Unlock()

	tasks, err := p.source.ListTasksCreatedSince(ctx, since)
	if err != nil {
		p.logger.WithContext(ctx).WithError(err).Debug("task poll failed")
		return
	}

	latest := since
	for _, task := range tasks {
		if task.CreatedAt.After(latest) {
			latest = task.CreatedAt
		}
		record := map[string]interface{}{
			"id":         task.ID,
			"sponsor_id": task.SponsorID,
			"sponsee_id": task.SponseeID,
			"title":      task.Title,
			"status":     task.Status,
		}
		p.handler(Event{
			Type:      EventInsert,
			Table:     "tasks",
			Record:    record,
			Timestamp: task.CreatedAt,
		})
	}

	p.mu.Lock()
	if latest.After(p.since) {
		p.since = latest
	}
	p.mu.Unlock()
}
