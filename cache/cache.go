// Package cache keeps the last-known full task list in memory so reads
// never wait on the spreadsheet. The snapshot is replaced wholesale on each
// successful refresh; a failed refresh keeps serving the previous one.
package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"sheetboard/board"
)

// DefaultRefreshInterval is how often the snapshot is re-pulled from the
// remote store when no interval is configured.
const DefaultRefreshInterval = 5 * time.Minute

const refreshTimeout = 30 * time.Second

// Getter pulls the full task list from the remote store.
type Getter interface {
	Get(ctx context.Context) ([]board.Task, error)
}

// Persister stores snapshots durably so the board survives a dead remote
// across restarts. Persistence is best effort; failures are logged.
type Persister interface {
	SaveTasks(tasks []board.Task) error
}

// Cache is the in-memory mirror of the remote task list. It is owned by
// the composition root and injected into the request handlers; reads are
// synchronous, refreshes run on a timer and after writes.
type Cache struct {
	remote    Getter
	persister Persister
	log       *zap.Logger

	mu        sync.RWMutex
	tasks     []board.Task
	onRefresh func([]board.Task)

	started  bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// New builds a cache over the given remote. persister may be nil.
func New(remote Getter, persister Persister, log *zap.Logger) *Cache {
	return &Cache{
		remote:    remote,
		persister: persister,
		log:       log,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Tasks returns a copy of the current snapshot. It never blocks on the
// network; a caller may observe a stale list until the next refresh.
func (c *Cache) Tasks() []board.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return board.CloneTasks(c.tasks)
}

// Seed installs a snapshot without touching the remote, used at startup to
// fall back on the durable copy.
func (c *Cache) Seed(tasks []board.Task) {
	c.mu.Lock()
	c.tasks = board.CloneTasks(tasks)
	c.mu.Unlock()
}

// SetOnRefresh installs a hook invoked with the new snapshot after every
// successful refresh, letting connected clients learn the board changed.
// Install it before Start.
func (c *Cache) SetOnRefresh(fn func([]board.Task)) {
	c.mu.Lock()
	c.onRefresh = fn
	c.mu.Unlock()
}

// Refresh pulls the full task list and atomically replaces the snapshot.
// On failure the previous snapshot stays in place and the error is both
// logged and returned; the refresh hook only fires on success.
func (c *Cache) Refresh(ctx context.Context) error {
	tasks, err := c.remote.Get(ctx)
	if err != nil {
		c.log.Error("cache refresh failed", zap.Error(err))
		return err
	}
	c.mu.Lock()
	c.tasks = tasks
	notify := c.onRefresh
	c.mu.Unlock()
	c.persist(tasks)
	if notify != nil {
		notify(board.CloneTasks(tasks))
	}
	c.log.Debug("cache refreshed", zap.Int("tasks", len(tasks)))
	return nil
}

// Start launches the periodic refresh loop. A non-positive interval falls
// back to the default.
func (c *Cache) Start(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	c.mu.Lock()
	c.started = true
	c.mu.Unlock()
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
				_ = c.Refresh(ctx)
				cancel()
			}
		}
	}()
}

// Stop halts the refresh loop and waits for it to exit. Stopping a cache
// that was never started is a no-op.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	c.mu.RLock()
	started := c.started
	c.mu.RUnlock()
	if started {
		<-c.done
	}
}

// Add appends a card to the snapshot.
func (c *Cache) Add(card board.Task) {
	c.mu.Lock()
	c.tasks = append(c.tasks, card)
	tasks := board.CloneTasks(c.tasks)
	c.mu.Unlock()
	c.persist(tasks)
}

// UpdateStatus moves the card with the given id to a new status.
func (c *Cache) UpdateStatus(id, status string) error {
	c.mu.Lock()
	var tasks []board.Task
	found := false
	for i := range c.tasks {
		if c.tasks[i].ID == id {
			c.tasks[i].Status = status
			found = true
			tasks = board.CloneTasks(c.tasks)
			break
		}
	}
	c.mu.Unlock()
	if !found {
		return board.ErrNotFound
	}
	c.persist(tasks)
	return nil
}

// Edit replaces the card with the same id.
func (c *Cache) Edit(card board.Task) error {
	c.mu.Lock()
	var tasks []board.Task
	found := false
	for i := range c.tasks {
		if c.tasks[i].ID == card.ID {
			c.tasks[i] = card
			found = true
			tasks = board.CloneTasks(c.tasks)
			break
		}
	}
	c.mu.Unlock()
	if !found {
		return board.ErrNotFound
	}
	c.persist(tasks)
	return nil
}

// Delete removes the card with the given id, leaving the snapshot
// untouched when the id is absent.
func (c *Cache) Delete(id string) error {
	c.mu.Lock()
	var tasks []board.Task
	found := false
	for i := range c.tasks {
		if c.tasks[i].ID == id {
			c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
			found = true
			tasks = board.CloneTasks(c.tasks)
			break
		}
	}
	c.mu.Unlock()
	if !found {
		return board.ErrNotFound
	}
	c.persist(tasks)
	return nil
}

// Replace swaps in a whole new task list, used after board-level
// operations that rebuild the card ordering.
func (c *Cache) Replace(tasks []board.Task) {
	copied := board.CloneTasks(tasks)
	c.mu.Lock()
	c.tasks = copied
	c.mu.Unlock()
	c.persist(copied)
}

func (c *Cache) persist(tasks []board.Task) {
	if c.persister == nil {
		return
	}
	if err := c.persister.SaveTasks(tasks); err != nil {
		c.log.Warn("snapshot persist failed", zap.Error(err))
	}
}
