package persist

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const DefaultDelay = 200 * time.Millisecond

// SnapshotFunc returns the current in-memory state. It is called when a save
// starts, never when it is scheduled, so a save always carries the latest state.
type SnapshotFunc func() *Snapshot

type Options struct {
	Delay    time.Duration
	Logger   *slog.Logger
	OnStatus func(saving bool)
	OnError  func(err error)
}

type Status struct {
	Saving      bool      `json:"isSaving"`
	Pending     bool      `json:"pending"`
	LastSavedAt time.Time `json:"lastSavedAt"`
	LastError   string    `json:"lastError,omitempty"`
}

// Coordinator schedules writes to a Backend.
//
// Passive edits call MarkDirty, which (re)starts a debounce timer; when it
// fires the four bulk collections are saved concurrently. Creates and deletes
// call SaveNow, which discards any pending debounced save, writes right away
// and only then lets debounced saves resume. A save that has started is never
// cancelled and there is no timeout. Concurrent writers are not reconciled:
// the last save wins.
type Coordinator struct {
	backend  Backend
	snapshot SnapshotFunc
	delay    time.Duration
	logger   *slog.Logger
	onStatus func(bool)
	onError  func(error)

	mu          sync.Mutex
	started     bool
	closed      bool
	timer       *time.Timer
	generation  uint64
	immediate   int
	deferred    bool
	inFlight    int
	lastSavedAt time.Time
	lastErr     error
	wg          sync.WaitGroup

	statusMu     sync.Mutex
	lastReported bool
}

func NewCoordinator(backend Backend, snapshot SnapshotFunc, opts Options) *Coordinator {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Coordinator{
		backend:  backend,
		snapshot: snapshot,
		delay:    opts.Delay,
		logger:   opts.Logger,
		onStatus: opts.OnStatus,
		onError:  opts.OnError,
	}
}

// Start enables debounced saves. MarkDirty calls made before the initial
// load completes are ignored.
func (c *Coordinator) Start() {
	c.mu.Lock()
	c.started = true
	c.mu.Unlock()
}

// MarkDirty records a state change and (re)starts the debounce timer.
func (c *Coordinator) MarkDirty() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started || c.closed {
		return
	}
	if c.immediate > 0 {
		c.deferred = true
		return
	}
	c.scheduleLocked()
}

func (c *Coordinator) scheduleLocked() {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.generation++
	gen := c.generation
	c.timer = time.AfterFunc(c.delay, func() { c.fire(gen) })
}

// cancelLocked drops a scheduled debounced save and reports whether one was pending.
func (c *Coordinator) cancelLocked() bool {
	if c.timer == nil {
		return false
	}
	c.timer.Stop()
	c.timer = nil
	c.generation++
	return true
}

func (c *Coordinator) fire(gen uint64) {
	c.mu.Lock()
	if gen != c.generation || c.timer == nil {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	busy := c.beginLocked()
	c.mu.Unlock()
	c.notifyIf(busy)
	defer c.end()

	if err := c.saveBulk(context.Background()); err != nil {
		c.fail(err)
		return
	}
	c.succeed()
}

func (c *Coordinator) saveBulk(ctx context.Context) error {
	snap := c.snapshot()

	var g errgroup.Group
	for _, col := range BulkCollections {
		g.Go(func() error {
			if err := Save(ctx, c.backend, snap, col); err != nil {
				c.logger.Error("debounced save failed", "collection", col, "error", err)
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// SaveNow cancels any pending debounced save and writes primary immediately.
// A primary failure is returned as *PersistenceError. The secondary
// collections are written afterwards on a best effort basis: their failures
// are logged and never returned. When a debounced save was pending, the bulk
// collections it would have written are folded in as secondaries so nothing
// is lost and nothing is written twice. After Close nothing is written and
// the error wraps ErrClosed.
func (c *Coordinator) SaveNow(ctx context.Context, primary Collection, secondary ...Collection) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.logger.Warn("immediate save after close dropped", "collection", primary)
		return &PersistenceError{Collection: primary, Err: ErrClosed}
	}
	hadPending := c.cancelLocked()
	c.immediate++
	busy := c.beginLocked()
	c.mu.Unlock()
	c.notifyIf(busy)

	defer func() {
		c.mu.Lock()
		c.immediate--
		if c.immediate == 0 && c.deferred {
			c.deferred = false
			if c.started && !c.closed {
				c.scheduleLocked()
			}
		}
		c.mu.Unlock()
		c.end()
	}()

	rest := slices.Clone(secondary)
	if hadPending {
		for _, col := range BulkCollections {
			if col != primary && !slices.Contains(rest, col) {
				rest = append(rest, col)
			}
		}
	}

	snap := c.snapshot()
	if err := Save(ctx, c.backend, snap, primary); err != nil {
		c.logger.Error("immediate save failed", "collection", primary, "error", err)
		c.fail(err)
		return err
	}
	for _, col := range rest {
		if err := Save(ctx, c.backend, snap, col); err != nil {
			c.logger.Warn("follow-up save failed", "collection", col, "error", err)
		}
	}
	c.succeed()
	return nil
}

// Saving reports whether any save is in flight.
func (c *Coordinator) Saving() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight > 0
}

func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := Status{
		Saving:      c.inFlight > 0,
		Pending:     c.timer != nil || c.deferred,
		LastSavedAt: c.lastSavedAt,
	}
	if c.lastErr != nil {
		st.LastError = c.lastErr.Error()
	}
	return st
}

// Close flushes a pending debounced save and waits for in-flight saves.
// Later MarkDirty calls are ignored and later SaveNow calls fail.
func (c *Coordinator) Close(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	pending := c.cancelLocked() || c.deferred
	c.deferred = false
	busy := false
	if pending {
		busy = c.beginLocked()
	}
	c.mu.Unlock()
	c.notifyIf(busy)

	var flushErr error
	if pending {
		flushErr = c.saveBulk(ctx)
		if flushErr != nil {
			c.fail(flushErr)
		} else {
			c.succeed()
		}
		c.end()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return flushErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// beginLocked reports whether the coordinator just went from idle to saving.
func (c *Coordinator) beginLocked() bool {
	c.inFlight++
	c.wg.Add(1)
	return c.inFlight == 1
}

func (c *Coordinator) end() {
	c.mu.Lock()
	c.inFlight--
	idle := c.inFlight == 0
	c.mu.Unlock()
	c.wg.Done()
	c.notifyIf(idle)
}

func (c *Coordinator) notifyIf(changed bool) {
	if changed {
		c.notify()
	}
}

// notify reports the current saving state, skipping repeats, so the last
// callback always matches the final state even when transitions race.
func (c *Coordinator) notify() {
	if c.onStatus == nil {
		return
	}
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	saving := c.Saving()
	if saving == c.lastReported {
		return
	}
	c.lastReported = saving
	c.onStatus(saving)
}

func (c *Coordinator) succeed() {
	c.mu.Lock()
	c.lastSavedAt = time.Now()
	c.lastErr = nil
	c.mu.Unlock()
}

func (c *Coordinator) fail(err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
	if c.onError != nil {
		c.onError(err)
	}
}
