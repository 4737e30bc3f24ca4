// Package syncer reconciles the local cart document with the remote per-user
// cart resource. Rapid local edits are coalesced by a trailing-edge debounce
// into a single push of the full document; the server is last-write-wins, no
// conflict resolution is attempted.
package syncer

import (
	"context"
	"sync"
	"time"

	"trendora-client/logger"
	"trendora-client/models"
)

// Remote is the slice of the API client the coordinator uses.
type Remote interface {
	FetchCart(ctx context.Context, userID string) ([]models.CartLine, error)
	SyncCart(ctx context.Context, userID string, lines []models.CartLine) error
	ClearCart(ctx context.Context, userID string) error
}

// Op labels a Result.
type Op string

const (
	OpPush  Op = "push"
	OpPull  Op = "pull"
	OpClear Op = "clear"
)

// Result is the observable outcome of one network operation. Failures are
// delivered here instead of being swallowed, so callers and tests can assert
// on them.
type Result struct {
	Op    Op
	Err   error
	Lines int
}

// Coordinator is a per-session debounce-coalesce push scheduler.
//
// State machine: IDLE -> (Schedule) -> DEBOUNCING -> (timer fires, nothing in
// flight) -> PUSHING -> IDLE. A Schedule during DEBOUNCING resets the timer; a
// Schedule (or timer fire) during PUSHING marks the state dirty, and a fresh
// debounce window is armed once the push settles. At most one push is in
// flight at any time. There is no error state: failures land on the results
// channel and the next mutation re-arms the cycle.
type Coordinator struct {
	remote   Remote
	userID   string
	debounce time.Duration

	// snapshot reads the current local cart document; replace installs the
	// server's document over it. Both are wired to the cart manager.
	snapshot func() []models.CartLine
	replace  func([]models.CartLine)

	mu       sync.Mutex
	timer    *time.Timer
	inFlight bool
	dirty    bool
	closed   bool

	results chan Result
}

func New(remote Remote, userID string, debounce time.Duration,
	snapshot func() []models.CartLine, replace func([]models.CartLine)) *Coordinator {
	return &Coordinator{
		remote:   remote,
		userID:   userID,
		debounce: debounce,
		snapshot: snapshot,
		replace:  replace,
		results:  make(chan Result, 16),
	}
}

// Results delivers the outcome of every push, pull and remote clear. The
// channel is buffered; when nobody is listening, outcomes are dropped rather
// than blocking the scheduling path.
func (c *Coordinator) Results() <-chan Result {
	return c.results
}

// Schedule (re)starts the debounce window. Pure trailing edge: every call
// during the window restarts it, and nothing is sent until a full quiet
// period has elapsed. Safe to call from any goroutine.
func (c *Coordinator) Schedule() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if c.inFlight {
		// Honored after the current push settles.
		c.dirty = true
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, c.fire)
}

func (c *Coordinator) fire() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.inFlight {
		c.dirty = true
		c.mu.Unlock()
		return
	}
	c.inFlight = true
	c.timer = nil
	c.mu.Unlock()

	c.push(context.Background())
}

// push sends the entire current document. Runs with inFlight already held.
func (c *Coordinator) push(ctx context.Context) {
	lines := c.snapshot()
	err := c.remote.SyncCart(ctx, c.userID, lines)
	if err != nil {
		logger.Get().Warn().Err(err).Str("user", c.userID).Msg("cart push failed")
	} else {
		logger.Get().Debug().Int("lines", len(lines)).Str("user", c.userID).Msg("cart pushed")
	}
	c.emit(Result{Op: OpPush, Err: err, Lines: len(lines)})

	c.mu.Lock()
	c.inFlight = false
	rearm := c.dirty && !c.closed
	c.dirty = false
	c.mu.Unlock()

	// A mutation landed while we were pushing; make sure a push reflecting
	// the latest state eventually fires.
	if rearm {
		c.Schedule()
	}
}

// Pull fetches the server's authoritative cart and overwrites the local
// document unconditionally. Local-only edits made before the pull are
// discarded; this is a destructive full replace, not a merge.
func (c *Coordinator) Pull(ctx context.Context) error {
	lines, err := c.remote.FetchCart(ctx, c.userID)
	if err != nil {
		logger.Get().Warn().Err(err).Str("user", c.userID).Msg("cart pull failed")
		c.emit(Result{Op: OpPull, Err: err})
		return err
	}
	c.replace(lines)
	c.emit(Result{Op: OpPull, Lines: len(lines)})
	return nil
}

// ClearRemote deletes the server-side cart, best effort and off the calling
// goroutine. The outcome lands on the results channel.
func (c *Coordinator) ClearRemote() {
	go func() {
		err := c.remote.ClearCart(context.Background(), c.userID)
		if err != nil {
			logger.Get().Warn().Err(err).Str("user", c.userID).Msg("remote cart clear failed")
		}
		c.emit(Result{Op: OpClear, Err: err})
	}()
}

// Flush pushes immediately if a debounce window is pending and nothing is in
// flight. Used at shutdown so a quit inside the quiet period does not lose
// the final state.
func (c *Coordinator) Flush(ctx context.Context) {
	c.mu.Lock()
	if c.closed || c.inFlight || c.timer == nil {
		c.mu.Unlock()
		return
	}
	c.timer.Stop()
	c.timer = nil
	c.inFlight = true
	c.mu.Unlock()

	c.push(ctx)
}

// Close stops the timer and rejects further scheduling. Called at session
// teardown; an already in-flight push is left to settle on its own.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Coordinator) emit(r Result) {
	select {
	case c.results <- r:
	default:
	}
}
