package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"trendora-client/cart"
	"trendora-client/localstore"
	"trendora-client/models"
)

const testDebounce = 50 * time.Millisecond

type fakeRemote struct {
	mu         sync.Mutex
	pushes     [][]models.CartLine
	pushTimes  []time.Time
	clears     int
	serverCart []models.CartLine
	syncErr    error
	delay      time.Duration
	started    chan struct{} // signalled when a push begins
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{started: make(chan struct{}, 16)}
}

func (f *fakeRemote) FetchCart(ctx context.Context, userID string) ([]models.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.CartLine(nil), f.serverCart...), nil
}

func (f *fakeRemote) SyncCart(ctx context.Context, userID string, lines []models.CartLine) error {
	f.started <- struct{}{}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.syncErr != nil {
		return f.syncErr
	}
	f.pushes = append(f.pushes, append([]models.CartLine(nil), lines...))
	f.pushTimes = append(f.pushTimes, time.Now())
	return nil
}

func (f *fakeRemote) ClearCart(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	return nil
}

func (f *fakeRemote) pushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pushes)
}

func (f *fakeRemote) lastPush() []models.CartLine {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pushes) == 0 {
		return nil
	}
	return f.pushes[len(f.pushes)-1]
}

func lines(ids ...string) []models.CartLine {
	out := make([]models.CartLine, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.CartLine{ProductID: id, Quantity: 1})
	}
	return out
}

func staticSnapshot(current *[]models.CartLine, mu *sync.Mutex) func() []models.CartLine {
	return func() []models.CartLine {
		mu.Lock()
		defer mu.Unlock()
		return append([]models.CartLine(nil), *current...)
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}

func TestDebounceCoalescesRapidMutations(t *testing.T) {
	remote := newFakeRemote()
	var mu sync.Mutex
	current := lines("1")

	c := New(remote, "u1", testDebounce, staticSnapshot(&current, &mu), nil)
	defer c.Close()

	// Five mutations well inside the quiet period
	var lastSchedule time.Time
	for i := 0; i < 5; i++ {
		c.Schedule()
		lastSchedule = time.Now()
		time.Sleep(10 * time.Millisecond)
	}

	waitFor(t, time.Second, func() bool { return remote.pushCount() == 1 })

	remote.mu.Lock()
	pushedAt := remote.pushTimes[0]
	remote.mu.Unlock()

	if elapsed := pushedAt.Sub(lastSchedule); elapsed < testDebounce {
		t.Errorf("push fired %v after last mutation, before the %v quiet period", elapsed, testDebounce)
	}

	// No stragglers
	time.Sleep(3 * testDebounce)
	if got := remote.pushCount(); got != 1 {
		t.Errorf("expected exactly 1 push, got %d", got)
	}
}

func TestPushSendsFullCurrentDocument(t *testing.T) {
	remote := newFakeRemote()
	var mu sync.Mutex
	current := lines("1")

	c := New(remote, "u1", testDebounce, staticSnapshot(&current, &mu), nil)
	defer c.Close()

	c.Schedule()
	// Document changes before the timer fires; the push must carry the
	// latest state, not the state at schedule time.
	mu.Lock()
	current = lines("1", "2", "3")
	mu.Unlock()
	c.Schedule()

	waitFor(t, time.Second, func() bool { return remote.pushCount() == 1 })
	if got := len(remote.lastPush()); got != 3 {
		t.Errorf("expected full 3-line document pushed, got %d lines", got)
	}
}

func TestScheduleDuringPushRearms(t *testing.T) {
	remote := newFakeRemote()
	remote.delay = 80 * time.Millisecond
	var mu sync.Mutex
	current := lines("1")

	c := New(remote, "u1", testDebounce, staticSnapshot(&current, &mu), nil)
	defer c.Close()

	c.Schedule()
	<-remote.started // first push is now in flight

	// Mutation during the in-flight push
	mu.Lock()
	current = lines("1", "2")
	mu.Unlock()
	c.Schedule()

	// At least one later push must reflect the latest state
	waitFor(t, 2*time.Second, func() bool {
		last := remote.lastPush()
		return remote.pushCount() == 2 && len(last) == 2
	})
}

func TestAtMostOnePushInFlight(t *testing.T) {
	remote := newFakeRemote()
	remote.delay = 150 * time.Millisecond
	var mu sync.Mutex
	current := lines("1")

	c := New(remote, "u1", 10*time.Millisecond, staticSnapshot(&current, &mu), nil)
	defer c.Close()

	c.Schedule()
	<-remote.started

	// Hammer the scheduler while the push is in flight; nothing new may
	// start until it settles.
	for i := 0; i < 10; i++ {
		c.Schedule()
		time.Sleep(2 * time.Millisecond)
	}

	select {
	case <-remote.started:
		t.Fatal("second push started while first still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	// After settling, the dirty flag produces exactly one follow-up push.
	waitFor(t, 2*time.Second, func() bool { return remote.pushCount() == 2 })
	time.Sleep(100 * time.Millisecond)
	if got := remote.pushCount(); got != 2 {
		t.Errorf("expected 2 pushes total, got %d", got)
	}
}

func TestPushFailureReportedAndRecovers(t *testing.T) {
	remote := newFakeRemote()
	remote.syncErr = errors.New("boom")
	var mu sync.Mutex
	current := lines("1")

	c := New(remote, "u1", 10*time.Millisecond, staticSnapshot(&current, &mu), nil)
	defer c.Close()

	c.Schedule()

	var failed Result
	select {
	case failed = <-c.Results():
	case <-time.After(time.Second):
		t.Fatal("no result delivered for failed push")
	}
	if failed.Op != OpPush || failed.Err == nil {
		t.Fatalf("expected failed push result, got %+v", failed)
	}

	// No error state: the next mutation re-arms the cycle and succeeds.
	remote.mu.Lock()
	remote.syncErr = nil
	remote.mu.Unlock()

	c.Schedule()
	waitFor(t, time.Second, func() bool { return remote.pushCount() == 1 })
}

func TestPullOverwritesLocalDocument(t *testing.T) {
	// Integration with the real cart manager: local-only edits made before
	// the pull are discarded wholesale.
	store := localstore.NewMemStore()
	mgr := cart.NewManager(store)
	mgr.AddItem(models.Product{ID: "local", Name: "Local only", Price: 1})

	remote := newFakeRemote()
	remote.serverCart = []models.CartLine{
		{ProductID: "srv1", Name: "From server", UnitPrice: 3, Quantity: 2, ServerLineID: "c1"},
	}

	c := New(remote, "u1", testDebounce,
		func() []models.CartLine { return mgr.Items() },
		func(ls []models.CartLine) { mgr.ReplaceCart(ls) })
	defer c.Close()

	if err := c.Pull(context.Background()); err != nil {
		t.Fatal(err)
	}

	items := mgr.Items()
	if len(items) != 1 || items[0].ProductID != "srv1" || items[0].Quantity != 2 {
		t.Errorf("expected exactly the server document after pull, got %+v", items)
	}
}

func TestClearRemoteBestEffort(t *testing.T) {
	remote := newFakeRemote()
	c := New(remote, "u1", testDebounce, func() []models.CartLine { return nil }, nil)
	defer c.Close()

	c.ClearRemote()

	waitFor(t, time.Second, func() bool {
		remote.mu.Lock()
		defer remote.mu.Unlock()
		return remote.clears == 1
	})

	select {
	case r := <-c.Results():
		if r.Op != OpClear || r.Err != nil {
			t.Errorf("expected successful clear result, got %+v", r)
		}
	case <-time.After(time.Second):
		t.Fatal("no result for remote clear")
	}
}

func TestFlushPushesPendingDebounce(t *testing.T) {
	remote := newFakeRemote()
	var mu sync.Mutex
	current := lines("1")

	c := New(remote, "u1", 10*time.Second, staticSnapshot(&current, &mu), nil)
	defer c.Close()

	c.Schedule()
	c.Flush(context.Background())

	if got := remote.pushCount(); got != 1 {
		t.Fatalf("expected flush to push immediately, got %d pushes", got)
	}

	// The canceled timer must not fire a duplicate later.
	time.Sleep(50 * time.Millisecond)
	if got := remote.pushCount(); got != 1 {
		t.Errorf("expected no duplicate push after flush, got %d", got)
	}
}

func TestFlushWithoutPendingIsNoOp(t *testing.T) {
	remote := newFakeRemote()
	c := New(remote, "u1", testDebounce, func() []models.CartLine { return nil }, nil)
	defer c.Close()

	c.Flush(context.Background())
	if got := remote.pushCount(); got != 0 {
		t.Errorf("expected no push, got %d", got)
	}
}

func TestCloseStopsScheduling(t *testing.T) {
	remote := newFakeRemote()
	c := New(remote, "u1", 20*time.Millisecond, func() []models.CartLine { return nil }, nil)

	c.Schedule()
	c.Close()
	c.Schedule()

	time.Sleep(100 * time.Millisecond)
	if got := remote.pushCount(); got != 0 {
		t.Errorf("expected no pushes after close, got %d", got)
	}
}
