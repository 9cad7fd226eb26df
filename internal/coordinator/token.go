package coordinator

import "sync"

// tokenState implements the RYW token's two states, HELD_BY_COORDINATOR and
// GRANTED. Concurrent acquire calls serialize: later callers block until
// the token is released. Since a grant, its UNLOCK, and its fan-out all
// happen on one connection handled by one goroutine, the token does not
// need to track which caller holds it — whoever acquired is the only one
// who can release.
type tokenState struct {
	mu   sync.Mutex
	cond *sync.Cond
	held bool
}

func newTokenState() *tokenState {
	t := &tokenState{}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// acquire blocks until the token is free, then grants it.
func (t *tokenState) acquire() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for t.held {
		t.cond.Wait()
	}
	t.held = true
}

// release returns the token to the coordinator and wakes the next waiter.
func (t *tokenState) release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.held = false
	t.cond.Signal()
}
