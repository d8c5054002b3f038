package payment

import "sync/atomic"

// Guard is the re-entrant submission lock for order placement. It is a
// compare-and-set flag: Acquire is set synchronously before any asynchronous
// work begins, and every failed terminal outcome releases it. The guard lives
// on the checkout session so it outlives any single request or callback.
type Guard struct {
	inFlight atomic.Bool
}

// Acquire attempts to take the lock. The first caller wins; every other
// caller gets false until Release.
func (g *Guard) Acquire() bool {
	return g.inFlight.CompareAndSwap(false, true)
}

// Release clears the lock so a fresh placement attempt may start.
func (g *Guard) Release() {
	g.inFlight.Store(false)
}

// Held reports whether a placement attempt currently holds the lock.
func (g *Guard) Held() bool {
	return g.inFlight.Load()
}
