// Package gate bounds the number of operations running at the same time.
package gate

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Gate is a counting admission gate with a fixed capacity.
// Waiters are admitted in FIFO order as slots are released.
type Gate struct {
	sem      *semaphore.Weighted
	capacity int64
	inFlight atomic.Int64
	peak     atomic.Int64
}

// New creates a gate admitting at most n holders. Values below 1 are treated as 1.
func New(n int) *Gate {
	if n < 1 {
		n = 1
	}
	return &Gate{
		sem:      semaphore.NewWeighted(int64(n)),
		capacity: int64(n),
	}
}

// Acquire blocks until a slot is free or ctx is done.
// Every successful Acquire must be paired with exactly one Release.
func (g *Gate) Acquire(ctx context.Context) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	cur := g.inFlight.Add(1)
	for {
		p := g.peak.Load()
		if cur <= p || g.peak.CompareAndSwap(p, cur) {
			break
		}
	}
	return nil
}

// Release returns one slot to the gate
func (g *Gate) Release() {
	g.inFlight.Add(-1)
	g.sem.Release(1)
}

// Do runs fn while holding a slot. The slot is released on every exit path,
// including a panic in fn.
func (g *Gate) Do(ctx context.Context, fn func() error) error {
	if err := g.Acquire(ctx); err != nil {
		return err
	}
	defer g.Release()
	return fn()
}

// Capacity returns the maximum number of simultaneous holders
func (g *Gate) Capacity() int {
	return int(g.capacity)
}

// InFlight returns the number of current holders
func (g *Gate) InFlight() int {
	return int(g.inFlight.Load())
}

// ResetPeak starts a new observation window. The peak drops to the number of
// current holders.
func (g *Gate) ResetPeak() {
	g.peak.Store(g.inFlight.Load())
}

// Peak returns the highest number of simultaneous holders observed since New
// or the last ResetPeak
func (g *Gate) Peak() int {
	return int(g.peak.Load())
}
