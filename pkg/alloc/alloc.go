// Package alloc defines the allocation capability the compiler and VM charge
// their dynamically sized structures against.
package alloc

import (
	"errors"
	"fmt"
)

var ErrAllocationFailed = errors.New("allocation failed")

// Context is consulted before a component grows a buffer. Reserve returns an
// error wrapping ErrAllocationFailed when the request cannot be satisfied.
// Implementations are not required to be safe for concurrent use.
type Context interface {
	Reserve(bytes int) error
	Release(bytes int)
}

type unbounded struct{}

func (unbounded) Reserve(int) error { return nil }
func (unbounded) Release(int)       {}

// Unbounded never refuses a reservation.
var Unbounded Context = unbounded{}

// Budget is a Context with a fixed byte ceiling, modelling a bounded pool.
type Budget struct {
	limit int
	used  int
	peak  int
}

func NewBudget(limit int) *Budget {
	return &Budget{limit: limit}
}

func (b *Budget) Reserve(bytes int) error {
	if bytes < 0 {
		return fmt.Errorf("%w: negative request %d", ErrAllocationFailed, bytes)
	}
	if b.used+bytes > b.limit {
		return fmt.Errorf("%w: requested %d bytes with %d of %d in use",
			ErrAllocationFailed, bytes, b.used, b.limit)
	}
	b.used += bytes
	b.peak = max(b.peak, b.used)
	return nil
}

func (b *Budget) Release(bytes int) {
	b.used = max(0, b.used-bytes)
}

func (b *Budget) Used() int { return b.used }
func (b *Budget) Peak() int { return b.peak }

// Or returns ctx, or Unbounded when ctx is nil.
func Or(ctx Context) Context {
	if ctx == nil {
		return Unbounded
	}
	return ctx
}
