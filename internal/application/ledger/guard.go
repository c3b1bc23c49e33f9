package ledger

import (
	"context"
	"sync/atomic"
)

type guardKey struct{}

// Guard is the non-reentrant lock held by operations that move value.
// The holding operation's context is marked so settlement code can assert it
// runs under the lock.
type Guard struct {
	held atomic.Bool
}

// Enter acquires the guard. The returned release must be called on every exit path.
func (g *Guard) Enter(ctx context.Context) (context.Context, func(), error) {
	if g.HeldBy(ctx) {
		return ctx, nil, Reentrant("reentrant call rejected: guard already held by this operation")
	}
	if !g.held.CompareAndSwap(false, true) {
		return ctx, nil, Reentrant("reentrant call rejected: guard is held")
	}
	return context.WithValue(ctx, guardKey{}, g), func() { g.held.Store(false) }, nil
}

// HeldBy reports whether ctx belongs to the operation currently holding g.
func (g *Guard) HeldBy(ctx context.Context) bool {
	owner, _ := ctx.Value(guardKey{}).(*Guard)
	return owner == g && g.held.Load()
}

// Held reports whether any operation holds g.
func (g *Guard) Held() bool {
	return g.held.Load()
}

// GuardHeld reports whether ctx was derived from a guarded operation that still holds its guard.
func GuardHeld(ctx context.Context) bool {
	g, _ := ctx.Value(guardKey{}).(*Guard)
	return g != nil && g.HeldBy(ctx)
}
