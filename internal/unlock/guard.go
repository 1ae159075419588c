package unlock

import "context"

// Access identifies one attempt to open an item.
type Access struct {
	UserID     string
	SequenceID string
	ItemNumber int
}

// Checker answers whether an access is allowed right now. It must read the
// latest ledger state on every call; implementations may not cache.
type Checker interface {
	CheckAccess(ctx context.Context, a Access) error
}

// Guard is the interceptor every item entry point runs through.
type Guard struct {
	checker Checker
}

// NewGuard returns a Guard backed by checker.
func NewGuard(checker Checker) *Guard {
	return &Guard{checker: checker}
}

// Require returns nil if the item is accessible, or the typed error
// (ITEM_LOCKED, OUT_OF_RANGE, UNKNOWN_SEQUENCE) explaining why not.
func (g *Guard) Require(ctx context.Context, a Access) error {
	return g.checker.CheckAccess(ctx, a)
}

// Do runs fn only if the item is accessible.
func (g *Guard) Do(ctx context.Context, a Access, fn func(context.Context) error) error {
	if err := g.Require(ctx, a); err != nil {
		return err
	}
	return fn(ctx)
}
