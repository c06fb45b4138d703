package repositories

import (
	"context"
	"sync"
)

type commitHooksKey struct{}

// CommitHooks collects callbacks that must only run once the outermost
// transaction has committed, such as metrics for writes that may still roll back.
type CommitHooks struct {
	mu  sync.Mutex
	fns []func()
}

// NewCommitHooks creates an empty hook list for one transaction.
func NewCommitHooks() *CommitHooks {
	return &CommitHooks{}
}

// WithCommitHooks attaches hooks to ctx. TxManagers call it when they open
// the outermost transaction.
func WithCommitHooks(ctx context.Context, hooks *CommitHooks) context.Context {
	return context.WithValue(ctx, commitHooksKey{}, hooks)
}

// Reset drops everything registered so far. TxManagers that re-run a
// transaction body call it before each attempt.
func (h *CommitHooks) Reset() {
	h.mu.Lock()
	h.fns = nil
	h.mu.Unlock()
}

// Run calls the registered callbacks in registration order.
func (h *CommitHooks) Run() {
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// AfterCommit defers fn until the transaction carried by ctx commits. It is
// dropped if the transaction rolls back. Outside a transaction fn runs at once.
func AfterCommit(ctx context.Context, fn func()) {
	hooks, _ := ctx.Value(commitHooksKey{}).(*CommitHooks)
	if hooks == nil {
		fn()
		return
	}
	hooks.mu.Lock()
	hooks.fns = append(hooks.fns, fn)
	hooks.mu.Unlock()
}
