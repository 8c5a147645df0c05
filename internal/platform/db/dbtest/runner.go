// Package dbtest provides an in-memory db.TxRunner for service tests.
package dbtest

import (
	"context"
	"sync"

	"github.com/hospital/hms/internal/platform/db"
)

type txKey struct{}

type txState struct {
	mu    sync.Mutex
	onEnd []func()
}

// Runner runs units of work without a database. Fake repositories emulate
// row locks by taking a mutex and releasing it through OnEnd, so lock
// lifetimes match a real transaction.
type Runner struct {
	mu        sync.Mutex
	commits   int
	rollbacks int
}

func NewRunner() *Runner { return &Runner{} }

func (r *Runner) InTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(txKey{}) != nil {
		return db.ErrNestedTx
	}
	st := &txState{}
	defer func() {
		st.mu.Lock()
		hooks := st.onEnd
		st.onEnd = nil
		st.mu.Unlock()
		for i := len(hooks) - 1; i >= 0; i-- {
			hooks[i]()
		}

		r.mu.Lock()
		if err == nil {
			r.commits++
		} else {
			r.rollbacks++
		}
		r.mu.Unlock()
	}()
	return fn(context.WithValue(ctx, txKey{}, st))
}

func (r *Runner) Commits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.commits
}

func (r *Runner) Rollbacks() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rollbacks
}

// OnEnd registers f to run when the unit of work owning ctx finishes.
// Outside a unit of work f runs immediately.
func OnEnd(ctx context.Context, f func()) {
	st, ok := ctx.Value(txKey{}).(*txState)
	if !ok {
		f()
		return
	}
	st.mu.Lock()
	st.onEnd = append(st.onEnd, f)
	st.mu.Unlock()
}

// Locks is a set of named row locks held until the owning unit of work ends.
type Locks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLocks() *Locks { return &Locks{locks: make(map[string]*sync.Mutex)} }

// Lock blocks until the named lock is free and holds it for the rest of
// the unit of work owning ctx.
func (l *Locks) Lock(ctx context.Context, name string) {
	l.mu.Lock()
	m, ok := l.locks[name]
	if !ok {
		m = &sync.Mutex{}
		l.locks[name] = m
	}
	l.mu.Unlock()

	m.Lock()
	OnEnd(ctx, m.Unlock)
}
