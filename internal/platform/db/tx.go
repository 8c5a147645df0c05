package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/metrics"
)

// ErrNestedTx is returned when InTx is called from inside a unit of work.
var ErrNestedTx = apperr.Internal(errors.New("nested transactions are not supported"))

const rollbackTimeout = 5 * time.Second

// TxRunner executes a unit of work atomically. The context passed to fn
// carries the transaction; repositories pick it up via TxFromContext.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Transactor is the pgx TxRunner. Each unit of work checks out one pooled
// connection, runs fn inside BEGIN/COMMIT and always releases the connection.
type Transactor struct {
	pool           *pgxpool.Pool
	acquireTimeout time.Duration
	lockTimeout    time.Duration
	metrics        *metrics.Metrics
}

type TxOption func(*Transactor)

// WithAcquireTimeout bounds the wait for a free pooled connection.
func WithAcquireTimeout(d time.Duration) TxOption {
	return func(t *Transactor) { t.acquireTimeout = d }
}

// WithLockTimeout bounds row-lock waits inside each transaction.
func WithLockTimeout(d time.Duration) TxOption {
	return func(t *Transactor) { t.lockTimeout = d }
}

func WithMetrics(m *metrics.Metrics) TxOption {
	return func(t *Transactor) { t.metrics = m }
}

func NewTransactor(pool *pgxpool.Pool, opts ...TxOption) *Transactor {
	t := &Transactor{pool: pool}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Transactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if TxFromContext(ctx) != nil {
		return ErrNestedTx
	}

	start := time.Now()
	conn, err := t.acquire(ctx)
	if err != nil {
		t.metrics.ObserveTx(metrics.TxError, time.Since(start))
		return err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		t.metrics.ObserveTx(metrics.TxError, time.Since(start))
		return apperr.FromPG(fmt.Errorf("begin transaction: %w", err), "")
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		// Runs on error and on panic; a cancelled request must not leave the
		// session in BEGIN.
		t.rollback(ctx, tx)
		t.metrics.ObserveTx(metrics.TxRollback, time.Since(start))
	}()

	if t.lockTimeout > 0 {
		if _, err := tx.Exec(ctx, "SELECT set_config('lock_timeout', $1, true)",
			fmt.Sprintf("%dms", t.lockTimeout.Milliseconds())); err != nil {
			return apperr.FromPG(fmt.Errorf("set lock timeout: %w", err), "")
		}
	}

	if err := fn(context.WithValue(ctx, DBTxKey, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return apperr.FromPG(fmt.Errorf("commit transaction: %w", err), "")
	}
	committed = true
	t.metrics.ObserveTx(metrics.TxCommit, time.Since(start))
	return nil
}

func (t *Transactor) acquire(ctx context.Context) (*pgxpool.Conn, error) {
	actx := ctx
	if t.acquireTimeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, t.acquireTimeout)
		defer cancel()
	}

	conn, err := t.pool.Acquire(actx)
	if err == nil {
		return conn, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, apperr.Unavailable("database busy, retry the request", err)
	}
	return nil, apperr.Unavailable("database unavailable", err)
}

func (t *Transactor) rollback(ctx context.Context, tx pgx.Tx) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()
	// After a failed statement or commit the tx may already be closed.
	_ = tx.Rollback(rctx)
}
