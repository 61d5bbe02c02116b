package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/nurse-roster-api/pkg/errors"
)

// Queryer is the subset of sqlx shared by *sqlx.DB and *sqlx.Tx.
type Queryer interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

type txKey struct{}

// Conn returns the transaction bound to ctx, or db when none is open.
func Conn(ctx context.Context, db *sqlx.DB) Queryer {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok && tx != nil {
		return tx
	}
	return db
}

// InTx reports whether ctx carries an open transaction.
func InTx(ctx context.Context) bool {
	tx, ok := ctx.Value(txKey{}).(*sqlx.Tx)
	return ok && tx != nil
}

// TxOptions tunes the transaction manager.
type TxOptions struct {
	Timeout      time.Duration
	QueryTimeout time.Duration
	MaxRetries   int
	Logger       *zap.Logger
	// OnRetry is invoked before a transaction is replayed.
	OnRetry func(attempt int, err error)
}

// TxManager runs units of work inside serializable transactions.
type TxManager struct {
	db           *sqlx.DB
	timeout      time.Duration
	queryTimeout time.Duration
	maxRetries   int
	logger       *zap.Logger
	onRetry      func(int, error)
}

// NewTxManager constructs a transaction manager with defaults applied.
func NewTxManager(db *sqlx.DB, opts TxOptions) *TxManager {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = 5 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &TxManager{
		db:           db,
		timeout:      opts.Timeout,
		queryTimeout: opts.QueryTimeout,
		maxRetries:   opts.MaxRetries,
		logger:       opts.Logger,
		onRetry:      opts.OnRetry,
	}
}

// WithinTx executes fn in a serializable transaction. The transaction travels in the context
// handed to fn. Serialization failures and deadlocks are replayed up to MaxRetries times.
// Nested calls join the outer transaction. Transient failures that survive the retries are
// returned as appErrors.ErrTransient.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTx(ctx) {
		return fn(ctx)
	}
	for attempt := 0; ; attempt++ {
		err := m.run(ctx, fn)
		if err == nil {
			return nil
		}
		if !IsRetryable(err) || attempt >= m.maxRetries || ctx.Err() != nil {
			return transientError(err)
		}
		m.logger.Warn("retrying serializable transaction", zap.Int("attempt", attempt+1), zap.Error(err))
		if m.onRetry != nil {
			m.onRetry(attempt+1, err)
		}
		backoff := time.Duration(attempt+1) * 10 * time.Millisecond
		select {
		case <-ctx.Done():
			return transientError(ctx.Err())
		case <-time.After(backoff):
		}
	}
}

// WithQueryTimeout bounds a read that runs outside a transaction.
func (m *TxManager) WithQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.queryTimeout)
}

// transientError types retryable storage failures. Typed errors raised by fn pass through.
func transientError(err error) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) || !IsTransient(err) {
		return err
	}
	return appErrors.Wrap(err, appErrors.ErrTransient, "")
}

func (m *TxManager) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	txCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	tx, err := m.db.BeginTxx(txCtx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(context.WithValue(txCtx, txKey{}, tx)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
