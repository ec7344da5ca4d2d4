package sqlgateway

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/perdixsw/jambi/internal/retry"
	"github.com/pkg/errors"
)

const (
	DefaultConnectionAttempts    = 30
	DefaultConnectionTimeout     = 60 * time.Second
	DefaultConnectionAttemptStep = 2 * time.Second
)

type ConnectOptions struct {
	MaxAttempts int
	MaxTimeout  time.Duration
	RetryStep   time.Duration
}

func NewDefaultConnectOptions() *ConnectOptions {
	return &ConnectOptions{
		MaxAttempts: DefaultConnectionAttempts,
		MaxTimeout:  DefaultConnectionTimeout,
		RetryStep:   DefaultConnectionAttemptStep,
	}
}

type RetryingConnector struct {
	options *ConnectOptions
	db      *sqlx.DB
}

func MakeRetryingConnector(db *sqlx.DB, options *ConnectOptions) *RetryingConnector {
	return &RetryingConnector{db: db, options: options}
}

func (c *RetryingConnector) Timeout() time.Duration {
	return c.options.MaxTimeout
}

// Connect acquires a single connection from the pool, pinging it until
// the database answers or the attempts run out. The caller owns the
// returned connection and must close it before its operation returns.
func (c *RetryingConnector) Connect(ctx context.Context) (*sqlx.Conn, error) {
	var conn *sqlx.Conn

	err := retry.Incremental(ctx, c.options.RetryStep, c.options.MaxAttempts, func(attempt int) error {
		var err error
		conn, err = c.db.Connx(ctx)
		if err != nil {
			return retry.Recoverable(errors.Wrap(err, "could not establish DB connection"), attempt)
		}

		if err := conn.PingContext(ctx); err != nil {
			_ = conn.Close()
			conn = nil
			return retry.Recoverable(errors.Wrap(err, "db ping failed"), attempt)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return conn, nil
}
