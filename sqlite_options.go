package jambi

import (
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/perdixsw/jambi/internal/database"
	"github.com/perdixsw/jambi/internal/database/sqlgateway"
	"github.com/perdixsw/jambi/internal/database/sqlgateway/sqlite"
)

type SqliteOptionFunc func(*sqlgateway.SqliteOptions, *sqlgateway.ConnectOptions)

func UseSqlite(db *sqlx.DB, options ...SqliteOptionFunc) OptionFunc {
	return func(m *Migrator) error {
		sqliteOpts := &sqlgateway.SqliteOptions{
			VersionTable: database.DefaultVersionTable,
		}

		connectOpts := sqlgateway.NewDefaultConnectOptions()

		for _, oFunc := range options {
			oFunc(sqliteOpts, connectOpts)
		}

		connector := sqlgateway.MakeRetryingConnector(db, connectOpts)
		sm := sqlite.NewStateManager(sqliteOpts.VersionTable)
		gateway := sqlgateway.NewSQLGateway(connector, sm, sqlMutatorFactory())

		m.gateway = gateway
		m.closerFns = append(m.closerFns, CloserFunc(gateway.Close))

		return nil
	}
}

func WithSqliteVersionTable(table string) SqliteOptionFunc {
	return func(sqliteOpts *sqlgateway.SqliteOptions, connectOpts *sqlgateway.ConnectOptions) {
		sqliteOpts.VersionTable = table
	}
}

func WithSqliteMaxConnectionAttempts(attempts int) SqliteOptionFunc {
	return func(sqliteOpts *sqlgateway.SqliteOptions, connectOpts *sqlgateway.ConnectOptions) {
		connectOpts.MaxAttempts = attempts
	}
}

func WithSqliteConnectionTimeout(timeout time.Duration) SqliteOptionFunc {
	return func(sqliteOpts *sqlgateway.SqliteOptions, connectOpts *sqlgateway.ConnectOptions) {
		connectOpts.MaxTimeout = timeout
	}
}
