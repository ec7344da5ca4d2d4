package jambi

import (
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/perdixsw/jambi/internal/database"
	"github.com/perdixsw/jambi/internal/database/sqlgateway"
	"github.com/perdixsw/jambi/internal/database/sqlgateway/mysql"
)

type MySQLOptionFunc func(*sqlgateway.MySQLOptions, *sqlgateway.ConnectOptions)

func UseMySQL(db *sqlx.DB, options ...MySQLOptionFunc) OptionFunc {
	return func(m *Migrator) error {
		mysqlOpts := &sqlgateway.MySQLOptions{
			VersionTable: database.DefaultVersionTable,
		}

		connectOpts := sqlgateway.NewDefaultConnectOptions()

		for _, oFunc := range options {
			oFunc(mysqlOpts, connectOpts)
		}

		connector := sqlgateway.MakeRetryingConnector(db, connectOpts)
		sm := mysql.NewStateManager(mysqlOpts.VersionTable)
		gateway := sqlgateway.NewSQLGateway(connector, sm, sqlMutatorFactory())

		m.gateway = gateway
		m.closerFns = append(m.closerFns, CloserFunc(gateway.Close))

		return nil
	}
}

func WithMySQLVersionTable(table string) MySQLOptionFunc {
	return func(mysqlOpts *sqlgateway.MySQLOptions, connectOpts *sqlgateway.ConnectOptions) {
		mysqlOpts.VersionTable = table
	}
}

func WithMySQLMaxConnectionAttempts(attempts int) MySQLOptionFunc {
	return func(mysqlOpts *sqlgateway.MySQLOptions, connectOpts *sqlgateway.ConnectOptions) {
		connectOpts.MaxAttempts = attempts
	}
}

func WithMySQLConnectionTimeout(timeout time.Duration) MySQLOptionFunc {
	return func(mysqlOpts *sqlgateway.MySQLOptions, connectOpts *sqlgateway.ConnectOptions) {
		connectOpts.MaxTimeout = timeout
	}
}
