package jambi

import (
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/perdixsw/jambi/internal/database"
	"github.com/perdixsw/jambi/internal/database/sqlgateway"
	"github.com/perdixsw/jambi/internal/database/sqlgateway/postgres"
)

type PostgresOptionFunc func(*sqlgateway.PostgresOptions, *sqlgateway.ConnectOptions)

// UsePostgres runs migrations against a Postgres database, with the
// version table living under the configured schema.
func UsePostgres(db *sqlx.DB, options ...PostgresOptionFunc) OptionFunc {
	return func(m *Migrator) error {
		pgOpts := &sqlgateway.PostgresOptions{
			Schema:       database.DefaultSchema,
			VersionTable: database.DefaultVersionTable,
		}

		connectOpts := sqlgateway.NewDefaultConnectOptions()

		for _, oFunc := range options {
			oFunc(pgOpts, connectOpts)
		}

		connector := sqlgateway.MakeRetryingConnector(db, connectOpts)
		sm := postgres.NewStateManager(pgOpts.Schema, pgOpts.VersionTable)
		gateway := sqlgateway.NewSQLGateway(connector, sm, sqlMutatorFactory())

		m.gateway = gateway
		m.closerFns = append(m.closerFns, CloserFunc(gateway.Close))

		return nil
	}
}

func WithPostgresSchema(schema string) PostgresOptionFunc {
	return func(pgOpts *sqlgateway.PostgresOptions, connectOpts *sqlgateway.ConnectOptions) {
		pgOpts.Schema = schema
	}
}

func WithPostgresVersionTable(table string) PostgresOptionFunc {
	return func(pgOpts *sqlgateway.PostgresOptions, connectOpts *sqlgateway.ConnectOptions) {
		pgOpts.VersionTable = table
	}
}

func WithPostgresMaxConnectionAttempts(attempts int) PostgresOptionFunc {
	return func(pgOpts *sqlgateway.PostgresOptions, connectOpts *sqlgateway.ConnectOptions) {
		connectOpts.MaxAttempts = attempts
	}
}

func WithPostgresConnectionTimeout(timeout time.Duration) PostgresOptionFunc {
	return func(pgOpts *sqlgateway.PostgresOptions, connectOpts *sqlgateway.ConnectOptions) {
		connectOpts.MaxTimeout = timeout
	}
}
