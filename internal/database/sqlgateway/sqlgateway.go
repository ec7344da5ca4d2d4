package sqlgateway

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/perdixsw/jambi/internal/database"
	"github.com/perdixsw/jambi/internal/logger"
	"github.com/perdixsw/jambi/migration"
	"github.com/pkg/errors"
)

// SQLGateway implements the engine gateway on top of database/sql
// through sqlx. One connection is acquired per top-level operation
// and released before the operation returns.
type SQLGateway struct {
	connector *RetryingConnector
	sm        StateManager
	mf        database.MutatorFactory
	lg        logger.Logger
}

var _ database.Gateway = (*SQLGateway)(nil)

type queryer interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

func NewSQLGateway(connector *RetryingConnector, sm StateManager, mf database.MutatorFactory) *SQLGateway {
	return &SQLGateway{
		connector: connector,
		sm:        sm,
		mf:        mf,
		lg:        &logger.NullLogger{},
	}
}

func (g *SQLGateway) SetLogger(lg logger.Logger) {
	g.lg = lg
}

// Close is a no-op: connections are scoped to single operations and
// the *sqlx.DB handle belongs to the caller.
func (g *SQLGateway) Close() error {
	return nil
}

func (g *SQLGateway) EnsureInitialized(ctx context.Context) (database.InitResult, error) {
	var result database.InitResult

	conn, err := g.connector.Connect(ctx)
	if err != nil {
		return result, err
	}

	defer func() { _ = conn.Close() }()

	createQuery := g.sm.CreateVersionTableQuery()
	g.lg.SQL(createQuery)
	if _, err := conn.ExecContext(ctx, createQuery); err != nil {
		return result, errors.Wrap(err, "could not create version table")
	}

	countQuery := g.sm.CountVersionsQuery()
	g.lg.SQL(countQuery)

	var count int
	if err := conn.GetContext(ctx, &count, countQuery); err != nil {
		return result, errors.Wrap(err, "could not count version rows")
	}

	if count > 0 {
		return result, nil
	}

	insertQuery := g.sm.InsertVersionQuery()
	g.lg.SQL(insertQuery, database.InitialVersionRef)
	if _, err := conn.ExecContext(ctx, insertQuery, database.InitialVersionRef); err != nil {
		return result, errors.Wrap(err, "could not seed version table")
	}

	result.Created = true
	return result, nil
}

func (g *SQLGateway) ReadVersion(ctx context.Context) (int64, error) {
	conn, err := g.connector.Connect(ctx)
	if err != nil {
		return 0, err
	}

	defer func() { _ = conn.Close() }()

	return g.readVersion(ctx, conn)
}

func (g *SQLGateway) Upgrade(
	ctx context.Context,
	migrations migration.Migrations,
	t database.Target,
) (database.UpgradeResult, error) {
	var result database.UpgradeResult

	conn, err := g.connector.Connect(ctx)
	if err != nil {
		return result, err
	}

	defer func() { _ = conn.Close() }()

	current, err := g.readVersion(ctx, conn)
	if err != nil {
		return result, err
	}

	latestDiscovered := migrations.MaxVersion()
	if current > latestDiscovered {
		return result, errors.Wrapf(
			database.ErrVersionAheadOfMigrations,
			"current: %d, latest: %d", current, latestDiscovered,
		)
	}

	resolved := t.Resolve(latestDiscovered)
	if current == resolved {
		g.lg.Successf("you are already up to date (version: %d)", current)
		result.UpToDate = true
		result.Version = current
		return result, nil
	}

	batch := database.ComputeBatch(migrations, current, resolved)
	if len(batch) == 0 {
		g.lg.Successf("you are already up to date (version: %d)", current)
		result.UpToDate = true
		result.Version = current
		return result, nil
	}

	g.lg.Debugf("migrating to version %d", resolved)

	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return result, errors.Wrap(err, "could not begin upgrade transaction")
	}

	mutator := g.mf(tx, g.lg)

	for i := range batch {
		g.lg.Debugf("upgrading to version %d", batch[i].Version)

		if err := applyOne(ctx, mutator, batch[i]); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = errors.Wrap(err, rbErr.Error())
			}
			return result, err
		}

		g.lg.Successf("migrated %s", batch[i].Key)
	}

	final := batch[len(batch)-1].Version
	if err := g.writeVersion(ctx, tx, final); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			err = errors.Wrap(err, rbErr.Error())
		}
		return result, err
	}

	if err := tx.Commit(); err != nil {
		return result, errors.Wrap(err, "could not commit upgrade transaction")
	}

	result.Version = final
	result.Applied = batch.Keys()
	return result, nil
}

func applyOne(ctx context.Context, mutator migration.Mutator, m *migration.Migration) error {
	ops, err := m.Produce(mutator)
	if err != nil {
		return errors.Wrapf(database.ErrMigrationFailed, "%s: %s", m.Key, err)
	}

	if err := mutator.Apply(ctx, ops...); err != nil {
		return errors.Wrapf(database.ErrMigrationFailed, "%s: %s", m.Key, err)
	}

	return nil
}

func (g *SQLGateway) readVersion(ctx context.Context, q queryer) (int64, error) {
	existsQuery, args := g.sm.VersionTableExistsQuery()
	g.lg.SQL(existsQuery, args...)

	var tables int
	if err := q.GetContext(ctx, &tables, existsQuery, args...); err != nil {
		return 0, errors.Wrap(err, "could not check for version table")
	}

	if tables == 0 {
		return 0, database.ErrNotInitialized
	}

	readQuery := g.sm.ReadVersionQuery()
	g.lg.SQL(readQuery)

	var ref string
	if err := q.GetContext(ctx, &ref, readQuery); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, database.ErrNotInitialized
		}
		return 0, errors.Wrap(err, "could not read current version")
	}

	v, err := strconv.ParseInt(strings.TrimSpace(ref), 10, 64)
	if err != nil || v < 0 {
		return 0, errors.Wrapf(database.ErrVersionUnparsable, "%q", ref)
	}

	return v, nil
}

// writeVersion replaces the single marker row with delete-then-insert
// inside the surrounding batch transaction, so a failed batch never
// advances the version.
func (g *SQLGateway) writeVersion(ctx context.Context, tx *sqlx.Tx, v int64) error {
	deleteQuery := g.sm.DeleteVersionsQuery()
	g.lg.SQL(deleteQuery)
	if _, err := tx.ExecContext(ctx, deleteQuery); err != nil {
		return errors.Wrap(err, "could not clear version table")
	}

	ref := strconv.FormatInt(v, 10)
	insertQuery := g.sm.InsertVersionQuery()
	g.lg.SQL(insertQuery, ref)
	if _, err := tx.ExecContext(ctx, insertQuery, ref); err != nil {
		return errors.Wrapf(err, "could not set version to %d", v)
	}

	g.lg.Debugf("set version to %d", v)
	return nil
}
