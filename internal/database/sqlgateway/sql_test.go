package sqlgateway_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/perdixsw/jambi/internal/database"
	"github.com/perdixsw/jambi/internal/database/sqlgateway"
	"github.com/perdixsw/jambi/internal/database/sqlgateway/sqlite"
	"github.com/perdixsw/jambi/internal/logger"
	"github.com/perdixsw/jambi/migration"
	"github.com/perdixsw/jambi/sqlschema"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGateway(t *testing.T) (*sqlgateway.SQLGateway, *sqlx.DB) {
	t.Helper()

	db, err := sqlx.Open("sqlite3", filepath.Join(t.TempDir(), "jambi.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	opts := sqlgateway.NewDefaultConnectOptions()
	opts.MaxAttempts = 2
	opts.RetryStep = time.Millisecond

	connector := sqlgateway.MakeRetryingConnector(db, opts)

	g := sqlgateway.NewSQLGateway(
		connector,
		sqlite.NewStateManager(""),
		func(tx *sqlx.Tx, lg logger.Logger) migration.Mutator {
			return sqlschema.NewMutator(tx, lg)
		},
	)

	return g, db
}

func tableMigration(t *testing.T, version int64, table string) *migration.Migration {
	t.Helper()

	m, err := migration.New(version, table, func(migration.Mutator) ([]migration.Operation, error) {
		return []migration.Operation{
			sqlschema.Raw("CREATE TABLE " + table + " (id INTEGER PRIMARY KEY)"),
		}, nil
	})
	require.NoError(t, err)
	return m
}

func tableExists(t *testing.T, db *sqlx.DB, table string) bool {
	t.Helper()

	var count int
	err := db.Get(&count, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table)
	require.NoError(t, err)
	return count > 0
}

func storedRef(t *testing.T, db *sqlx.DB) string {
	t.Helper()

	var ref string
	require.NoError(t, db.Get(&ref, "SELECT ref FROM jambi LIMIT 1"))
	return ref
}

func Test_InitIsIdempotent(t *testing.T) {
	g, db := newGateway(t)
	ctx := context.Background()

	first, err := g.EnsureInitialized(ctx)
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := g.EnsureInitialized(ctx)
	require.NoError(t, err)
	assert.False(t, second.Created)

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM jambi"))
	assert.Equal(t, 1, count)
	assert.Equal(t, "0", storedRef(t, db))
}

func Test_ReadVersionDistinguishesStates(t *testing.T) {
	g, db := newGateway(t)
	ctx := context.Background()

	t.Run("before init it reports not initialized", func(t *testing.T) {
		_, err := g.ReadVersion(ctx)
		assert.True(t, errors.Is(err, database.ErrNotInitialized))
	})

	t.Run("after init it reports version zero", func(t *testing.T) {
		_, err := g.EnsureInitialized(ctx)
		require.NoError(t, err)

		v, err := g.ReadVersion(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), v)
	})

	t.Run("garbage in the marker is unparsable, not a crash", func(t *testing.T) {
		_, err := db.Exec("DELETE FROM jambi")
		require.NoError(t, err)
		_, err = db.Exec("INSERT INTO jambi (ref) VALUES ('abc')")
		require.NoError(t, err)

		_, err = g.ReadVersion(ctx)
		require.Error(t, err)
		assert.True(t, errors.Is(err, database.ErrVersionUnparsable))
	})
}

func Test_UpgradeAppliesAllPendingInVersionOrder(t *testing.T) {
	g, db := newGateway(t)
	ctx := context.Background()

	_, err := g.EnsureInitialized(ctx)
	require.NoError(t, err)

	migrations := migration.Migrations{
		tableMigration(t, 1, "foo"),
		tableMigration(t, 3, "baz"),
		tableMigration(t, 10, "bar"),
	}

	report, err := g.Upgrade(ctx, migrations, database.LatestTarget())
	require.NoError(t, err)

	assert.False(t, report.UpToDate)
	assert.Equal(t, int64(10), report.Version)
	assert.Equal(t, []string{"version_1", "version_3", "version_10"}, report.Applied)

	assert.Equal(t, "10", storedRef(t, db))
	assert.True(t, tableExists(t, db, "foo"))
	assert.True(t, tableExists(t, db, "baz"))
	assert.True(t, tableExists(t, db, "bar"))
}

func Test_UpgradeRequiresInit(t *testing.T) {
	g, _ := newGateway(t)

	migrations := migration.Migrations{tableMigration(t, 1, "foo")}

	_, err := g.Upgrade(context.Background(), migrations, database.LatestTarget())
	assert.True(t, errors.Is(err, database.ErrNotInitialized))
}

func Test_UpgradeAfterUpgradeIsANoOp(t *testing.T) {
	g, _ := newGateway(t)
	ctx := context.Background()

	_, err := g.EnsureInitialized(ctx)
	require.NoError(t, err)

	migrations := migration.Migrations{tableMigration(t, 1, "foo")}

	_, err = g.Upgrade(ctx, migrations, database.LatestTarget())
	require.NoError(t, err)

	report, err := g.Upgrade(ctx, migrations, database.LatestTarget())
	require.NoError(t, err)
	assert.True(t, report.UpToDate)
	assert.Equal(t, int64(1), report.Version)
	assert.Empty(t, report.Applied)
}

func Test_BoundedUpgradeStopsAtTarget(t *testing.T) {
	g, db := newGateway(t)
	ctx := context.Background()

	_, err := g.EnsureInitialized(ctx)
	require.NoError(t, err)

	migrations := migration.Migrations{
		tableMigration(t, 1, "foo"),
		tableMigration(t, 3, "baz"),
		tableMigration(t, 10, "bar"),
	}

	report, err := g.Upgrade(ctx, migrations, database.VersionTarget(3))
	require.NoError(t, err)
	assert.Equal(t, int64(3), report.Version)
	assert.Equal(t, "3", storedRef(t, db))
	assert.False(t, tableExists(t, db, "bar"))

	t.Run("target equal to current is a no-op", func(t *testing.T) {
		report, err := g.Upgrade(ctx, migrations, database.VersionTarget(3))
		require.NoError(t, err)
		assert.True(t, report.UpToDate)
		assert.Equal(t, int64(3), report.Version)
	})

	t.Run("the rest applies on the next run", func(t *testing.T) {
		report, err := g.Upgrade(ctx, migrations, database.LatestTarget())
		require.NoError(t, err)
		assert.Equal(t, int64(10), report.Version)
		assert.True(t, tableExists(t, db, "bar"))
	})
}

func Test_FailedMigrationRollsBackTheWholeBatch(t *testing.T) {
	g, db := newGateway(t)
	ctx := context.Background()

	_, err := g.EnsureInitialized(ctx)
	require.NoError(t, err)

	broken, err := migration.New(2, "broken", func(migration.Mutator) ([]migration.Operation, error) {
		return nil, errors.New("producer exploded")
	})
	require.NoError(t, err)

	migrations := migration.Migrations{
		tableMigration(t, 1, "foo"),
		broken,
	}

	_, err = g.Upgrade(ctx, migrations, database.LatestTarget())
	require.Error(t, err)
	assert.True(t, errors.Is(err, database.ErrMigrationFailed))
	assert.Contains(t, err.Error(), "version_2")

	// nothing from the batch is visible and the marker did not move
	assert.Equal(t, "0", storedRef(t, db))
	assert.False(t, tableExists(t, db, "foo"))
}

func Test_FailingOperationAlsoRollsBack(t *testing.T) {
	g, db := newGateway(t)
	ctx := context.Background()

	_, err := g.EnsureInitialized(ctx)
	require.NoError(t, err)

	bad, err := migration.New(2, "bad sql", func(migration.Mutator) ([]migration.Operation, error) {
		return []migration.Operation{sqlschema.Raw("THIS IS NOT SQL")}, nil
	})
	require.NoError(t, err)

	migrations := migration.Migrations{
		tableMigration(t, 1, "foo"),
		bad,
	}

	_, err = g.Upgrade(ctx, migrations, database.LatestTarget())
	require.Error(t, err)
	assert.True(t, errors.Is(err, database.ErrMigrationFailed))

	assert.Equal(t, "0", storedRef(t, db))
	assert.False(t, tableExists(t, db, "foo"))
}

func Test_VersionAheadOfMigrationsAborts(t *testing.T) {
	g, db := newGateway(t)
	ctx := context.Background()

	_, err := g.EnsureInitialized(ctx)
	require.NoError(t, err)

	_, err = db.Exec("DELETE FROM jambi")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO jambi (ref) VALUES ('5')")
	require.NoError(t, err)

	migrations := migration.Migrations{tableMigration(t, 3, "late")}

	_, err = g.Upgrade(ctx, migrations, database.LatestTarget())
	require.Error(t, err)
	assert.True(t, errors.Is(err, database.ErrVersionAheadOfMigrations))

	assert.Equal(t, "5", storedRef(t, db))
	assert.False(t, tableExists(t, db, "late"))
}
