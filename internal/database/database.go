package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/perdixsw/jambi/internal/logger"
	"github.com/perdixsw/jambi/migration"
	"github.com/pkg/errors"
)

var ErrNotInitialized = errors.New("version table has not been initialized")
var ErrVersionUnparsable = errors.New("stored version is not a valid integer")
var ErrVersionAheadOfMigrations = errors.New("database version is ahead of discovered migrations")
var ErrInvalidTarget = errors.New("upgrade target must be a version number or 'latest'")
var ErrMigrationFailed = errors.New("migration failed")

const (
	DefaultVersionTable = "jambi"
	DefaultSchema       = "public"

	// InitialVersionRef seeds the version table on init.
	InitialVersionRef = "0"
)

type (
	// Target is a normalized upgrade destination: either the highest
	// discovered version or a fixed version number.
	Target struct {
		latest  bool
		version int64
	}

	InitResult struct {
		Created bool
	}

	UpgradeResult struct {
		UpToDate bool
		Version  int64
		Applied  []string
	}
)

func LatestTarget() Target {
	return Target{latest: true}
}

func VersionTarget(v int64) Target {
	return Target{version: v}
}

func (t Target) IsLatest() bool {
	return t.latest
}

// Resolve turns the target into a concrete version number given
// the highest discovered migration version.
func (t Target) Resolve(latestDiscovered int64) int64 {
	if t.latest {
		return latestDiscovered
	}
	return t.version
}

// MutatorFactory binds a schema-mutation handle to the transaction
// an upgrade batch runs in.
type MutatorFactory func(tx *sqlx.Tx, lg logger.Logger) migration.Mutator

// Gateway is the engine's persistence surface: version marker
// lifecycle plus transactional application of a migration batch.
type Gateway interface {
	SetLogger(logger.Logger)
	EnsureInitialized(ctx context.Context) (InitResult, error)
	ReadVersion(ctx context.Context) (int64, error)
	Upgrade(ctx context.Context, migrations migration.Migrations, t Target) (UpgradeResult, error)
	Close() error
}

// ComputeBatch selects the pending subsequence: migrations with
// current < version <= target, preserving the incoming order.
func ComputeBatch(all migration.Migrations, current, target int64) migration.Migrations {
	var batch migration.Migrations
	for i := range all {
		if all[i].Version > current && all[i].Version <= target {
			batch = append(batch, all[i])
		}
	}
	return batch
}
