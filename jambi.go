// Package jambi tracks and applies ordered schema migrations against a
// relational database. A single-row table holds the current version;
// pending migrations apply exactly once, in ascending version order,
// inside one transaction per upgrade.
package jambi

import (
	"context"

	"github.com/perdixsw/jambi/internal/database"
	"github.com/perdixsw/jambi/internal/logger"
	"github.com/perdixsw/jambi/internal/source"
	"github.com/pkg/errors"
)

var ErrGatewayNotInitialized = errors.New("database gateway has not been initialized")

// Sentinel errors of the engine, for hosts to match with errors.Is.
var (
	ErrNotInitialized           = database.ErrNotInitialized
	ErrVersionUnparsable        = database.ErrVersionUnparsable
	ErrVersionAheadOfMigrations = database.ErrVersionAheadOfMigrations
	ErrInvalidTarget            = database.ErrInvalidTarget
	ErrMigrationFailed          = database.ErrMigrationFailed
	ErrFolderNotFound           = source.ErrFolderNotFound
)

type (
	CloserFunc func() error

	Target = database.Target

	InitReport struct {
		Created bool
	}

	// UpgradeReport describes the outcome of one upgrade invocation:
	// either an up-to-date no-op or the keys applied and the version
	// the marker advanced to.
	UpgradeReport struct {
		UpToDate bool
		Version  int64
		Applied  []string
	}
)

type InspectState int

const (
	StateNotInitialized InspectState = iota
	StateInitialized
	StateVersionUnparsable
)

// InspectReport distinguishes the three inspection outcomes: not yet
// initialized, initialized at a version, and an unreadable marker.
type InspectReport struct {
	State   InspectState
	Version int64
}

type Migrator struct {
	lg        logger.Logger
	gateway   database.Gateway
	source    source.Source
	closerFns []CloserFunc
}

// NewMigrator assembles a migrator from option callbacks. A database
// option (UsePostgres, UseMySQL or UseSqlite) is mandatory; without a
// source option the local ./migrations folder is used.
func NewMigrator(opts ...OptionFunc) (*Migrator, CloserFunc, error) {
	m := new(Migrator)
	m.lg = &logger.NullLogger{}

	for _, oFunc := range opts {
		if err := oFunc(m); err != nil {
			return nil, nil, err
		}
	}

	if m.gateway == nil {
		return nil, nil, ErrGatewayNotInitialized
	}

	if m.source == nil {
		m.source = source.NewLocalFSSource(source.DefaultMigrationsFolder, m.lg)
	}

	m.gateway.SetLogger(m.lg)

	return m, m.close, nil
}

// Init creates and seeds the version table. Idempotent: a second call
// reports the existing state instead of failing.
func (m *Migrator) Init(ctx context.Context) (InitReport, error) {
	result, err := m.gateway.EnsureInitialized(ctx)
	if err != nil {
		m.lg.Error(err)
		return InitReport{}, err
	}

	report := InitReport{Created: result.Created}
	if report.Created {
		m.lg.Successf("database initialized")
	} else {
		m.lg.Successf("database was already initialized")
	}

	return report, nil
}

// Inspect reads the current version without mutating anything.
// An uninitialized database is a distinguished report, not an error;
// an unparsable marker is both reported and returned as an error.
func (m *Migrator) Inspect(ctx context.Context) (InspectReport, error) {
	v, err := m.gateway.ReadVersion(ctx)
	switch {
	case err == nil:
		m.lg.Successf("your database is at version %d", v)
		return InspectReport{State: StateInitialized, Version: v}, nil
	case errors.Is(err, ErrNotInitialized):
		m.lg.Successf("run 'init' to create a jambi version table first")
		return InspectReport{State: StateNotInitialized}, nil
	case errors.Is(err, ErrVersionUnparsable):
		m.lg.Error(err)
		return InspectReport{State: StateVersionUnparsable}, err
	default:
		m.lg.Error(err)
		return InspectReport{}, err
	}
}

// Latest returns the highest discovered migration version, 0 when the
// source holds none.
func (m *Migrator) Latest(ctx context.Context) (int64, error) {
	migrations, err := m.source.Discover(ctx)
	if err != nil {
		m.lg.Error(err)
		return 0, err
	}

	return migrations.MaxVersion(), nil
}

// Upgrade applies all pending migrations up to the target in one
// transaction and advances the version marker on full success.
func (m *Migrator) Upgrade(ctx context.Context, t Target) (UpgradeReport, error) {
	migrations, err := m.source.Discover(ctx)
	if err != nil {
		m.lg.Error(err)
		return UpgradeReport{}, err
	}

	result, err := m.gateway.Upgrade(ctx, migrations, t)
	if err != nil {
		m.lg.Error(err)
		return UpgradeReport{}, err
	}

	return UpgradeReport{
		UpToDate: result.UpToDate,
		Version:  result.Version,
		Applied:  result.Applied,
	}, nil
}

func (m *Migrator) close() error {
	if m.gateway == nil {
		return ErrGatewayNotInitialized
	}

	for _, closer := range m.closerFns {
		if err := closer(); err != nil {
			m.lg.Error(err)
		}
	}

	if err := m.gateway.Close(); err != nil {
		m.lg.Error(err)
	}

	return nil
}
