package source

import (
	"context"
	"sort"

	"github.com/perdixsw/jambi/migration"
)

// RegistrySource is a compiled registration table: hosts that ship
// their migrations as Go code hand them over at construction instead
// of pointing at a folder.
type RegistrySource struct {
	migrations migration.Migrations
}

var _ Source = (*RegistrySource)(nil)

func NewRegistrySource(migrations ...*migration.Migration) (*RegistrySource, error) {
	if len(migrations) == 0 {
		return nil, ErrNoMigrations
	}

	registered := make(migration.Migrations, len(migrations))
	copy(registered, migrations)
	sort.Stable(registered)

	return &RegistrySource{migrations: registered}, nil
}

func (r *RegistrySource) Discover(_ context.Context) (migration.Migrations, error) {
	result := make(migration.Migrations, len(r.migrations))
	copy(result, r.migrations)
	return result, nil
}
