package source

import (
	"context"

	"github.com/perdixsw/jambi/migration"
	"github.com/pkg/errors"
)

var ErrFolderNotFound = errors.New("migrations folder does not exist")
var ErrMigrationAlreadyExists = errors.New("migration already exists")
var ErrNoMigrations = errors.New("no migrations")

// Source discovers migrations and returns them sorted ascending by
// version. Discovery never touches the target database: producers stay
// unloaded until the executor applies them.
type Source interface {
	Discover(ctx context.Context) (migration.Migrations, error)
}
