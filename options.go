package jambi

import (
	"github.com/jmoiron/sqlx"
	"github.com/perdixsw/jambi/internal/database"
	"github.com/perdixsw/jambi/internal/logger"
	"github.com/perdixsw/jambi/internal/source"
	"github.com/perdixsw/jambi/migration"
	"github.com/perdixsw/jambi/sqlschema"
)

type OptionFunc func(*Migrator) error

func UseColorLogger(p logger.Printer, printSQL, printDebug bool) OptionFunc {
	return func(m *Migrator) error {
		m.lg = logger.NewColorLogger(p, printSQL, printDebug)
		return nil
	}
}

func UseBWLogger(p logger.Printer, printSQL, printDebug bool) OptionFunc {
	return func(m *Migrator) error {
		m.lg = logger.NewBWLogger(p, printSQL, printDebug)
		return nil
	}
}

// UseLocalFolderSource discovers version_<N>.sql scripts in folder.
// Apply a logger option before this one so discovery warnings are seen.
func UseLocalFolderSource(folder string) OptionFunc {
	return func(m *Migrator) error {
		m.source = source.NewLocalFSSource(folder, m.lg)
		return nil
	}
}

// UseRegistrySource serves migrations registered as Go code, built
// with migration.New.
func UseRegistrySource(migrations ...*migration.Migration) OptionFunc {
	return func(m *Migrator) error {
		s, err := source.NewRegistrySource(migrations...)
		if err != nil {
			return err
		}

		m.source = s
		return nil
	}
}

func sqlMutatorFactory() database.MutatorFactory {
	return func(tx *sqlx.Tx, lg logger.Logger) migration.Mutator {
		return sqlschema.NewMutator(tx, lg)
	}
}
