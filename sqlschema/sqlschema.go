// Package sqlschema is the schema-mutation collaborator for SQL
// databases. Migrations receive a *Mutator, describe their changes as
// operations and hand them back; the engine feeds the operations into
// Apply inside the upgrade transaction. The engine itself never looks
// inside an Operation.
package sqlschema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/perdixsw/jambi/internal/logger"
	"github.com/perdixsw/jambi/migration"
	"github.com/pkg/errors"
)

var ErrUnknownOperation = errors.New("operation was not produced by sqlschema")

// Operation is a single schema change expressed as SQL.
type Operation struct {
	SQL  string
	Args []interface{}
}

// Execer is satisfied by *sqlx.Tx, *sqlx.DB and their database/sql
// counterparts.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type Mutator struct {
	ex Execer
	lg logger.Logger
}

var _ migration.Mutator = (*Mutator)(nil)

func NewMutator(ex Execer, lg logger.Logger) *Mutator {
	if lg == nil {
		lg = &logger.NullLogger{}
	}

	return &Mutator{ex: ex, lg: lg}
}

// Raw wraps a hand-written statement as an operation. File-based
// migrations are loaded through this.
func Raw(query string, args ...interface{}) migration.Operation {
	return Operation{SQL: query, Args: args}
}

func (m *Mutator) CreateTable(name string, columns ...string) migration.Operation {
	return Operation{
		SQL: fmt.Sprintf("CREATE TABLE %s (%s)", name, strings.Join(columns, ", ")),
	}
}

func (m *Mutator) DropTable(name string) migration.Operation {
	return Operation{SQL: fmt.Sprintf("DROP TABLE IF EXISTS %s", name)}
}

func (m *Mutator) AddColumn(table, column, definition string) migration.Operation {
	return Operation{
		SQL: fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition),
	}
}

func (m *Mutator) DropColumn(table, column string) migration.Operation {
	return Operation{SQL: fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", table, column)}
}

func (m *Mutator) RenameTable(from, to string) migration.Operation {
	return Operation{SQL: fmt.Sprintf("ALTER TABLE %s RENAME TO %s", from, to)}
}

func (m *Mutator) CreateIndex(table, name string, columns ...string) migration.Operation {
	return Operation{
		SQL: fmt.Sprintf("CREATE INDEX %s ON %s (%s)", name, table, strings.Join(columns, ", ")),
	}
}

func (m *Mutator) Apply(ctx context.Context, ops ...migration.Operation) error {
	for i := range ops {
		op, ok := ops[i].(Operation)
		if !ok {
			return errors.Wrapf(ErrUnknownOperation, "%T", ops[i])
		}

		m.lg.SQL(op.SQL, op.Args...)

		if _, err := m.ex.ExecContext(ctx, op.SQL, op.Args...); err != nil {
			return errors.Wrapf(err, "could not apply [%s]", op.SQL)
		}
	}

	return nil
}
