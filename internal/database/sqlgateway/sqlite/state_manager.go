package sqlite

import (
	"fmt"

	"github.com/perdixsw/jambi/internal/database"
	"github.com/perdixsw/jambi/internal/database/sqlgateway"
)

// StateManager holds the SQLite SQL for the version marker table.
// SQLite has no schemas, so the schema identifier is ignored.
type StateManager struct {
	table string
}

var _ sqlgateway.StateManager = (*StateManager)(nil)

func NewStateManager(table string) *StateManager {
	if table == "" {
		table = database.DefaultVersionTable
	}

	return &StateManager{table: table}
}

func (s StateManager) CreateVersionTableQuery() string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (ref VARCHAR(255) PRIMARY KEY)", s.table)
}

func (s StateManager) VersionTableExistsQuery() (string, []interface{}) {
	const q = "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
	return q, []interface{}{s.table}
}

func (s StateManager) CountVersionsQuery() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table)
}

func (s StateManager) ReadVersionQuery() string {
	return fmt.Sprintf("SELECT ref FROM %s LIMIT 1", s.table)
}

func (s StateManager) DeleteVersionsQuery() string {
	return fmt.Sprintf("DELETE FROM %s", s.table)
}

func (s StateManager) InsertVersionQuery() string {
	return fmt.Sprintf("INSERT INTO %s (ref) VALUES (?)", s.table)
}
