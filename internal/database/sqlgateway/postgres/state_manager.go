package postgres

import (
	"fmt"

	"github.com/lib/pq"
	"github.com/perdixsw/jambi/internal/database"
	"github.com/perdixsw/jambi/internal/database/sqlgateway"
)

// StateManager holds the Postgres SQL for the version marker table,
// schema-qualified the way the original deployment expects.
type StateManager struct {
	schema string
	table  string
}

var _ sqlgateway.StateManager = (*StateManager)(nil)

func NewStateManager(schema, table string) *StateManager {
	if schema == "" {
		schema = database.DefaultSchema
	}
	if table == "" {
		table = database.DefaultVersionTable
	}

	return &StateManager{schema: schema, table: table}
}

func (s StateManager) qualifiedTable() string {
	return pq.QuoteIdentifier(s.schema) + "." + pq.QuoteIdentifier(s.table)
}

func (s StateManager) CreateVersionTableQuery() string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (ref VARCHAR(255) PRIMARY KEY)", s.qualifiedTable())
}

func (s StateManager) VersionTableExistsQuery() (string, []interface{}) {
	const q = "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = $1 AND table_name = $2"
	return q, []interface{}{s.schema, s.table}
}

func (s StateManager) CountVersionsQuery() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", s.qualifiedTable())
}

func (s StateManager) ReadVersionQuery() string {
	return fmt.Sprintf("SELECT ref FROM %s LIMIT 1", s.qualifiedTable())
}

func (s StateManager) DeleteVersionsQuery() string {
	return fmt.Sprintf("DELETE FROM %s", s.qualifiedTable())
}

func (s StateManager) InsertVersionQuery() string {
	return fmt.Sprintf("INSERT INTO %s (ref) VALUES ($1)", s.qualifiedTable())
}
