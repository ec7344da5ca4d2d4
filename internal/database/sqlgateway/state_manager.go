package sqlgateway

// StateManager supplies the dialect-specific SQL for the version
// marker table. The gateway only ever holds zero or one row in it.
type StateManager interface {
	CreateVersionTableQuery() string
	VersionTableExistsQuery() (query string, args []interface{})
	CountVersionsQuery() string
	ReadVersionQuery() string
	DeleteVersionsQuery() string
	InsertVersionQuery() string
}
