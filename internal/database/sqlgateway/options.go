package sqlgateway

type PostgresOptions struct {
	Schema       string
	VersionTable string
}

type MySQLOptions struct {
	VersionTable string
}

type SqliteOptions struct {
	VersionTable string
}
