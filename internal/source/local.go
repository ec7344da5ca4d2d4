package source

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/perdixsw/jambi/internal/logger"
	"github.com/perdixsw/jambi/migration"
	"github.com/perdixsw/jambi/sqlschema"
	"github.com/pkg/errors"
)

const DefaultMigrationsFolder = "./migrations"

const scriptExtension = ".sql"

const scriptTemplate = `-- %s
-- statements are applied in order inside the upgrade transaction
`

// LocalFSSource discovers version_<N>.sql scripts in a folder.
type LocalFSSource struct {
	folder string
	lg     logger.Logger
}

var _ Source = (*LocalFSSource)(nil)

func NewLocalFSSource(folder string, lg logger.Logger) *LocalFSSource {
	return &LocalFSSource{folder: folder, lg: lg}
}

func (lfs *LocalFSSource) IsValid() bool {
	info, err := os.Stat(lfs.folder)
	if os.IsNotExist(err) {
		return false
	}

	return info.IsDir()
}

func (lfs *LocalFSSource) Discover(ctx context.Context) (migration.Migrations, error) {
	files, err := ioutil.ReadDir(lfs.folder)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrFolderNotFound, "%s", lfs.folder)
		}
		return nil, errors.Wrapf(err, "could not list migrations folder %s", lfs.folder)
	}

	var result migration.Migrations

	for i := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if files[i].IsDir() {
			continue
		}

		name := files[i].Name()
		if !strings.HasSuffix(name, scriptExtension) {
			continue
		}

		key := strings.TrimSuffix(name, scriptExtension)
		version, err := migration.VersionFromName(key)
		if err != nil {
			lfs.lg.Warnf("cannot parse version number from %q, skipping", name)
			continue
		}

		m, err := migration.New(version, key, scriptProducer(filepath.Join(lfs.folder, name)))
		if err != nil {
			lfs.lg.Warnf("cannot load migration %q, skipping: %s", name, err)
			continue
		}

		result = append(result, m)
	}

	sort.Stable(result)
	return result, nil
}

// AlreadyExists reports whether a script for the version is present.
func (lfs *LocalFSSource) AlreadyExists(version int64) bool {
	filename := filepath.Join(lfs.folder, migration.CreateKey(version)+scriptExtension)
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}

	return !info.IsDir()
}

// Create writes a fresh migration script from the template and returns
// its path. The engine never calls this, it serves hosts that scaffold
// new migrations.
func (lfs *LocalFSSource) Create(version int64, name string) (string, error) {
	if lfs.AlreadyExists(version) {
		return "", errors.Wrapf(ErrMigrationAlreadyExists, "version %d", version)
	}

	key := migration.CreateKey(version)
	filename := filepath.Join(lfs.folder, key+scriptExtension)

	header := key
	if name != "" {
		header = key + ": " + name
	}

	if err := ioutil.WriteFile(filename, []byte(fmt.Sprintf(scriptTemplate, header)), 0644); err != nil {
		return "", errors.Wrapf(err, "could not create file [%s]", filename)
	}

	return filename, nil
}

// scriptProducer defers reading the script until the executor applies
// the migration, so that discovery stays side-effect free.
func scriptProducer(path string) migration.Producer {
	return func(m migration.Mutator) ([]migration.Operation, error) {
		contents, err := ioutil.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "could not read migration script [%s]", path)
		}

		statements := SplitStatements(string(contents))
		if len(statements) == 0 {
			return nil, errors.Errorf("migration script [%s] contains no statements", path)
		}

		ops := make([]migration.Operation, 0, len(statements))
		for _, stmt := range statements {
			ops = append(ops, sqlschema.Raw(stmt))
		}

		return ops, nil
	}
}

// SplitStatements breaks a script into individual statements on ";"
// boundaries, dropping blank chunks and full-line comments.
func SplitStatements(script string) []string {
	var statements []string

	for _, chunk := range strings.Split(script, ";") {
		var lines []string
		for _, line := range strings.Split(chunk, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "--") {
				continue
			}
			lines = append(lines, trimmed)
		}

		if len(lines) == 0 {
			continue
		}

		statements = append(statements, strings.Join(lines, "\n"))
	}

	return statements
}

