package cli

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/perdixsw/jambi"
	"github.com/perdixsw/jambi/internal/source"
	"github.com/pkg/errors"
)

var ErrFolderInvalid = errors.New("migrations folder is invalid")

type (
	CloserFunc func() error

	Config struct {
		DatabaseURL      string
		Schema           string
		VersionTable     string
		MigrationsFolder string
	}

	// App wires the migrator facade to the command line host.
	App struct {
		migrator *jambi.Migrator
		scaffold *source.LocalFSSource
	}
)

func NewFromYaml(path string) (*App, CloserFunc, error) {
	cfg, err := createConfigFromYaml(path)
	if err != nil {
		return nil, nil, err
	}

	return New(cfg)
}

func New(cfg Config) (*App, CloserFunc, error) {
	m, closer, err := createMigrator(cfg)
	if err != nil {
		return nil, nil, err
	}

	return &App{
		migrator: m,
		scaffold: source.NewLocalFSSource(cfg.MigrationsFolder, newCliLogger()),
	}, CloserFunc(closer), nil
}

func (app *App) Init(ctx context.Context) (jambi.InitReport, error) {
	return app.migrator.Init(ctx)
}

func (app *App) Inspect(ctx context.Context) (jambi.InspectReport, error) {
	return app.migrator.Inspect(ctx)
}

func (app *App) Latest(ctx context.Context) (int64, error) {
	return app.migrator.Latest(ctx)
}

// Upgrade validates the target before any database contact.
func (app *App) Upgrade(ctx context.Context, target string) (jambi.UpgradeReport, error) {
	t, err := jambi.ParseTarget(target)
	if err != nil {
		return jambi.UpgradeReport{}, err
	}

	return app.migrator.Upgrade(ctx, t)
}

// MakeMigration scaffolds version_<latest+1>.sql in the configured
// folder and returns its path.
func (app *App) MakeMigration(ctx context.Context, name string) (string, error) {
	if !app.scaffold.IsValid() {
		return "", ErrFolderInvalid
	}

	migrations, err := app.scaffold.Discover(ctx)
	if err != nil {
		return "", err
	}

	return app.scaffold.Create(migrations.MaxVersion()+1, name)
}

// InitCfg writes a starter configuration file.
func InitCfg(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "could not create config file")
	}

	defer func() {
		_ = f.Close()
	}()

	r := strings.NewReader(configFileStub)

	if _, err := io.Copy(f, r); err != nil {
		return err
	}

	return nil
}

func FileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return !info.IsDir()
}
