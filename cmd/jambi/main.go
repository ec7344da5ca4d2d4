package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/logrusorgru/aurora/v3"
	"github.com/perdixsw/jambi"
	"github.com/perdixsw/jambi/internal/cli"
)

const defaultConfigPath = "jambi.yaml"

const usage = `usage: jambi [-config path] <command>

commands:
  init              create and seed the version table
  inspect           report the current database version
  latest            report the highest migration on disk
  upgrade [target]  apply pending migrations up to target (default: latest)
  make <name>       create the next migration script from a template
  init-config       write a starter jambi.yaml
`

func fail(msg string) {
	fmt.Println(aurora.Red("jambi: "), msg)
	os.Exit(1)
}

func succeed(msg string) {
	fmt.Println(aurora.Green("jambi: "), msg)
	os.Exit(0)
}

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to jambi configuration file")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Print(usage)
		os.Exit(1)
	}

	command := args[0]

	if command == "init-config" {
		if cli.FileExists(*configPath) {
			fail(fmt.Sprintf("%s already exists", *configPath))
		}
		if err := cli.InitCfg(*configPath); err != nil {
			fail(err.Error())
		}
		succeed(fmt.Sprintf("created %s", *configPath))
	}

	app, closer, err := cli.NewFromYaml(*configPath)
	if err != nil {
		fail(err.Error())
	}

	defer func() {
		_ = closer()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	switch command {
	case "init":
		runInit(ctx, app)
	case "inspect":
		runInspect(ctx, app)
	case "latest":
		runLatest(ctx, app)
	case "upgrade":
		var target string
		if len(args) > 1 {
			target = args[1]
		}
		runUpgrade(ctx, app, target)
	case "make":
		if len(args) < 2 {
			fail("make requires a migration name")
		}
		runMake(ctx, app, args[1])
	default:
		fmt.Print(usage)
		os.Exit(1)
	}
}

func runInit(ctx context.Context, app *cli.App) {
	report, err := app.Init(ctx)
	if err != nil {
		fail(err.Error())
	}

	if report.Created {
		succeed("database initialized")
	}
	succeed("database was already initialized")
}

func runInspect(ctx context.Context, app *cli.App) {
	report, err := app.Inspect(ctx)
	if err != nil {
		fail(err.Error())
	}

	switch report.State {
	case jambi.StateInitialized:
		succeed(fmt.Sprintf("your database is at version %d", report.Version))
	case jambi.StateNotInitialized:
		fail("run 'init' to create a jambi version table first")
	default:
		fail("stored version could not be parsed")
	}
}

func runLatest(ctx context.Context, app *cli.App) {
	latest, err := app.Latest(ctx)
	if err != nil {
		fail(err.Error())
	}

	succeed(fmt.Sprintf("latest migration is at version %d", latest))
}

func runUpgrade(ctx context.Context, app *cli.App, target string) {
	report, err := app.Upgrade(ctx, target)
	if err != nil {
		fail(err.Error())
	}

	if report.UpToDate {
		succeed(fmt.Sprintf("you are already up to date (version: %d)", report.Version))
	}
	succeed(fmt.Sprintf("migrated to version %d", report.Version))
}

func runMake(ctx context.Context, app *cli.App, name string) {
	path, err := app.MakeMigration(ctx, name)
	if err != nil {
		fail(err.Error())
	}

	succeed(fmt.Sprintf("created %s", path))
}
