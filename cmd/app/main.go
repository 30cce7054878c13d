package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/atvirokodosprendimai/clinicseed/internal/adapters/db/gormstore"
	postgresadapter "github.com/atvirokodosprendimai/clinicseed/internal/adapters/db/postgres"
	sqliteadapter "github.com/atvirokodosprendimai/clinicseed/internal/adapters/db/sqlite"
	"github.com/atvirokodosprendimai/clinicseed/internal/application"
	"github.com/atvirokodosprendimai/clinicseed/internal/config"
	"github.com/atvirokodosprendimai/clinicseed/internal/dataset"
	"github.com/atvirokodosprendimai/clinicseed/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
	"gorm.io/gorm"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit code: 0 on
// success or when the operator declines, 1 on any failure.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCommand()
	root.Reader = stdin
	root.Writer = stdout
	root.ErrWriter = stderr

	if err := root.Run(ctx, args); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "clinicseed",
		Usage: "Destroy and rebuild the clinic fixture data set in one transaction",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force", Usage: "skip the confirmation prompt"},
			&cli.StringFlag{
				Name:    "driver",
				Value:   config.DriverSQLite,
				Usage:   "database driver: sqlite or postgres",
				Sources: cli.EnvVars(config.EnvDriver),
			},
			&cli.StringFlag{
				Name:    "dsn",
				Usage:   "database file (sqlite, default " + config.DefaultSQLiteDSN + ") or connection string (postgres)",
				Sources: cli.EnvVars(config.EnvDSN),
			},
			&cli.StringFlag{
				Name:    "data",
				Usage:   "fixture data YAML; built-in data when empty",
				Sources: cli.EnvVars(config.EnvData),
			},
			&cli.StringFlag{
				Name:    "metrics-file",
				Usage:   "write run metrics in Prometheus textfile format",
				Sources: cli.EnvVars(config.EnvMetricsFile),
			},
			&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
			&cli.BoolFlag{Name: "verbose", Usage: "log every deleted and created kind"},
		},
		Commands: []*cli.Command{
			planCommand(),
			statusCommand(),
			verifyCommand(),
		},
		Action: rebuildAction,
	}
}

func planCommand() *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Print the deletion and creation order without touching the database",
		Action: func(ctx context.Context, c *cli.Command) error {
			svc := application.NewFixtureService(dataset.Graph(), nil, nil, nil, application.WithLogger(newLogger(c)))
			deletion, creation, err := svc.Plan()
			if err != nil {
				return err
			}
			w := c.Root().Writer
			if c.Bool("json") {
				return printJSON(w, map[string][]string{"deletion": deletion, "creation": creation})
			}
			printPlan(w, deletion, creation)
			return nil
		},
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Print the current record count of every kind",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := configFrom(c)
			if err != nil {
				return err
			}
			store, closeDB, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			svc := application.NewFixtureService(dataset.Graph(), store, nil, nil, application.WithLogger(newLogger(c)))
			counts, err := svc.Status(ctx)
			if err != nil {
				return err
			}
			w := c.Root().Writer
			if c.Bool("json") {
				return printJSON(w, counts)
			}
			printStatus(w, counts)
			return nil
		},
	}
}

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "Check that a printed login works against the seeded database",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "secret", Required: true, Usage: "password printed by the last rebuild"},
			&cli.StringFlag{Name: "token", Usage: "bearer token printed by the last rebuild"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := configFrom(c)
			if err != nil {
				return err
			}
			store, closeDB, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			login, err := application.NewTokenIdentity(0).Authenticate(ctx, store, c.String("email"), c.String("secret"), c.String("token"))
			if err != nil {
				return err
			}
			printKV(c.Root().Writer, [][2]string{
				{"user_id", fmt.Sprint(login.UserID)},
				{"email", login.Email},
				{"status", "ok"},
			})
			return nil
		},
	}
}

func rebuildAction(ctx context.Context, c *cli.Command) error {
	cfg, err := configFrom(c)
	if err != nil {
		return err
	}
	w := c.Root().Writer

	if !c.Bool("force") {
		warning := fmt.Sprintf("WARNING: every record in %s (%s) will be deleted and recreated.", cfg.DSN, cfg.Driver)
		err := confirm(c.Root().Reader, w, warning)
		var cancelled *domain.UserCancelledError
		if errors.As(err, &cancelled) {
			fmt.Fprintln(w, "cancelled, nothing was changed")
			return nil
		}
		if err != nil {
			return err
		}
	}

	data, err := dataset.Load(cfg.DataPath)
	if err != nil {
		return err
	}
	store, closeDB, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	reg := prometheus.NewRegistry()
	svc := application.NewFixtureService(
		dataset.Graph(),
		store,
		dataset.Generator(data),
		application.NewTokenIdentity(0),
		application.WithLogger(newLogger(c)),
		application.WithMetrics(application.NewMetrics(reg)),
	)

	report, err := svc.Rebuild(ctx)
	if cfg.MetricsFile != "" {
		if werr := prometheus.WriteToTextfile(cfg.MetricsFile, reg); werr != nil {
			newLogger(c).Warn("write metrics file", "path", cfg.MetricsFile, "error", werr)
		}
	}
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return printJSON(w, report)
	}
	printReport(w, report)
	return nil
}

func configFrom(c *cli.Command) (config.Config, error) {
	cfg := config.Config{
		Driver:      c.String("driver"),
		DSN:         c.String("dsn"),
		DataPath:    c.String("data"),
		MetricsFile: c.String("metrics-file"),
	}.WithDefaults()
	return cfg, cfg.Validate()
}

func openStore(ctx context.Context, cfg config.Config) (*gormstore.Store, func(), error) {
	var (
		db    *gorm.DB
		err   error
		store *gormstore.Store
	)
	switch cfg.Driver {
	case config.DriverPostgres:
		if db, err = postgresadapter.Open(cfg.DSN); err != nil {
			return nil, nil, err
		}
		err = postgresadapter.RunMigrations(ctx, db)
		store = postgresadapter.NewFixtureStore(db)
	default:
		if db, err = sqliteadapter.Open(cfg.DSN); err != nil {
			return nil, nil, err
		}
		err = sqliteadapter.RunMigrations(ctx, db)
		store = sqliteadapter.NewFixtureStore(db)
	}

	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	return store, closeDB, nil
}

func newLogger(c *cli.Command) *slog.Logger {
	level := slog.LevelInfo
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(c.Root().ErrWriter, &slog.HandlerOptions{Level: level}))
}
