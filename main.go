package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/buildsched/internal/commands"
	"github.com/colonyops/buildsched/internal/core/config"
	"github.com/colonyops/buildsched/internal/core/eventbus"
	"github.com/colonyops/buildsched/internal/data/db"
	"github.com/colonyops/buildsched/internal/data/stores"
	"github.com/colonyops/buildsched/internal/scheduler"
	"github.com/colonyops/buildsched/internal/scheduler/sweep"
	"github.com/colonyops/buildsched/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		app       = &scheduler.App{}
		database  *db.DB
		bgCancel  context.CancelFunc
	)

	flags := &commands.Flags{}

	root := &cli.Command{
		Name:      "buildsched",
		Usage:     "Schedule and track construction projects",
		UsageText: "buildsched [global options] command [command options]",
		Description: `buildsched turns approved estimate and change-order lines into a project
timeline: progress and cost per task, the critical path, and warnings about
risky sequencing.

Run 'buildsched import <fixture.yaml>' to load a project, then
'buildsched board <project>' for the interactive board or 'buildsched serve'
for the HTTP API.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("BUILDSCHED_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file",
				Sources:     cli.EnvVars("BUILDSCHED_LOG_FILE"),
				Value:       commands.DefaultLogFile(),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("BUILDSCHED_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("BUILDSCHED_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
			&cli.StringFlag{
				Name:        "profiler-addr",
				Usage:       "serve pprof on this address while board or serve runs (e.g. localhost:6060)",
				Sources:     cli.EnvVars("BUILDSCHED_PROFILER_ADDR"),
				Destination: &flags.ProfilerAddr,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, closer, err := logutils.New(flags.LogLevel, flags.LogFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
				return ctx, fmt.Errorf("create data dir: %w", err)
			}

			openOpts := db.OpenOptions{
				MaxOpenConns: cfg.Database.MaxOpenConns,
				MaxIdleConns: cfg.Database.MaxIdleConns,
				BusyTimeout:  cfg.Database.BusyTimeout,
			}
			database, err = db.Open(cfg.DataDir, openOpts)
			if err != nil && stores.IsCorruptionError(err) {
				log.Warn().Err(err).Str("dir", cfg.DataDir).Msg("database corrupt, moving it aside")
				if rerr := stores.RecoverFromCorruption(cfg.DataDir); rerr != nil {
					return ctx, fmt.Errorf("recover database: %w", rerr)
				}
				database, err = db.Open(cfg.DataDir, openOpts)
			}
			if err != nil {
				return ctx, fmt.Errorf("open database: %w", err)
			}

			bgCtx, cancel := context.WithCancel(context.Background())
			bgCancel = cancel

			bus := eventbus.New(cfg.Schedule.EventBuffer)
			eventbus.RegisterDebugLogger(bus, log.Logger)
			go bus.Start(bgCtx)

			// Populate the pre-allocated App (commands already hold a pointer to it)
			*app = *scheduler.NewApp(cfg, database, bus)

			go sweep.Start(bgCtx, app.KV, stores.NewNotifyStore(database), sweep.Options{
				Interval:  cfg.Database.SweepInterval,
				Retention: cfg.Database.NotificationRetention,
			})

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			// Write pending edits before the bus and database go away.
			if app.Schedules != nil {
				if err := app.Schedules.Close(context.Background()); err != nil {
					log.Error().Err(err).Msg("failed to flush pending edits")
				}
			}

			if bgCancel != nil {
				bgCancel()
			}

			if database != nil {
				if err := database.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close database")
					return err
				}
			}

			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	boardCmd := commands.NewBoardCmd(flags, app)

	root = commands.NewProjectsCmd(flags, app).Register(root)
	root = commands.NewShowCmd(flags, app).Register(root)
	root = commands.NewMoveCmd(flags, app).Register(root)
	root = commands.NewOrderCmd(flags, app).Register(root)
	root = commands.NewExportCmd(flags, app).Register(root)
	root = commands.NewNotificationsCmd(flags, app).Register(root)
	root = commands.NewServeCmd(flags, app).Register(root)
	root = boardCmd.Register(root)
	root = commands.NewDBCmd(flags, app).Register(root)
	root = commands.NewConfigValidateCmd(flags).Register(root)

	// A bare project id opens its board; no arguments reopens the last one.
	root.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() == 0 {
			if _, ok := app.Recent.Last(ctx); !ok {
				return cli.ShowAppHelp(c)
			}
		}
		return boardCmd.Run(ctx, c)
	}

	exitCode := 0
	if err := root.Run(ctx, os.Args); err != nil {
		fmt.Println()
		fmt.Println(err.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
