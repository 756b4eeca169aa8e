package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/buildsched/internal/scheduler"
	"github.com/colonyops/buildsched/internal/web"
)

type ServeCmd struct {
	flags *Flags
	app   *scheduler.App

	// flags
	addr string
}

// NewServeCmd creates a new serve command.
func NewServeCmd(flags *Flags, app *scheduler.App) *ServeCmd {
	return &ServeCmd{flags: flags, app: app}
}

// Register adds the serve command to the application.
func (cmd *ServeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "serve",
		Usage:     "Serve the schedule API",
		UsageText: "buildsched serve [--addr host:port]",
		Description: `Starts the HTTP API used by the dashboard. Coordinator events are streamed to
websocket clients on /events. Pending writes are flushed on shutdown.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address (defaults to server.addr from config)",
				Sources:     cli.EnvVars("BUILDSCHED_ADDR"),
				Destination: &cmd.addr,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *ServeCmd) run(ctx context.Context, _ *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	stopProfiler, err := startProfiler(ctx, cmd.flags.ProfilerAddr)
	if err != nil {
		return err
	}
	defer stopProfiler()

	addr := cmd.addr
	if addr == "" {
		addr = cmd.flags.Config.Server.Addr
	}

	return web.NewServer(cmd.app).ListenAndServe(ctx, addr, cmd.flags.Config.Server.ReadHeaderTimeout)
}
