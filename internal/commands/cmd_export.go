package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/buildsched/internal/core/schedule"
	"github.com/colonyops/buildsched/internal/scheduler"
	"github.com/colonyops/buildsched/pkg/iojson"
)

type ExportCmd struct {
	flags *Flags
	app   *scheduler.App

	// flags
	format   string
	perPhase bool
	output   string
}

// NewExportCmd creates a new export command.
func NewExportCmd(flags *Flags, app *scheduler.App) *ExportCmd {
	return &ExportCmd{flags: flags, app: app}
}

// Register adds the export command to the application.
func (cmd *ExportCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "export",
		Usage:     "Export a project's schedule",
		UsageText: "buildsched export <project> [--format csv|json|daily] [--per-phase] [-o file]",
		Description: `csv and json write one row per task in display order, or one row per phase
with --per-phase. daily writes, for every day of the project, the tasks and
phases active that day.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (csv, json, daily)",
				Value:       "csv",
				Destination: &cmd.format,
			},
			&cli.BoolFlag{
				Name:        "per-phase",
				Usage:       "one row per phase instead of per task",
				Destination: &cmd.perPhase,
			},
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "write to file instead of stdout",
				Destination: &cmd.output,
			},
		},
		ShellComplete: ProjectCompleter(cmd.app),
		Action:        cmd.run,
	})
	return app
}

func (cmd *ExportCmd) run(ctx context.Context, c *cli.Command) error {
	id, err := projectArg(c)
	if err != nil {
		return err
	}

	board, err := cmd.app.Board(ctx, id)
	if err != nil {
		return err
	}

	out := c.Root().Writer
	if cmd.output != "" {
		f, err := os.Create(cmd.output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	return writeExport(out, c.Root().ErrWriter, board, cmd.format, cmd.perPhase)
}

func writeExport(out, errOut io.Writer, board scheduler.Board, format string, perPhase bool) error {
	switch format {
	case "csv":
		return schedule.WriteCSV(out, board.Export(perPhase))
	case "json":
		return iojson.WriteWith(out, errOut, board.Export(perPhase))
	case "daily":
		days, err := schedule.DailyBreakdown(board.Tasks)
		if err != nil {
			return err
		}
		return iojson.WriteWith(out, errOut, days)
	default:
		return fmt.Errorf("unknown export format %q (csv, json, daily)", format)
	}
}
