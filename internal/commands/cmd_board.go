package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/buildsched/internal/scheduler"
	"github.com/colonyops/buildsched/internal/tui"
)

type BoardCmd struct {
	flags *Flags
	app   *scheduler.App
}

// NewBoardCmd creates a new board command.
func NewBoardCmd(flags *Flags, app *scheduler.App) *BoardCmd {
	return &BoardCmd{flags: flags, app: app}
}

// Register adds the board command to the application.
func (cmd *BoardCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "board",
		Aliases:   []string{"tui"},
		Usage:     "Open the interactive schedule board",
		UsageText: "buildsched board [project]",
		Description: `Opens a full-screen timeline of the project. Moving a task shows the new dates
at once and saves them after a short pause; a failed save restores the last
saved schedule. Press ? for keys.

Without a project, the last opened board is shown again.`,
		ShellComplete: ProjectCompleter(cmd.app),
		Action:        cmd.Run,
	})
	return app
}

// Run executes the board. Exported for use as default command.
func (cmd *BoardCmd) Run(ctx context.Context, c *cli.Command) error {
	id := c.Args().First()
	if id == "" {
		last, ok := cmd.app.Recent.Last(ctx)
		if !ok {
			return fmt.Errorf("missing project id. Usage: %s", c.UsageText)
		}
		if _, err := cmd.app.Projects.GetProject(ctx, last); err != nil {
			cmd.app.Recent.Forget(ctx)
			return fmt.Errorf("last opened project %s: %w", last, err)
		}
		id = last
	}
	cmd.app.Recent.Remember(ctx, id)

	stopProfiler, err := startProfiler(ctx, cmd.flags.ProfilerAddr)
	if err != nil {
		return err
	}
	defer stopProfiler()

	return tui.Run(ctx, cmd.app, id, tui.Options{
		ShowPhases: cmd.flags.Config.TUI.ShowPhases,
		ToastTTL:   cmd.flags.Config.Schedule.ToastDuration,
	})
}
