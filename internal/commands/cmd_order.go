package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/buildsched/internal/core/schedule"
	"github.com/colonyops/buildsched/internal/scheduler"
)

type OrderCmd struct {
	flags *Flags
	app   *scheduler.App
}

// NewOrderCmd creates a new order command.
func NewOrderCmd(flags *Flags, app *scheduler.App) *OrderCmd {
	return &OrderCmd{flags: flags, app: app}
}

// Register adds the order command to the application.
func (cmd *OrderCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "order",
		Usage: "Change how a project's tasks are listed",
		Description: `Display order never changes dates or dependencies. Moving a task up or down
switches the project to manual order, starting from the order currently shown.`,
		Commands: []*cli.Command{
			{
				Name:          "mode",
				Usage:         "Set the sort mode",
				UsageText:     "buildsched order mode <project> <natural|start_date|manual>",
				ShellComplete: ProjectCompleter(cmd.app),
				Action:        cmd.runMode,
			},
			{
				Name:          "up",
				Usage:         "Move a task up one place",
				UsageText:     "buildsched order up <project> <task>",
				ShellComplete: ProjectCompleter(cmd.app),
				Action:        cmd.move(scheduler.DirectionUp),
			},
			{
				Name:          "down",
				Usage:         "Move a task down one place",
				UsageText:     "buildsched order down <project> <task>",
				ShellComplete: ProjectCompleter(cmd.app),
				Action:        cmd.move(scheduler.DirectionDown),
			},
		},
	})
	return app
}

func (cmd *OrderCmd) runMode(ctx context.Context, c *cli.Command) error {
	id, err := projectArg(c)
	if err != nil {
		return err
	}
	mode := schedule.SortMode(c.Args().Get(1))
	if !mode.IsValid() {
		return fmt.Errorf("unknown sort mode %q (natural, start_date, manual)", mode)
	}

	coord, err := cmd.app.Coordinator(ctx, id)
	if err != nil {
		return err
	}

	prefs, err := cmd.app.Preferences.SetMode(ctx, id, coord.Tasks(), mode)
	if err != nil {
		return err
	}
	return cmd.print(c, coord, prefs)
}

func (cmd *OrderCmd) move(dir scheduler.Direction) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		id, err := projectArg(c)
		if err != nil {
			return err
		}
		taskID := c.Args().Get(1)
		if taskID == "" {
			return fmt.Errorf("missing task id. Usage: %s", c.UsageText)
		}

		coord, err := cmd.app.Coordinator(ctx, id)
		if err != nil {
			return err
		}

		prefs, err := cmd.app.Preferences.Move(ctx, id, coord.Tasks(), taskID, dir)
		if err != nil {
			return err
		}
		return cmd.print(c, coord, prefs)
	}
}

func (cmd *OrderCmd) print(c *cli.Command, coord *scheduler.Coordinator, prefs schedule.Preferences) error {
	tasks := schedule.ApplyOrder(coord.Tasks(), prefs)
	names := make([]string, 0, len(tasks))
	for _, t := range tasks {
		names = append(names, t.Name)
	}
	_, err := fmt.Fprintf(c.Root().Writer, "%s: %s\n", prefs.Mode, strings.Join(names, ", "))
	return err
}
