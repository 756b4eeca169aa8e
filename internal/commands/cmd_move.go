package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/buildsched/internal/core/schedule"
	"github.com/colonyops/buildsched/internal/scheduler"
	"github.com/colonyops/buildsched/pkg/iojson"
)

const flushTimeout = 30 * time.Second

type MoveCmd struct {
	flags *Flags
	app   *scheduler.App

	// flags
	start string
	end   string
	shift int

	edit iojson.FileReader[scheduler.TaskEdit]
}

// NewMoveCmd creates the move and save commands.
func NewMoveCmd(flags *Flags, app *scheduler.App) *MoveCmd {
	return &MoveCmd{flags: flags, app: app}
}

// Register adds the commands to the application.
func (cmd *MoveCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "move",
			Usage:     "Reschedule one task",
			UsageText: "buildsched move <project> <task> (--shift N | --start YYYY-MM-DD --end YYYY-MM-DD)",
			Description: `Moves a task the same way a drag on the board does: the change is applied,
written after the debounce delay, and rolled back if the write fails.

--shift moves the whole task (every phase) by N days. --start and --end set
new dates; a missing one keeps its current value.`,
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "shift", Usage: "days to move the task (negative is earlier)", Destination: &cmd.shift},
				&cli.StringFlag{Name: "start", Usage: "new start date", Destination: &cmd.start},
				&cli.StringFlag{Name: "end", Usage: "new end date", Destination: &cmd.end},
			},
			ShellComplete: ProjectCompleter(cmd.app),
			Action:        cmd.runMove,
		},
		&cli.Command{
			Name:      "save",
			Usage:     "Apply a full task edit from JSON",
			UsageText: "buildsched save <project> [-f edit.json]",
			Description: `Reads a task edit and writes it at once. Fields that are left out keep their
current values:

  {"task_id": "li-123", "start": "2024-03-01T00:00:00Z", "end": "2024-03-04T00:00:00Z",
   "phases": [...], "dependencies": [...], "completed": true, "notes": "..."}`,
			Flags:         []cli.Flag{cmd.edit.Flag()},
			ShellComplete: ProjectCompleter(cmd.app),
			Action:        cmd.runSave,
		},
	)
	return app
}

func (cmd *MoveCmd) runMove(ctx context.Context, c *cli.Command) error {
	id, err := projectArg(c)
	if err != nil {
		return err
	}
	taskID := c.Args().Get(1)
	if taskID == "" {
		return fmt.Errorf("missing task id. Usage: %s", c.UsageText)
	}
	if cmd.shift != 0 && (cmd.start != "" || cmd.end != "") {
		return errors.New("--shift cannot be combined with --start or --end")
	}
	if cmd.shift == 0 && cmd.start == "" && cmd.end == "" {
		return errors.New("nothing to do: pass --shift or --start/--end")
	}

	coord, err := cmd.app.Coordinator(ctx, id)
	if err != nil {
		return err
	}

	if cmd.shift != 0 {
		err = coord.Move(taskID, cmd.shift)
	} else {
		err = cmd.drag(coord, taskID)
	}
	if err != nil {
		return err
	}

	return cmd.settle(ctx, c, coord, taskID)
}

func (cmd *MoveCmd) drag(coord *scheduler.Coordinator, taskID string) error {
	task, ok := coord.Task(taskID)
	if !ok {
		return fmt.Errorf("%w: %s", schedule.ErrTaskNotFound, taskID)
	}

	start, end := task.Start, task.End
	var err error
	if cmd.start != "" {
		if start, err = schedule.ParseDate(cmd.start); err != nil {
			return fmt.Errorf("--start: %w", err)
		}
	}
	if cmd.end != "" {
		if end, err = schedule.ParseDate(cmd.end); err != nil {
			return fmt.Errorf("--end: %w", err)
		}
	}

	if err := coord.BeginDrag(taskID); err != nil {
		return err
	}
	return coord.EndDrag(taskID, start, end)
}

// settle waits for the debounced write and reports whether it stuck.
func (cmd *MoveCmd) settle(ctx context.Context, c *cli.Command, coord *scheduler.Coordinator, taskID string) error {
	flushCtx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()
	if err := coord.Flush(flushCtx); err != nil {
		return fmt.Errorf("waiting for save: %w", err)
	}

	if coord.State(taskID) == scheduler.StateRolledBack {
		return fmt.Errorf("save of %s failed and was rolled back; see 'buildsched notifications'", taskID)
	}

	task, _ := coord.Task(taskID)
	_, _ = fmt.Fprintf(c.Root().Writer, "%s: %s to %s (%d days)\n",
		task.Name, schedule.FormatDate(task.Start), schedule.FormatDate(task.End), task.DurationDays)
	return nil
}

func (cmd *MoveCmd) runSave(ctx context.Context, c *cli.Command) error {
	id, err := projectArg(c)
	if err != nil {
		return err
	}

	edit, err := cmd.edit.Read()
	if err != nil {
		return err
	}
	if edit.TaskID == "" {
		return errors.New("task_id is required")
	}

	coord, err := cmd.app.Coordinator(ctx, id)
	if err != nil {
		return err
	}
	if err := coord.SaveTask(ctx, edit); err != nil {
		return err
	}

	task, _ := coord.Task(edit.TaskID)
	return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, task)
}
