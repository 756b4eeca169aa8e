package commands

import (
	"context"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/buildsched/internal/core/schedule"
	"github.com/colonyops/buildsched/internal/scheduler"
	"github.com/colonyops/buildsched/pkg/iojson"
)

type ShowCmd struct {
	flags *Flags
	app   *scheduler.App

	// flags
	jsonOutput bool
	phases     bool
}

// NewShowCmd creates a new show command.
func NewShowCmd(flags *Flags, app *scheduler.App) *ShowCmd {
	return &ShowCmd{flags: flags, app: app}
}

// Register adds the show command to the application.
func (cmd *ShowCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "show",
		Usage:     "Print a project's schedule",
		UsageText: "buildsched show <project> [--json] [--phases]",
		Description: `Prints every task in display order with its dates, progress and cost,
followed by the project summary and any warnings. Tasks on the critical path
are marked with *.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output the full board as JSON",
				Destination: &cmd.jsonOutput,
			},
			&cli.BoolFlag{
				Name:        "phases",
				Usage:       "list the phases of multi-phase tasks",
				Destination: &cmd.phases,
			},
		},
		ShellComplete: ProjectCompleter(cmd.app),
		Action:        cmd.run,
	})
	return app
}

func (cmd *ShowCmd) run(ctx context.Context, c *cli.Command) error {
	id, err := projectArg(c)
	if err != nil {
		return err
	}

	board, err := cmd.app.Board(ctx, id)
	if err != nil {
		return err
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		return iojson.WriteWith(out, c.Root().ErrWriter, board)
	}

	return printBoard(out, board, cmd.phases)
}

func printBoard(out io.Writer, board scheduler.Board, phases bool) error {
	s := board.Summary
	_, _ = fmt.Fprintf(out, "%s (%s)\n", board.Project.Name, board.Project.ID)
	_, _ = fmt.Fprintf(out, "%d%% complete, %d of %d tasks done, %s spent of %s\n",
		s.Percent, s.CompletedCount, s.TaskCount, money(s.ActualCost), money(s.EstimatedCost))
	if board.Span != nil {
		_, _ = fmt.Fprintf(out, "%s to %s, %d days, critical path %d days\n",
			schedule.FormatDate(board.Span.Start), schedule.FormatDate(board.Span.End),
			board.Span.Days, board.CriticalPath.DurationDays)
	}
	_, _ = fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, " \tTASK\tSTART\tEND\tDAYS\tDONE\tSPENT\tBUDGET")
	for _, t := range board.Tasks {
		mark := " "
		if slices.Contains(board.CriticalPath.TaskIDs, t.ID) {
			mark = "*"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d%%\t%s\t%s\n",
			mark, t.Name, schedule.FormatDate(t.Start), schedule.FormatDate(t.End), t.DurationDays,
			board.Progress[t.ID].Percent, money(t.ActualCost), money(t.EstimatedCost))

		if phases && t.HasMultiplePhases() {
			for _, p := range t.Phases {
				done := ""
				if p.Completed {
					done = "done"
				}
				_, _ = fmt.Fprintf(w, " \t  phase %d\t%s\t%s\t%d\t%s\t\t\n",
					p.PhaseNumber, schedule.FormatDate(p.Start), schedule.FormatDate(p.End), p.DurationDays, done)
			}
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(board.Warnings) > 0 {
		_, _ = fmt.Fprintf(out, "\n%d warning(s):\n", len(board.Warnings))
		for _, warn := range board.Warnings {
			_, _ = fmt.Fprintf(out, "  [%s] %s\n", warn.Severity, warn.Message)
			if warn.Suggestion != "" {
				_, _ = fmt.Fprintf(out, "      %s\n", warn.Suggestion)
			}
		}
	}
	return nil
}

func money(v float64) string {
	return "$" + humanize.CommafWithDigits(v, 2)
}
