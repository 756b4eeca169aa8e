package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/buildsched/internal/scheduler"
	"github.com/colonyops/buildsched/pkg/iojson"
)

type NotificationsCmd struct {
	flags *Flags
	app   *scheduler.App

	// flags
	clear      bool
	jsonOutput bool
}

// NewNotificationsCmd creates a new notifications command.
func NewNotificationsCmd(flags *Flags, app *scheduler.App) *NotificationsCmd {
	return &NotificationsCmd{flags: flags, app: app}
}

// Register adds the notifications command to the application.
func (cmd *NotificationsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "notifications",
		Aliases:   []string{"notices"},
		Usage:     "Show the notice history",
		UsageText: "buildsched notifications [--json] [--clear]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "clear", Usage: "delete the history", Destination: &cmd.clear},
			&cli.BoolFlag{Name: "json", Usage: "output as JSON lines", Destination: &cmd.jsonOutput},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *NotificationsCmd) run(ctx context.Context, c *cli.Command) error {
	if cmd.clear {
		return cmd.app.Notices.Clear(ctx)
	}

	history, err := cmd.app.Notices.History(ctx)
	if err != nil {
		return err
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		for _, n := range history {
			if err := iojson.WriteLine(out, n); err != nil {
				return fmt.Errorf("encode notification: %w", err)
			}
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "WHEN\tLEVEL\tMESSAGE")
	for _, n := range history {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", humanize.Time(n.CreatedAt), n.Level, n.Message)
	}
	return w.Flush()
}
