package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/buildsched/internal/data/db"
	"github.com/colonyops/buildsched/internal/data/stores"
	"github.com/colonyops/buildsched/internal/scheduler"
	"github.com/colonyops/buildsched/internal/scheduler/sweep"
)

type DBCmd struct {
	flags *Flags
	app   *scheduler.App

	// flags
	steps int
}

// NewDBCmd creates a new db command.
func NewDBCmd(flags *Flags, app *scheduler.App) *DBCmd {
	return &DBCmd{flags: flags, app: app}
}

// Register adds the db command to the application.
func (cmd *DBCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "db",
		Usage: "Local database maintenance",
		Commands: []*cli.Command{
			{
				Name:      "status",
				Usage:     "Show database file, migrations and row counts",
				UsageText: "buildsched db status",
				Action:    cmd.runStatus,
			},
			{
				Name:      "sweep",
				Usage:     "Remove expired preferences and old notices now",
				UsageText: "buildsched db sweep",
				Action:    cmd.runSweep,
			},
			{
				Name:      "rollback",
				Usage:     "Revert the newest applied migrations",
				UsageText: "buildsched db rollback [--steps N]",
				Description: `Runs the down scripts of the newest N applied migrations. Tables created
by those migrations are dropped with their rows. The next start applies them
again on an empty schema.`,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "steps", Usage: "number of migrations to revert", Value: 1, Destination: &cmd.steps},
				},
				Action: cmd.runRollback,
			},
		},
	})
	return app
}

func (cmd *DBCmd) runStatus(ctx context.Context, c *cli.Command) error {
	out := c.Root().Writer
	path := cmd.flags.Config.DatabaseFile()

	size := "-"
	if info, err := os.Stat(path); err == nil {
		size = humanize.Bytes(uint64(info.Size()))
	}
	_, _ = fmt.Fprintf(out, "database: %s (%s)\n", path, size)

	notices, err := stores.NewNotifyStore(cmd.app.DB).Count(ctx)
	if err != nil {
		return err
	}
	keys, err := cmd.app.KV.ListKeys(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "notifications: %s\n", humanize.Comma(notices))
	_, _ = fmt.Fprintf(out, "stored keys: %s\n\n", humanize.Comma(int64(len(keys))))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if len(keys) > 0 {
		_, _ = fmt.Fprintln(w, "KEY\tUPDATED\tEXPIRES")
		for _, key := range keys {
			entry, err := cmd.app.KV.GetRaw(ctx, key)
			if err != nil {
				// Expired between listing and reading.
				if stores.IsNotFoundError(err) {
					continue
				}
				return err
			}
			expires := "never"
			if entry.ExpiresAt != nil {
				expires = humanize.Time(*entry.ExpiresAt)
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", key, humanize.Time(entry.UpdatedAt), expires)
		}
		_, _ = fmt.Fprintln(w)
	}

	states, err := db.Status(ctx, cmd.app.DB.Conn())
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(w, "VERSION\tMIGRATION\tAPPLIED")
	for _, s := range states {
		_, _ = fmt.Fprintf(w, "%04d\t%s\t%t\n", s.Version, s.Name, s.Applied)
	}
	return w.Flush()
}

func (cmd *DBCmd) runSweep(ctx context.Context, c *cli.Command) error {
	sweep.Once(ctx, cmd.app.KV, stores.NewNotifyStore(cmd.app.DB), cmd.flags.Config.Database.NotificationRetention)
	_, err := fmt.Fprintln(c.Root().Writer, "sweep complete")
	return err
}

func (cmd *DBCmd) runRollback(ctx context.Context, c *cli.Command) error {
	if err := db.MigrateDown(ctx, cmd.app.DB.Conn(), cmd.steps); err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	_, err := fmt.Fprintf(c.Root().Writer, "reverted %d migration(s)\n", cmd.steps)
	return err
}
