package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/buildsched/internal/core/schedule"
	"github.com/colonyops/buildsched/internal/data/stores"
	"github.com/colonyops/buildsched/internal/scheduler"
	"github.com/colonyops/buildsched/pkg/iojson"
)

type ProjectsCmd struct {
	flags *Flags
	app   *scheduler.App

	// flags
	jsonOutput bool
}

// NewProjectsCmd creates the import and projects commands.
func NewProjectsCmd(flags *Flags, app *scheduler.App) *ProjectsCmd {
	return &ProjectsCmd{flags: flags, app: app}
}

// Register adds the commands to the application.
func (cmd *ProjectsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "import",
			Usage:     "Import a project from a YAML fixture",
			UsageText: "buildsched import <fixture.yaml>",
			Description: `Loads a project with its estimates, change orders and expenses from a YAML
fixture. An existing project with the same id is replaced.`,
			Action: cmd.runImport,
		},
		&cli.Command{
			Name:      "projects",
			Aliases:   []string{"ls"},
			Usage:     "List projects",
			UsageText: "buildsched projects [--json]",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:        "json",
					Usage:       "output as JSON lines",
					Destination: &cmd.jsonOutput,
				},
			},
			Action: cmd.runList,
		},
	)
	return app
}

func (cmd *ProjectsCmd) runImport(ctx context.Context, c *cli.Command) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("missing fixture path. Usage: %s", c.UsageText)
	}

	f, err := stores.LoadFixture(path)
	if err != nil {
		return err
	}

	id, err := cmd.app.Projects.Import(ctx, f)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(c.Root().Writer, id)
	return nil
}

func (cmd *ProjectsCmd) runList(ctx context.Context, c *cli.Command) error {
	projects, err := cmd.app.Projects.ListProjects(ctx)
	if err != nil {
		return err
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		for _, p := range projects {
			if err := iojson.WriteLine(out, p); err != nil {
				return fmt.Errorf("encode project: %w", err)
			}
		}
		return nil
	}

	if len(projects) == 0 {
		fmt.Fprintf(os.Stderr, "No projects found. Run 'buildsched import <fixture.yaml>' to add one.\n")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tSTART\tEND")
	for _, p := range projects {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Name, optionalDate(p.StartDate), optionalDate(p.EndDate))
	}
	return w.Flush()
}

func optionalDate(d *time.Time) string {
	if d == nil {
		return "-"
	}
	return schedule.FormatDate(*d)
}
