package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/buildsched/internal/scheduler"
)

// ProjectCompleter returns a ShellCompleteFunc that suggests project IDs as
// the first positional argument.
//
// When the user's last typed argument starts with "-", it falls back to the
// default flag completion behavior.
func ProjectCompleter(app *scheduler.App) cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		if args := cmd.Args(); args.Present() {
			last := args.Slice()[args.Len()-1]
			if len(last) > 0 && last[0] == '-' {
				cli.DefaultCompleteWithFlags(ctx, cmd)
				return
			}
			// Only the first positional is a project.
			return
		}

		projects, err := app.Projects.ListProjects(ctx)
		if err != nil {
			return
		}

		w := cmd.Root().Writer
		for _, p := range projects {
			_, _ = fmt.Fprintln(w, p.ID)
		}
	}
}

// projectArg returns the first positional argument or a usage error.
func projectArg(c *cli.Command) (string, error) {
	id := c.Args().First()
	if id == "" {
		return "", fmt.Errorf("missing project id. Usage: %s", c.UsageText)
	}
	return id, nil
}
