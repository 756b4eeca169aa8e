package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/buildsched/internal/core/config"
	"github.com/colonyops/buildsched/pkg/iojson"
)

type ConfigValidateCmd struct {
	flags  *Flags
	format string
}

// NewConfigValidateCmd creates a new config validate command.
func NewConfigValidateCmd(flags *Flags) *ConfigValidateCmd {
	return &ConfigValidateCmd{flags: flags}
}

// Register adds the config validate command to the application.
func (cmd *ConfigValidateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "buildsched config validate [options]",
				Description: "Validates the configuration file: durations, pool sizes, trade glob patterns, the listen address and the data directory.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.run,
			},
		},
	})

	return app
}

type validationOutput struct {
	Valid    bool                       `json:"valid"`
	Errors   []fieldError               `json:"errors,omitempty"`
	Warnings []config.ValidationWarning `json:"warnings,omitempty"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (cmd *ConfigValidateCmd) run(_ context.Context, c *cli.Command) error {
	result := validate(cmd.flags.Config, cmd.flags.ConfigPath)

	if cmd.format == "json" {
		if err := iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, result); err != nil {
			return err
		}
	} else {
		out := c.Root().Writer
		for _, w := range result.Warnings {
			_, _ = fmt.Fprintf(out, "warning: %s: %s\n", w.Category, w.Message)
			if w.Item != "" {
				_, _ = fmt.Fprintf(out, "  Item: %s\n", w.Item)
			}
		}
		for _, e := range result.Errors {
			_, _ = fmt.Fprintf(out, "error: %s: %s\n", e.Field, e.Message)
		}
		if result.Valid {
			_, _ = fmt.Fprintln(out, "Configuration is valid")
		}
	}

	if !result.Valid {
		return cli.Exit(fmt.Sprintf("%d error(s) found", len(result.Errors)), 1)
	}
	return nil
}

func validate(cfg *config.Config, path string) validationOutput {
	out := validationOutput{Valid: true, Warnings: cfg.Warnings()}

	err := cfg.ValidateDeep(path)
	if err == nil {
		return out
	}

	out.Valid = false
	var fieldErrs criterio.FieldErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			out.Errors = append(out.Errors, fieldError{Field: fe.Field, Message: fe.Err.Error()})
		}
		return out
	}
	out.Errors = append(out.Errors, fieldError{Field: "config", Message: err.Error()})
	return out
}
