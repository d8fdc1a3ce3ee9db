// replyforge-render renders or checks a template file offline, outside a
// workflow session. Useful while authoring record collections.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/replyforge/replyforge/pkg/cmd"
	"github.com/replyforge/replyforge/pkg/log"
	"github.com/replyforge/replyforge/pkg/store"
	"github.com/replyforge/replyforge/pkg/template"
)

func main() {
	command := &cli.Command{
		Name:                  "replyforge-render",
		EnableShellCompletion: true,
		Usage:                 "Render or check a response template file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "template",
				Aliases:  []string{"t"},
				Usage:    "Path to the template source file",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "vars",
				Usage: "Path to a JSON file with the variable map",
				Value: "",
			},
			&cli.StringFlag{
				Name:    "records-url",
				Usage:   "Record store root for option-lookup functions",
				Value:   "./data",
				Sources: cli.EnvVars("RECORDS_URL"),
			},
			&cli.BoolFlag{
				Name:  "preview",
				Usage: "Preview mode: contain failures inline instead of aborting",
			},
			&cli.BoolFlag{
				Name:  "check",
				Usage: "Only check template structure, do not render",
			},
			&cli.StringFlag{
				Name:  "locale",
				Usage: "Locale tag for formatting functions",
				Value: "en",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: run,
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(_ context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))

	logger := log.WithModule("replyforge-render")

	content, err := os.ReadFile(command.String("template"))
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}

	tiered, err := cmd.NewCache(logger, "")
	if err != nil {
		return err
	}

	bus := cmd.NewEventBus(logger)
	defer func() {
		_ = bus.Close()
	}()

	records := store.NewFileStore(command.String("records-url"), tiered, bus, logger)
	engine := template.NewEngine(logger, template.Config{Options: records})

	if command.Bool("check") {
		return check(engine, string(content))
	}

	vars := map[string]any{}

	if varsPath := command.String("vars"); varsPath != "" {
		body, err := os.ReadFile(varsPath)
		if err != nil {
			return fmt.Errorf("failed to read variables file: %w", err)
		}

		err = json.Unmarshal(body, &vars)
		if err != nil {
			return fmt.Errorf("failed to parse variables file: %w", err)
		}
	}

	out, err := engine.Render(string(content), vars, template.RenderOptions{
		Preview: command.Bool("preview"),
		Locale:  command.String("locale"),
	})
	if err != nil {
		return err
	}

	fmt.Println(out)

	return nil
}

func check(engine *template.Engine, content string) error {
	result := engine.ValidateTemplate(content)

	for _, warning := range result.Warnings {
		fmt.Println("warning:", warning)
	}

	for _, problem := range result.Errors {
		fmt.Println("error:", problem)
	}

	if !result.IsValid {
		return fmt.Errorf("template check failed with %d error(s)", len(result.Errors))
	}

	fmt.Println("template is valid")

	return nil
}
