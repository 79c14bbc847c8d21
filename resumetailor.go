package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/resumetailor/cmd"
)

const (
	version = "0.1.0"
)

func main() {
	app := &cli.App{
		Name:    "resumetailor",
		Usage:   "Tailor a resume to a job description with reviewable AI edits",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE` (default: ./data/resumetailor.toml, ./resumetailor.toml, ~/.resumetailor.toml)",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load environment variables from `FILE` before reading configuration",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if path := c.String("env-file"); path != "" {
				return cmd.LoadEnvFile(path)
			}
			return nil
		},
		Commands: []*cli.Command{
			cmd.APICommand(),
			cmd.AnalyzeCommand(),
			cmd.OverlayCommand(),
			cmd.PromptCommand(),
			cmd.ConfigCommand(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
