package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/resumetailor/internal/llm"
	"github.com/resumetailor/internal/overlay"
	"github.com/resumetailor/internal/prompts"
	"github.com/resumetailor/pkg/models"
)

// PromptCommand groups tools for inspecting model traffic offline
func PromptCommand() *cli.Command {
	return &cli.Command{
		Name:  "prompt",
		Usage: "Inspect prompts and model responses without calling a model",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the tailoring prompt for a resume and job description",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "resume", Aliases: []string{"r"}, Usage: "Resume `FILE`", Required: true},
					&cli.StringFlag{Name: "job", Aliases: []string{"j"}, Usage: "Job description `FILE`", Required: true},
				},
				Action: runPromptShow,
			},
			{
				Name:      "repair",
				Usage:     "Repair a raw model response and print it as an analysis",
				ArgsUsage: "RESPONSE_FILE",
				Action:    runPromptRepair,
			},
		},
	}
}

func runPromptShow(c *cli.Context) error {
	resume, err := os.ReadFile(c.String("resume"))
	if err != nil {
		return fmt.Errorf("failed to read resume: %w", err)
	}
	jd, err := os.ReadFile(c.String("job"))
	if err != nil {
		return fmt.Errorf("failed to read job description: %w", err)
	}

	fmt.Fprintln(c.App.Writer, "---- RENDERED PROMPT ----")
	fmt.Fprintln(c.App.Writer, prompts.NewPromptBuilder().BuildTailoringPrompt(string(resume), string(jd)))
	return nil
}

func runPromptRepair(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("missing required argument: response file")
	}
	raw, err := os.ReadFile(c.Args().Get(0))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var result models.AnalysisResult
	stats, err := llm.DecodeResponse(string(raw), &result, log.Logger)
	if err != nil {
		return err
	}
	if err := overlay.ValidateSections(result.Sections); err != nil {
		return err
	}

	if stats.WasRepaired {
		fmt.Fprintf(c.App.ErrWriter, "repaired with: %s\n", strings.Join(stats.RepairStrategies, ", "))
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(data))
	return nil
}
