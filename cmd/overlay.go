package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/resumetailor/internal/overlay"
	"github.com/resumetailor/pkg/models"
)

// OverlayCommand works offline on a saved analysis file
func OverlayCommand() *cli.Command {
	return &cli.Command{
		Name:  "overlay",
		Usage: "Render or merge a saved analysis without calling a model",
		Subcommands: []*cli.Command{
			{
				Name:      "render",
				Usage:     "Print every section with its edits drawn inline",
				ArgsUsage: "ANALYSIS_JSON",
				Action: func(c *cli.Context) error {
					result, err := readAnalysis(c)
					if err != nil {
						return err
					}
					printOverlay(c.App.Writer, result.Sections)
					return nil
				},
			},
			{
				Name:      "merge",
				Usage:     "Print the tailored document with every applicable edit applied",
				ArgsUsage: "ANALYSIS_JSON",
				Action: func(c *cli.Context) error {
					result, err := readAnalysis(c)
					if err != nil {
						return err
					}
					if err := overlay.CheckDocument(result.Sections); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, overlay.MergeDocument(result.Sections))
					return nil
				},
			},
		},
	}
}

func readAnalysis(c *cli.Context) (*models.AnalysisResult, error) {
	if c.NArg() < 1 {
		return nil, fmt.Errorf("missing required argument: analysis JSON file")
	}
	data, err := os.ReadFile(c.Args().Get(0))
	if err != nil {
		return nil, fmt.Errorf("failed to read analysis: %w", err)
	}
	var result models.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse analysis: %w", err)
	}
	if err := overlay.ValidateSections(result.Sections); err != nil {
		return nil, err
	}
	return &result, nil
}

func printOverlay(w io.Writer, sections []models.SectionAnalysis) {
	for _, sec := range sections {
		fmt.Fprintf(w, "== %s ==\n", sec.SectionName)
		fmt.Fprintln(w, overlay.RenderSection(overlay.Classify(sec)).ANSI())

		for _, issue := range overlay.Lint(sec) {
			fmt.Fprintf(w, "  ! %s\n", issue.Message)
		}
		fmt.Fprintln(w)
	}
}
