package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/resumetailor/internal/documents"
	"github.com/resumetailor/internal/scraper"
	"github.com/resumetailor/internal/secrets"
	"github.com/resumetailor/pkg/models"
)

// AnalyzeCommand returns the analyze command
func AnalyzeCommand() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Ask the model for tailoring edits for a resume",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "resume",
				Aliases:  []string{"r"},
				Usage:    "Resume `FILE` (plain text or PDF)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "job",
				Aliases: []string{"j"},
				Usage:   "Job description `FILE`",
			},
			&cli.StringFlag{
				Name:  "job-url",
				Usage: "Fetch the job description from a posting `URL`",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the analysis JSON to `FILE` instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "allow-secrets",
				Usage: "Send the resume even if it appears to contain credentials",
			},
			&cli.BoolFlag{
				Name:  "show",
				Usage: "Print the overlay of every section after analysing",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Give up after this long",
				Value: 5 * time.Minute,
			},
		},
		Action: runAnalyze,
	}
}

func runAnalyze(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()

	resumePath := c.String("resume")
	data, err := os.ReadFile(resumePath)
	if err != nil {
		return fmt.Errorf("failed to read resume: %w", err)
	}
	resume, err := documents.ExtractText(resumePath, data)
	if err != nil {
		return err
	}
	if len(resume) > documents.MaxSize {
		return fmt.Errorf("%w: %s", documents.ErrTooLarge, resumePath)
	}

	if !c.Bool("allow-secrets") {
		scanner, err := secrets.NewScanner()
		if err != nil {
			return err
		}
		if err := scanner.Check(resume); err != nil {
			return fmt.Errorf("%w (use --allow-secrets to send it anyway)", err)
		}
	}

	jd, err := jobDescription(ctx, c.String("job"), c.String("job-url"))
	if err != nil {
		return err
	}

	analyzer, err := newAnalyzer(ctx, cfg)
	if err != nil {
		return err
	}

	result, err := analyzer.Analyze(ctx, resume, jd)
	if err != nil {
		return err
	}
	result.DocumentHandle = filepath.Base(resumePath)

	if err := writeAnalysis(c.String("output"), result); err != nil {
		return err
	}
	if c.Bool("show") {
		printOverlay(os.Stdout, result.Sections)
	}
	return nil
}

func jobDescription(ctx context.Context, path, url string) (string, error) {
	switch {
	case path != "":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read job description: %w", err)
		}
		return string(data), nil
	case url != "":
		return scraper.NewFetcher(15*time.Second).Fetch(ctx, url)
	default:
		return "", fmt.Errorf("one of --job or --job-url is required")
	}
}

func writeAnalysis(path string, result *models.AnalysisResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}
	if path == "" {
		_, err = fmt.Println(string(data))
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write analysis: %w", err)
	}
	fmt.Printf("Analysis written to %s (score %d -> %d)\n", path, result.InitialScore, result.ProjectedScore)
	return nil
}
