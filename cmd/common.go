package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/resumetailor/internal/aiconnectors"
	"github.com/resumetailor/internal/analysis"
	"github.com/resumetailor/internal/config"
	"github.com/resumetailor/internal/logging"
	"github.com/resumetailor/internal/retry"
)

// loadConfig loads and validates the configuration named by --config and
// sets up logging from it.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Bool("verbose") {
		cfg.Log.Level = "debug"
	}
	logging.Setup(cfg.Log)
	return cfg, nil
}

func newAnalyzer(ctx context.Context, cfg *config.Config) (*analysis.Analyzer, error) {
	connector, err := aiconnectors.NewConnector(ctx, aiconnectors.OptionsFromConfig(cfg.AI))
	if err != nil {
		return nil, fmt.Errorf("failed to create AI connector: %w", err)
	}
	return analysis.New(connector, analysis.Options{
		Model:             connector.Model(),
		RequestsPerMinute: cfg.AI.RequestsPerMinute,
		Timeout:           cfg.AI.Timeout,
		Retry:             retry.LLMConfig(),
		TranscriptDir:     cfg.Log.TranscriptDir,
	}), nil
}
