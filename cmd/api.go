package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/resumetailor/internal/api"
	"github.com/resumetailor/internal/documents"
	"github.com/resumetailor/internal/export"
	"github.com/resumetailor/internal/review"
	"github.com/resumetailor/internal/scraper"
	"github.com/resumetailor/internal/secrets"
	"github.com/resumetailor/internal/storage"
)

// APICommand returns the CLI command for starting the API server
func APICommand() *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Start the resume tailoring API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the API server (overrides server.port)",
			},
			&cli.DurationFlag{
				Name:  "session-ttl",
				Usage: "How long an idle review session is kept",
				Value: review.DefaultSessionTTL,
			},
		},
		Action: runAPI,
	}
}

func runAPI(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if port := c.Int("port"); port != 0 {
		cfg.Server.Port = port
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	analyzer, err := newAnalyzer(ctx, cfg)
	if err != nil {
		return err
	}

	docs, err := documents.NewStore(cfg.Storage.DocumentsDir)
	if err != nil {
		return err
	}
	exporter, err := export.NewExporter(cfg.Storage.ArtifactsDir, cfg.Server.BaseURL)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg.Storage.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	scanner, err := secrets.NewScanner()
	if err != nil {
		return err
	}

	sessions := review.NewRegistry(c.Duration("session-ttl"))
	go sweepSessions(ctx, sessions, time.Minute)

	server := api.NewServer(cfg.Server.Port, api.Deps{
		Analyzer:  analyzer,
		Documents: docs,
		Exporter:  exporter,
		Store:     store,
		Jobs:      scraper.NewFetcher(15 * time.Second),
		Secrets:   scanner,
		Sessions:  sessions,
		Flights:   review.NewFlight(),
	})

	fmt.Printf("Starting resume tailoring API server on port %d...\n", cfg.Server.Port)
	return server.Start(ctx)
}

// openStore uses Postgres when a database URL is configured and falls back
// to an in-memory store otherwise.
func openStore(ctx context.Context, databaseURL string) (storage.Store, error) {
	if databaseURL == "" {
		log.Warn().Msg("No database configured; applications and saved resumes will not survive a restart")
		return storage.NewMemory(), nil
	}
	pg, err := storage.OpenPostgres(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open record store: %w", err)
	}
	return pg, nil
}

func sweepSessions(ctx context.Context, sessions *review.Registry, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Sweep(); n > 0 {
				log.Info().Int("removed", n).Int("remaining", sessions.Len()).Msg("Expired review sessions removed")
			}
		}
	}
}
