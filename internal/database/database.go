package database

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// ErrNoDatabaseURL means no database is configured anywhere
var ErrNoDatabaseURL = errors.New("database URL not configured")

// NewDB opens and pings a Postgres connection. An empty url falls back to
// DATABASE_URL from the environment or the nearest .env file.
func NewDB(ctx context.Context, url string) (*sql.DB, error) {
	dbURL := strings.TrimSpace(url)
	if dbURL == "" {
		var err error
		dbURL, err = loadDatabaseURL()
		if err != nil {
			return nil, fmt.Errorf("failed to get database URL: %w", err)
		}
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return db, nil
}

// Migrate creates the tables the record stores use. It is safe to run on
// every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}
	defer tx.Rollback()

	for i, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d failed: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}

	log.Debug().Int("steps", len(schema)).Msg("Database schema up to date")
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS applications (
		id              BIGSERIAL PRIMARY KEY,
		company_name    TEXT NOT NULL,
		job_role        TEXT NOT NULL,
		job_link        TEXT,
		date_applied    TIMESTAMPTZ NOT NULL DEFAULT now(),
		status          TEXT NOT NULL DEFAULT 'Applied',
		job_description TEXT,
		resume_path     TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS applications_date_applied_idx ON applications (date_applied DESC)`,
	`CREATE TABLE IF NOT EXISTS saved_resumes (
		id                BIGSERIAL PRIMARY KEY,
		filename          TEXT NOT NULL,
		original_text     TEXT NOT NULL,
		tailored_text     TEXT NOT NULL,
		tailored_sections JSONB NOT NULL DEFAULT '[]'::jsonb,
		initial_score     INTEGER NOT NULL DEFAULT 0,
		projected_score   INTEGER NOT NULL DEFAULT 0,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

func loadDatabaseURL() (string, error) {
	if direct := strings.TrimSpace(os.Getenv("DATABASE_URL")); direct != "" {
		return direct, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	envPath, err := findEnvFile(wd)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoDatabaseURL, err)
	}

	file, err := os.Open(envPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", envPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		eqIdx := strings.IndexRune(line, '=')
		if eqIdx <= 0 {
			continue
		}
		if strings.TrimSpace(line[:eqIdx]) != "DATABASE_URL" {
			continue
		}

		value := strings.Trim(strings.TrimSpace(line[eqIdx+1:]), "\"'")
		value = strings.TrimFunc(value, unicode.IsSpace)
		if value == "" {
			return "", fmt.Errorf("%w: DATABASE_URL is empty in %s", ErrNoDatabaseURL, envPath)
		}
		return value, nil
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read %s: %w", envPath, err)
	}

	return "", fmt.Errorf("%w: not in environment or %s", ErrNoDatabaseURL, envPath)
}

func findEnvFile(start string) (string, error) {
	dir := start
	for {
		candidate := filepath.Join(dir, ".env")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf(".env not found starting from %s", start)
}
