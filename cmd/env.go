package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/resumetailor/internal/config"
)

// ConfigCheckResult holds the result of configuration validation
type ConfigCheckResult struct {
	Missing  []string          // Required settings that are missing, as env variable names
	Present  map[string]string // Settings that are set (masked values)
	Warnings []string          // Non-fatal warnings
	Provider string            // AI provider in use
}

// EnvName returns the environment variable that overrides a config key
func EnvName(key string) string {
	return config.EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "__"))
}

// CheckRequiredConfig reports which settings the configured provider needs
// and where the rest come from.
func CheckRequiredConfig(cfg *config.Config) *ConfigCheckResult {
	result := &ConfigCheckResult{
		Missing:  []string{},
		Present:  make(map[string]string),
		Warnings: []string{},
		Provider: cfg.AI.Provider,
	}

	required := map[string]string{"ai.model": cfg.AI.Model}
	if cfg.AI.Provider == "ollama" {
		required["ai.base_url"] = cfg.AI.BaseURL
	} else {
		required["ai.api_key"] = cfg.AI.APIKey
	}

	for key, val := range required {
		if val == "" {
			result.Missing = append(result.Missing, EnvName(key))
		} else {
			result.Present[key] = describe(key, val)
		}
	}
	sort.Strings(result.Missing)

	// Optional but good to check
	optional := map[string]string{
		"storage.database_url": cfg.Storage.DatabaseURL,
		"log.transcript_dir":   cfg.Log.TranscriptDir,
	}
	if cfg.AI.Provider != "ollama" {
		optional["ai.base_url"] = cfg.AI.BaseURL
	}
	for key, val := range optional {
		if val != "" {
			result.Present[key] = describe(key, val)
		}
	}

	if cfg.Storage.DatabaseURL == "" {
		result.Warnings = append(result.Warnings, "no database_url; records are kept in memory only")
	}
	if cfg.AI.APIKey == "your-api-key" {
		result.Warnings = append(result.Warnings, "ai.api_key is still the sample value")
	}

	return result
}

// describe masks secrets and notes when a value comes from the environment
func describe(key, val string) string {
	if key == "ai.api_key" || key == "storage.database_url" {
		val = maskSecret(val)
	}
	if os.Getenv(EnvName(key)) != "" {
		val += " (from " + EnvName(key) + ")"
	}
	return val
}

// PrintConfigCheck prints the configuration check results
func PrintConfigCheck(w io.Writer, result *ConfigCheckResult) {
	fmt.Fprintln(w, "=== Configuration Check ===")
	fmt.Fprintf(w, "AI provider: %s\n\n", result.Provider)

	if len(result.Missing) > 0 {
		fmt.Fprintln(w, "❌ Missing required settings:")
		for _, v := range result.Missing {
			fmt.Fprintf(w, "   - %s\n", v)
		}
		fmt.Fprintln(w)
	}

	if len(result.Present) > 0 {
		keys := make([]string, 0, len(result.Present))
		for k := range result.Present {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprintln(w, "✓ Configured settings:")
		for _, k := range keys {
			fmt.Fprintf(w, "   - %s = %s\n", k, result.Present[k])
		}
		fmt.Fprintln(w)
	}

	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "⚠ Warning: %s\n", warning)
	}

	if len(result.Missing) == 0 {
		fmt.Fprintln(w, "✓ All required configuration is present")
	}

	fmt.Fprintln(w, "============================")
}

// maskSecret masks a secret value for display, showing only first and last 2 chars
func maskSecret(value string) string {
	if len(value) <= 8 {
		return "****"
	}
	return value[:2] + "****" + value[len(value)-2:]
}

// LoadEnvFile loads environment variables from a file, overwriting existing ones.
func LoadEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present
		if len(value) >= 2 && ((value[0] == '"' && value[len(value)-1] == '"') || (value[0] == '\'' && value[len(value)-1] == '\'')) {
			value = value[1 : len(value)-1]
		}

		// Overwrite environment variable
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("failed to set env var %s: %w", key, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return err
	}

	return nil
}
