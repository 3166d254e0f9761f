package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// API key is required for both embedding and generation.
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required\n"+
			"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
			ErrMissingAPIKey)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPort, c.Port)
	}

	// Retrieval window: the chat prompt carries at most top_k passages.
	if c.TopK < 1 || c.TopK > 20 {
		return fmt.Errorf("%w: must be between 1 and 20, got %d", ErrInvalidTopK, c.TopK)
	}

	if c.SessionTTLSeconds < 1 {
		return fmt.Errorf("%w: must be positive, got %d", ErrInvalidSessionTTL, c.SessionTTLSeconds)
	}

	if err := validateHTTPURL(c.IndexURL); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidIndexURL, err)
	}

	if c.Collection == "" || strings.ContainsAny(c.Collection, "/ ") {
		return fmt.Errorf("%w: %q", ErrInvalidCollection, c.Collection)
	}

	if u, err := url.Parse(c.RedisURL); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRedisURL, err)
	} else if u.Scheme != "redis" && u.Scheme != "rediss" {
		return fmt.Errorf("%w: scheme must be redis:// or rediss://, got %q", ErrInvalidRedisURL, u.Scheme)
	}

	if c.AuditEnabled() {
		if c.PostgresPort < 1 || c.PostgresPort > 65535 {
			return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
		}
	}

	return nil
}

// validateHTTPURL checks that s is an absolute http(s) URL with a host.
func validateHTTPURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
