// Package llm provides the generation client: retrieved context plus the
// user query in, a single non-streaming completion out.
//
// Failures surface as typed errors wrapping ErrGeneration so callers can
// decide between propagating and degrading, never as a placeholder string
// indistinguishable from a real answer.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/newsrag/newsrag/internal/genai"
	"github.com/newsrag/newsrag/internal/log"
)

// ErrGeneration indicates the completion service failed.
var ErrGeneration = errors.New("generation failed")

// DefaultTimeout bounds a single completion call.
const DefaultTimeout = 60 * time.Second

// Client requests completions from the configured Gemini model.
//
// Client is safe for concurrent use by multiple goroutines.
type Client struct {
	runtime *genai.Runtime
	model   string // provider-qualified, e.g. "googleai/gemini-2.5-flash"
	timeout time.Duration
	logger  log.Logger
}

// New creates a Client. model must be provider-qualified
// (config.FullModelName). A non-positive timeout falls back to DefaultTimeout.
func New(runtime *genai.Runtime, model string, timeout time.Duration, logger log.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Client{runtime: runtime, model: model, timeout: timeout, logger: logger}
}

// Prompt assembles the single completion prompt: context passages joined by
// newlines, followed by the question.
func Prompt(passages []string, query string) string {
	return fmt.Sprintf(
		"Use the following context to answer the question.\n\nContext: %s\n\nQuestion: %s",
		strings.Join(passages, "\n"), query)
}

// Generate requests one completion for the query conditioned on the given
// context passages.
func (c *Client) Generate(ctx context.Context, passages []string, query string) (string, error) {
	g, err := c.runtime.Genkit(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := genkit.Generate(ctx, g,
		ai.WithModelName(c.model),
		ai.WithPrompt(Prompt(passages, query)),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%w: model returned no text", ErrGeneration)
	}

	c.logger.Debug("completion generated", "model", c.model, "passages", len(passages), "response_len", len(text))
	return text, nil
}
