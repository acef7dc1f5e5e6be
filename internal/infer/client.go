// Package infer talks to a remote natural-language inference service and
// turns its responses into intents. The service is an opaque black box:
// unreachability, malformed output, and timeouts are first-class outcomes
// here, never raw transport errors.
package infer

import (
	"context"
	"strings"

	"github.com/nlcmd/nlcmd/internal/config"
)

// Client is a request/response inference capability. Implementations send
// the system instruction and user text to one provider and return the raw
// textual response.
type Client interface {
	Infer(ctx context.Context, system, user string) (string, error)
}

// NewFromConfig builds the configured backend client and wraps it as a
// model strategy. apiKey applies to the OpenAI-compatible backend only;
// Bedrock uses the AWS credential chain.
func NewFromConfig(ctx context.Context, mc config.ModelConfig, apiKey string) (*ModelStrategy, error) {
	var client Client
	switch mc.Backend {
	case "bedrock":
		c, err := NewBedrockClient(ctx, BedrockConfig{
			Region:    mc.Region,
			Model:     mc.Model,
			MaxTokens: mc.MaxTokens,
		})
		if err != nil {
			return nil, err
		}
		client = c
	default:
		client = &OpenAIClient{
			Endpoint:  mc.Endpoint,
			APIKey:    apiKey,
			Model:     mc.Model,
			MaxTokens: mc.MaxTokens,
		}
	}

	return NewModelStrategy(client,
		WithTimeout(mc.Timeout.Std()),
		WithRetries(mc.Retries),
		WithBackoff(mc.RetryBackoff.Std()),
	), nil
}

// cleanResponse strips markdown fences and surrounding whitespace that some
// models wrap around JSON output.
func cleanResponse(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
