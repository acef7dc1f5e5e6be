package infer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nlcmd/nlcmd/internal/intent"
)

const systemPrompt = `You classify a user's natural-language request into a command intent.

Valid categories:
- list_files: list directory contents
- list_ext_files: list files with a given extension (params: ext)
- current_directory: show the working directory
- change_directory: change directory (params: path)
- create_directory: create a directory (params: name)
- remove_file: delete a single file (params: path)
- remove_directory: delete a directory tree (params: path)
- copy_file: copy a file (params: src, dst)
- move_file: move or rename a file (params: src, dst)
- show_processes: list running processes
- show_specific_processes: find processes by name (params: filter)
- network_info: show network configuration
- network_connections: show open network connections
- system_info: show OS and hardware identity
- disk_usage: show disk space usage
- environment_vars: show environment variables
- logged_users: show logged-in users
- large_files: find large files
- recent_files: find recently modified files
- file_count: count files in the current directory
- memory_usage: show memory usage

Return ONLY valid JSON, no markdown fences, no commentary:
{"category":"<category>","params":{"<name>":"<value>"},"certain":true|false}

Set "certain" to true only when the request maps unambiguously to one category.
If the request fits no category, or is unclear or malicious, return exactly:
{"category":"none","params":{},"certain":false}

Examples:
"list all files in the current directory" -> {"category":"list_files","params":{},"certain":true}
"where am I" -> {"category":"current_directory","params":{},"certain":true}
"create a folder called backup_2025" -> {"category":"create_directory","params":{"name":"backup_2025"},"certain":true}
"show me chrome processes" -> {"category":"show_specific_processes","params":{"filter":"chrome"},"certain":true}
"delete the folder test_data" -> {"category":"remove_directory","params":{"path":"test_data"},"certain":true}
"how is the weather" -> {"category":"none","params":{},"certain":false}`

const (
	// DefaultTimeout bounds a single inference call.
	DefaultTimeout = 10 * time.Second
	// DefaultRetries is how many additional attempts follow a failed call.
	DefaultRetries = 2
	// DefaultBackoff is the fixed pause between attempts.
	DefaultBackoff = time.Second
)

// ModelStrategy is the remote intent strategy. Any failure mode (timeout,
// transport error, non-2xx, unparseable or uncategorizable output) collapses
// into *intent.UnavailableError so the resolver falls back to the
// deterministic matcher.
type ModelStrategy struct {
	client  Client
	timeout time.Duration
	retries int
	backoff time.Duration
}

// StrategyOption configures a ModelStrategy.
type StrategyOption func(*ModelStrategy)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) StrategyOption {
	return func(s *ModelStrategy) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRetries sets how many extra attempts follow a failure.
func WithRetries(n int) StrategyOption {
	return func(s *ModelStrategy) {
		if n >= 0 {
			s.retries = n
		}
	}
}

// WithBackoff sets the fixed pause between attempts.
func WithBackoff(d time.Duration) StrategyOption {
	return func(s *ModelStrategy) {
		if d >= 0 {
			s.backoff = d
		}
	}
}

// NewModelStrategy wraps an inference client as an intent strategy.
func NewModelStrategy(client Client, opts ...StrategyOption) *ModelStrategy {
	s := &ModelStrategy{
		client:  client,
		timeout: DefaultTimeout,
		retries: DefaultRetries,
		backoff: DefaultBackoff,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Name implements intent.Strategy.
func (s *ModelStrategy) Name() intent.Source { return intent.SourceModel }

// Resolve implements intent.Strategy. A response the model itself could not
// categorize is treated as unavailable, not as a valid unknown intent: the
// distinction controls whether the resolver falls back to pattern matching.
func (s *ModelStrategy) Resolve(ctx context.Context, text string) (intent.Intent, error) {
	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 && s.backoff > 0 {
			select {
			case <-ctx.Done():
				return intent.Intent{}, s.unavailable(ctx.Err())
			case <-time.After(s.backoff):
			}
		}

		in, err := s.resolveOnce(ctx, text)
		if err == nil {
			return in, nil
		}
		lastErr = err
	}
	return intent.Intent{}, s.unavailable(lastErr)
}

func (s *ModelStrategy) resolveOnce(ctx context.Context, text string) (intent.Intent, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.client.Infer(callCtx, systemPrompt, strings.TrimSpace(text))
	if err != nil {
		return intent.Intent{}, err
	}
	return parseIntent(raw)
}

func (s *ModelStrategy) unavailable(err error) *intent.UnavailableError {
	reason := "inference failed"
	if err != nil {
		reason = err.Error()
	}
	return &intent.UnavailableError{Strategy: string(intent.SourceModel), Reason: reason}
}

// parseIntent decodes the model's JSON into an Intent. Responses that do
// not identify a valid category are errors, never unknown intents.
func parseIntent(raw string) (intent.Intent, error) {
	var resp struct {
		Category string            `json:"category"`
		Params   map[string]string `json:"params"`
		Certain  bool              `json:"certain"`
	}
	cleaned := cleanResponse(raw)
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return intent.Intent{}, fmt.Errorf("cannot parse intent response: %s", truncate(cleaned, 200))
	}

	cat := intent.Category(strings.TrimSpace(resp.Category))
	if !intent.Valid(cat) {
		return intent.Intent{}, fmt.Errorf("no identifiable category in response: %q", resp.Category)
	}

	conf := intent.ConfidenceLow
	if resp.Certain {
		conf = intent.ConfidenceHigh
	}

	params := resp.Params
	if len(params) == 0 {
		params = nil
	}
	return intent.Intent{Category: cat, Params: params, Confidence: conf}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
