// Package pipeline wires the stages of one turn together: intent
// resolution, platform command lookup, safety evaluation, and execution.
// A turn always produces a Turn value; malformed input is an outcome,
// never an error or a panic.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nlcmd/nlcmd/internal/audit"
	"github.com/nlcmd/nlcmd/internal/executor"
	"github.com/nlcmd/nlcmd/internal/intent"
	"github.com/nlcmd/nlcmd/internal/platform"
	"github.com/nlcmd/nlcmd/internal/policy"
)

// Outcome is the terminal state of one turn.
type Outcome string

const (
	OutcomeSuccess    Outcome = "success"
	OutcomeFailure    Outcome = "failure"
	OutcomeTimeout    Outcome = "timeout"
	OutcomeBlocked    Outcome = "blocked"
	OutcomeUnresolved Outcome = "unresolved"
)

// Request is one user turn.
type Request struct {
	// Text is the raw natural-language input.
	Text string
	// Platform selects the command table column. Zero value means the
	// detected host family.
	Platform platform.Family
	// DryRun stops after the safety verdict; nothing is executed.
	DryRun bool
}

// Turn is the full record of processing one Request. Later stages stay nil
// when an earlier stage ended the turn.
type Turn struct {
	Text     string           `json:"text"`
	Intent   intent.Intent    `json:"intent"`
	Source   intent.Source    `json:"source,omitempty"`
	Platform platform.Family  `json:"platform"`
	Command  string           `json:"command,omitempty"`
	Verdict  *policy.Verdict  `json:"verdict,omitempty"`
	Exec     *executor.Result `json:"exec,omitempty"`
	Outcome  Outcome          `json:"outcome"`
	Reason   string           `json:"reason,omitempty"`
}

// Runner abstracts the executor so tests can assert a command was never
// spawned.
type Runner interface {
	Run(ctx context.Context, cmdline string) *executor.Result
}

// Pipeline holds the per-process collaborators. Immutable after New.
type Pipeline struct {
	strategies []intent.Strategy
	table      *platform.Table
	policy     *policy.Policy
	runner     Runner
	auditLog   *audit.Log
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithAudit records every turn to the given log.
func WithAudit(log *audit.Log) Option {
	return func(p *Pipeline) { p.auditLog = log }
}

// New builds a Pipeline. Strategies run in order; the last one should be
// the pattern matcher, which cannot fail.
func New(strategies []intent.Strategy, table *platform.Table, pol *policy.Policy, runner Runner, opts ...Option) *Pipeline {
	p := &Pipeline{
		strategies: strategies,
		table:      table,
		policy:     pol,
		runner:     runner,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run processes one turn end to end. It never returns a nil Turn.
func (p *Pipeline) Run(ctx context.Context, req Request) *Turn {
	turn := &Turn{
		Text:     req.Text,
		Intent:   intent.NewUnknown(),
		Platform: req.Platform,
		Outcome:  OutcomeUnresolved,
	}
	if turn.Platform == "" {
		turn.Platform = platform.Detect()
	}

	if strings.TrimSpace(req.Text) == "" {
		turn.Reason = "empty input"
		p.record(turn)
		return turn
	}

	in, source, err := p.resolveIntent(ctx, req.Text)
	if err != nil {
		turn.Reason = err.Error()
		p.record(turn)
		return turn
	}
	turn.Intent = in
	turn.Source = source

	if in.Category == intent.Unknown {
		turn.Reason = "could not understand the request"
		p.record(turn)
		return turn
	}

	cmd, err := p.table.Resolve(in, turn.Platform)
	if err != nil {
		var missing *platform.MissingParamError
		if errors.As(err, &missing) {
			turn.Reason = missing.Error()
		} else {
			turn.Reason = fmt.Sprintf("cannot resolve command: %v", err)
		}
		p.record(turn)
		return turn
	}
	turn.Command = cmd

	template, _ := p.table.Template(in.Category, turn.Platform)
	verdict := p.policy.EvaluateResolved(cmd, template)
	turn.Verdict = &verdict

	if !verdict.Allowed {
		turn.Outcome = OutcomeBlocked
		turn.Reason = verdict.Reason
		p.record(turn)
		return turn
	}

	if req.DryRun {
		turn.Outcome = OutcomeSuccess
		p.record(turn)
		return turn
	}

	res := p.runner.Run(ctx, cmd)
	turn.Exec = res
	switch res.Outcome {
	case executor.OutcomeSuccess:
		turn.Outcome = OutcomeSuccess
	case executor.OutcomeTimeout:
		turn.Outcome = OutcomeTimeout
	default:
		turn.Outcome = OutcomeFailure
		turn.Reason = res.Err
	}

	p.record(turn)
	return turn
}

// resolveIntent walks the strategy chain. A strategy that returns
// *intent.UnavailableError hands the turn to the next one; any intent it
// does return, unknown included, is adopted.
func (p *Pipeline) resolveIntent(ctx context.Context, text string) (intent.Intent, intent.Source, error) {
	var lastErr error
	for _, s := range p.strategies {
		in, err := s.Resolve(ctx, text)
		if err == nil {
			return in, s.Name(), nil
		}
		var unavailable *intent.UnavailableError
		if errors.As(err, &unavailable) {
			lastErr = err
			continue
		}
		return intent.NewUnknown(), "", err
	}
	if lastErr != nil {
		return intent.NewUnknown(), "", fmt.Errorf("no strategy available: %w", lastErr)
	}
	return intent.NewUnknown(), "", fmt.Errorf("no intent strategies configured")
}

func (p *Pipeline) record(turn *Turn) {
	if p.auditLog == nil {
		return
	}

	entry := audit.Entry{
		Text:     turn.Text,
		Category: string(turn.Intent.Category),
		Source:   string(turn.Source),
		Platform: string(turn.Platform),
		Command:  turn.Command,
		Outcome:  string(turn.Outcome),
	}
	if turn.Verdict != nil {
		entry.Allowed = turn.Verdict.Allowed
		entry.Rule = turn.Verdict.MatchedRule
	}
	if turn.Exec != nil {
		entry.ExitCode = turn.Exec.ExitCode
		entry.DurationMS = turn.Exec.Duration.Milliseconds()
	}

	// Auditing is best-effort; a write failure must not change the turn.
	_ = p.auditLog.Record(entry)
}
