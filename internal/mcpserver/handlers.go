package mcpserver

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nlcmd/nlcmd/internal/pipeline"
	"github.com/nlcmd/nlcmd/internal/platform"
)

// RunInput defines parameters for the nlcmd_run tool.
type RunInput struct {
	Text   string `json:"text" jsonschema:"natural-language request"`
	OS     string `json:"os,omitempty" jsonschema:"target OS family (windows/linux/macos), default host"`
	DryRun bool   `json:"dry_run,omitempty" jsonschema:"resolve and check without executing"`
}

// RunOutput contains the turn result or block details.
type RunOutput struct {
	Category string `json:"category"`
	Source   string `json:"source,omitempty"`
	Command  string `json:"command,omitempty"`
	Outcome  string `json:"outcome"`
	Blocked  bool   `json:"blocked,omitempty"`
	Rule     string `json:"rule,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Stdout   string `json:"stdout,omitempty"`
	Stderr   string `json:"stderr,omitempty"`
	ExitCode int    `json:"exit_code,omitempty"`
}

// CheckInput defines parameters for the nlcmd_check tool.
type CheckInput struct {
	Text string `json:"text" jsonschema:"natural-language request"`
	OS   string `json:"os,omitempty" jsonschema:"target OS family (windows/linux/macos), default host"`
}

// CheckOutput contains the resolved command and the safety verdict.
type CheckOutput struct {
	Category string `json:"category"`
	Source   string `json:"source,omitempty"`
	Command  string `json:"command,omitempty"`
	Allowed  bool   `json:"allowed"`
	Rule     string `json:"rule,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

func (s *Server) handleRun(ctx context.Context, req *mcpsdk.CallToolRequest, input RunInput) (*mcpsdk.CallToolResult, RunOutput, error) {
	family, err := platform.ParseFamily(input.OS)
	if err != nil {
		return nil, RunOutput{}, err
	}
	if input.OS == "" {
		family = s.family
	}

	turn := s.pipeline().Run(ctx, pipeline.Request{
		Text:     input.Text,
		Platform: family,
		DryRun:   input.DryRun,
	})

	out := RunOutput{
		Category: string(turn.Intent.Category),
		Source:   string(turn.Source),
		Command:  turn.Command,
		Outcome:  string(turn.Outcome),
		Reason:   turn.Reason,
	}
	if turn.Verdict != nil {
		out.Rule = turn.Verdict.MatchedRule
	}
	if turn.Exec != nil {
		out.Stdout = turn.Exec.Stdout
		out.Stderr = turn.Exec.Stderr
		out.ExitCode = turn.Exec.ExitCode
	}

	if turn.Outcome == pipeline.OutcomeBlocked {
		out.Blocked = true
		return &mcpsdk.CallToolResult{IsError: true}, out, nil
	}
	return nil, out, nil
}

func (s *Server) handleCheck(ctx context.Context, req *mcpsdk.CallToolRequest, input CheckInput) (*mcpsdk.CallToolResult, CheckOutput, error) {
	family, err := platform.ParseFamily(input.OS)
	if err != nil {
		return nil, CheckOutput{}, err
	}
	if input.OS == "" {
		family = s.family
	}

	turn := s.pipeline().Run(ctx, pipeline.Request{
		Text:     input.Text,
		Platform: family,
		DryRun:   true,
	})

	out := CheckOutput{
		Category: string(turn.Intent.Category),
		Source:   string(turn.Source),
		Command:  turn.Command,
		Reason:   turn.Reason,
	}
	if turn.Verdict != nil {
		out.Allowed = turn.Verdict.Allowed
		out.Rule = turn.Verdict.MatchedRule
	}

	if turn.Outcome == pipeline.OutcomeBlocked {
		return &mcpsdk.CallToolResult{IsError: true}, out, nil
	}
	return nil, out, nil
}
