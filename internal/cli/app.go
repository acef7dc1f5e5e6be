package cli

import (
	"context"
	"fmt"

	"github.com/nlcmd/nlcmd/internal/audit"
	"github.com/nlcmd/nlcmd/internal/config"
	"github.com/nlcmd/nlcmd/internal/executor"
	"github.com/nlcmd/nlcmd/internal/infer"
	"github.com/nlcmd/nlcmd/internal/intent"
	"github.com/nlcmd/nlcmd/internal/pipeline"
	"github.com/nlcmd/nlcmd/internal/platform"
	"github.com/nlcmd/nlcmd/internal/policy"
)

// app bundles the per-invocation collaborators the subcommands share.
type app struct {
	cfg      config.Config
	pipe     *pipeline.Pipeline
	auditLog *audit.Log
	family   platform.Family
}

// appOptions carries the flag overrides a subcommand applies on top of the
// config file.
type appOptions struct {
	policyPath string
	osName     string
	// modelOverride forces the model strategy on or off; nil means follow
	// the config file.
	modelOverride *bool
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	family, err := platform.ParseFamily(opts.osName)
	if err != nil {
		return nil, err
	}

	table := platform.NewTable()
	if err := table.Validate(); err != nil {
		return nil, err
	}

	policyPath := opts.policyPath
	if policyPath == "" {
		policyPath = cfg.PolicyPath
	}
	pol, err := policy.Load(policyPath)
	if err != nil {
		return nil, err
	}

	modelEnabled := cfg.Model.Enabled
	if opts.modelOverride != nil {
		modelEnabled = *opts.modelOverride
	}

	var strategies []intent.Strategy
	if modelEnabled {
		model, err := infer.NewFromConfig(ctx, cfg.Model, config.APIKey())
		if err != nil {
			return nil, fmt.Errorf("failed to build model strategy: %w", err)
		}
		strategies = append(strategies, model)
	}
	strategies = append(strategies, intent.NewPatternMatcher())

	runner := executor.New(
		executor.WithTimeout(cfg.Exec.Timeout.Std()),
		executor.WithMaxOutput(cfg.Exec.MaxOutputBytes),
	)

	var pipeOpts []pipeline.Option
	var auditLog *audit.Log
	if cfg.AuditLog != "" {
		auditLog, err = audit.Open(cfg.AuditLog)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit log: %w", err)
		}
		pipeOpts = append(pipeOpts, pipeline.WithAudit(auditLog))
	}

	return &app{
		cfg:      cfg,
		pipe:     pipeline.New(strategies, table, pol, runner, pipeOpts...),
		auditLog: auditLog,
		family:   family,
	}, nil
}

// close is idempotent: subcommands that terminate via os.Exit call it
// explicitly, and the deferred call then becomes a no-op.
func (a *app) close() {
	if a.auditLog != nil {
		a.auditLog.Close()
		a.auditLog = nil
	}
}
