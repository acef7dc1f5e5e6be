// Package mcpserver exposes the nlcmd pipeline as MCP tools over stdio, so
// agents can turn natural language into policy-checked commands without a
// network listener.
package mcpserver

import (
	"context"
	"fmt"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nlcmd/nlcmd/internal/audit"
	"github.com/nlcmd/nlcmd/internal/config"
	"github.com/nlcmd/nlcmd/internal/executor"
	"github.com/nlcmd/nlcmd/internal/infer"
	"github.com/nlcmd/nlcmd/internal/intent"
	"github.com/nlcmd/nlcmd/internal/pipeline"
	"github.com/nlcmd/nlcmd/internal/platform"
	"github.com/nlcmd/nlcmd/internal/policy"
)

// Config holds MCP server configuration.
type Config struct {
	Config     config.Config
	PolicyPath string
	Platform   platform.Family
}

// Server wraps the MCP SDK server around the nlcmd pipeline. The pipeline
// is rebuilt on policy hot-reload; everything else is fixed at startup.
type Server struct {
	mcpServer  *mcpsdk.Server
	cfg        config.Config
	policyPath string
	family     platform.Family
	table      *platform.Table
	strategies []intent.Strategy
	runner     pipeline.Runner
	auditLog   *audit.Log

	mu   sync.Mutex
	pipe *pipeline.Pipeline
}

// New creates an MCP server with loaded policy, command table, and tools.
func New(ctx context.Context, cfg Config) (*Server, error) {
	table := platform.NewTable()
	if err := table.Validate(); err != nil {
		return nil, err
	}

	var strategies []intent.Strategy
	if cfg.Config.Model.Enabled {
		model, err := infer.NewFromConfig(ctx, cfg.Config.Model, config.APIKey())
		if err != nil {
			return nil, fmt.Errorf("failed to build model strategy: %w", err)
		}
		strategies = append(strategies, model)
	}
	strategies = append(strategies, intent.NewPatternMatcher())

	runner := executor.New(
		executor.WithTimeout(cfg.Config.Exec.Timeout.Std()),
		executor.WithMaxOutput(cfg.Config.Exec.MaxOutputBytes),
	)

	var auditLog *audit.Log
	if cfg.Config.AuditLog != "" {
		var err error
		auditLog, err = audit.Open(cfg.Config.AuditLog)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit log: %w", err)
		}
	}

	family := cfg.Platform
	if family == "" {
		family = platform.Detect()
	}

	s := &Server{
		cfg:        cfg.Config,
		policyPath: cfg.PolicyPath,
		family:     family,
		table:      table,
		strategies: strategies,
		runner:     runner,
		auditLog:   auditLog,
	}
	if err := s.ReloadPolicy(); err != nil {
		return nil, err
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "nlcmd",
			Version: "0.1.0",
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Close closes the audit log if configured.
func (s *Server) Close() error {
	if s.auditLog != nil {
		return s.auditLog.Close()
	}
	return nil
}

// ReloadPolicy reloads the extra rules file and rebuilds the pipeline.
func (s *Server) ReloadPolicy() error {
	pol, err := policy.Load(s.policyPath)
	if err != nil {
		return fmt.Errorf("failed to load policy: %w", err)
	}

	var opts []pipeline.Option
	if s.auditLog != nil {
		opts = append(opts, pipeline.WithAudit(s.auditLog))
	}

	s.mu.Lock()
	s.pipe = pipeline.New(s.strategies, s.table, pol, s.runner, opts...)
	s.mu.Unlock()
	return nil
}

func (s *Server) pipeline() *pipeline.Pipeline {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipe
}

// registerTools adds the nlcmd tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "nlcmd_run",
		Description: "Turn a natural-language request into an OS command, check it against the safety policy, and execute it. Blocked commands return an error with the reason.",
	}, s.handleRun)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "nlcmd_check",
		Description: "Resolve a natural-language request to an OS command and report the safety verdict without executing it (dry-run).",
	}, s.handleCheck)
}
