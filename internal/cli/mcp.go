package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nlcmd/nlcmd/internal/config"
	"github.com/nlcmd/nlcmd/internal/mcpserver"
	"github.com/nlcmd/nlcmd/internal/platform"
)

var (
	mcpOS     string
	mcpPolicy string
)

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&mcpOS, "os", "", "Target OS family (windows|linux|macos, default: host)")
	mcpCmd.Flags().StringVar(&mcpPolicy, "policy", "", "Path to extra policy rules YAML")
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP tool server for agent integration",
	Long: "Runs nlcmd as an MCP (Model Context Protocol) server over stdio.\n" +
		"Exposes the tools: nlcmd_run, nlcmd_check. The policy file is\n" +
		"hot-reloaded when it changes on disk.",
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	family, err := platform.ParseFamily(mcpOS)
	if err != nil {
		return err
	}

	policyPath := mcpPolicy
	if policyPath == "" {
		policyPath = cfg.PolicyPath
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv, err := mcpserver.New(ctx, mcpserver.Config{
		Config:     cfg,
		PolicyPath: policyPath,
		Platform:   family,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer srv.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down MCP server...")
		cancel()
	}()

	if policyPath != "" {
		reloader, err := mcpserver.NewReloader(srv, []string{policyPath})
		if err != nil {
			fmt.Fprintf(os.Stderr, "hot-reload disabled: %v\n", err)
		} else {
			go reloader.Run(ctx)
		}
	}

	fmt.Fprintln(os.Stderr, "nlcmd MCP server running on stdio")
	return srv.Run(ctx)
}
