package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nlcmd/nlcmd/internal/pipeline"
)

var (
	replOS      string
	replPolicy  string
	replDryRun  bool
	replModel   bool
	replNoModel bool
)

func init() {
	rootCmd.AddCommand(replCmd)
	replCmd.Flags().StringVar(&replOS, "os", "", "Target OS family (windows|linux|macos, default: host)")
	replCmd.Flags().StringVar(&replPolicy, "policy", "", "Path to extra policy rules YAML")
	replCmd.Flags().BoolVar(&replDryRun, "dry-run", false, "Resolve and check without executing")
	replCmd.Flags().BoolVar(&replModel, "model", false, "Force the model strategy on")
	replCmd.Flags().BoolVar(&replNoModel, "no-model", false, "Force the model strategy off")
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive session: one request per line",
	Long: "Reads natural-language requests line by line, resolves and runs each\n" +
		"one through the safety policy. Type 'help' for examples, 'exit' to quit.",
	RunE: runRepl,
}

func runRepl(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
		fmt.Fprintln(os.Stderr)
	}()

	var override *bool
	if replModel {
		t := true
		override = &t
	} else if replNoModel {
		f := false
		override = &f
	}

	a, err := newApp(ctx, appOptions{
		policyPath:    replPolicy,
		osName:        replOS,
		modelOverride: override,
	})
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Fprintf(os.Stderr, "nlcmd interactive session (os: %s). Type 'help' or 'exit'.\n", a.family)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(os.Stderr, "nlcmd> ")
		if !scanner.Scan() {
			fmt.Fprintln(os.Stderr)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "help":
			printReplHelp()
			continue
		}

		turn := a.pipe.Run(ctx, pipeline.Request{
			Text:     line,
			Platform: a.family,
			DryRun:   replDryRun,
		})
		printTurn(turn, replDryRun)
	}
}

func printReplHelp() {
	fmt.Fprint(os.Stderr, `Describe what you want in plain English. Examples:
  list all files in the current directory
  show me chrome processes
  create a folder called backups
  how much disk space is left
  find files modified in the last day
Commands: help, exit, quit
`)
}
