package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nlcmd/nlcmd/internal/pipeline"
)

var (
	runOS      string
	runPolicy  string
	runDryRun  bool
	runJSON    bool
	runModel   bool
	runNoModel bool
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runOS, "os", "", "Target OS family (windows|linux|macos, default: host)")
	runCmd.Flags().StringVar(&runPolicy, "policy", "", "Path to extra policy rules YAML")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Resolve and check without executing")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Print the full turn as JSON")
	runCmd.Flags().BoolVar(&runModel, "model", false, "Force the model strategy on")
	runCmd.Flags().BoolVar(&runNoModel, "no-model", false, "Force the model strategy off")
}

var runCmd = &cobra.Command{
	Use:   "run [flags] -- <request...>",
	Short: "Turn a natural-language request into a command and run it",
	Long: "Resolves the request to an OS command, evaluates it against the safety\n" +
		"policy, and executes it when allowed. Blocked commands are not executed.\n" +
		"Exit code 77 indicates a policy block.",
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	a, err := newApp(ctx, appOptions{
		policyPath:    runPolicy,
		osName:        runOS,
		modelOverride: modelOverride(),
	})
	if err != nil {
		return err
	}
	defer a.close()

	turn := a.pipe.Run(ctx, pipeline.Request{
		Text:     strings.Join(args, " "),
		Platform: a.family,
		DryRun:   runDryRun,
	})

	if runJSON {
		out, _ := json.MarshalIndent(turn, "", "  ")
		fmt.Println(string(out))
	} else {
		printTurn(turn, runDryRun)
	}

	if code := turnExitCode(turn); code != 0 {
		// os.Exit skips deferred calls; release the audit log first.
		a.close()
		os.Exit(code)
	}
	return nil
}

// modelOverride folds the --model/--no-model pair into a tri-state.
func modelOverride() *bool {
	if runModel {
		t := true
		return &t
	}
	if runNoModel {
		f := false
		return &f
	}
	return nil
}

// printTurn writes the human-readable form of a turn. Command output goes
// to stdout; everything about the turn itself goes to stderr.
func printTurn(turn *pipeline.Turn, dryRun bool) {
	switch turn.Outcome {
	case pipeline.OutcomeUnresolved:
		fmt.Fprintf(os.Stderr, "could not resolve request: %s\n", turn.Reason)

	case pipeline.OutcomeBlocked:
		fmt.Fprintf(os.Stderr, "blocked by rule %s: %s\n", turn.Verdict.MatchedRule, turn.Verdict.Reason)
		fmt.Fprintf(os.Stderr, "command was: %s\n", turn.Command)

	default:
		fmt.Fprintf(os.Stderr, "$ %s  [%s]\n", turn.Command, turn.Source)
		if dryRun {
			fmt.Fprintln(os.Stderr, "dry-run: allowed, not executed")
			return
		}
		if turn.Exec == nil {
			return
		}
		if turn.Exec.Stdout != "" {
			fmt.Println(turn.Exec.Stdout)
		}
		if turn.Exec.Stderr != "" {
			fmt.Fprintln(os.Stderr, turn.Exec.Stderr)
		}
		if turn.Outcome != pipeline.OutcomeSuccess {
			fmt.Fprintf(os.Stderr, "%s\n", turn.Exec.Err)
		}
	}
}

// turnExitCode maps a turn outcome to the process exit code.
func turnExitCode(turn *pipeline.Turn) int {
	switch turn.Outcome {
	case pipeline.OutcomeSuccess:
		return 0
	case pipeline.OutcomeBlocked:
		return 77
	case pipeline.OutcomeFailure:
		if turn.Exec != nil && turn.Exec.ExitCode > 0 {
			return turn.Exec.ExitCode
		}
		return 1
	default:
		return 1
	}
}
