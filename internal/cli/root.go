package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "nlcmd",
	Short: "Natural language to OS commands, behind a safety policy",
	Long: "Turns plain-English requests into OS commands, checks every resolved\n" +
		"command against a safety policy, and executes the allowed ones with a\n" +
		"hard timeout. Exit code 77 indicates a policy block.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to config YAML (default: ~/.nlcmd/config.yaml)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
