package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nlcmd/nlcmd/internal/config"
	"github.com/nlcmd/nlcmd/internal/policy"
)

var checkPolicy string

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkPolicy, "policy", "", "Path to extra policy rules YAML")
}

var checkCmd = &cobra.Command{
	Use:   "check [flags] -- <command line>",
	Short: "Evaluate a raw command line against the safety policy",
	Long: "Checks the command line against the blacklist without resolving or\n" +
		"executing anything. Exit code 77 indicates a policy block.",
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	policyPath := checkPolicy
	if policyPath == "" {
		policyPath = cfg.PolicyPath
	}
	pol, err := policy.Load(policyPath)
	if err != nil {
		return err
	}

	verdict := pol.Evaluate(strings.Join(args, " "))
	out, _ := json.MarshalIndent(verdict, "", "  ")
	fmt.Println(string(out))

	if !verdict.Allowed {
		os.Exit(77)
	}
	return nil
}
