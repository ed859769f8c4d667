package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"arbiter-hq/arbiter/pkg/enforce/source"
)

var rulesFlags struct {
	file string
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and lint enforcement rules",
}

var rulesLintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Lint a rules file",
	Long: `Parse a rules file and report structural problems: unknown decision
kinds, malformed predicates, duplicate or reserved rule IDs.

Examples:
  # Lint a rules file
  arbiter rules lint --file rules.yaml`,
	RunE: lintRules,
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules in evaluation order",
	Long: `Print the rules of a file (or the built-in set) in the order the
engine evaluates them.

Examples:
  # List the built-in rules
  arbiter rules list

  # List rules from a file
  arbiter rules list --file rules.yaml`,
	RunE: listRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesLintCmd)
	rulesCmd.AddCommand(rulesListCmd)

	rulesCmd.PersistentFlags().StringVarP(&rulesFlags.file, "file", "f", "", "rules file path (built-in rules when empty)")
}

func lintRules(cmd *cobra.Command, args []string) error {
	if rulesFlags.file == "" {
		return fmt.Errorf("--file is required")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	rules, err := source.NewFileSource(rulesFlags.file, logger).Load()
	if err != nil {
		return err
	}

	fmt.Printf("✓ %s: %d rules, no problems found\n", rulesFlags.file, rules.Len())
	return nil
}

func listRules(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	rules, err := source.LoadOrDefault(rulesFlags.file, logger)
	if err != nil {
		return err
	}

	for i, rule := range rules.Rules() {
		fmt.Printf("%2d. %-12s %-14s -> %s\n", i+1, rule.ID, rule.Source, rule.Decision)
		if verbose && rule.Reasoning != "" {
			fmt.Printf("    %s\n", rule.Reasoning)
		}
	}
	return nil
}
