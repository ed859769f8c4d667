package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "arbiter",
	Short: "Arbiter - policy-gated enforcement engine with provenance",
	Long: `Arbiter is an enforcement decision engine that gates actions behind an
ordered policy rule set and records every verdict in a tamper-evident,
HMAC-signed hash chain.

It provides:
  - Deterministic rule evaluation (ALLOW, SOFT_REDIRECT, BLOCK, ESCALATE)
  - An append-only, per-trace provenance ledger
  - Single-use nonce replay protection
  - Offline lineage verification of any recorded trace`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
