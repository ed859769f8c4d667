package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"arbiter-hq/arbiter/pkg/config"
	"arbiter-hq/arbiter/pkg/provenance/lineage"
)

var verifyFlags struct {
	traceID string
	format  string
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a recorded trace",
	Long: `Read the event chain for a trace from the configured ledger backend
and re-verify every link: sequence contiguity, predecessor hashes, content
hashes, and HMAC signatures.

The command exits non-zero when the chain is broken, so it can be used
from scripts and CI.

Examples:
  # Verify a trace against the configured ledger
  arbiter verify --trace-id case-123

  # Emit the full report as JSON
  arbiter verify --trace-id case-123 --format json`,
	RunE: verifyTrace,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&verifyFlags.traceID, "trace-id", "", "trace to verify (required)")
	verifyCmd.Flags().StringVar(&verifyFlags.format, "format", "text", "output format: text, json")
	_ = verifyCmd.MarkFlagRequired("trace-id")
}

func verifyTrace(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	sgn, err := buildSigner(&cfg.Signing)
	if err != nil {
		return err
	}

	store, err := buildLedgerStore(&cfg.Ledger)
	if err != nil {
		return err
	}
	defer store.Close()

	svc, err := lineage.NewService(store, sgn, logger)
	if err != nil {
		return fmt.Errorf("failed to create lineage service: %w", err)
	}

	report, err := svc.Verify(context.Background(), verifyFlags.traceID)
	if err != nil {
		return err
	}

	if verifyFlags.format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printReport(report)
	}

	if !report.Valid {
		return fmt.Errorf("trace %q is broken at event %d: %s", report.TraceID, report.BrokenAt, report.Reason)
	}
	return nil
}

func printReport(report *lineage.Report) {
	fmt.Printf("Trace:  %s\n", report.TraceID)
	fmt.Printf("Events: %d\n", len(report.Events))
	if report.Valid {
		fmt.Println("Status: ✓ valid")
		return
	}
	fmt.Printf("Status: ✗ broken at event %d\n", report.BrokenAt)
	fmt.Printf("Reason: %s\n", report.Reason)
}
