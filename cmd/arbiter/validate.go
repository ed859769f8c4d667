package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"arbiter-hq/arbiter/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load a configuration file, apply defaults and environment overrides,
and report any validation errors.

Examples:
  # Validate the default config
  arbiter validate

  # Validate a specific file
  arbiter validate --config /etc/arbiter/config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return err
	}

	fmt.Println("✓ Configuration valid")
	if verbose {
		fmt.Printf("  server:  %s\n", cfg.Server.ListenAddress)
		fmt.Printf("  ledger:  %s\n", cfg.Ledger.Backend)
		fmt.Printf("  nonce:   %s (mode: %s, ttl: %s)\n", cfg.Nonce.Backend, cfg.Nonce.Mode, cfg.Nonce.TTL)
		fmt.Printf("  signing: key id %q, %d retired key(s)\n", cfg.Signing.ActiveKeyID, len(cfg.Signing.RetiredKeys))
	}
	return nil
}
