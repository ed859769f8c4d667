package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"arbiter-hq/arbiter/pkg/config"
	"arbiter-hq/arbiter/pkg/enforce"
	"arbiter-hq/arbiter/pkg/enforce/source"
	"arbiter-hq/arbiter/pkg/gateway"
	"arbiter-hq/arbiter/pkg/nonce"
	"arbiter-hq/arbiter/pkg/provenance"
	"arbiter-hq/arbiter/pkg/provenance/ledger"
	"arbiter-hq/arbiter/pkg/provenance/lineage"
	"arbiter-hq/arbiter/pkg/provenance/signer"
	"arbiter-hq/arbiter/pkg/provenance/storage"
	"arbiter-hq/arbiter/pkg/server"
	"arbiter-hq/arbiter/pkg/telemetry/logging"
	"arbiter-hq/arbiter/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Arbiter server",
	Long: `Start the Arbiter server with the specified configuration.

The server exposes the decision, nonce, and trace endpoints and records
every decision in the provenance ledger.

Examples:
  # Start with default config
  arbiter run

  # Start with custom config
  arbiter run --config /etc/arbiter/config.yaml

  # Override listen address
  arbiter run --listen 0.0.0.0:8085

  # Validate config without starting the server
  arbiter run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return err
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	var m *metrics.Metrics
	if cfg.Telemetry.Metrics.Enabled {
		m = metrics.New()
	}

	// Signing key ring
	sgn, err := buildSigner(&cfg.Signing)
	if err != nil {
		return err
	}

	// Ledger store
	ledgerStore, err := buildLedgerStore(&cfg.Ledger)
	if err != nil {
		return err
	}
	defer ledgerStore.Close()

	led, err := ledger.New(ledgerStore, sgn, logger)
	if err != nil {
		return fmt.Errorf("failed to create ledger: %w", err)
	}

	lin, err := lineage.NewService(ledgerStore, sgn, logger)
	if err != nil {
		return fmt.Errorf("failed to create lineage service: %w", err)
	}

	// Replay protection
	nonceStore, err := buildNonceStore(&cfg.Nonce)
	if err != nil {
		return err
	}
	nonceManager := nonce.NewManager(nonceStore, &nonce.Config{
		TTL:            cfg.Nonce.TTL,
		RetainConsumed: cfg.Nonce.RetainConsumed,
		SweepSchedule:  cfg.Nonce.SweepSchedule,
	}, logger)
	defer nonceManager.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Nonce.SweepEnabled {
		sweeper := nonce.NewSweeper(nonceManager)
		if err := sweeper.Start(ctx); err != nil {
			slog.Warn("failed to start nonce sweeper", "error", err)
		} else {
			defer sweeper.Stop()
		}
	}

	// Rule set and engine
	rules, err := source.LoadOrDefault(cfg.Policy.FilePath, logger)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}
	engine := enforce.NewEngine(rules, logger)

	if cfg.Policy.Watch && cfg.Policy.FilePath != "" {
		watcher, err := source.NewWatcher(cfg.Policy.FilePath, cfg.Policy.WatchDebounce, logger)
		if err != nil {
			slog.Warn("failed to start rules watcher", "error", err)
		} else {
			fileSource := source.NewFileSource(cfg.Policy.FilePath, logger)
			go func() {
				err := watcher.Watch(ctx, func() error {
					reloaded, err := fileSource.Load()
					if err != nil {
						return err
					}
					return engine.Reload(reloaded)
				})
				if err != nil {
					slog.Warn("rules watcher stopped", "error", err)
				}
			}()
		}
	}

	gw, err := gateway.New(engine, nonceManager, led, lin, &gateway.Config{
		NonceMode: gateway.NonceMode(cfg.Nonce.Mode),
	}, m, logger)
	if err != nil {
		return fmt.Errorf("failed to create gateway: %w", err)
	}

	printBanner(cfg, rules)

	srv, err := server.New(&cfg.Server, &cfg.Telemetry.Metrics, gw, m, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// Start blocks until signal or context cancellation and shuts down
	// gracefully on its own.
	return srv.Start(ctx)
}

// buildSigner assembles the key ring from configuration.
func buildSigner(cfg *config.SigningConfig) (*signer.Signer, error) {
	active := signer.Key{ID: cfg.ActiveKeyID, Secret: []byte(cfg.Secret)}
	retired := make([]signer.Key, 0, len(cfg.RetiredKeys))
	for _, k := range cfg.RetiredKeys {
		retired = append(retired, signer.Key{ID: k.ID, Secret: []byte(k.Secret)})
	}

	sgn, err := signer.New(active, retired...)
	if err != nil {
		return nil, fmt.Errorf("failed to create signer: %w", err)
	}
	return sgn, nil
}

// buildLedgerStore creates the configured ledger backend.
func buildLedgerStore(cfg *config.LedgerConfig) (provenance.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		store, err := storage.NewSQLiteStore(&storage.SQLiteConfig{
			Path:         cfg.SQLitePath,
			MaxOpenConns: cfg.SQLiteMaxOpenConns,
			MaxIdleConns: cfg.SQLiteMaxIdleConns,
			WALMode:      cfg.SQLiteWALMode,
			BusyTimeout:  cfg.SQLiteBusyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite ledger store: %w", err)
		}
		return store, nil
	case "memory":
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported ledger backend: %s", cfg.Backend)
	}
}

// buildNonceStore creates the configured nonce backend.
func buildNonceStore(cfg *config.NonceConfig) (nonce.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		store, err := nonce.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite nonce store: %w", err)
		}
		return store, nil
	case "memory":
		return nonce.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported nonce backend: %s", cfg.Backend)
	}
}

// printBanner prints a startup summary to stdout.
func printBanner(cfg *config.Config, rules *enforce.RuleSet) {
	fmt.Printf("Arbiter %s\n", Version)
	fmt.Printf("✓ Rules loaded (%d rules)\n", rules.Len())
	fmt.Printf("✓ Ledger backend: %s\n", cfg.Ledger.Backend)
	fmt.Printf("✓ Nonce backend: %s (mode: %s)\n", cfg.Nonce.Backend, cfg.Nonce.Mode)
	fmt.Printf("✓ Listening on %s\n", cfg.Server.ListenAddress)
	fmt.Println("\nPress Ctrl+C to stop")
}
