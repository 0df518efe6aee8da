package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"helios-hq/mercury/pkg/config"
	"helios-hq/mercury/pkg/history"
	"helios-hq/mercury/pkg/proxy/handlers"
	"helios-hq/mercury/pkg/race"
	"helios-hq/mercury/pkg/server"
	"helios-hq/mercury/pkg/telemetry/logging"
	"helios-hq/mercury/pkg/telemetry/metrics"
	"helios-hq/mercury/pkg/upstream"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Mercury racing proxy",
	Long: `Start the Mercury proxy server with the specified configuration.

The server accepts GET and HEAD requests, races them across the configured
upstream gateways, and relays the fastest acceptable response.

Examples:
  # Start with default config
  mercury run

  # Start with custom config
  mercury run --config /etc/mercury/config.yaml

  # Override listen address
  mercury run --listen 0.0.0.0:8080

  # Validate config without starting server
  mercury run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, fromFile, err := loadRuntimeConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.Install()

	policy := config.ResolvePolicy(cfg.Race)

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		fmt.Printf("✓ Racing %d endpoints\n", len(policy.Endpoints))
		return nil
	}

	printBanner(cfg, policy, fromFile)

	policies := config.NewPolicyStore(policy)

	pool := upstream.NewPool(policy.KeepAlive)
	defer pool.Close()
	fetcher := upstream.NewFetcher(pool)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var recorders race.MultiRecorder

	// Metrics
	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
		collector.RegisterPoolGauge(pool.Len)
		recorders = append(recorders, collector.Race())
	}

	// Race history
	if cfg.History.Enabled {
		store, err := history.NewStore(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("failed to open history store: %w", err)
		}
		defer store.Close()
		recorders = append(recorders, store)

		scheduler := history.NewScheduler(store, cfg.History)
		if err := scheduler.Start(ctx); err != nil {
			slog.Warn("failed to start retention scheduler", "error", err)
		} else {
			defer scheduler.Stop()
		}
		fmt.Println("✓ History store initialized")
	}

	coordOpts := []race.Option{race.WithLogger(logger.Slog().With("component", "race"))}
	if len(recorders) > 0 {
		coordOpts = append(coordOpts, race.WithRecorder(recorders))
	}
	coordinator := race.New(fetcher, coordOpts...)

	var gatewayOpts []handlers.GatewayOption
	if collector != nil {
		gatewayOpts = append(gatewayOpts, handlers.WithRelayBytesObserver(collector.Race().AddRelayBytes))
	}
	gateway := handlers.NewGatewayHandler(policies, coordinator, gatewayOpts...)

	routes := server.Routes{
		Gateway: gateway,
		Health:  handlers.NewHealthHandler(),
		Ready:   handlers.NewReadyHandler(policies),
	}
	if collector != nil {
		routes.Metrics = collector.Handler()
		routes.MetricsPath = cfg.Telemetry.Metrics.Path
	}

	// Hot reload: configuration file changes swap the race policy in place.
	// Races already in flight finish under the policy they started with.
	if fromFile {
		watcher, err := config.NewWatcher(cfgFile, func(newCfg *config.Config) {
			newPolicy := config.ResolvePolicy(newCfg.Race)
			policies.Swap(newPolicy)
			slog.Info("race policy reloaded", "endpoints", len(newPolicy.Endpoints))
		})
		if err != nil {
			slog.Warn("failed to create configuration watcher", "error", err)
		} else if err := watcher.Start(); err != nil {
			slog.Warn("failed to start configuration watcher", "error", err)
		} else {
			defer watcher.Stop()
		}
	}

	srv := server.NewServer(cfg.Server, routes)

	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Println("\nPress Ctrl+C to stop")

	return srv.Start(ctx)
}

// loadRuntimeConfig loads the configuration file, or falls back to defaults
// plus environment overrides when the file does not exist. The bool reports
// whether a file was used, which decides whether hot reload is possible.
func loadRuntimeConfig(path string) (*config.Config, bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg, err := config.DefaultConfigWithEnvOverrides()
		return cfg, false, err
	}
	cfg, err := config.LoadConfigWithEnvOverrides(path)
	return cfg, true, err
}

func printBanner(cfg *config.Config, policy config.RacePolicy, fromFile bool) {
	fmt.Printf("Mercury v%s\n", Version)
	if fromFile {
		fmt.Printf("Loading configuration from: %s\n", cfgFile)
	} else {
		fmt.Println("No configuration file found, using defaults and environment")
	}
	fmt.Println("✓ Configuration loaded")
	fmt.Printf("✓ Racing %d endpoints:\n", len(policy.Endpoints))
	for _, ep := range policy.Endpoints {
		fmt.Printf("    %s\n", ep)
	}
}
