package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"helios-hq/mercury/pkg/history"
)

var statsFlags struct {
	dbPath string
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-endpoint race statistics from the history store",
	Long: `Aggregate the recorded race history into per-endpoint statistics:
attempts, outcomes, wins, and mean latency.

History recording must be enabled in the configuration for data to exist.

Examples:
  # Stats from the configured history database
  mercury stats

  # Stats from an explicit database file
  mercury stats --db data/history.db`,
	RunE: showStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVar(&statsFlags.dbPath, "db", "", "history database path (defaults to the configured path)")
}

func showStats(cmd *cobra.Command, args []string) error {
	dbPath := statsFlags.dbPath
	if dbPath == "" {
		cfg, _, err := loadRuntimeConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		dbPath = cfg.History.Path
	}
	if dbPath == "" {
		return fmt.Errorf("no history database path configured; enable history or pass --db")
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("history database %s does not exist", dbPath)
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()

	summary, err := store.Summary(ctx)
	if err != nil {
		return fmt.Errorf("failed to read summary: %w", err)
	}
	fmt.Printf("Races: %d (winners %d, fallbacks %d, no response %d)\n\n",
		summary.Races, summary.Winners, summary.Fallbacks, summary.NoResponses)

	stats, err := store.EndpointStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read endpoint stats: %w", err)
	}
	if len(stats) == 0 {
		fmt.Println("No attempts recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ENDPOINT\tATTEMPTS\tACCEPTED\tREJECTED\tFAILED\tWINS\tMEAN MS")
	for _, es := range stats {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%.1f\n",
			es.Endpoint, es.Attempts, es.Accepted, es.Rejected, es.Failed, es.Wins, es.MeanElapsedMS)
	}
	return w.Flush()
}
