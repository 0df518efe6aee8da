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
	Use:   "mercury",
	Short: "Mercury - racing reverse proxy for content gateways",
	Long: `Mercury is a reverse proxy that races multiple upstream content
gateways for every request and relays the fastest acceptable answer.

For each GET or HEAD request it:
  - Starts one fetch attempt per configured gateway, optionally staggered
  - Accepts the first response with a success status and an allow-listed
    content type
  - Cancels the losing attempts and streams the winner to the client
  - Keeps the winning connection alive for reuse`,
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
