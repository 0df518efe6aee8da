package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"helios-hq/mercury/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and show the resolved race policy",
	Long: `Validate the configuration file and print the race policy Mercury
would run under, after applying defaults and environment overrides.

Invalid endpoint specifications are reported here rather than silently
skipped, so misconfigurations surface before deployment.

Examples:
  # Validate the default config file
  mercury validate

  # Validate a specific file
  mercury validate --config /etc/mercury/config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, fromFile, err := loadRuntimeConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	if fromFile {
		fmt.Printf("✓ Configuration file %s valid\n", cfgFile)
	} else {
		fmt.Println("✓ No configuration file; defaults and environment are valid")
	}

	// Report endpoint specs that the silent resolver would skip.
	invalid := 0
	for _, spec := range cfg.Race.Endpoints {
		if _, err := config.ParseEndpoint(spec); err != nil {
			fmt.Printf("✗ invalid endpoint spec: %v\n", err)
			invalid++
		}
	}
	if invalid > 0 {
		return fmt.Errorf("%d invalid endpoint specification(s)", invalid)
	}

	policy := config.ResolvePolicy(cfg.Race)

	fmt.Printf("\nResolved race policy:\n")
	fmt.Printf("  endpoints (%d):\n", len(policy.Endpoints))
	for i, ep := range policy.Endpoints {
		fmt.Printf("    %d. %s\n", i+1, ep)
	}
	fmt.Printf("  connect timeout:    %s\n", policy.ConnectTimeout)
	fmt.Printf("  read timeout:       %s\n", policy.ReadTimeout)
	fmt.Printf("  stagger delay:      %s\n", policy.StaggerDelay)
	fmt.Printf("  ssl verify:         %t\n", policy.SSLVerify)
	fmt.Printf("  mime accept prefix: %s\n", policy.MIMEAcceptPrefix)
	fmt.Printf("  fallback on error:  %t\n", policy.FallbackOnError)
	fmt.Printf("  debug:              %t\n", policy.Debug)
	fmt.Printf("  keep-alive idle:    %s\n", policy.KeepAlive.IdleTimeout)
	fmt.Printf("  keep-alive pool:    %d\n", policy.KeepAlive.MaxPoolSize)

	return nil
}
