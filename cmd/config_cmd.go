package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/famledger/famspend/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := appCfg

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	family := cfg.General.DefaultFamily
	if family == "" {
		family = "not set"
	}
	fmt.Printf("    Default family:  %s\n", family)
	fmt.Printf("    Timezone:        %s\n", cfg.General.Timezone)
	fmt.Printf("    Lookback months: %d\n", cfg.General.LookbackMonths)
	fmt.Printf("    Log level:       %s\n", cfg.General.LogLevel)
	fmt.Println()

	fmt.Println("  [Store]")
	fmt.Printf("    Driver: %s\n", cfg.Store.Driver)
	fmt.Printf("    DSN:    %s\n", config.StoreDSN(cfg))
	fmt.Println()

	fmt.Println("  [Insight]")
	if key := config.GetAPIKey(cfg); key != "" {
		fmt.Printf("    API key: %s\n", maskAPIKey(key))
	} else {
		fmt.Println("    API key: not configured (computed summaries only)")
	}
	fmt.Printf("    Model:   %s\n", cfg.Insight.Model)
	fmt.Printf("    Timeout: %s\n", cfg.InsightTimeout())
	fmt.Printf("    Cache:   %d MB\n", cfg.Insight.CacheMB)
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address:          %s\n", cfg.Server.Addr)
	fmt.Printf("    Refresh schedule: %s\n", cfg.Server.RefreshSchedule)
	fmt.Printf("    Refresh interval: %dh\n", cfg.Server.RefreshIntervalHours)
	if len(cfg.Server.Families) > 0 {
		fmt.Printf("    Families:         %s\n", strings.Join(cfg.Server.Families, ", "))
	}
	fmt.Println()

	fmt.Println("  [Thresholds]")
	th, err := cfg.AnalysisThresholds()
	if err != nil {
		fmt.Printf("    invalid: %v\n", err)
	} else {
		fmt.Printf("    %+v\n", th)
	}
	fmt.Println()

	fmt.Println("  [Savings]")
	fmt.Printf("    %+v\n", cfg.SavingsPolicy())
	fmt.Println()

	fmt.Println("  Run `famspend setup` to reconfigure.")
	return nil
}
