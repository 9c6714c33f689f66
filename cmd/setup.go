package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/famledger/famspend/internal/config"
	"github.com/famledger/famspend/internal/store"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfg := appCfg

	var (
		family   = cfg.General.DefaultFamily
		timezone = cfg.General.Timezone
		lookback = strconv.Itoa(cfg.General.LookbackMonths)
		driver   = cfg.Store.Driver
		dsn      = cfg.Store.DSN
		apiKey   string
	)

	keyHint := "Leave empty to use computed summaries only."
	if existing := config.GetAPIKey(cfg); existing != "" {
		keyHint = "Current: " + maskAPIKey(existing) + ". Leave empty to keep it."
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to famspend").
				Description("Household expense analytics, forecasts and savings goals."),
			huh.NewInput().
				Title("Default family id").
				Description("Used when --family is not given.").
				Value(&family),
			huh.NewInput().
				Title("Timezone").
				Description("IANA name used for months and weeks, e.g. Asia/Ho_Chi_Minh.").
				Value(&timezone).
				Validate(func(s string) error {
					_, err := time.LoadLocation(strings.TrimSpace(s))
					return err
				}),
			huh.NewSelect[string]().
				Title("Lookback window").
				Options(
					huh.NewOption("3 months", "3"),
					huh.NewOption("6 months", "6"),
					huh.NewOption("12 months", "12"),
				).
				Value(&lookback),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Database").
				Options(
					huh.NewOption("SQLite file", store.DriverSQLite),
					huh.NewOption("PostgreSQL", store.DriverPostgres),
				).
				Value(&driver),
			huh.NewInput().
				Title("DSN").
				Description("SQLite path or postgres URL. Empty uses "+config.StoreDSN(config.DefaultConfig())).
				Value(&dsn),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Anthropic API key").
				Description(keyHint).
				EchoMode(huh.EchoModePassword).
				Value(&apiKey),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled, nothing saved.")
			return nil
		}
		return err
	}

	cfg.General.DefaultFamily = strings.TrimSpace(family)
	cfg.General.Timezone = strings.TrimSpace(timezone)
	if n, err := strconv.Atoi(lookback); err == nil {
		cfg.General.LookbackMonths = n
	}
	cfg.Store.Driver = driver
	cfg.Store.DSN = strings.TrimSpace(dsn)
	if k := strings.TrimSpace(apiKey); k != "" {
		cfg.Insight.APIKey = k
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `famspend setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}

func maskAPIKey(key string) string {
	if len(key) > 16 {
		return key[:8] + "..." + key[len(key)-4:]
	}
	if len(key) > 4 {
		return key[:4] + "..."
	}
	return "****"
}
