// Package cmd implements the famspend CLI commands.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/famledger/famspend/internal/config"
	"github.com/famledger/famspend/internal/insight"
	"github.com/famledger/famspend/internal/model"
	"github.com/famledger/famspend/internal/service"
	"github.com/famledger/famspend/internal/store"
)

var (
	flagFamily   string
	flagDB       string
	flagMonths   int
	flagQuiet    bool
	flagNoAI     bool
	flagLogLevel string
	flagConfig   string
)

var (
	appCfg = config.DefaultConfig()
	logger = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:               "famspend",
	Short:             "Household expense analytics and forecasting",
	Long:              "Analyze family spending: periods, categories, forecasts, savings goals and free-text questions.",
	SilenceUsage:      true,
	PersistentPreRunE: initApp,
	RunE:              runAnalyze,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagFamily, "family", "f", "", "Family id (defaults to general.default_family)")
	pf.StringVar(&flagDB, "db", "", "Database DSN or sqlite path (overrides config and FAMSPEND_DB)")
	pf.IntVarP(&flagMonths, "months", "n", 0, "Lookback window in months")
	pf.BoolVarP(&flagQuiet, "quiet", "q", false, "Only print results")
	pf.BoolVar(&flagNoAI, "no-ai", false, "Skip the insight model and use computed summaries")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&flagConfig, "config", "", "Config file (default "+config.ConfigPath()+")")
}

// initApp loads .env, the config file and the log level before any command runs.
func initApp(_ *cobra.Command, _ []string) error {
	// A missing .env is normal.
	_ = godotenv.Load()

	var err error
	if flagConfig != "" {
		appCfg, err = config.LoadFile(flagConfig)
	} else {
		appCfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	level := flagLogLevel
	if level == "" {
		level = appCfg.General.LogLevel
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if flagQuiet && lvl > logrus.WarnLevel {
		lvl = logrus.WarnLevel
	}
	logger.SetLevel(lvl)
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return nil
}

// app bundles the opened store and the service built on it.
type app struct {
	store *store.Store
	svc   *service.Service
	loc   *time.Location
}

func (a *app) Close() {
	_ = a.store.Close()
}

// openApp opens the configured store and wires the service.
func openApp() (*app, error) {
	loc, err := appCfg.Location()
	if err != nil {
		return nil, err
	}
	thresholds, err := appCfg.AnalysisThresholds()
	if err != nil {
		return nil, err
	}

	dsn := config.StoreDSN(appCfg)
	if flagDB != "" {
		dsn = flagDB
	}
	st, err := store.Open(store.Options{Driver: appCfg.Store.Driver, DSN: dsn, Location: loc})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	var gen insight.Generator = insight.Nop{}
	if !flagNoAI {
		gen, err = insight.NewClient(insight.ClientConfig{
			APIKey:    config.GetAPIKey(appCfg),
			Model:     appCfg.Insight.Model,
			CacheSize: int64(appCfg.Insight.CacheMB) << 20,
		})
		if err != nil {
			_ = st.Close()
			return nil, err
		}
	}

	lookback := appCfg.General.LookbackMonths
	if flagMonths > 0 {
		lookback = flagMonths
	}
	logger.WithFields(logrus.Fields{"driver": appCfg.Store.Driver, "lookback": lookback}).Debug("store opened")

	svc := service.New(st, gen, service.Options{
		Thresholds:     thresholds,
		Policy:         appCfg.SavingsPolicy(),
		Location:       loc,
		Timeout:        appCfg.InsightTimeout(),
		LookbackMonths: lookback,
		Log:            logger,
	})
	return &app{store: st, svc: svc, loc: loc}, nil
}

// familyID resolves --family, falling back to the configured default.
func familyID() (string, error) {
	fam := strings.TrimSpace(flagFamily)
	if fam == "" {
		fam = strings.TrimSpace(appCfg.General.DefaultFamily)
	}
	if fam == "" {
		return "", fmt.Errorf("%w: no family selected (pass --family or set general.default_family)", model.ErrInvalidInput)
	}
	return fam, nil
}

// lookbackMonths is --months or the configured default.
func lookbackMonths() int {
	if flagMonths > 0 {
		return flagMonths
	}
	return appCfg.General.LookbackMonths
}

// parseRange reads --from/--to (to inclusive). Without both it covers the
// last months calendar months including the current one.
func parseRange(from, to string, months int, now time.Time, loc *time.Location) (model.Range, error) {
	if from == "" && to == "" {
		end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, 1, 0)
		return model.Range{Start: end.AddDate(0, -max(months, 1), 0), End: end}, nil
	}
	if from == "" || to == "" {
		return model.Range{}, fmt.Errorf("%w: --from and --to must be given together", model.ErrInvalidInput)
	}
	start, err := time.ParseInLocation(time.DateOnly, from, loc)
	if err != nil {
		return model.Range{}, fmt.Errorf("%w: --from must be YYYY-MM-DD", model.ErrInvalidInput)
	}
	last, err := time.ParseInLocation(time.DateOnly, to, loc)
	if err != nil {
		return model.Range{}, fmt.Errorf("%w: --to must be YYYY-MM-DD", model.ErrInvalidInput)
	}
	r := model.Range{Start: start, End: last.AddDate(0, 0, 1)}
	return r, r.Validate()
}

func status(format string, args ...any) {
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  "+format+"\n", args...)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, model.ErrNotFound)
}
