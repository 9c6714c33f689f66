package cmd

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/famledger/famspend/internal/cli"
	"github.com/famledger/famspend/internal/model"
)

var anomalyCmd = &cobra.Command{
	Use:   "anomaly AMOUNT",
	Short: "Check whether a month's spending so far is unusual",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnomaly,
}

func init() {
	rootCmd.AddCommand(anomalyCmd)
}

func runAnomaly(_ *cobra.Command, args []string) error {
	fam, err := familyID()
	if err != nil {
		return err
	}
	amount, err := decimal.NewFromString(args[0])
	if err != nil {
		return fmt.Errorf("%w: AMOUNT must be a number", model.ErrInvalidInput)
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	check, err := a.svc.CheckAnomaly(context.Background(), fam, amount)
	if err != nil {
		return err
	}

	verdict := cli.Good("normal")
	switch check.Severity {
	case model.SeverityHigh:
		verdict = cli.Alert("HIGH")
	case model.SeverityMedium:
		verdict = cli.Warn("elevated")
	}

	fmt.Println()
	fmt.Print(cli.RenderKV([][2]string{
		{"Amount", cli.FormatMoney(check.CurrentAmount)},
		{"Monthly average", cli.FormatMoney(check.AverageMonthly)},
		{"Ratio", fmt.Sprintf("%.2fx", check.Ratio)},
		{"Verdict", verdict},
	}))
	for _, s := range check.Suggestions {
		fmt.Printf("  • %s\n", s)
	}
	fmt.Println()
	return nil
}
