package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/famledger/famspend/internal/cli"
	"github.com/famledger/famspend/internal/model"
)

var (
	flagAhead      int
	flagLinear     bool
	flagHistory    bool
	flagHistoryFor string
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Forecast monthly spending and record the predictions",
	RunE:  runPredict,
}

func init() {
	predictCmd.Flags().IntVarP(&flagAhead, "ahead", "a", 3, "Months to forecast (1-12)")
	predictCmd.Flags().BoolVar(&flagLinear, "linear", false, "Only the next-month linear forecast")
	predictCmd.Flags().BoolVar(&flagHistory, "history", false, "Show recorded predictions instead of forecasting")
	predictCmd.Flags().StringVar(&flagHistoryFor, "for", "", "With --history, only this month (YYYY-MM)")
	rootCmd.AddCommand(predictCmd)
}

func runPredict(_ *cobra.Command, _ []string) error {
	fam, err := familyID()
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := context.Background()

	if flagHistory {
		return printPredictionHistory(ctx, a, fam)
	}

	if flagLinear {
		p, err := a.svc.PredictLinear(ctx, fam)
		if err != nil {
			return err
		}
		fmt.Println()
		printPredictions("Linear forecast", []model.Prediction{p})
		fmt.Printf("  %s\n\n", cli.Muted(p.Reasoning))
		return nil
	}

	status("Forecasting %d months for %s ...", flagAhead, fam)
	res, err := a.svc.Predict(ctx, fam, flagAhead)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Print(cli.RenderKV([][2]string{
		{"Average monthly", cli.FormatMoney(res.Pattern.AverageMonthly)},
		{"Trend", string(res.Pattern.Trend)},
		{"Seasonal factor", fmt.Sprintf("%.2f", res.Pattern.SeasonalFactor)},
	}))
	fmt.Println()
	printPredictions("Forecast", res.Predictions)
	fmt.Print(cli.RenderNarrative("Why", res.Narrative, res.FromAI))
	fmt.Println()
	return nil
}

func printPredictionHistory(ctx context.Context, a *app, fam string) error {
	var (
		month time.Month
		year  int
	)
	if flagHistoryFor != "" {
		t, err := time.Parse("2006-01", flagHistoryFor)
		if err != nil {
			return fmt.Errorf("%w: --for must be YYYY-MM", model.ErrInvalidInput)
		}
		month, year = t.Month(), t.Year()
	}
	preds, err := a.svc.ListPredictions(ctx, fam, month, year)
	if err != nil {
		return err
	}
	if len(preds) == 0 {
		fmt.Println("\n  No predictions recorded yet. Run `famspend predict` first.")
		return nil
	}
	fmt.Println()
	printPredictions("Recorded predictions", preds)
	return nil
}

func printPredictions(title string, preds []model.Prediction) {
	rows := make([][]string, 0, len(preds))
	for _, p := range preds {
		made := "-"
		if !p.CreatedAt.IsZero() {
			made = p.CreatedAt.Format("2006-01-02")
		}
		rows = append(rows, []string{
			p.Period(),
			cli.FormatMoney(p.PredictedAmount),
			string(p.Algorithm),
			cli.FormatPercent(p.Confidence * 100),
			made,
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   title,
		Headers: []string{"Month", "Amount", "Method", "Confidence", "Made"},
		Rows:    rows,
	}))
	fmt.Println()
}
