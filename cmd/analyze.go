package cmd

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/famledger/famspend/internal/cli"
	"github.com/famledger/famspend/internal/model"
	"github.com/famledger/famspend/internal/service"
)

var (
	flagFrom        string
	flagTo          string
	flagGranularity string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Spending over a period: buckets, categories, members and insights",
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&flagFrom, "from", "", "Start date YYYY-MM-DD")
	analyzeCmd.Flags().StringVar(&flagTo, "to", "", "End date YYYY-MM-DD (inclusive)")
	analyzeCmd.Flags().StringVarP(&flagGranularity, "granularity", "g", string(model.Month), "day, week, month, quarter or year")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(_ *cobra.Command, _ []string) error {
	fam, err := familyID()
	if err != nil {
		return err
	}
	g, err := model.ParseGranularity(flagGranularity)
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	rng, err := parseRange(flagFrom, flagTo, lookbackMonths(), a.svc.Now(), a.loc)
	if err != nil {
		return err
	}

	status("Analyzing %s ...", fam)
	res, err := a.svc.AnalyzePeriod(context.Background(), fam, rng, g)
	if err != nil {
		return err
	}
	if res.Count == 0 {
		fmt.Println("\n  No expenses found in the selected range.")
		return nil
	}

	printAnalysis(res)
	return nil
}

func printAnalysis(res service.Analysis) {
	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("SPENDING  %s  %s → %s", res.FamilyID,
		res.Range.Start.Format("2006-01-02"), res.Range.End.AddDate(0, 0, -1).Format("2006-01-02"))))
	fmt.Println()

	cmp := res.Comparison
	change := cli.FormatChange(cmp.ChangePercentage)
	if cmp.Previous.Total.IsZero() {
		change = "n/a"
	}
	fmt.Print(cli.RenderKV([][2]string{
		{"Total", cli.FormatMoney(res.Total)},
		{"Transactions", cli.FormatNumber(int64(res.Count))},
		{"Average / " + string(res.Granularity), cli.FormatMoney(res.Average)},
		{"Previous period", cli.FormatMoney(cmp.Previous.Total)},
		{"Change", fmt.Sprintf("%s (%s)", cli.FormatDelta(cmp.Change), change)},
		{"Trend", fmt.Sprintf("%s, avg %s/month", res.Pattern.Trend, cli.FormatMoney(res.Pattern.AverageMonthly))},
	}))
	fmt.Println()

	values := make([]float64, 0, len(res.Buckets))
	rows := make([][]string, 0, len(res.Buckets))
	peak := decimal.Zero
	for _, b := range res.Buckets {
		peak = decimal.Max(peak, b.Total)
		values = append(values, b.Total.InexactFloat64())
		rows = append(rows, []string{b.Key, cli.FormatMoney(b.Total), cli.FormatNumber(int64(b.Count))})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("By %s  %s  peak %s", res.Granularity, cli.RenderSparkline(values), cli.FormatCompact(peak)),
		Headers: []string{"Period", "Amount", "Count"},
		Rows:    rows,
	}))
	fmt.Println()

	rows = rows[:0]
	for _, c := range res.Categories {
		rows = append(rows, []string{c.Category, cli.FormatMoney(c.Amount), cli.FormatNumber(int64(c.Count)), cli.FormatPercent(c.Share)})
	}
	rows = append(rows, cli.Separator, []string{"Total", cli.FormatMoney(res.Total), cli.FormatNumber(int64(res.Count)), cli.FormatPercent(100)})
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Categories",
		Headers: []string{"Category", "Amount", "Count", "Share"},
		Rows:    rows,
	}))
	fmt.Println()

	if len(res.Members) > 1 {
		for _, m := range res.Members {
			fmt.Println(cli.RenderHorizontalBar(m.OwnerID, m.Share, 100, 30) + " " + cli.Muted(cli.FormatMoney(m.Amount)))
		}
		fmt.Println()
	}

	if res.Largest != nil {
		fmt.Printf("  Largest: %s %s on %s (%s)\n\n", cli.FormatMoney(res.Largest.Amount),
			res.Largest.CategoryOrDefault(), res.Largest.Timestamp.Format("2006-01-02"), cli.Truncate(res.Largest.Description, 40))
	}

	fmt.Print(cli.RenderNarrative("Insights", res.Insights, res.FromAI))
	fmt.Println()
}
