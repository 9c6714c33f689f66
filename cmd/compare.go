package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/famledger/famspend/internal/cli"
	"github.com/famledger/famspend/internal/model"
	"github.com/famledger/famspend/internal/pipeline"
)

var (
	flagPrevFrom string
	flagPrevTo   string
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare a period with the previous one, per category",
	Long: "Compare --from/--to with --prev-from/--prev-to. Without dates the current month is compared " +
		"with the previous month; without previous dates the equal-length period before is used.",
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringVar(&flagFrom, "from", "", "Start date YYYY-MM-DD")
	compareCmd.Flags().StringVar(&flagTo, "to", "", "End date YYYY-MM-DD (inclusive)")
	compareCmd.Flags().StringVar(&flagPrevFrom, "prev-from", "", "Previous period start YYYY-MM-DD")
	compareCmd.Flags().StringVar(&flagPrevTo, "prev-to", "", "Previous period end YYYY-MM-DD (inclusive)")
	rootCmd.AddCommand(compareCmd)
}

func runCompare(_ *cobra.Command, _ []string) error {
	fam, err := familyID()
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	cur, err := parseRange(flagFrom, flagTo, 1, a.svc.Now(), a.loc)
	if err != nil {
		return err
	}
	prev := pipeline.PreviousMonth(cur)
	if flagPrevFrom != "" || flagPrevTo != "" {
		if prev, err = parseRange(flagPrevFrom, flagPrevTo, 1, a.svc.Now(), a.loc); err != nil {
			return err
		}
	}

	cmp, err := a.svc.ComparePeriods(context.Background(), fam, cur, prev)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("%s  vs  %s", rangeLabel(cmp.Current.Range), rangeLabel(cmp.Previous.Range))))
	fmt.Println()

	change := cli.FormatChange(cmp.ChangePercentage)
	if cmp.Previous.Total.IsZero() {
		change = "n/a"
	}
	fmt.Print(cli.RenderKV([][2]string{
		{"Current", fmt.Sprintf("%s (%d)", cli.FormatMoney(cmp.Current.Total), cmp.Current.Count)},
		{"Previous", fmt.Sprintf("%s (%d)", cli.FormatMoney(cmp.Previous.Total), cmp.Previous.Count)},
		{"Change", fmt.Sprintf("%s (%s)", cli.FormatDelta(cmp.Change), change)},
	}))
	fmt.Println()

	rows := make([][]string, 0, len(cmp.Categories))
	for _, c := range cmp.Categories {
		pct := cli.FormatChange(c.ChangePercentage)
		if c.Previous.IsZero() {
			pct = "new"
		}
		rows = append(rows, []string{c.Category, cli.FormatMoney(c.Current), cli.FormatMoney(c.Previous), cli.FormatDelta(c.Change), pct})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Category swings",
		Headers: []string{"Category", "Current", "Previous", "Change", "%"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}

func rangeLabel(r model.Range) string {
	return r.Start.Format("2006-01-02") + " → " + r.End.AddDate(0, 0, -1).Format("2006-01-02")
}
