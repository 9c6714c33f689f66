package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/famledger/famspend/internal/cli"
	"github.com/famledger/famspend/internal/model"
)

var drillCmd = &cobra.Command{
	Use:   "drill KEY",
	Short: "List the expenses behind one bucket, e.g. 2024-03 or 2024-W10",
	Args:  cobra.ExactArgs(1),
	RunE:  runDrill,
}

func init() {
	drillCmd.Flags().StringVarP(&flagGranularity, "granularity", "g", string(model.Month), "Granularity of KEY")
	rootCmd.AddCommand(drillCmd)
}

func runDrill(_ *cobra.Command, args []string) error {
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

	d, err := a.svc.DrillDown(context.Background(), fam, g, args[0])
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("%s %s  %s", g, d.Key, rangeLabel(d.Range))))
	fmt.Println()
	fmt.Print(cli.RenderKV([][2]string{
		{"Total", cli.FormatMoney(d.Total)},
		{"Transactions", cli.FormatNumber(int64(d.Count))},
		{"Average", cli.FormatMoney(d.Average)},
	}))
	fmt.Println()

	if d.Count == 0 {
		fmt.Println("  No expenses in this bucket.")
		return nil
	}

	rows := make([][]string, 0, len(d.Records))
	for _, r := range d.Records {
		rows = append(rows, []string{
			r.Timestamp.In(a.loc).Format("2006-01-02 15:04"),
			r.CategoryOrDefault(),
			r.OwnerID,
			cli.Truncate(r.Description, 32),
			cli.FormatMoney(r.Amount),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Expenses",
		Headers: []string{"When", "Category", "Member", "Description", "Amount"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}
