package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/famledger/famspend/internal/cli"
	"github.com/famledger/famspend/internal/importer"
)

var importCmd = &cobra.Command{
	Use:   "import PATH...",
	Short: "Import expenses and goals from JSONL files or directories",
	Long: `Each line is a JSON object with a "type" of "expense" or "goal":

  {"type":"expense","family_id":"fam","owner_id":"mai","amount":"250000","category":"Food","timestamp":"2024-03-02"}
  {"type":"goal","id":"tet","family_id":"fam","name":"Tet trip","target_amount":"12000000","target_date":"2025-01-20"}

Expenses already imported (same id) are skipped; goals are updated.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(_ *cobra.Command, args []string) error {
	files, err := importer.ScanPaths(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("\n  No .jsonl files found.")
		return nil
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	status("Importing %d file(s) ...", len(files))
	sum, err := importer.Import(context.Background(), a.store, files, a.loc, logger)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Print(cli.RenderKV([][2]string{
		{"Files", cli.FormatNumber(int64(sum.Files))},
		{"Expenses read", cli.FormatNumber(int64(sum.Expenses))},
		{"New expenses", cli.FormatNumber(int64(sum.Inserted))},
		{"Goals", cli.FormatNumber(int64(sum.Goals))},
		{"Malformed lines", cli.FormatNumber(int64(sum.ParseErrors))},
		{"Other lines", cli.FormatNumber(int64(sum.Skipped))},
	}))
	fmt.Println()
	return nil
}
