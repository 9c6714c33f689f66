package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/famledger/famspend/internal/cli"
)

var flagBundle bool

var askCmd = &cobra.Command{
	Use:   "ask QUESTION...",
	Short: "Ask a free-text question about the family's spending",
	Example: `  famspend ask "what was our largest expense?"
  famspend ask "chi tiêu ăn uống tháng này"
  famspend ask "how much to save 12 triệu in 6 months"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&flagBundle, "bundle", false, "Print the assembled data bundle as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(_ *cobra.Command, args []string) error {
	fam, err := familyID()
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ans, err := a.svc.Ask(context.Background(), fam, strings.Join(args, " "))
	if err != nil {
		return err
	}

	if flagBundle {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ans.Bundle)
	}

	fmt.Println()
	if !flagQuiet {
		names := make([]string, len(ans.Bundle.Sections))
		for i, s := range ans.Bundle.Sections {
			names[i] = s.Intent
		}
		fmt.Printf("  %s\n\n", cli.Muted("matched: "+strings.Join(names, ", ")+"  ·  "+ans.Bundle.Period))
	}
	fmt.Print(cli.RenderNarrative("Answer", ans.Text, ans.FromAI))
	fmt.Println()
	return nil
}
