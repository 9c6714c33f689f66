package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/famledger/famspend/internal/cli"
	"github.com/famledger/famspend/internal/savings"
)

var goalsCmd = &cobra.Command{
	Use:   "goals",
	Short: "Savings goals of the family with their progress",
	RunE:  runGoals,
}

var goalsShowCmd = &cobra.Command{
	Use:   "show GOAL_ID",
	Short: "Progress, ranking, achievement forecast and suggested cuts for one goal",
	Args:  cobra.ExactArgs(1),
	RunE:  runGoalShow,
}

var goalsAnalyzeCmd = &cobra.Command{
	Use:   "analyze GOAL_ID",
	Short: "Narrative review of a goal against recent spending",
	Args:  cobra.ExactArgs(1),
	RunE:  runGoalAnalyze,
}

func init() {
	goalsCmd.AddCommand(goalsShowCmd)
	goalsCmd.AddCommand(goalsAnalyzeCmd)
	rootCmd.AddCommand(goalsCmd)
}

func runGoals(_ *cobra.Command, _ []string) error {
	fam, err := familyID()
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	goals, err := a.svc.FamilyGoals(context.Background(), fam)
	if err != nil {
		return err
	}
	if len(goals) == 0 {
		fmt.Println("\n  No savings goals. Import some with `famspend import`.")
		return nil
	}

	rows := make([][]string, 0, len(goals))
	for _, g := range goals {
		track := "on track"
		if !g.Progress.OnTrack {
			track = "behind"
		}
		if g.Progress.TargetReached {
			track = "reached"
		}
		rows = append(rows, []string{
			g.Goal.ID,
			cli.Truncate(g.Goal.Name, 24),
			string(g.Goal.Status),
			cli.FormatMoney(g.Goal.CurrentAmount) + " / " + cli.FormatMoney(g.Goal.TargetAmount),
			cli.FormatPercent(g.Progress.Percentage),
			track,
		})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Savings goals  " + fam,
		Headers: []string{"ID", "Name", "Status", "Saved", "Progress", "Pace"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}

func runGoalShow(_ *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := context.Background()
	id := args[0]

	gp, err := a.svc.GoalProgress(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("no goal with id %q", id)
		}
		return err
	}
	rank, err := a.svc.CompareGoal(ctx, id)
	if err != nil {
		return err
	}
	ach, err := a.svc.ForecastGoal(ctx, id)
	if err != nil {
		return err
	}
	adj, err := a.svc.SuggestForGoal(ctx, id)
	if err != nil {
		return err
	}

	printGoalProgress(gp, a.svc.Now())

	fmt.Printf("  Rank %d of %d in the family (%.0fth percentile, %s vs average)\n\n",
		rank.Rank, rank.Total, rank.Percentile, cli.FormatChange(rank.VsAverage))

	printAchievement(ach)
	printAdjustments(adj)
	return nil
}

func runGoalAnalyze(_ *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	status("Reviewing goal %s ...", args[0])
	res, err := a.svc.AnalyzeGoal(context.Background(), args[0])
	if err != nil {
		return err
	}

	printGoalProgress(savings.GoalProgress{Goal: res.Goal, Progress: res.Progress}, a.svc.Now())
	fmt.Print(cli.RenderNarrative("Review", res.Insights, res.FromAI))
	if len(res.Recommendations) > 0 {
		fmt.Println()
		for _, r := range res.Recommendations {
			fmt.Printf("  • %s\n", r)
		}
	}
	fmt.Println()
	return nil
}

func printGoalProgress(gp savings.GoalProgress, now time.Time) {
	g, p := gp.Goal, gp.Progress
	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("GOAL  %s", g.Name)))
	fmt.Println()
	fmt.Printf("  %s\n\n", cli.RenderProgressBar(p.Percentage, 40))

	days := "-"
	if p.DaysRemaining != nil {
		days = cli.FormatNumber(int64(*p.DaysRemaining))
	}
	pace := cli.Good("on track")
	if !p.OnTrack {
		pace = cli.Warn(fmt.Sprintf("behind (expected %s)", cli.FormatPercent(p.ExpectedProgress)))
	}
	pairs := [][2]string{
		{"Saved", cli.FormatMoney(g.CurrentAmount) + " of " + cli.FormatMoney(g.TargetAmount)},
		{"Remaining", cli.FormatMoney(p.Remaining)},
		{"Target date", cli.FormatDate(g.TargetDate)},
		{"Days left", days},
		{"Needed / month", cli.FormatMoney(p.MonthlyRequired)},
		{"Pace", pace},
		{"Est. completion", cli.FormatDate(p.EstimatedCompletionDate) + "  " + cli.Muted(cli.FormatRelative(p.EstimatedCompletionDate, now))},
		{"Status", string(g.Status)},
	}
	if len(gp.Transitions) > 0 {
		next := make([]string, len(gp.Transitions))
		for i, s := range gp.Transitions {
			next[i] = string(s)
		}
		pairs = append(pairs, [2]string{"Can move to", strings.Join(next, ", ")})
	}
	fmt.Print(cli.RenderKV(pairs))
	fmt.Println()
}

func printAchievement(ach savings.Achievement) {
	verdict := cli.Good("will be reached in time")
	if !ach.WillAchieve {
		verdict = cli.Warn("at risk")
	}
	fmt.Printf("  Current pace %s/month, required %s/month: %s\n\n",
		cli.FormatMoney(ach.CurrentMonthlyPace), cli.FormatMoney(ach.RequiredMonthly), verdict)

	rows := make([][]string, 0, len(ach.Scenarios))
	for _, s := range ach.Scenarios {
		ok := "no"
		if s.WillAchieve {
			ok = "yes"
		}
		rows = append(rows, []string{s.Name, cli.FormatMoney(s.MonthlyContribution), cli.FormatDate(s.ProjectedCompletion), ok})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Scenarios",
		Headers: []string{"Scenario", "Per month", "Completes", "In time"},
		Rows:    rows,
	}))
	fmt.Println()
}

func printAdjustments(adj savings.Adjustments) {
	if len(adj.Items) == 0 {
		fmt.Println("  No recent spending to suggest cuts from.")
		fmt.Println()
		return
	}
	rows := make([][]string, 0, len(adj.Items)+2)
	for _, it := range adj.Items {
		name := it.Category
		if it.Essential {
			name += " *"
		}
		rows = append(rows, []string{name, cli.FormatMoney(it.CurrentMonthly), cli.FormatPercent(it.ReductionPercent), cli.FormatMoney(it.MonthlySavings)})
	}
	rows = append(rows, cli.Separator, []string{"Total", "", "", cli.FormatMoney(adj.TotalMonthlySavings)})
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Suggested cuts (* essential)",
		Headers: []string{"Category", "Monthly", "Cut", "Saves"},
		Rows:    rows,
	}))
	if adj.MonthsToTarget != nil {
		fmt.Printf("  Saving this every month reaches the target in %d months.\n", *adj.MonthsToTarget)
	}
	fmt.Println()
}
