package analysis

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/famledger/famspend/internal/model"
)

// ClassifyLiveFigure compares a caller-supplied monthly figure with the
// pattern's monthly average.
func ClassifyLiveFigure(amount decimal.Decimal, pattern model.SpendingPattern, th Thresholds) model.AnomalyCheck {
	th = th.WithDefaults()
	avg := pattern.AverageMonthly

	check := model.AnomalyCheck{
		Severity:       model.SeverityNone,
		CurrentAmount:  amount,
		AverageMonthly: avg,
	}

	if avg.IsZero() {
		check.Suggestions = []string{
			"Not enough spending history yet to judge this month; keep recording expenses.",
		}
		return check
	}

	check.Ratio = amount.Div(avg).InexactFloat64()
	if !amount.GreaterThan(avg.Mul(decimal.NewFromFloat(th.LiveMedium))) {
		check.Suggestions = []string{"Spending is within the usual range for this family."}
		return check
	}

	check.IsAnomaly = true
	check.Severity = model.SeverityMedium
	if amount.GreaterThan(avg.Mul(decimal.NewFromFloat(th.LiveHigh))) {
		check.Severity = model.SeverityHigh
	}

	excess := (check.Ratio - 1) * 100
	suggestions := []string{
		fmt.Sprintf("This month is %.0f%% above the %d-month average; review the largest recent expenses.",
			excess, pattern.LookbackMonths),
		"Postpone non-essential purchases until next month.",
		"Check for one-off costs (events, repairs, travel) that explain the jump.",
	}
	if check.Severity == model.SeverityHigh {
		suggestions = append([]string{
			"Warning: spending is far above normal. Agree on a family spending freeze for discretionary categories.",
		}, suggestions...)
	}
	check.Suggestions = suggestions

	return check
}
