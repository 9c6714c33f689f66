package analysis

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/famledger/famspend/internal/model"
)

func TestClassifyLiveFigure(t *testing.T) {
	pattern := model.SpendingPattern{LookbackMonths: 6, AverageMonthly: decimal.NewFromInt(1_000)}

	tests := []struct {
		amount   int64
		anomaly  bool
		severity model.Severity
	}{
		{900, false, model.SeverityNone},
		{1_200, false, model.SeverityNone},
		{1_201, true, model.SeverityMedium},
		{1_500, true, model.SeverityMedium},
		{1_501, true, model.SeverityHigh},
	}
	for _, tt := range tests {
		got := ClassifyLiveFigure(decimal.NewFromInt(tt.amount), pattern, Thresholds{})
		if got.IsAnomaly != tt.anomaly || got.Severity != tt.severity {
			t.Errorf("amount %d: anomaly=%v severity=%s, want %v %s",
				tt.amount, got.IsAnomaly, got.Severity, tt.anomaly, tt.severity)
		}
		if len(got.Suggestions) == 0 {
			t.Errorf("amount %d: no suggestions", tt.amount)
		}
		hasWarning := strings.HasPrefix(got.Suggestions[0], "Warning")
		if hasWarning != (tt.severity == model.SeverityHigh) {
			t.Errorf("amount %d: warning first = %v, want only at high severity", tt.amount, hasWarning)
		}
	}
}

func TestClassifyLiveFigure_NoHistory(t *testing.T) {
	got := ClassifyLiveFigure(decimal.NewFromInt(5_000), model.SpendingPattern{}, Thresholds{})
	if got.IsAnomaly || got.Ratio != 0 {
		t.Errorf("got %+v, want not anomalous without history", got)
	}
}
