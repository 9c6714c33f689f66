package cli

import (
	"strings"
	"testing"
)

func TestRenderTable(t *testing.T) {
	out := RenderTable(Table{
		Title:   "Categories",
		Headers: []string{"Category", "Amount"},
		Rows: [][]string{
			{"Food", "2,500,000"},
			Separator,
			{"Total", "2,500,000"},
		},
	})

	for _, want := range []string{"Categories", "Category", "Food", "2,500,000", "Total", "╭", "╰"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	// title, top, header, header rule, 2 rows, separator, bottom
	if lines := strings.Count(out, "\n"); lines != 8 {
		t.Errorf("table has %d lines, want 8:\n%s", lines, out)
	}
}

func TestRenderTableEmpty(t *testing.T) {
	if out := RenderTable(Table{}); out != "" {
		t.Errorf("empty table = %q, want empty", out)
	}
}

func TestRenderSparkline(t *testing.T) {
	got := []rune(RenderSparkline([]float64{0, 50, 100}))
	if len(got) != 3 {
		t.Fatalf("sparkline length = %d, want 3", len(got))
	}
	if got[0] != '▁' || got[2] != '█' {
		t.Errorf("sparkline = %q, want low start and full end", string(got))
	}
	if RenderSparkline(nil) != "" {
		t.Error("sparkline of nil should be empty")
	}
}

func TestRenderProgressBar(t *testing.T) {
	out := RenderProgressBar(50, 10)
	if !strings.Contains(out, "50.0%") {
		t.Errorf("progress bar = %q, want 50.0%%", out)
	}
	if strings.Count(out, "█") != 5 {
		t.Errorf("progress bar = %q, want 5 filled blocks", out)
	}
	if over := RenderProgressBar(150, 10); strings.Count(over, "█") != 10 {
		t.Errorf("overshoot bar = %q, want full", over)
	}
}

func TestRenderKV(t *testing.T) {
	out := RenderKV([][2]string{{"Total", "1,000"}, {"Transactions", "3"}})
	if !strings.Contains(out, "Total") || !strings.Contains(out, "Transactions") {
		t.Errorf("kv output missing keys:\n%s", out)
	}
}
