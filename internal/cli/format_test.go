package cli

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"999", "999"},
		{"2500000", "2,500,000"},
		{"-2000000", "-2,000,000"},
		{"1234.6", "1,235"},
	}
	for _, tt := range tests {
		if got := FormatMoney(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("FormatMoney(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{500, "500"},
		{1_234, "1.2K"},
		{2_500_000, "2.5M"},
		{1_200_000_000, "1.2B"},
		{-2_000_000, "-2.0M"},
	}
	for _, tt := range tests {
		if got := FormatCompact(decimal.NewFromInt(tt.in)); got != tt.want {
			t.Errorf("FormatCompact(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDelta(t *testing.T) {
	if got := FormatDelta(decimal.NewFromInt(1500)); got != "+1,500" {
		t.Errorf("FormatDelta(1500) = %q, want +1,500", got)
	}
	if got := FormatDelta(decimal.NewFromInt(-2_200_000)); got != "-2,200,000" {
		t.Errorf("FormatDelta(-2200000) = %q, want -2,200,000", got)
	}
	if got := FormatChange(-88); got != "-88.0%" {
		t.Errorf("FormatChange(-88) = %q, want -88.0%%", got)
	}
	if got := FormatChange(0); got != "+0.0%" {
		t.Errorf("FormatChange(0) = %q, want +0.0%%", got)
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate(nil); got != "-" {
		t.Errorf("FormatDate(nil) = %q, want -", got)
	}
	d := time.Date(2024, 2, 3, 10, 0, 0, 0, time.UTC)
	if got := FormatDate(&d); got != "2024-02-03" {
		t.Errorf("FormatDate = %q, want 2024-02-03", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("Tiền điện tháng 2", 8); got != "Tiền đi…" {
		t.Errorf("Truncate = %q, want %q", got, "Tiền đi…")
	}
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate = %q, want short", got)
	}
}
