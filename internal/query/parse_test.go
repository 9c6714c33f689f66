package query

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Khoản chi LỚN NHẤT là gì?", "khoan chi lon nhat la gi?"},
		{"Đi du lịch   tháng trước", "di du lich thang truoc"},
		{"  Tiết kiệm 10 triệu  ", "tiet kiem 10 trieu"},
		{"Compare this month", "compare this month"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"tiet kiem 10 trieu trong 6 thang", 10_000_000, true},
		{"save 10tr", 10_000_000, true},
		{"save 10m in 6 months", 10_000_000, true},
		{"about 5k", 5_000, true},
		{"save 10,000,000", 10_000_000, true},
		{"save 1.000.000 please", 1_000_000, true},
		{"1.5 trieu", 1_500_000, true},
		{"2 ty", 2_000_000_000, true},
		{"savings in 2024", 0, false},
		{"trong 6 thang", 0, false},
		{"save 50", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseAmount(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseAmount(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && !got.Equal(decimal.NewFromInt(tt.want)) {
			t.Errorf("ParseAmount(%q) = %s, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseMonths(t *testing.T) {
	tests := map[string]int{
		"tiet kiem 10 trieu trong 6 thang": 6,
		"save 5m in 3 months":              3,
		"save 5m within 1 month":           1,
		"save 5m":                          12,
	}
	for in, want := range tests {
		if got := ParseMonths(in); got != want {
			t.Errorf("ParseMonths(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestParseRange(t *testing.T) {
	now := time.Date(2024, 2, 15, 10, 30, 0, 0, time.UTC)
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		in         string
		label      string
		start, end time.Time
	}{
		{"spending last month", "last month", day(2024, 1, 1), day(2024, 2, 1)},
		{"chi tieu thang nay", "this month", day(2024, 2, 1), day(2024, 3, 1)},
		{"last 7 days", "last 7 days", day(2024, 2, 9), day(2024, 2, 16)},
		{"30 ngay qua", "last 30 days", day(2024, 1, 17), day(2024, 2, 16)},
		{"nam ngoai", "last year", day(2023, 1, 1), day(2024, 1, 1)},
		{"this year", "this year", day(2024, 1, 1), day(2025, 1, 1)},
		{"this week", "this week", day(2024, 2, 12), day(2024, 2, 19)},
	}
	for _, tt := range tests {
		r, label, ok := ParseRange(words(Normalize(tt.in)), now)
		if !ok || label != tt.label {
			t.Errorf("ParseRange(%q) = %q (%v), want %q", tt.in, label, ok, tt.label)
			continue
		}
		if !r.Start.Equal(tt.start) || !r.End.Equal(tt.end) {
			t.Errorf("ParseRange(%q) = [%v, %v), want [%v, %v)", tt.in, r.Start, r.End, tt.start, tt.end)
		}
	}

	if _, label, ok := ParseRange(words("largest expense"), now); ok || label != "all time" {
		t.Errorf("no phrase = %q (%v), want all time", label, ok)
	}
}
