// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// FormatMoney formats an amount rounded to whole units with comma
// separators, e.g. 2500000 -> "2,500,000".
func FormatMoney(d decimal.Decimal) string {
	return humanize.Comma(d.Round(0).IntPart())
}

// FormatCompact formats an amount with a short suffix.
// e.g., 1234 -> "1.2K", 2500000 -> "2.5M", 1200000000 -> "1.2B"
func FormatCompact(d decimal.Decimal) string {
	f := d.InexactFloat64()
	abs := math.Abs(f)

	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", f/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", f/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fK", f/1_000)
	default:
		return d.Round(0).String()
	}
}

// FormatNumber adds comma separators to an integer.
func FormatNumber(n int64) string {
	return humanize.Comma(n)
}

// FormatPercent formats a value already expressed in percent.
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatChange formats a percentage change with its sign.
func FormatChange(pct float64) string {
	return fmt.Sprintf("%+.1f%%", pct)
}

// FormatDelta formats an amount change with its sign.
func FormatDelta(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + FormatMoney(d.Neg())
	}
	return "+" + FormatMoney(d)
}

// FormatDate formats an optional date, "-" when nil or zero.
func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format(time.DateOnly)
}

// FormatRelative describes t relative to now, e.g. "3 months from now".
func FormatRelative(t *time.Time, now time.Time) string {
	if t == nil || t.IsZero() {
		return "never at this pace"
	}
	return humanize.RelTime(*t, now, "ago", "from now")
}

// Truncate shortens s to n runes, adding an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n || n < 2 {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}
