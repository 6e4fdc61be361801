package report

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

//go:generate templ generate -f segment_report.templ

// Formatting helpers shared by segment_report.templ. The page has no
// scripts, so every value goes through templ's text escaping.

func formatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

func formatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func formatMean(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
