package notifier

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatAmount renders a USD amount in the compact style used across all
// alert messages: 1_500_000 -> "1.50M", 50_000 -> "50.00K", 100.5 -> "100.50".
func FormatAmount(amount float64) string {
	switch {
	case amount >= 1_000_000:
		return fmt.Sprintf("%.2fM", amount/1_000_000)
	case amount >= 1_000:
		return fmt.Sprintf("%.2fK", amount/1_000)
	default:
		return fmt.Sprintf("%.2f", amount)
	}
}

// FormatUSD renders a whole-dollar value with thousands separators: "$1,234,567".
func FormatUSD(v float64) string {
	return "$" + humanize.CommafWithDigits(v, 0)
}

// FormatQuantity renders a token amount with separators and two decimals.
func FormatQuantity(v float64) string {
	return humanize.CommafWithDigits(v, 2)
}

// FormatClock renders a millisecond timestamp as local HH:MM:SS.
// A zero timestamp means "now".
func FormatClock(tsMs int64) string {
	t := time.Now()
	if tsMs != 0 {
		t = time.UnixMilli(tsMs)
	}
	return t.Format("15:04:05")
}
