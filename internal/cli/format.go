package cli

import (
	"fmt"
	"strings"
	"time"

	"equity-valuator/internal/models"
	"equity-valuator/pkg/utils"
)

// FormatPrice formats a per-share price in the given currency, or "N/A".
func FormatPrice(v *float64, currency string) string {
	if v == nil {
		return "N/A"
	}
	return utils.FormatMoney(*v, currency)
}

// FormatRate formats an optional fraction as a percentage.
func FormatRate(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return utils.FormatRatio(*v)
}

// FormatMultiple formats an optional trading multiple as "12.3x".
func FormatMultiple(v *float64) string {
	return utils.FormatOptional(v, "%.1fx")
}

// FormatScore formats an optional score with two decimals.
func FormatScore(v *float64) string {
	return utils.FormatOptional(v, "%.2f")
}

// FormatFScore formats a Piotroski score as "7/9".
func FormatFScore(score *int, max int) string {
	if score == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d/%d", *score, max)
}

// FormatRange formats a fair value range as "low - high (mid)".
func FormatRange(r models.FairValueRange, currency string) string {
	if r.Mid == nil {
		return "N/A"
	}
	return fmt.Sprintf("%s - %s (mid %s)",
		FormatPrice(r.Low, currency), FormatPrice(r.High, currency), FormatPrice(r.Mid, currency))
}

// FormatDuration formats a duration.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return d.Round(time.Second).String()
}

// TruncateString truncates a string to max runes with ellipsis.
func TruncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// PadRight pads a string to the right.
func PadRight(s string, length int) string {
	n := visibleLen(s)
	if n >= length {
		return s
	}
	return s + strings.Repeat(" ", length-n)
}

// PadLeft pads a string to the left.
func PadLeft(s string, length int) string {
	n := visibleLen(s)
	if n >= length {
		return s
	}
	return strings.Repeat(" ", length-n) + s
}
