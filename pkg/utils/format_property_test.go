package utils

import (
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: FormatMoney groups digits in threes and preserves the value.
func TestProperty_FormatMoneyPreservesValue(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("FormatMoney round-trips through comma removal", prop.ForAll(
		func(amount float64) bool {
			formatted := FormatMoney(amount, "USD")

			body := strings.TrimPrefix(strings.TrimPrefix(formatted, "-"), "$")
			intPart := strings.Split(body, ".")[0]
			groups := strings.Split(intPart, ",")
			for i, g := range groups {
				if i == 0 && (len(g) == 0 || len(g) > 3) {
					t.Logf("bad leading group %q in %s", g, formatted)
					return false
				}
				if i > 0 && len(g) != 3 {
					t.Logf("bad group %q in %s", g, formatted)
					return false
				}
			}

			parsed, err := strconv.ParseFloat(strings.ReplaceAll(body, ",", ""), 64)
			if err != nil {
				return false
			}
			if amount < 0 {
				parsed = -parsed
			}
			diff := parsed - amount
			return diff < 0.006 && diff > -0.006
		},
		gen.Float64Range(-1e12, 1e12),
	))

	properties.TestingRun(t)
}

func TestFormatExamples(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{FormatMoney(1234567.891, "USD"), "$1,234,567.89"},
		{FormatMoney(-999.5, "USD"), "-$999.50"},
		{FormatMoney(100, "CHF"), "100.00 CHF"},
		{FormatPercent(12.34), "+12.3%"},
		{FormatPercent(-4), "-4.0%"},
		{FormatRatio(0.153), "15.3%"},
		{FormatCompact(2.5e9), "2.50B"},
		{FormatCompact(-7.1e6), "-7.10M"},
		{FormatOptional(nil, "%.2f"), "N/A"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
