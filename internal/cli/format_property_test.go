package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"equity-valuator/internal/models"
)

func TestProperty_TruncateString(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("result never exceeds the limit", prop.ForAll(
		func(s string, maxLen int) bool {
			return len([]rune(TruncateString(s, maxLen))) <= maxLen
		},
		gen.AnyString(),
		gen.IntRange(0, 50),
	))

	properties.Property("short strings are unchanged", prop.ForAll(
		func(s string) bool {
			return TruncateString(s, len([]rune(s))) == s
		},
		gen.AlphaString(),
	))

	properties.Property("truncated strings end with ellipsis", prop.ForAll(
		func(s string, maxLen int) bool {
			if len([]rune(s)) <= maxLen {
				return true
			}
			return strings.HasSuffix(TruncateString(s, maxLen), "...")
		},
		gen.AlphaString(),
		gen.IntRange(4, 20),
	))

	properties.TestingRun(t)
}

func TestProperty_Padding(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("padding reaches the target width", prop.ForAll(
		func(s string, width int) bool {
			n := len([]rune(s))
			want := width
			if n > width {
				want = n
			}
			return visibleLen(PadRight(s, width)) == want && visibleLen(PadLeft(s, width)) == want
		},
		gen.AlphaString(),
		gen.IntRange(0, 40),
	))

	properties.Property("padding ignores colour codes", prop.ForAll(
		func(s string, width int) bool {
			colored := "\x1b[32m" + s + "\x1b[0m"
			return stripANSI(PadRight(colored, width)) == PadRight(s, width)
		},
		gen.AlphaString(),
		gen.IntRange(0, 40),
	))

	properties.TestingRun(t)
}

func TestProperty_StripANSI(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("stripping recovers the plain text", prop.ForAll(
		func(s string, code int) bool {
			wrapped := "\x1b[" + string(rune('0'+code%10)) + ";1m" + s + "\x1b[0m"
			return stripANSI(wrapped) == s
		},
		gen.AlphaString(),
		gen.IntRange(0, 9),
	))

	properties.TestingRun(t)
}

func TestFormatHelpers(t *testing.T) {
	low, mid, high := 90.0, 100.0, 125.5
	r := models.FairValueRange{Low: &low, Mid: &mid, High: &high, ValuesUsed: 3}

	assert.Equal(t, "$90.00 - $125.50 (mid $100.00)", FormatRange(r, "USD"))
	assert.Equal(t, "N/A", FormatRange(models.FairValueRange{}, "USD"))
	assert.Equal(t, "N/A", FormatPrice(nil, "USD"))

	wacc := 0.095
	assert.Equal(t, "9.5%", FormatRate(&wacc))
	assert.Equal(t, "N/A", FormatRate(nil))

	pe := 19.8
	assert.Equal(t, "19.8x", FormatMultiple(&pe))

	score := 7
	assert.Equal(t, "7/9", FormatFScore(&score, 9))
	assert.Equal(t, "N/A", FormatFScore(nil, 9))

	assert.Equal(t, "250ms", FormatDuration(250*time.Millisecond))
	assert.Equal(t, "1.5s", FormatDuration(1500*time.Millisecond))
}
