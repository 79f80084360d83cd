package valuation

import (
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"equity-valuator/internal/models"
	"equity-valuator/pkg/utils"
)

var tierOrder = map[models.Rating]int{
	models.RatingStrongBuy:  0,
	models.RatingBuy:        1,
	models.RatingAccumulate: 2,
	models.RatingHold:       3,
	models.RatingReduce:     4,
	models.RatingSell:       5,
}

// Property: for a fixed range the rating never improves as price rises and
// never skips a tier between adjacent sampled prices that straddle one
// threshold.
func TestProperty_RatingMonotonicInPrice(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("rating tier is non-decreasing in price", prop.ForAll(
		func(mid, spread float64, prices []float64) bool {
			low := mid * (1 - spread)
			high := mid * (1 + spread)
			sort.Float64s(prices)
			prev := -1
			for _, p := range prices {
				tier := tierOrder[Rate(p, low, mid, high)]
				if tier < prev {
					return false
				}
				prev = tier
			}
			return true
		},
		gen.Float64Range(1, 1000),
		gen.Float64Range(0.01, 0.5),
		gen.SliceOf(gen.Float64Range(0.01, 2000)),
	))

	properties.Property("walking the thresholds visits every tier in order", prop.ForAll(
		func(mid, spread float64) bool {
			low := mid * (1 - spread)
			high := mid * (1 + spread)
			steps := []float64{low * 0.89, low * 0.95, (low + mid) / 2, mid, high * 1.05, high * 1.2}
			for i, p := range steps {
				if tierOrder[Rate(p, low, mid, high)] != i {
					return false
				}
			}
			return true
		},
		gen.Float64Range(1, 1000),
		gen.Float64Range(0.05, 0.5),
	))

	properties.TestingRun(t)
}

// Property: one usable value always yields a ±15% band around it.
func TestProperty_SingleValueRange(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("single value band", prop.ForAll(
		func(v float64) bool {
			fv := FairValue([]*float64{utils.Ptr(v), nil, utils.Ptr(-v)})
			return fv.ValuesUsed == 1 &&
				*fv.Mid == utils.Round(v, 2) &&
				*fv.Low == utils.Round(v*0.85, 2) &&
				*fv.High == utils.Round(v*1.15, 2)
		},
		gen.Float64Range(0.01, 1e6),
	))

	properties.Property("low <= mid <= high", prop.ForAll(
		func(values []float64) bool {
			in := make([]*float64, len(values))
			for i := range values {
				in[i] = utils.Ptr(values[i])
			}
			fv := FairValue(in)
			if fv.ValuesUsed == 0 {
				return fv.Mid == nil
			}
			return *fv.Low <= *fv.Mid && *fv.Mid <= *fv.High
		},
		gen.SliceOf(gen.Float64Range(-100, 1e5)),
	))

	properties.TestingRun(t)
}
