package valuation

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"equity-valuator/internal/models"
	"equity-valuator/pkg/utils"
)

// BlendInputs collects the prices that feed the fair value range: the DCF
// intrinsic value and the P/E, EV/EBITDA and EV/Revenue implied prices.
// P/B is deliberately left out.
func BlendInputs(dcf models.DCFResult, rel models.RelativeResult) []*float64 {
	return []*float64{
		dcf.IntrinsicValue,
		rel.PE.ImpliedPrice,
		rel.EVEBITDA.ImpliedPrice,
		rel.EVRevenue.ImpliedPrice,
	}
}

// FairValue derives the low/mid/high band from candidate prices. Nil and
// non-positive prices are discarded.
func FairValue(candidates []*float64) models.FairValueRange {
	values := make([]float64, 0, len(candidates))
	for _, c := range candidates {
		if c != nil && *c > 0 {
			values = append(values, *c)
		}
	}
	sort.Float64s(values)

	var low, mid, high float64
	switch n := len(values); {
	case n == 0:
		return models.FairValueRange{}
	case n == 1:
		mid = values[0]
		low = mid * 0.85
		high = mid * 1.15
	case n == 2:
		low, high = values[0], values[1]
		mid = (low + high) / 2
	default:
		low, high = values[0], values[n-1]
		mid = stat.Mean(values, nil)
	}

	return models.FairValueRange{
		Low:        utils.RoundPtr(low, 2),
		Mid:        utils.RoundPtr(mid, 2),
		High:       utils.RoundPtr(high, 2),
		ValuesUsed: len(values),
	}
}

// Recommend rates the current price against the fair value range.
func Recommend(currentPrice float64, fv models.FairValueRange) models.Recommendation {
	if currentPrice <= 0 || fv.Mid == nil {
		return models.Recommendation{
			Rating:      models.RatingUnknown,
			Description: "Unable to determine a valuation",
		}
	}

	mid := *fv.Mid
	low := mid * 0.85
	if fv.Low != nil {
		low = *fv.Low
	}
	high := mid * 1.15
	if fv.High != nil {
		high = *fv.High
	}

	rating := Rate(currentPrice, low, mid, high)
	upside := (mid - currentPrice) / currentPrice * 100

	return models.Recommendation{
		Rating:       rating,
		Description:  ratingDescription(rating),
		UpsidePct:    utils.RoundPtr(upside, 1),
		CurrentPrice: currentPrice,
		TargetPrice:  utils.RoundPtr(mid, 2),
	}
}

// Rate maps a price to a rating tier for a fixed range.
func Rate(price, low, mid, high float64) models.Rating {
	switch {
	case price < low*0.9:
		return models.RatingStrongBuy
	case price < low:
		return models.RatingBuy
	case price < mid:
		return models.RatingAccumulate
	case price <= high:
		return models.RatingHold
	case price <= high*1.1:
		return models.RatingReduce
	default:
		return models.RatingSell
	}
}

func ratingDescription(r models.Rating) string {
	switch r {
	case models.RatingStrongBuy:
		return "Significantly undervalued - price well below the fair value range"
	case models.RatingBuy:
		return "Undervalued - price below the low end of the fair value range"
	case models.RatingAccumulate:
		return "Slightly undervalued - price below the mid valuation"
	case models.RatingHold:
		return "Fairly valued - price within the fair value range"
	case models.RatingReduce:
		return "Slightly overvalued - price above the fair value range"
	case models.RatingSell:
		return "Significantly overvalued - price well above fair value"
	default:
		return "Unable to determine a valuation"
	}
}
