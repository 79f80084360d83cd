package report

import (
	"fmt"

	"github.com/gocarina/gocsv"

	"equity-valuator/internal/models"
	"equity-valuator/pkg/utils"
)

// Football field bar labels.
const (
	MethodDCF      = "DCF"
	MethodPE       = "P/E Multiple"
	MethodEVEBITDA = "EV/EBITDA"
	MethodBlended  = "Blended Range"
)

// Bar is one valuation method's low/mid/high band.
type Bar struct {
	Method string  `json:"method" csv:"method"`
	Low    float64 `json:"low" csv:"low"`
	Mid    float64 `json:"mid" csv:"mid"`
	High   float64 `json:"high" csv:"high"`
}

// FootballField is the chart data comparing valuation bands to the price.
type FootballField struct {
	CurrentPrice float64 `json:"current_price"`
	Bars         []Bar   `json:"bars"`
}

// BuildFootballField derives the chart bars. DCF gets a ±15% sensitivity
// band, the multiples ±10%; the blended range is shown as computed.
func BuildFootballField(v *models.Valuation, currentPrice float64) FootballField {
	bars := make([]Bar, 0, 4)

	band := func(method string, value *float64, spread float64) {
		if value == nil || *value <= 0 {
			return
		}
		bars = append(bars, Bar{
			Method: method,
			Low:    utils.Round(*value*(1-spread), 2),
			Mid:    utils.Round(*value, 2),
			High:   utils.Round(*value*(1+spread), 2),
		})
	}

	band(MethodDCF, v.DCF.IntrinsicValue, 0.15)
	band(MethodPE, v.Relative.PE.ImpliedPrice, 0.10)
	band(MethodEVEBITDA, v.Relative.EVEBITDA.ImpliedPrice, 0.10)

	fv := v.FairValueRange
	if fv.Low != nil && fv.Mid != nil && fv.High != nil {
		bars = append(bars, Bar{Method: MethodBlended, Low: *fv.Low, Mid: *fv.Mid, High: *fv.High})
	}

	return FootballField{CurrentPrice: currentPrice, Bars: bars}
}

// FootballFieldCSV renders the bars as CSV with a header row.
func FootballFieldCSV(ff FootballField) (string, error) {
	bars := ff.Bars
	if bars == nil {
		bars = []Bar{}
	}
	out, err := gocsv.MarshalString(&bars)
	if err != nil {
		return "", fmt.Errorf("failed to encode football field: %w", err)
	}
	return out, nil
}
