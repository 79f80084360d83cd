package relative

import (
	"context"

	"github.com/sourcegraph/conc/pool"
	"gonum.org/v1/gonum/stat"

	"equity-valuator/internal/models"
	"equity-valuator/pkg/utils"
)

// MultiplesSource returns the trading multiples of one peer company.
type MultiplesSource interface {
	PeerQuote(ctx context.Context, ticker string) (models.PeerQuote, error)
}

// band is an open interval of acceptable multiple values.
type band struct{ lo, hi float64 }

func (b band) contains(v float64) bool { return v > b.lo && v < b.hi }

var (
	peBand        = band{0, 100}
	evEBITDABand  = band{0, 50}
	evRevenueBand = band{0, 20}
	pbBand        = band{0, 50}
)

// HarmonicMean returns n / Σ(1/v) over the positive values, rounded to two
// decimals. ok is false when no value is positive.
func HarmonicMean(values []float64) (mean float64, ok bool) {
	valid := make([]float64, 0, len(values))
	for _, v := range values {
		if v > 0 {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return 0, false
	}
	return utils.Round(stat.HarmonicMean(valid, nil), 2), true
}

// MarketAverage returns the fallback multiples used when there are no peers.
func (e *Engine) MarketAverage() models.PeerMultiples {
	return models.PeerMultiples{
		MedianPE:        e.params.DefaultPE,
		MedianEVEBITDA:  e.params.DefaultEVEBITDA,
		MedianEVRevenue: e.params.DefaultEVRevenue,
		MedianPB:        e.params.DefaultPB,
		PeerCount:       0,
		Source:          models.SourceMarketAverage,
	}
}

// Aggregate filters each multiple to its valid band and combines the peers
// with a harmonic mean. A multiple with no valid peer value falls back to
// its market default.
func (e *Engine) Aggregate(quotes []models.PeerQuote, peerCount int) models.PeerMultiples {
	var pe, evEBITDA, evRevenue, pb []float64
	for _, q := range quotes {
		if peBand.contains(q.PE) {
			pe = append(pe, q.PE)
		}
		if evEBITDABand.contains(q.EVEBITDA) {
			evEBITDA = append(evEBITDA, q.EVEBITDA)
		}
		if evRevenueBand.contains(q.EVRevenue) {
			evRevenue = append(evRevenue, q.EVRevenue)
		}
		if pbBand.contains(q.PB) {
			pb = append(pb, q.PB)
		}
	}

	meanOr := func(values []float64, def float64) float64 {
		if m, ok := HarmonicMean(values); ok {
			return m
		}
		return def
	}

	return models.PeerMultiples{
		MedianPE:        meanOr(pe, e.params.DefaultPE),
		MedianEVEBITDA:  meanOr(evEBITDA, e.params.DefaultEVEBITDA),
		MedianEVRevenue: meanOr(evRevenue, e.params.DefaultEVRevenue),
		MedianPB:        meanOr(pb, e.params.DefaultPB),
		PeerCount:       peerCount,
		Source:          models.SourcePeerAnalysis,
		PEValues:        pe,
		EVEBITDAValues:  evEBITDA,
		EVRevenueValues: evRevenue,
		PBValues:        pb,
	}
}

// PeerMultiples fetches up to MaxPeers peers concurrently and aggregates
// them. Peers that fail to load are skipped.
func (e *Engine) PeerMultiples(ctx context.Context, peers []string) models.PeerMultiples {
	if len(peers) == 0 || e.source == nil {
		return e.MarketAverage()
	}
	if len(peers) > e.params.MaxPeers {
		peers = peers[:e.params.MaxPeers]
	}

	p := pool.NewWithResults[*models.PeerQuote]().
		WithContext(ctx).
		WithMaxGoroutines(len(peers))
	for _, ticker := range peers {
		ticker := ticker
		p.Go(func(ctx context.Context) (*models.PeerQuote, error) {
			q, err := e.source.PeerQuote(ctx, ticker)
			if err != nil {
				return nil, nil
			}
			return &q, nil
		})
	}
	results, _ := p.Wait()

	quotes := make([]models.PeerQuote, 0, len(results))
	for _, q := range results {
		if q != nil {
			quotes = append(quotes, *q)
		}
	}
	return e.Aggregate(quotes, len(peers))
}
