package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	apperrors "equity-valuator/internal/errors"
	"equity-valuator/internal/models"
)

// FileProvider serves snapshots from <dir>/<TICKER>.json files, for offline
// runs and fixtures.
type FileProvider struct {
	dir      string
	peers    PeerTable
	maxPeers int
}

// NewFileProvider creates a provider rooted at dir.
func NewFileProvider(dir string, peers PeerTable, maxPeers int) *FileProvider {
	if peers == nil {
		peers = DefaultPeerTable()
	}
	return &FileProvider{dir: dir, peers: peers, maxPeers: maxPeers}
}

// LoadSnapshotFile decodes a snapshot from a JSON file.
func LoadSnapshotFile(path string) (*models.FinancialSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewDataError("snapshot", filepath.Base(path), "file not found", apperrors.ErrTickerNotFound)
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var s models.FinancialSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, apperrors.NewDataError("snapshot", filepath.Base(path), "invalid JSON", err)
	}
	return &s, nil
}

func (p *FileProvider) load(ticker string) (*models.FinancialSnapshot, error) {
	ticker, err := NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	s, err := LoadSnapshotFile(filepath.Join(p.dir, ticker+".json"))
	if err != nil {
		return nil, err
	}
	if s.Ticker == "" {
		s.Ticker = ticker
	}
	return s, nil
}

// Snapshot loads the ticker's file and fills peers and derived metrics.
func (p *FileProvider) Snapshot(_ context.Context, ticker string) (*models.FinancialSnapshot, error) {
	s, err := p.load(ticker)
	if err != nil {
		return nil, err
	}
	if len(s.Peers) == 0 {
		s.Peers = p.peers.Peers(s.Sector, s.Ticker, p.maxPeers)
	}
	DeriveMetrics(s)
	return s, nil
}

// PeerQuote reads the peer's multiples from its own snapshot file.
func (p *FileProvider) PeerQuote(_ context.Context, ticker string) (models.PeerQuote, error) {
	s, err := p.load(ticker)
	if err != nil {
		return models.PeerQuote{}, err
	}
	return models.PeerQuote{
		Ticker:    s.Ticker,
		PE:        s.Metrics[models.MetricPERatio],
		EVEBITDA:  s.Metrics[models.MetricEVEBITDA],
		EVRevenue: s.Metrics[models.MetricEVRevenue],
		PB:        s.Metrics[models.MetricPBRatio],
	}, nil
}

// Quote builds a quote from the snapshot's price fields.
func (p *FileProvider) Quote(_ context.Context, ticker string) (*models.Quote, error) {
	s, err := p.load(ticker)
	if err != nil {
		return nil, err
	}
	return &models.Quote{
		Ticker:    s.Ticker,
		Name:      firstNonEmpty(s.CompanyName, s.Ticker),
		Price:     s.CurrentPrice,
		MarketCap: s.MarketCap,
		Currency:  s.Currency,
	}, nil
}
