package server

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"equity-valuator/internal/store"
)

// Purger drops expired snapshot cache entries on a cron schedule.
type Purger struct {
	cron    *cron.Cron
	cache   store.SnapshotCache
	log     zerolog.Logger
	timeout time.Duration
}

// NewPurger registers the purge job. Schedule uses the standard five-field
// cron syntax or descriptors such as "@hourly".
func NewPurger(cache store.SnapshotCache, schedule string, log zerolog.Logger) (*Purger, error) {
	p := &Purger{
		cron:    cron.New(),
		cache:   cache,
		log:     log.With().Str("component", "purger").Logger(),
		timeout: 30 * time.Second,
	}

	_, err := p.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		_, _ = p.Run(ctx)
	})
	if err != nil {
		return nil, err
	}

	p.log.Info().
		Str("schedule", schedule).
		Str("backend", cache.Name()).
		Msg("Cache purge registered")
	return p, nil
}

// Start starts the scheduler
func (p *Purger) Start() {
	p.cron.Start()
}

// Stop waits for a running purge to finish.
func (p *Purger) Stop() {
	ctx := p.cron.Stop()
	<-ctx.Done()
}

// Run purges once.
func (p *Purger) Run(ctx context.Context) (int, error) {
	n, err := p.cache.Purge(ctx)
	if err != nil {
		p.log.Error().Err(err).Msg("Cache purge failed")
		return 0, err
	}
	p.log.Debug().Int("removed", n).Msg("Cache purge completed")
	return n, nil
}
