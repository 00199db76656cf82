package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper periodically releases expired holds across all flights. The ledger
// also sweeps lazily on every capacity check; the background sweeper bounds
// how long an abandoned session's holds can linger beyond their TTL.
type Sweeper struct {
	ledger   InventoryLedger
	interval time.Duration
	log      zerolog.Logger

	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// NewSweeper creates a sweeper that runs at the given interval.
func NewSweeper(ledger InventoryLedger, interval time.Duration, log zerolog.Logger) *Sweeper {
	return &Sweeper{
		ledger:   ledger,
		interval: interval,
		log:      log,
		stop:     make(chan struct{}),
	}
}

// Start launches the sweep loop. It returns immediately; call Stop to
// terminate the loop during shutdown.
func (s *Sweeper) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := s.ledger.SweepExpired(ctx); err != nil {
					s.log.Error().Err(err).Msg("Hold sweep failed")
				}
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop terminates the sweep loop and waits for it to finish. Safe to call
// more than once.
func (s *Sweeper) Stop() {
	s.once.Do(func() { close(s.stop) })
	s.wg.Wait()
}
