/*
scheduler.go - Automated leave expiry scheduler

PURPOSE:
  Periodically expires allocation ledger entries whose window has closed,
  so balances drop unused and carried-forward leaves without a manual
  POST /api/leave-ledger/expire.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Runs once immediately on start
  - Expiry is idempotent, so overlapping manual runs are harmless

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewExpiryScheduler(svc, log)
  scheduler.Start()
  // ... later
  scheduler.Stop()
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Expirer is the part of leave.Service the scheduler drives.
type Expirer interface {
	ProcessExpiredAllocations(ctx context.Context) (int, error)
}

// ExpiryScheduler runs leave expiry on a ticker.
type ExpiryScheduler struct {
	Expirer       Expirer
	CheckInterval time.Duration
	Enabled       bool

	log    *zap.Logger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	smu     sync.Mutex
	runs    int
	expired int
}

// NewExpiryScheduler creates a new scheduler.
func NewExpiryScheduler(e Expirer, log *zap.Logger) *ExpiryScheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ExpiryScheduler{
		Expirer:       e,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		log:           log.Named("scheduler"),
	}
}

// Start begins the scheduler.
func (es *ExpiryScheduler) Start() {
	es.mu.Lock()
	defer es.mu.Unlock()

	if !es.Enabled {
		es.log.Info("disabled, not starting")
		return
	}
	if es.ticker != nil {
		return
	}

	es.ticker = time.NewTicker(es.CheckInterval)
	es.stop = make(chan struct{})
	es.wg.Add(1)

	go es.run()

	es.log.Info("started", zap.Duration("check_interval", es.CheckInterval))
}

// Stop stops the scheduler and waits for a running check to finish.
func (es *ExpiryScheduler) Stop() {
	es.mu.Lock()
	defer es.mu.Unlock()

	if es.ticker != nil {
		es.ticker.Stop()
		close(es.stop)
		es.wg.Wait()
		es.ticker = nil
		es.log.Info("stopped")
	}
}

func (es *ExpiryScheduler) run() {
	defer es.wg.Done()

	es.checkAndProcess()

	for {
		select {
		case <-es.ticker.C:
			es.checkAndProcess()
		case <-es.stop:
			return
		}
	}
}

func (es *ExpiryScheduler) checkAndProcess() {
	ctx, cancel := context.WithTimeout(context.Background(), es.CheckInterval)
	defer cancel()

	start := time.Now()
	n, err := es.Expirer.ProcessExpiredAllocations(ctx)
	if err != nil {
		es.log.Error("expiry run failed", zap.Error(err))
		return
	}

	es.record(n)
	es.log.Info("expiry run completed",
		zap.Int("processed", n),
		zap.Duration("took", time.Since(start)))
}

func (es *ExpiryScheduler) record(n int) {
	es.smu.Lock()
	es.runs++
	es.expired += n
	es.smu.Unlock()
}

// RunNow triggers an immediate check (for testing/admin).
func (es *ExpiryScheduler) RunNow() {
	es.checkAndProcess()
}

// Stats returns the number of completed runs and expiry entries written.
func (es *ExpiryScheduler) Stats() (runs, expired int) {
	es.smu.Lock()
	defer es.smu.Unlock()
	return es.runs, es.expired
}
