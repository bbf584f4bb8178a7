package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dm/etcd-dash/internal/client"
	"github.com/dm/etcd-dash/internal/model"
)

// DefaultPollInterval is the refresh period used when none is configured.
const DefaultPollInterval = 10 * time.Second

// StatusFetcher is the part of client.ClusterClient the Scheduler needs.
type StatusFetcher interface {
	FetchStatus(ctx context.Context) (model.ClusterSnapshotSet, error)
}

// Scheduler drives periodic refreshes of the cluster snapshot. A refresh is
// never suppressed because another one is in flight; the Store orders the
// completions.
type Scheduler struct {
	fetcher  StatusFetcher
	store    *Store
	interval time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	running  bool
	stopped  bool
	cancel   context.CancelFunc
	done     chan struct{} // closed when the ticker goroutine exits
	inflight sync.WaitGroup
}

// NewScheduler creates a Scheduler that refreshes store from fetcher every
// interval. A non-positive interval selects DefaultPollInterval.
func NewScheduler(fetcher StatusFetcher, store *Store, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{
		fetcher:  fetcher,
		store:    store,
		interval: interval,
		logger:   logger,
	}
}

// Interval returns the configured refresh period.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Start dispatches one refresh immediately and then one per interval.
// Calling Start while running, or after Stop, does nothing.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || s.stopped {
		return
	}
	s.running = true

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	s.dispatchLocked("start")
	go s.loop(ctx, s.done)
}

// Stop cancels the ticker and waits for its goroutine to exit, so no refresh
// is dispatched after Stop returns. Refreshes already in flight are left to
// complete. Stop is idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.running = false
	if s.cancel != nil {
		s.cancel()
	}
	done := s.done
	s.mu.Unlock()

	if done != nil {
		<-done
	}
	s.logger.Debug("scheduler stopped")
}

// RefreshNow dispatches one refresh immediately without disturbing the ticker
// phase. It reports false when the scheduler has been stopped.
func (s *Scheduler) RefreshNow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.dispatchLocked("manual")
	return true
}

// Wait blocks until every dispatched refresh has completed. Call it after
// Stop, or when no other goroutine is dispatching.
func (s *Scheduler) Wait() {
	s.inflight.Wait()
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || ctx.Err() != nil {
		return
	}
	s.dispatchLocked("tick")
}

// dispatchLocked takes a ticket synchronously, so the store is busy before
// the caller returns, and runs the network call on its own goroutine. Lock
// order is s.mu then the store's mutex.
func (s *Scheduler) dispatchLocked(trigger string) {
	t := s.store.BeginPoll()
	s.inflight.Add(1)
	go s.refresh(t, trigger)
}

func (s *Scheduler) refresh(t Ticket, trigger string) {
	defer s.inflight.Done()

	timeout := s.interval - 500*time.Millisecond
	if timeout < 500*time.Millisecond {
		timeout = 500 * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	snap, err := s.fetcher.FetchStatus(ctx)
	if err != nil {
		s.logger.Warn("status poll failed", "trigger", trigger, "seq", t.Seq(), "error", err)
		s.store.CompletePoll(t, nil, client.UserMessage(err))
		return
	}
	s.logger.Debug("status poll succeeded", "trigger", trigger, "seq", t.Seq(), "endpoints", len(snap))
	s.store.CompletePoll(t, snap, "")
}
