package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/dm/etcd-dash/internal/client"
	"github.com/dm/etcd-dash/internal/model"
)

// Options configures an Engine.
type Options struct {
	PollInterval  time.Duration
	ActionTimeout time.Duration
	Logger        *slog.Logger
}

// Engine wires the Store, Scheduler and Coordinator together and is the only
// surface the presentation layer talks to.
type Engine struct {
	client      client.ClusterClient
	store       *Store
	scheduler   *Scheduler
	coordinator *Coordinator
	logger      *slog.Logger
}

// New builds an Engine around c. Nothing is dispatched until Start.
func New(c client.ClusterClient, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	store := NewStore(logger.With("component", "store"))
	scheduler := NewScheduler(c, store, opts.PollInterval, logger.With("component", "scheduler"))
	coordinator := NewCoordinator(c, store, scheduler, opts.ActionTimeout, logger.With("component", "coordinator"))
	return &Engine{
		client:      c,
		store:       store,
		scheduler:   scheduler,
		coordinator: coordinator,
		logger:      logger,
	}
}

// Start begins polling: one refresh now, then one per interval.
func (e *Engine) Start() {
	e.logger.Info("engine started", "url", e.client.BaseURL(), "interval", e.scheduler.Interval())
	e.scheduler.Start()
}

// Stop stops the ticker and disposes the store. Requests still in flight
// finish in the background and their results are discarded.
func (e *Engine) Stop() {
	e.scheduler.Stop()
	e.store.Dispose()
	e.logger.Info("engine stopped")
}

// Wait blocks until in-flight refreshes have returned. Use after Stop.
func (e *Engine) Wait() {
	e.scheduler.Wait()
}

// State returns the current dashboard state.
func (e *Engine) State() model.DashboardState {
	return e.store.State()
}

// Subscribe returns a channel receiving the state after every change.
func (e *Engine) Subscribe() <-chan model.DashboardState {
	return e.store.Subscribe()
}

// Unsubscribe closes a channel returned by Subscribe.
func (e *Engine) Unsubscribe(ch <-chan model.DashboardState) {
	e.store.Unsubscribe(ch)
}

// RefreshNow dispatches an immediate refresh.
func (e *Engine) RefreshNow() bool {
	return e.scheduler.RefreshNow()
}

// RunCompact runs a compaction; see Coordinator.RunCompact.
func (e *Engine) RunCompact(ctx context.Context) error {
	return e.coordinator.RunCompact(ctx)
}

// RunDefrag runs a defragmentation; see Coordinator.RunDefrag.
func (e *Engine) RunDefrag(ctx context.Context) error {
	return e.coordinator.RunDefrag(ctx)
}

// ActionInProgress reports whether a maintenance action is outstanding.
func (e *Engine) ActionInProgress() bool {
	return e.coordinator.Current() != nil
}

// ClearNotice dismisses the last action acknowledgment.
func (e *Engine) ClearNotice() {
	e.store.ClearNotice()
}

// Interval returns the poll interval.
func (e *Engine) Interval() time.Duration {
	return e.scheduler.Interval()
}

// BaseURL returns the address of the dashboard server being polled.
func (e *Engine) BaseURL() string {
	return e.client.BaseURL()
}
