package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dm/etcd-dash/internal/client"
	"github.com/dm/etcd-dash/internal/model"
)

// DefaultActionTimeout bounds a single compact or defrag call.
const DefaultActionTimeout = 60 * time.Second

// ErrActionInProgress is returned when an action is requested while another
// one is still outstanding. No network call is made.
var ErrActionInProgress = errors.New("another maintenance action is in progress")

// ActionClient is the part of client.ClusterClient the Coordinator needs.
type ActionClient interface {
	Compact(ctx context.Context) error
	Defrag(ctx context.Context) error
}

// Refresher requests one out-of-band refresh.
type Refresher interface {
	RefreshNow() bool
}

// Coordinator runs the destructive maintenance actions one at a time. Polls
// are not blocked by an outstanding action.
type Coordinator struct {
	client    ActionClient
	store     *Store
	refresher Refresher
	timeout   time.Duration
	logger    *slog.Logger
	now       func() time.Time

	mu      sync.Mutex
	phases  map[model.ActionKind]model.ActionPhase
	current *model.ActionRequest
	ticket  Ticket
}

// NewCoordinator creates a Coordinator. refresher is asked for exactly one
// refresh after every successful action.
func NewCoordinator(c ActionClient, store *Store, refresher Refresher, timeout time.Duration, logger *slog.Logger) *Coordinator {
	if timeout <= 0 {
		timeout = DefaultActionTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Coordinator{
		client:    c,
		store:     store,
		refresher: refresher,
		timeout:   timeout,
		logger:    logger,
		now:       time.Now,
		phases: map[model.ActionKind]model.ActionPhase{
			model.ActionCompact: model.PhaseIdle,
			model.ActionDefrag:  model.PhaseIdle,
		},
	}
}

// RunCompact compacts the cluster's revision history. It blocks until the
// call resolves and returns ErrActionInProgress if another action is running.
func (c *Coordinator) RunCompact(ctx context.Context) error {
	return c.run(ctx, model.ActionCompact)
}

// RunDefrag defragments every member's backend. It blocks until the call
// resolves and returns ErrActionInProgress if another action is running.
func (c *Coordinator) RunDefrag(ctx context.Context) error {
	return c.run(ctx, model.ActionDefrag)
}

// Phase returns the current state-machine phase for kind.
func (c *Coordinator) Phase(kind model.ActionKind) model.ActionPhase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phases[kind]
}

// Current returns the outstanding action, or nil when idle.
func (c *Coordinator) Current() *model.ActionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	req := *c.current
	return &req
}

func (c *Coordinator) run(ctx context.Context, kind model.ActionKind) error {
	c.mu.Lock()
	if c.current != nil {
		running := c.current.Kind
		c.mu.Unlock()
		c.logger.Info("maintenance action rejected", "action", kind, "running", running)
		return ErrActionInProgress
	}
	c.transitionLocked(kind, model.PhaseRequesting, nil)
	c.mu.Unlock()

	c.logger.Info("maintenance action started", "action", kind)
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	err := c.call(callCtx, kind)
	cancel()

	c.mu.Lock()
	if err != nil {
		c.transitionLocked(kind, model.PhaseFailed, err)
		c.transitionLocked(kind, model.PhaseIdle, nil)
		c.mu.Unlock()
		c.logger.Warn("maintenance action failed", "action", kind, "error", err)
		return err
	}
	c.transitionLocked(kind, model.PhaseSucceeded, nil)
	c.transitionLocked(kind, model.PhaseIdle, nil)
	c.mu.Unlock()

	c.logger.Info("maintenance action succeeded", "action", kind)
	if c.refresher != nil {
		c.refresher.RefreshNow()
	}
	return nil
}

func (c *Coordinator) call(ctx context.Context, kind model.ActionKind) error {
	switch kind {
	case model.ActionCompact:
		return c.client.Compact(ctx)
	case model.ActionDefrag:
		return c.client.Defrag(ctx)
	default:
		return errors.New("unknown action " + kind.String())
	}
}

// transitionLocked moves kind to phase `to` and applies the matching store
// write. It is the only place that touches the busy flag, LastError or Notice
// on behalf of an action. Lock order is c.mu then the store's mutex; the store
// must never call back into the coordinator.
func (c *Coordinator) transitionLocked(kind model.ActionKind, to model.ActionPhase, err error) {
	from := c.phases[kind]
	c.phases[kind] = to

	switch to {
	case model.PhaseRequesting:
		req := model.ActionRequest{Kind: kind, StartedAt: c.now()}
		c.current = &req
		c.ticket = c.store.BeginAction(req)
	case model.PhaseSucceeded:
		c.store.CompleteAction(c.ticket, kind.Title()+" successful", "")
	case model.PhaseFailed:
		c.store.CompleteAction(c.ticket, "", client.UserMessage(err))
	case model.PhaseIdle:
		c.current = nil
	}
	c.logger.Debug("action transition", "action", kind, "from", from, "to", to)
}
