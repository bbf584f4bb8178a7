package engine

import (
	"log/slog"
	"sync"
	"time"

	"github.com/dm/etcd-dash/internal/model"
)

const subscriberBuffer = 16

// Ticket identifies one dispatched request. Sequence numbers are issued in
// dispatch order and decide which completion wins when requests overlap.
type Ticket struct {
	seq uint64
}

// Seq returns the dispatch sequence number.
func (t Ticket) Seq() uint64 { return t.seq }

// Store is the single authoritative holder of the dashboard state. It is
// written by the Scheduler and Coordinator and read by the presentation layer.
// All transitions are applied under one mutex so readers never observe a
// half-applied update.
type Store struct {
	mu     sync.RWMutex
	state  model.DashboardState
	subs   map[chan model.DashboardState]struct{}
	logger *slog.Logger
	now    func() time.Time

	nextSeq      uint64
	inflight     int
	lastPollSeq  uint64 // newest poll whose result has been applied
	lastErrorSeq uint64 // request that wrote LastError
	disposed     bool
}

// NewStore creates an empty Store.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		state:  model.DashboardState{Snapshot: model.ClusterSnapshotSet{}},
		subs:   make(map[chan model.DashboardState]struct{}),
		logger: logger,
		now:    time.Now,
	}
}

// State returns a consistent copy of the current state.
func (s *Store) State() model.DashboardState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

// Subscribe returns a channel that receives the full state after every change.
// A slow subscriber may miss intermediate states but always ends up holding the
// latest one. The channel is closed by Unsubscribe or Dispose.
func (s *Store) Subscribe() <-chan model.DashboardState {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan model.DashboardState, subscriberBuffer)
	if s.disposed {
		close(ch)
		return ch
	}
	s.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes and closes a subscription channel.
func (s *Store) Unsubscribe(ch <-chan model.DashboardState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for existing := range s.subs {
		if (<-chan model.DashboardState)(existing) == ch {
			delete(s.subs, existing)
			close(existing)
			return
		}
	}
}

// Dispose marks the store dead. Later writes are discarded and every
// subscription is closed. Safe to call more than once.
func (s *Store) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.disposed = true
	for ch := range s.subs {
		close(ch)
	}
	s.subs = make(map[chan model.DashboardState]struct{})
}

// Disposed reports whether Dispose has been called.
func (s *Store) Disposed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.disposed
}

// BeginPoll records a dispatched poll and marks the store busy.
func (s *Store) BeginPoll() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, changed := s.beginLocked()
	if changed {
		s.publishLocked()
	}
	return t
}

// CompletePoll applies a poll result. Results from a poll dispatched before
// the newest applied poll are dropped; they still release their busy hold.
// On failure the snapshot is left untouched.
func (s *Store) CompletePoll(t Ticket, snap model.ClusterSnapshotSet, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.endLocked()

	if t.seq <= s.lastPollSeq {
		s.logger.Debug("discarding stale poll result", "seq", t.seq, "applied", s.lastPollSeq)
		s.publishLocked()
		return
	}
	s.lastPollSeq = t.seq

	if errMsg != "" {
		s.state.LastError = errMsg
		s.lastErrorSeq = t.seq
	} else {
		s.state.Snapshot = snap.Clone()
		if s.state.Snapshot == nil {
			s.state.Snapshot = model.ClusterSnapshotSet{}
		}
		s.state.LastUpdated = s.now()
		if t.seq > s.lastErrorSeq {
			s.state.LastError = ""
		}
	}
	s.publishLocked()
}

// BeginAction records a dispatched maintenance action and marks the store busy.
func (s *Store) BeginAction(req model.ActionRequest) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, _ := s.beginLocked()
	if !s.disposed {
		r := req
		s.state.Action = &r
		s.publishLocked()
	}
	return t
}

// CompleteAction clears the outstanding action. A non-empty errMsg becomes
// LastError; otherwise notice is shown as the success acknowledgment.
func (s *Store) CompleteAction(t Ticket, notice, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.endLocked()
	s.state.Action = nil
	if errMsg != "" {
		s.state.LastError = errMsg
		s.lastErrorSeq = t.seq
		s.state.Notice = ""
	} else {
		s.state.Notice = notice
	}
	s.publishLocked()
}

// ClearNotice removes the action acknowledgment once it has been shown.
func (s *Store) ClearNotice() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed || s.state.Notice == "" {
		return
	}
	s.state.Notice = ""
	s.publishLocked()
}

// beginLocked issues the next ticket and raises the busy flag. It reports
// whether Busy changed; publishing is left to the caller so that one
// transition produces one notification.
func (s *Store) beginLocked() (Ticket, bool) {
	s.nextSeq++
	t := Ticket{seq: s.nextSeq}
	if s.disposed {
		return t, false
	}
	s.inflight++
	changed := !s.state.Busy
	s.state.Busy = true
	return t, changed
}

func (s *Store) endLocked() {
	if s.inflight > 0 {
		s.inflight--
	}
	s.state.Busy = s.inflight > 0
}

// publishLocked bumps the version and fans the new state out to subscribers.
// When a subscriber's buffer is full its oldest pending state is dropped so
// the latest one always gets through.
func (s *Store) publishLocked() {
	s.state.Version++
	for ch := range s.subs {
		st := s.copyLocked()
		select {
		case ch <- st:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- st:
		default:
		}
	}
}

func (s *Store) copyLocked() model.DashboardState {
	cp := s.state
	cp.Snapshot = s.state.Snapshot.Clone()
	if s.state.Action != nil {
		a := *s.state.Action
		cp.Action = &a
	}
	return cp
}
