package model

import "time"

// ActionKind identifies a maintenance action.
type ActionKind int

const (
	ActionCompact ActionKind = iota
	ActionDefrag
)

// String returns the lower-case action name used in logs and messages.
func (k ActionKind) String() string {
	switch k {
	case ActionCompact:
		return "compact"
	case ActionDefrag:
		return "defrag"
	default:
		return "unknown"
	}
}

// Title returns the human-readable action name.
func (k ActionKind) Title() string {
	switch k {
	case ActionCompact:
		return "Compaction"
	case ActionDefrag:
		return "Defragmentation"
	default:
		return "Unknown action"
	}
}

// ActionRequest describes a maintenance call in progress. It lives only for
// the duration of one action.
type ActionRequest struct {
	Kind      ActionKind
	StartedAt time.Time
}

// ActionPhase is a step of the per-action state machine:
// Idle -> Requesting -> {Succeeded, Failed} -> Idle.
type ActionPhase int

const (
	PhaseIdle ActionPhase = iota
	PhaseRequesting
	PhaseSucceeded
	PhaseFailed
)

func (p ActionPhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRequesting:
		return "requesting"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DashboardState is the full view-model read by the presentation layer.
type DashboardState struct {
	Snapshot    ClusterSnapshotSet
	Busy        bool           // true while any poll or action is in flight
	LastError   string         // empty when there is no error to show
	Notice      string         // last action acknowledgment
	Action      *ActionRequest // outstanding action, nil when idle
	LastUpdated time.Time      // when the current snapshot was received
	Version     uint64         // incremented on every applied change
}

// HasError reports whether an error message is being shown.
func (s DashboardState) HasError() bool {
	return s.LastError != ""
}
