package tui

import (
	"time"

	"github.com/dm/etcd-dash/internal/model"
)

// StateMsg delivers a new dashboard state from the engine subscription.
type StateMsg struct {
	State model.DashboardState
}

// subscriptionClosedMsg signals the engine has been stopped.
type subscriptionClosedMsg struct{}

// ActionResultMsg reports how a confirmed maintenance action resolved. The
// outcome is already reflected in the engine state; Err is kept for the
// rejection case, which the engine does not record.
type ActionResultMsg struct {
	Kind model.ActionKind
	Err  error
}

// noticeExpiredMsg asks the App to dismiss Notice if it is still showing.
type noticeExpiredMsg struct{ Notice string }

// ClockMsg re-renders relative timestamps.
type ClockMsg time.Time
