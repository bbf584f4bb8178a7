package tui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dm/etcd-dash/internal/engine"
	"github.com/dm/etcd-dash/internal/model"
)

// fakeDashboard implements Dashboard for testing.
type fakeDashboard struct {
	mu         sync.Mutex
	state      model.DashboardState
	updates    chan model.DashboardState
	refreshes  int
	compacts   int
	defrags    int
	cleared    int
	inProgress bool
	actionErr  error
}

func newFakeDashboard() *fakeDashboard {
	return &fakeDashboard{
		state:   model.DashboardState{Snapshot: model.ClusterSnapshotSet{}},
		updates: make(chan model.DashboardState, 8),
	}
}

func (f *fakeDashboard) State() model.DashboardState            { return f.state }
func (f *fakeDashboard) Subscribe() <-chan model.DashboardState { return f.updates }
func (f *fakeDashboard) Interval() time.Duration                { return 10 * time.Second }
func (f *fakeDashboard) BaseURL() string                        { return "http://mock:8080" }

func (f *fakeDashboard) RefreshNow() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return true
}

func (f *fakeDashboard) RunCompact(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.compacts++
	return f.actionErr
}

func (f *fakeDashboard) RunDefrag(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.defrags++
	return f.actionErr
}

func (f *fakeDashboard) ActionInProgress() bool { return f.inProgress }

func (f *fakeDashboard) ClearNotice() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func fixtureSnapshot() model.ClusterSnapshotSet {
	return model.ClusterSnapshotSet{{
		EndpointAddress:  "10.0.0.1:2379",
		Version:          "3.5.9",
		DBSizeBytes:      2097152,
		DBSizeInUseBytes: 1048576,
		IsLeader:         true,
	}}
}

func fixtureState() model.DashboardState {
	return model.DashboardState{
		Snapshot:    fixtureSnapshot(),
		LastUpdated: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Version:     2,
	}
}

func TestNewApp_SeedsFromEngineState(t *testing.T) {
	d := newFakeDashboard()
	d.state = fixtureState()
	app := NewApp(d)

	assert.Len(t, app.state.Snapshot, 1)
	assert.Equal(t, 1, app.summary.Endpoints)
	assert.Equal(t, "10.0.0.1:2379", app.summary.LeaderAddress)
}

func TestApp_StateMsgUpdatesState(t *testing.T) {
	app := NewApp(newFakeDashboard())

	newModel, cmd := app.Update(StateMsg{State: fixtureState()})
	updated := newModel.(*App)

	assert.Len(t, updated.state.Snapshot, 1)
	assert.Equal(t, 1, updated.summary.Endpoints)
	require.NotNil(t, cmd, "App must keep listening on the subscription")
}

func TestApp_WaitForStateDeliversUpdates(t *testing.T) {
	d := newFakeDashboard()
	app := NewApp(d)

	d.updates <- fixtureState()
	msg := waitForState(app.updates)()
	st, ok := msg.(StateMsg)
	require.True(t, ok, "expected StateMsg, got %T", msg)
	assert.Len(t, st.State.Snapshot, 1)

	close(d.updates)
	_, closed := waitForState(app.updates)().(subscriptionClosedMsg)
	assert.True(t, closed)
}

func TestApp_SubscriptionClosedMarksStopped(t *testing.T) {
	app := NewApp(newFakeDashboard())
	newModel, cmd := app.Update(subscriptionClosedMsg{})
	assert.True(t, newModel.(*App).stopped)
	assert.Nil(t, cmd)
}

func TestApp_NoticeSchedulesExpiry(t *testing.T) {
	d := newFakeDashboard()
	app := NewApp(d)

	st := fixtureState()
	st.Notice = "Compaction successful"
	_, cmd := app.Update(StateMsg{State: st})
	require.NotNil(t, cmd)

	// Expiry for the notice still showing clears it.
	app.Update(noticeExpiredMsg{Notice: "Compaction successful"})
	assert.Equal(t, 1, d.cleared)

	// A stale expiry for a notice that was replaced is ignored.
	app.Update(noticeExpiredMsg{Notice: "Defragmentation successful"})
	assert.Equal(t, 1, d.cleared)
}

func TestApp_WindowSizeStored(t *testing.T) {
	app := NewApp(nil)

	newModel, cmd := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	updated := newModel.(*App)

	assert.Equal(t, 120, updated.width)
	assert.Equal(t, 40, updated.height)
	assert.Nil(t, cmd)
}

func TestApp_QuitKey(t *testing.T) {
	app := NewApp(nil)

	_, cmd := app.Update(keyMsg("q"))

	// tea.Quit is a function, so check the message it produces.
	require.NotNil(t, cmd)
	result := cmd()
	_, isQuit := result.(tea.QuitMsg)
	assert.True(t, isQuit, "expected tea.QuitMsg, got %T", result)
}

func TestApp_RefreshKey(t *testing.T) {
	d := newFakeDashboard()
	app := NewApp(d)

	_, cmd := app.Update(keyMsg("r"))

	assert.Nil(t, cmd, "refresh result arrives through the subscription")
	assert.Equal(t, 1, d.refreshes)
}

func TestApp_HelpToggle(t *testing.T) {
	app := NewApp(nil)
	require.False(t, app.showHelp)

	newModel, _ := app.Update(keyMsg("?"))
	app = newModel.(*App)
	assert.True(t, app.showHelp)

	newModel, _ = app.Update(keyMsg("?"))
	app = newModel.(*App)
	assert.False(t, app.showHelp)
}

func TestApp_CompactKey_EntersConfirmMode(t *testing.T) {
	d := newFakeDashboard()
	app := NewApp(d)

	newModel, cmd := app.Update(keyMsg("c"))
	updated := newModel.(*App)

	assert.True(t, updated.confirming)
	assert.Equal(t, model.ActionCompact, updated.pending)
	assert.Nil(t, cmd, "no action before confirmation")
	assert.Equal(t, 0, d.compacts)
}

func TestApp_ConfirmY_RunsAction(t *testing.T) {
	d := newFakeDashboard()
	app := NewApp(d)
	app.Update(keyMsg("d"))

	newModel, cmd := app.Update(keyMsg("y"))
	updated := newModel.(*App)

	assert.False(t, updated.confirming)
	require.NotNil(t, cmd)
	msg := cmd()
	res, ok := msg.(ActionResultMsg)
	require.True(t, ok, "expected ActionResultMsg, got %T", msg)
	assert.Equal(t, model.ActionDefrag, res.Kind)
	assert.NoError(t, res.Err)
	assert.Equal(t, 1, d.defrags)
	assert.Equal(t, 0, d.compacts)
}

func TestApp_ConfirmN_Cancels(t *testing.T) {
	for _, k := range []tea.KeyMsg{keyMsg("n"), {Type: tea.KeyEscape}} {
		d := newFakeDashboard()
		app := NewApp(d)
		app.Update(keyMsg("c"))

		newModel, cmd := app.Update(k)
		updated := newModel.(*App)

		assert.False(t, updated.confirming, "key %q should cancel", k.String())
		assert.Nil(t, cmd)
		assert.Equal(t, 0, d.compacts)
	}
}

func TestApp_ConfirmMode_OtherKeysBlocked(t *testing.T) {
	d := newFakeDashboard()
	app := NewApp(d)
	app.Update(keyMsg("c"))

	newModel, cmd := app.Update(keyMsg("r"))
	updated := newModel.(*App)

	assert.True(t, updated.confirming, "confirm mode must persist for unrelated keys")
	assert.Nil(t, cmd)
	assert.Equal(t, 0, d.refreshes)
}

func TestApp_ActionKeyWhileActionInProgress(t *testing.T) {
	d := newFakeDashboard()
	d.inProgress = true
	app := NewApp(d)

	newModel, _ := app.Update(keyMsg("d"))
	updated := newModel.(*App)

	assert.False(t, updated.confirming)
	assert.Contains(t, updated.rejectedMsg, "another action is in progress")
}

func TestApp_ActionResultRejected(t *testing.T) {
	app := NewApp(newFakeDashboard())

	newModel, _ := app.Update(ActionResultMsg{Kind: model.ActionCompact, Err: engine.ErrActionInProgress})
	updated := newModel.(*App)

	assert.Equal(t, "Compaction not started: another action is in progress", updated.rejectedMsg)
	assert.Contains(t, stripANSI(updated.View()), "another action is in progress")
}

func TestApp_ViewShowsEndpointCard(t *testing.T) {
	d := newFakeDashboard()
	d.state = fixtureState()
	app := NewApp(d)
	app.width = 120

	view := stripANSI(app.View())
	assert.Contains(t, view, "10.0.0.1:2379")
	assert.Contains(t, view, "3.5.9")
	assert.Contains(t, view, "2.00 MB")
	assert.Contains(t, view, "1.00 MB")
	assert.Contains(t, view, "Yes")
}

func TestApp_ViewShowsError(t *testing.T) {
	d := newFakeDashboard()
	st := fixtureState()
	st.LastError = "no space"
	d.state = st
	app := NewApp(d)

	view := stripANSI(app.View())
	assert.Contains(t, view, "no space")
	assert.Contains(t, view, "10.0.0.1:2379", "snapshot still shown alongside the error")
}

func TestApp_ViewConfirmReplacesBody(t *testing.T) {
	d := newFakeDashboard()
	d.state = fixtureState()
	app := NewApp(d)
	app.width, app.height = 100, 30
	app.Update(keyMsg("c"))

	view := stripANSI(app.View())
	assert.Contains(t, view, "Compaction Confirmation")
	assert.Contains(t, view, "Press y to confirm")
	assert.NotContains(t, view, "2.00 MB")
	assert.Equal(t, 30, strings.Count(view, "\n")+1, "dialog fills the terminal height")
}

// stripANSI removes ANSI escape sequences for plain-text content assertions.
// Handles all CSI sequences (not just SGR m-terminated ones).
func stripANSI(s string) string {
	var out strings.Builder
	inEscape := false
	for _, r := range s {
		if r == '\x1b' {
			inEscape = true
			continue
		}
		if inEscape {
			// CSI final bytes are in range 0x40–0x7E (@, A-Z, [, \, ], ^, _, `, a-z, {, |, }, ~)
			if r >= 0x40 && r <= 0x7E && r != '[' {
				inEscape = false
			}
			continue
		}
		out.WriteRune(r)
	}
	return out.String()
}
