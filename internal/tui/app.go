package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dm/etcd-dash/internal/engine"
	"github.com/dm/etcd-dash/internal/model"
)

// noticeTimeout is how long an action acknowledgment stays on screen.
const noticeTimeout = 5 * time.Second

// Dashboard is the engine surface the TUI drives. *engine.Engine implements it.
type Dashboard interface {
	State() model.DashboardState
	Subscribe() <-chan model.DashboardState
	RefreshNow() bool
	RunCompact(ctx context.Context) error
	RunDefrag(ctx context.Context) error
	ActionInProgress() bool
	ClearNotice()
	Interval() time.Duration
	BaseURL() string
}

// App is the root Bubble Tea model for etcdash. It never calls the cluster
// itself; it renders engine state and forwards user intents.
type App struct {
	dash    Dashboard
	updates <-chan model.DashboardState

	state   model.DashboardState
	summary model.ClusterSummary
	hints   []model.Hint
	stopped bool

	// Layout
	width, height int

	// UI state
	showHelp    bool
	confirming  bool
	pending     model.ActionKind
	rejectedMsg string
	spinner     spinner.Model
	now         func() time.Time
}

// NewApp creates an App bound to dash and subscribes to its state changes.
func NewApp(dash Dashboard) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = StyleCyan

	app := &App{
		dash:    dash,
		spinner: sp,
		now:     time.Now,
		hints:   []model.Hint{},
	}
	if dash != nil {
		app.updates = dash.Subscribe()
		app.applyState(dash.State())
	}
	return app
}

// Init implements tea.Model.
func (app *App) Init() tea.Cmd {
	return tea.Batch(waitForState(app.updates), app.spinner.Tick, clockCmd())
}

// Update implements tea.Model and is the single state-mutation entry point.
func (app *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		app.width = msg.Width
		app.height = msg.Height

	case StateMsg:
		prevNotice := app.state.Notice
		app.applyState(msg.State)
		cmds := []tea.Cmd{waitForState(app.updates)}
		if app.state.Notice != "" && app.state.Notice != prevNotice {
			cmds = append(cmds, expireNoticeCmd(app.state.Notice))
		}
		return app, tea.Batch(cmds...)

	case subscriptionClosedMsg:
		app.stopped = true

	case noticeExpiredMsg:
		if app.dash != nil && app.state.Notice == msg.Notice {
			app.dash.ClearNotice()
		}

	case ActionResultMsg:
		if errors.Is(msg.Err, engine.ErrActionInProgress) {
			app.rejectedMsg = msg.Kind.Title() + " not started: another action is in progress"
		}

	case ClockMsg:
		return app, clockCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		app.spinner, cmd = app.spinner.Update(msg)
		return app, cmd

	case tea.KeyMsg:
		if app.confirming {
			return app.updateConfirm(msg)
		}
		switch {
		case key.Matches(msg, keys.Quit):
			return app, tea.Quit
		case key.Matches(msg, keys.Refresh):
			app.rejectedMsg = ""
			if app.dash != nil {
				app.dash.RefreshNow()
			}
		case key.Matches(msg, keys.Compact):
			app.requestAction(model.ActionCompact)
		case key.Matches(msg, keys.Defrag):
			app.requestAction(model.ActionDefrag)
		case key.Matches(msg, keys.Help):
			app.showHelp = !app.showHelp
		}
	}

	return app, nil
}

// updateConfirm handles keys while the confirmation dialog is open. Keys
// other than confirm and cancel are swallowed.
func (app *App) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Confirm):
		app.confirming = false
		return app, actionCmd(app.dash, app.pending)
	case key.Matches(msg, keys.Cancel):
		app.confirming = false
	}
	return app, nil
}

// requestAction opens the confirmation dialog unless an action is already
// outstanding.
func (app *App) requestAction(kind model.ActionKind) {
	if app.dash == nil {
		return
	}
	if app.dash.ActionInProgress() {
		app.rejectedMsg = kind.Title() + " not started: another action is in progress"
		return
	}
	app.rejectedMsg = ""
	app.pending = kind
	app.confirming = true
}

func (app *App) applyState(st model.DashboardState) {
	app.state = st
	app.summary = engine.CalcClusterSummary(st.Snapshot)
	app.hints = engine.CalcHints(st.Snapshot)
}

// View implements tea.Model. Renders the full TUI.
func (app *App) View() string {
	var parts []string

	parts = append(parts, renderHeader(app))
	if app.confirming {
		parts = append(parts, renderConfirm(app))
		parts = append(parts, renderFooter(app))
		return strings.Join(parts, "\n")
	}
	if o := renderOverview(app); o != "" {
		parts = append(parts, o)
	}
	if s := renderStatusLine(app); s != "" {
		parts = append(parts, s)
	}
	parts = append(parts, renderEndpoints(app))
	if h := renderHints(app); h != "" {
		parts = append(parts, h)
	}
	parts = append(parts, renderFooter(app))

	return strings.Join(parts, "\n")
}

// waitForState blocks on the subscription and delivers the next state.
func waitForState(ch <-chan model.DashboardState) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return subscriptionClosedMsg{}
		}
		return StateMsg{State: st}
	}
}

// actionCmd runs a confirmed maintenance action off the UI goroutine.
func actionCmd(dash Dashboard, kind model.ActionKind) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		var err error
		switch kind {
		case model.ActionCompact:
			err = dash.RunCompact(ctx)
		case model.ActionDefrag:
			err = dash.RunDefrag(ctx)
		}
		return ActionResultMsg{Kind: kind, Err: err}
	}
}

func expireNoticeCmd(notice string) tea.Cmd {
	return tea.Tick(noticeTimeout, func(time.Time) tea.Msg {
		return noticeExpiredMsg{Notice: notice}
	})
}

// clockCmd ticks once a second so "updated Ns ago" stays current.
func clockCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return ClockMsg(t)
	})
}
