package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/dm/etcd-dash/internal/model"
)

func headerApp(st model.DashboardState) *App {
	d := newFakeDashboard()
	d.state = st
	app := NewApp(d)
	app.width = 120
	app.now = func() time.Time { return st.LastUpdated.Add(7 * time.Second) }
	return app
}

func TestRenderHeader_States(t *testing.T) {
	updated := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name  string
		state model.DashboardState
		want  string
	}{
		{"connecting", model.DashboardState{}, "CONNECTING"},
		{"ok", model.DashboardState{LastUpdated: updated}, "● OK"},
		{"error", model.DashboardState{LastUpdated: updated, LastError: "boom"}, "ERROR"},
		{"refreshing", model.DashboardState{LastUpdated: updated, Busy: true}, "refreshing"},
		{"action", model.DashboardState{LastUpdated: updated, Busy: true, Action: &model.ActionRequest{Kind: model.ActionDefrag}}, "Defragmentation in progress"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := stripANSI(renderHeader(headerApp(tc.state)))
			assert.Contains(t, got, tc.want)
			assert.Contains(t, got, "http://mock:8080")
			assert.Contains(t, got, "Poll: 10s")
		})
	}
}

func TestRenderHeader_Age(t *testing.T) {
	updated := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	got := stripANSI(renderHeader(headerApp(model.DashboardState{LastUpdated: updated})))
	assert.Contains(t, got, "Updated: 7s ago")

	got = stripANSI(renderHeader(headerApp(model.DashboardState{})))
	assert.Contains(t, got, "Updated: never")
}

func TestRenderHeader_Stopped(t *testing.T) {
	app := headerApp(model.DashboardState{})
	app.stopped = true
	assert.Contains(t, stripANSI(renderHeader(app)), "STOPPED")
}

func TestRenderHeader_FillsWidth(t *testing.T) {
	app := headerApp(model.DashboardState{})
	for _, w := range []int{80, 100, 120} {
		app.width = w
		h := renderHeader(app)
		assert.Equal(t, w, lipgloss.Width(h), "width=%d", w)
		assert.Equal(t, 1, strings.Count(h, "\n")+1, "width=%d", w)
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "10s", formatDuration(10*time.Second))
	assert.Equal(t, "90s", formatDuration(90*time.Second))
	assert.Equal(t, "2m", formatDuration(2*time.Minute))
}

func TestSanitize(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"empty string", "", ""},
		{"plain", "10.0.0.1:2379", "10.0.0.1:2379"},
		{"escape sequence", "evil\x1b[31mred", "evil[31mred"},
		{"newline", "a\nb", "ab"},
		{"unicode kept", "nœud-1", "nœud-1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, sanitize(tc.input))
		})
	}
}
