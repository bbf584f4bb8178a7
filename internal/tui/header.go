package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dm/etcd-dash/internal/format"
)

// renderHeader renders the top header bar with the server URL, activity and
// timing info.
//
// Layout:
//
//	left:   "etcd Cluster Manager  <URL>"
//	center: spinner with the running action or "refreshing", otherwise "● OK" / "● ERROR"
//	right:  "Updated: 5s ago  Poll: 10s"
func renderHeader(app *App) string {
	width := app.width
	if width <= 0 {
		width = 80
	}

	baseURL := ""
	var interval time.Duration
	if app.dash != nil {
		baseURL = app.dash.BaseURL()
		interval = app.dash.Interval()
	}
	left := StyleTitle.Render("etcd Cluster Manager") + "  " + StyleDim.Render(sanitize(baseURL))

	var center string
	st := app.state
	switch {
	case app.stopped:
		center = StyleDim.Render("● STOPPED")
	case st.Action != nil:
		center = app.spinner.View() + StyleYellow.Render(" "+actionProgressLabel(st.Action.Kind.Title()))
	case st.Busy:
		center = app.spinner.View() + StyleDim.Render(" refreshing")
	case st.HasError():
		center = StyleError.Render("● ERROR")
	case st.LastUpdated.IsZero():
		center = StyleDim.Render("● CONNECTING")
	default:
		center = StyleGreen.Bold(true).Render("● OK")
	}

	now := time.Now()
	if app.now != nil {
		now = app.now()
	}
	right := StyleDim.Render(fmt.Sprintf("Updated: %s  Poll: %s", format.FormatAge(st.LastUpdated, now), formatDuration(interval)))

	// Build row: left + padding + center + padding + right, filling innerWidth.
	// StyleHeader has Padding(0, 1) so inner content width = total width - 2.
	innerWidth := width - 2
	leftVW := lipgloss.Width(left)
	centerVW := lipgloss.Width(center)
	rightVW := lipgloss.Width(right)

	spacing := innerWidth - leftVW - centerVW - rightVW
	if spacing < 0 {
		spacing = 0
	}
	leftSpacing := spacing / 2
	rightSpacing := spacing - leftSpacing

	row := left +
		strings.Repeat(" ", leftSpacing) +
		center +
		strings.Repeat(" ", rightSpacing) +
		right

	return StyleHeader.Width(width).Render(row)
}

// actionProgressLabel turns "Compaction" into "Compaction in progress".
func actionProgressLabel(title string) string {
	return title + " in progress"
}

// formatDuration formats a poll interval as a compact string, e.g. "10s" or "2m".
func formatDuration(d time.Duration) string {
	if d >= time.Minute && d%time.Minute == 0 {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%ds", int(d.Seconds()))
}
