package tui

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"

	"github.com/dm/etcd-dash/internal/engine"
	"github.com/dm/etcd-dash/internal/format"
	"github.com/dm/etcd-dash/internal/model"
)

var endpointColumns = []string{"Endpoint", "Version", "DB Size", "In Use", "Frag", "Leader"}

// renderEndpoints renders the "Endpoints" section: a title line followed by
// one table row per member, in server response order.
func renderEndpoints(app *App) string {
	hdr := StyleDim.Render("Endpoints")
	snap := app.state.Snapshot

	if len(snap) == 0 {
		empty := "  (no endpoints)"
		if app.state.LastUpdated.IsZero() {
			empty = "  (waiting for first status poll)"
		}
		return lipgloss.JoinVertical(lipgloss.Left, hdr, StyleDim.Render(empty))
	}

	width := app.width
	t := EndpointTable(snap, width)
	return lipgloss.JoinVertical(lipgloss.Left, hdr, t.String())
}

// EndpointTable builds the styled member table. width <= 0 lets the table
// size itself to its content.
func EndpointTable(snap model.ClusterSnapshotSet, width int) *ltable.Table {
	rows := make([][]string, 0, len(snap))
	for _, e := range snap {
		rows = append(rows, endpointCells(e))
	}

	t := ltable.New().
		Headers(endpointColumns...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == ltable.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(colorGray).Padding(0, 1)
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if row%2 == 0 {
				base = base.Background(colorAlt)
			}
			switch col {
			case 1:
				return base.Foreground(colorPurple)
			case 2, 3:
				return base.Foreground(colorCyan).Align(lipgloss.Right)
			case 4:
				frag := engine.EndpointFragmentation(snap[row])
				return base.Inherit(severityToStyle(fragmentationSeverity(frag))).Align(lipgloss.Right)
			case 5:
				if snap[row].IsLeader {
					return base.Foreground(colorGreen).Bold(true)
				}
				return base.Foreground(colorGray)
			default:
				return base.Foreground(colorWhite)
			}
		}).
		BorderStyle(lipgloss.NewStyle().Foreground(colorGray)).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(true).
		BorderColumn(false)

	if width > 0 {
		t = t.Width(width)
	}
	return t
}

// endpointCells formats one member for the table.
func endpointCells(e model.EndpointSnapshot) []string {
	leader := "No"
	if e.IsLeader {
		leader = "Yes"
	}
	return []string{
		sanitize(e.EndpointAddress),
		sanitize(e.Version),
		format.FormatMB(e.DBSizeBytes),
		format.FormatMB(e.DBSizeInUseBytes),
		format.FormatPercent(engine.EndpointFragmentation(e)),
		leader,
	}
}

// sanitize strips control characters from server-supplied strings so they
// cannot inject terminal escape sequences.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// truncateName shortens s to max runes, marking the cut with "…".
func truncateName(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}
