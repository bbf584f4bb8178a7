package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dm/etcd-dash/internal/model"
)

// confirmText returns the body lines explaining what the pending action does.
func confirmText(kind model.ActionKind) []string {
	switch kind {
	case model.ActionCompact:
		return []string{
			"  Compaction discards every key revision older than the current one.",
			"  Watchers and reads pinned to older revisions will fail.",
		}
	case model.ActionDefrag:
		return []string{
			"  Defragmentation rewrites each member's backend to release free pages.",
			"  Members block reads and writes while they are being defragmented.",
		}
	default:
		return nil
	}
}

// renderConfirm renders the full-screen confirmation dialog for the pending
// action. The caller (View) renders the header above and footer below;
// renderConfirm accounts for those heights.
func renderConfirm(app *App) string {
	width := app.width
	if width <= 0 {
		width = 80
	}
	height := app.height
	if height <= 0 {
		height = 24
	}

	// Title bar: styled like the cluster header.
	titleText := app.pending.Title() + " Confirmation"
	hintText := StyleDim.Render("[y: confirm  n/esc: cancel]")
	innerWidth := width - 2 // StyleHeader has Padding(0,1) -> 1 char per side
	gap := innerWidth - lipgloss.Width(titleText) - lipgloss.Width(hintText)
	if gap < 1 {
		gap = 1
	}
	titleBar := StyleHeader.Width(width).MaxWidth(width).Render(titleText + strings.Repeat(" ", gap) + hintText)
	titleH := lipgloss.Height(titleBar)

	headerH := lipgloss.Height(renderHeader(app))
	footerH := lipgloss.Height(renderFooter(app))
	availH := height - headerH - titleH - footerH
	if availH < 1 {
		availH = 1
	}

	target := "all members of " + app.dashURL()
	bodyLines := []string{
		"",
		"  " + StyleRed.Bold(true).Render("WARNING: This action cannot be undone."),
		"",
		"  " + app.pending.Title() + " will run against " + sanitize(target) + ".",
	}
	bodyLines = append(bodyLines, confirmText(app.pending)...)
	promptLines := []string{
		"",
		"  " + StyleYellow.Render("Press y to confirm, n or esc to cancel."),
	}

	// The prompt takes priority: trim the body from the bottom first, then
	// the prompt from the top when even it does not fit.
	displayBody := bodyLines
	displayPrompt := promptLines
	if len(bodyLines)+len(promptLines) > availH {
		keep := availH - len(promptLines)
		if keep < 0 {
			keep = 0
			displayPrompt = promptLines[len(promptLines)-availH:]
		}
		displayBody = bodyLines[:keep]
	}

	lines := make([]string, 0, availH)
	lines = append(lines, displayBody...)
	lines = append(lines, displayPrompt...)

	// Pad content area to availH.
	for len(lines) < availH {
		lines = append(lines, "")
	}

	return titleBar + "\n" + strings.Join(lines, "\n")
}

func (app *App) dashURL() string {
	if app.dash == nil {
		return "the cluster"
	}
	return app.dash.BaseURL()
}
