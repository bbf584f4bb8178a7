package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dm/etcd-dash/internal/model"
)

// maxHints bounds how many hints are listed under the table.
const maxHints = 4

// severityBadge returns a colored, fixed-width badge for the given severity.
func severityBadge(sev model.HintSeverity) string {
	switch sev {
	case model.SeverityCritical:
		return StyleRed.Bold(true).Render("[CRITICAL]")
	case model.SeverityWarning:
		return StyleYellow.Bold(true).Render("[WARN]    ")
	default:
		return StyleGreen.Bold(true).Render("[OK]      ")
	}
}

// renderHints lists maintenance hints, most severe first. Returns "" when the
// cluster has nothing to report or no snapshot has loaded.
func renderHints(app *App) string {
	if len(app.hints) == 0 {
		return ""
	}
	width := app.width
	if width <= 0 {
		width = 80
	}

	lines := []string{StyleDim.Render("Hints")}
	shown := app.hints
	if len(shown) > maxHints {
		shown = shown[:maxHints]
	}
	for _, h := range shown {
		lines = append(lines, fmt.Sprintf("  %s %s", severityBadge(h.Severity), sanitize(h.Title)))
		if h.Detail != "" {
			for _, dline := range strings.Split(wrapText(sanitize(h.Detail), width-6), "\n") {
				lines = append(lines, "    "+StyleDim.Render(dline))
			}
		}
	}
	if hidden := len(app.hints) - len(shown); hidden > 0 {
		lines = append(lines, StyleDim.Render(fmt.Sprintf("  ...and %d more", hidden)))
	}
	return strings.Join(lines, "\n")
}

// wrapText wraps text at maxWidth rune-columns, breaking at word boundaries.
// Returns the original string unchanged when it fits within maxWidth.
func wrapText(text string, maxWidth int) string {
	if maxWidth <= 0 || utf8.RuneCountInString(text) <= maxWidth {
		return text
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}
	var lines []string
	var current strings.Builder
	var currentLen int // rune count of current line
	for _, word := range words {
		wordLen := utf8.RuneCountInString(word)
		if currentLen == 0 {
			current.WriteString(word)
			currentLen = wordLen
		} else if currentLen+1+wordLen <= maxWidth {
			current.WriteByte(' ')
			current.WriteString(word)
			currentLen += 1 + wordLen
		} else {
			lines = append(lines, current.String())
			current.Reset()
			current.WriteString(word)
			currentLen = wordLen
		}
	}
	if currentLen > 0 {
		lines = append(lines, current.String())
	}
	return strings.Join(lines, "\n")
}
