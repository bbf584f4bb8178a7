package tui

// renderFooter renders the key binding help footer at full terminal width.
// When app.showHelp is true, shows all key bindings; otherwise a brief hint.
func renderFooter(app *App) string {
	width := app.width
	if width <= 0 {
		width = 80
	}
	text := "r refresh  c compact  d defrag  ? for help"
	if app.showHelp {
		text = helpText
	}
	return StyleDim.Width(width).Render(text)
}

// renderStatusLine shows the last error, the last action acknowledgment or a
// rejected request. Returns "" when there is nothing to report.
func renderStatusLine(app *App) string {
	switch {
	case app.state.LastError != "":
		return StyleError.Render("✗ " + sanitize(app.state.LastError))
	case app.rejectedMsg != "":
		return StyleYellow.Render("! " + app.rejectedMsg)
	case app.state.Notice != "":
		return StyleNotice.Render("✓ " + app.state.Notice)
	default:
		return ""
	}
}
