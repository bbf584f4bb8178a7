package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds all key bindings for the TUI.
type keyMap struct {
	Quit    key.Binding
	Refresh key.Binding
	Compact key.Binding
	Defrag  key.Binding
	Confirm key.Binding
	Cancel  key.Binding
	Help    key.Binding
}

// keys is the global key map.
var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh now"),
	),
	Compact: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "compact"),
	),
	Defrag: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "defragment"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "confirm"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("n", "esc"),
		key.WithHelp("n/esc", "cancel"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "toggle help"),
	),
}

// helpText is the full help string displayed in the footer when help is toggled on.
const helpText = "q/ctrl+c: quit  r: refresh  c: compact  d: defragment  ?: toggle help"
