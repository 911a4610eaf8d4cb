package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines key bindings used across the TUI.
type KeyMap struct {
	Tab      key.Binding
	ShiftTab key.Binding
	Quit     key.Binding
	Refresh  key.Binding

	// Forecast view controls
	NextCoin        key.Binding
	PrevCoin        key.Binding
	CycleConfidence key.Binding
}

// DefaultKeyMap provides the default key bindings for the TUI.
var DefaultKeyMap = KeyMap{
	Tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
	ShiftTab: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Refresh:  key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "refresh")),

	NextCoin:        key.NewBinding(key.WithKeys("j", "right"), key.WithHelp("j", "next coin")),
	PrevCoin:        key.NewBinding(key.WithKeys("k", "left"), key.WithHelp("k", "prev coin")),
	CycleConfidence: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "cycle confidence")),
}
