package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings available while a phase runs.
type KeyMap struct {
	Cancel key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Cancel: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("ctrl+c", "cancel"),
		),
	}
}

// HelpText returns a formatted help string for a running phase.
func (k KeyMap) HelpText() string {
	h := k.Cancel.Help()
	return h.Key + " " + h.Desc
}
