// Package tui renders brewkit's terminal output: interactive-mode
// detection, the shared lipgloss styles, and a bubbletea spinner that
// tracks each install phase.
package tui
