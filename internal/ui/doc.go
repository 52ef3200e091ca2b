// Package ui asks the user before brewkit removes installed files.
package ui
