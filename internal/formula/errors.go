package formula

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/marang/brewkit/pkg/brewkit"
)

// Error is a formula problem with its location and an optional hint.
type Error struct {
	Path    string
	Line    int
	Field   string
	Message string
	Hint    string
}

func (e *Error) Error() string {
	location := e.Path
	if e.Line > 0 {
		location = fmt.Sprintf("%s (line %d)", e.Path, e.Line)
	}

	msg := fmt.Sprintf("formula error in %s: %s", location, e.Message)
	if e.Field != "" {
		msg = fmt.Sprintf("formula error in %s [field: %s]: %s", location, e.Field, e.Message)
	}
	if e.Hint != "" {
		msg += "\n\nHint: " + e.Hint
	}
	return msg
}

func (e *Error) Unwrap() error { return brewkit.ErrInvalidFormula }

func wrapDecodeError(err error, path string) error {
	var parseErr toml.ParseError
	if errors.As(err, &parseErr) {
		return &Error{
			Path:    path,
			Line:    parseErr.Position.Line,
			Message: parseErr.Message,
		}
	}

	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) {
		return &Error{
			Path:    path,
			Message: strings.Join(typeErr.Errors, "; "),
			Hint:    "Check field names against the formula format: desc, homepage, url, sha256, license, head, version, depends_on, install, test.",
		}
	}

	return &Error{Path: path, Message: err.Error()}
}

// formatValidationErrors converts a ValidationResult into a single error.
func formatValidationErrors(result ValidationResult, name, path string) error {
	if result.Valid {
		return nil
	}

	var msg strings.Builder
	location := name
	if path != "" {
		location = fmt.Sprintf("%s (%s)", name, path)
	}
	fmt.Fprintf(&msg, "formula %s has %d problem(s):\n", location, len(result.Errors))
	for i, e := range result.Errors {
		fmt.Fprintf(&msg, "  %d. %s\n", i+1, e)
	}

	return fmt.Errorf("%w: %s", brewkit.ErrInvalidFormula, strings.TrimSuffix(msg.String(), "\n"))
}
