package formula

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/marang/brewkit/pkg/brewkit"
)

// Format identifies a declaration syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatForPath returns the declaration format implied by a file extension.
func FormatForPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".toml":
		return FormatTOML, true
	}
	return "", false
}

// NameForPath derives a formula name from its declaration file.
func NameForPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Parse decodes and validates a declaration. name is used when the
// declaration does not set its own.
func Parse(data []byte, format Format, name, path string) (brewkit.Formula, error) {
	var decl declaration

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&decl); err != nil && !errors.Is(err, io.EOF) {
			return brewkit.Formula{}, wrapDecodeError(err, path)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &decl)
		if err != nil {
			return brewkit.Formula{}, wrapDecodeError(err, path)
		}
		// depends_on entries decode themselves and reject unknown keys there.
		var keys []string
		for _, k := range md.Undecoded() {
			if len(k) > 0 && k[0] == "depends_on" {
				continue
			}
			keys = append(keys, k.String())
		}
		if len(keys) > 0 {
			return brewkit.Formula{}, &Error{
				Path:    path,
				Message: "unknown keys: " + strings.Join(keys, ", "),
			}
		}
	default:
		return brewkit.Formula{}, fmt.Errorf("%s: unsupported format %q: %w", path, format, brewkit.ErrInvalidFormula)
	}

	f := decl.toFormula(name, path)
	if err := Check(f); err != nil {
		return brewkit.Formula{}, err
	}
	return f, nil
}

// ParseFile reads and parses the declaration at path.
func ParseFile(path string) (brewkit.Formula, error) {
	format, ok := FormatForPath(path)
	if !ok {
		return brewkit.Formula{}, fmt.Errorf("%s: not a formula file: %w", path, brewkit.ErrInvalidFormula)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return brewkit.Formula{}, fmt.Errorf("reading formula: %w", err)
	}
	return Parse(data, format, NameForPath(path), path)
}
