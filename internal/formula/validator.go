package formula

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/marang/brewkit/internal/checksum"
	"github.com/marang/brewkit/pkg/brewkit"
)

// ValidationResult contains the outcome of formula validation.
// If Valid is false, Errors contains human-readable error messages.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// AddError appends an error message to the validation result and marks it as invalid.
func (v *ValidationResult) AddError(format string, args ...interface{}) {
	v.Valid = false
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// HasErrors returns true if the validation result contains errors.
func (v *ValidationResult) HasErrors() bool {
	return len(v.Errors) > 0
}

// Validate checks a formula record against the invariants every record must hold:
//   - name is a lowercase package identifier
//   - desc is present and not whitespace-only
//   - homepage, url and head are absolute URLs with supported schemes
//   - sha256 is a 64-character hex digest
//   - license is present
//   - a version is declared or derivable from url
//   - dependencies are named, scoped, and not repeated
//   - the install target and binary are set
func Validate(f brewkit.Formula) ValidationResult {
	result := ValidationResult{Valid: true, Errors: []string{}}

	if !brewkit.ValidFormulaName(f.Name) {
		result.AddError("name %q must be lowercase letters, digits, and + _ . @ -", f.Name)
	}

	if strings.TrimSpace(f.Description) == "" {
		result.AddError("desc is required and cannot be whitespace-only")
	}

	if f.Homepage == "" {
		result.AddError("homepage is required")
	} else if err := checkURL(f.Homepage, "http", "https"); err != nil {
		result.AddError("homepage: %v", err)
	}

	if f.URL == "" {
		result.AddError("url is required")
	} else if err := checkURL(f.URL, "http", "https", "file"); err != nil {
		result.AddError("url: %v", err)
	}

	if f.SHA256 == "" {
		result.AddError("sha256 is required")
	} else if _, err := checksum.ParseDigest(f.SHA256); err != nil {
		result.AddError("sha256: %v", err)
	}

	if strings.TrimSpace(f.License) == "" {
		result.AddError("license is required")
	}

	if f.Head != "" {
		if err := checkURL(f.Head, "http", "https", "git", "ssh", "file"); err != nil {
			result.AddError("head: %v", err)
		}
	}

	if f.URL != "" && f.Version == "" {
		result.AddError("version could not be derived from url %q; declare it explicitly", f.URL)
	}

	seen := make(map[string]bool)
	for i, dep := range f.Dependencies {
		if strings.TrimSpace(dep.Name) == "" {
			result.AddError("depends_on[%d]: name is required", i)
			continue
		}
		if !dep.Scope.Valid() {
			result.AddError("depends_on[%d] (%s): unknown scope %q (want build, runtime or test)", i, dep.Name, dep.Scope)
		}
		if seen[dep.Name] {
			result.AddError("depends_on[%d]: %s is declared more than once", i, dep.Name)
		}
		seen[dep.Name] = true
	}

	if strings.TrimSpace(f.Install.Target) == "" {
		result.AddError("install.target is required")
	}
	if strings.ContainsAny(f.Install.Binary, `/\`) {
		result.AddError("install.binary %q must be a file name, not a path", f.Install.Binary)
	}

	if f.Test.ExpectExit < 0 || f.Test.ExpectExit > 255 {
		result.AddError("test.expect_exit %d is not a valid exit status", f.Test.ExpectExit)
	}

	return result
}

// Check validates f and returns an error wrapping brewkit.ErrInvalidFormula
// listing every problem found.
func Check(f brewkit.Formula) error {
	return formatValidationErrors(Validate(f), f.Name, f.Path)
}

func checkURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	for _, s := range schemes {
		if u.Scheme == s {
			if s != "file" && u.Host == "" {
				return fmt.Errorf("%q has no host", raw)
			}
			return nil
		}
	}
	return fmt.Errorf("%q must use one of: %s", raw, strings.Join(schemes, ", "))
}
