// Package receipt records what brewkit installed into a prefix.
//
// A receipt is written only after a formula's binaries were built and
// linked into the prefix, so the presence of a receipt is what makes a
// formula count as installed. Receipts are JSON documents under
// <prefix>/var/brewkit/receipts/<formula>.json.
package receipt

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marang/brewkit/pkg/brewkit"
)

// Dir is the receipts directory relative to an installation prefix.
var Dir = filepath.Join("var", "brewkit", "receipts")

// Receipt describes one installed formula.
type Receipt struct {
	InstallID         string                     `json:"install_id"`
	Formula           string                     `json:"formula"`
	Version           string                     `json:"version"`
	Source            brewkit.SourceKind         `json:"source"`
	SourceURL         string                     `json:"source_url"`
	Checksum          string                     `json:"checksum,omitempty"`
	Revision          string                     `json:"revision,omitempty"`
	Binaries          []string                   `json:"binaries"`
	InstalledAt       time.Time                  `json:"installed_at"`
	Verification      brewkit.VerificationStatus `json:"verification"`
	VerificationError string                     `json:"verification_error,omitempty"`
	VerifiedAt        *time.Time                 `json:"verified_at,omitempty"`
}

// New starts a receipt for a fresh installation with a new install ID.
func New(f brewkit.Formula, source brewkit.SourceKind, tree brewkit.ExtractedTree, binaries brewkit.BinaryPaths) *Receipt {
	r := &Receipt{
		InstallID:    uuid.NewString(),
		Formula:      f.Name,
		Version:      f.Version,
		Source:       source,
		SourceURL:    f.URL,
		Checksum:     tree.SHA256,
		Binaries:     append([]string(nil), binaries...),
		InstalledAt:  time.Now().UTC(),
		Verification: brewkit.VerificationPending,
	}
	if source == brewkit.SourceHead {
		r.Version = "HEAD"
		if tree.Revision != "" {
			r.Version = "HEAD-" + shortRevision(tree.Revision)
		}
		r.SourceURL = f.Head
		r.Revision = tree.Revision
	}
	return r
}

// MarkVerified records the outcome of a smoke test. A nil err means passed.
func (r *Receipt) MarkVerified(err error) {
	now := time.Now().UTC()
	r.VerifiedAt = &now
	if err != nil {
		r.Verification = brewkit.VerificationFailed
		r.VerificationError = err.Error()
		return
	}
	r.Verification = brewkit.VerificationPassed
	r.VerificationError = ""
}

// MarkSkipped records that the smoke test was not run.
func (r *Receipt) MarkSkipped() {
	r.Verification = brewkit.VerificationSkipped
	r.VerificationError = ""
	r.VerifiedAt = nil
}

func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// Store reads and writes receipts for one prefix.
type Store struct {
	dir string
}

// NewStore returns the receipt store for prefix.
func NewStore(prefix string) *Store {
	return &Store{dir: filepath.Join(prefix, Dir)}
}

func checkName(name string) error {
	if !brewkit.ValidFormulaName(name) {
		return fmt.Errorf("invalid formula name %q: %w", name, brewkit.ErrInvalidFormula)
	}
	return nil
}

// Path is the receipt file for a formula.
func (s *Store) Path(formula string) string {
	return filepath.Join(s.dir, formula+".json")
}

// Write persists r, replacing any previous receipt for the same formula.
// The file is replaced atomically.
func (s *Store) Write(r *Receipt) error {
	if r.Formula == "" {
		return fmt.Errorf("receipt has no formula name: %w", brewkit.ErrInvalidConfig)
	}
	if err := checkName(r.Formula); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating receipts directory: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding receipt: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.dir, "."+r.Formula+"-*.json")
	if err != nil {
		return fmt.Errorf("writing receipt: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing receipt: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing receipt: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path(r.Formula)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing receipt: %w", err)
	}
	return nil
}

// Read loads the receipt for formula. It returns brewkit.ErrNotInstalled
// when there is none.
func (s *Store) Read(formula string) (*Receipt, error) {
	if err := checkName(formula); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(formula))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", formula, brewkit.ErrNotInstalled)
	}
	if err != nil {
		return nil, fmt.Errorf("reading receipt for %s: %w", formula, err)
	}

	var r Receipt
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing receipt %s: %w", s.Path(formula), err)
	}
	return &r, nil
}

// List returns all receipts in the prefix sorted by formula name.
func (s *Store) List() ([]*Receipt, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}

	var receipts []*Receipt
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
			continue
		}
		r, err := s.Read(strings.TrimSuffix(name, ".json"))
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, r)
	}
	sort.Slice(receipts, func(i, j int) bool { return receipts[i].Formula < receipts[j].Formula })
	return receipts, nil
}

// Remove deletes the receipt for formula.
func (s *Store) Remove(formula string) error {
	if err := checkName(formula); err != nil {
		return err
	}
	err := os.Remove(s.Path(formula))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", formula, brewkit.ErrNotInstalled)
	}
	return err
}
