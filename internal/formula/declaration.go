package formula

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/marang/brewkit/pkg/brewkit"
)

// declaration is the on-disk shape of a formula file.
type declaration struct {
	Name      string           `yaml:"name" toml:"name"`
	Desc      string           `yaml:"desc" toml:"desc"`
	Homepage  string           `yaml:"homepage" toml:"homepage"`
	URL       string           `yaml:"url" toml:"url"`
	SHA256    string           `yaml:"sha256" toml:"sha256"`
	License   string           `yaml:"license" toml:"license"`
	Head      string           `yaml:"head,omitempty" toml:"head"`
	Version   string           `yaml:"version,omitempty" toml:"version"`
	DependsOn []dependencyDecl `yaml:"depends_on,omitempty" toml:"depends_on"`
	Install   installDecl      `yaml:"install" toml:"install"`
	Test      testDecl         `yaml:"test" toml:"test"`
}

type installDecl struct {
	Target  string   `yaml:"target" toml:"target"`
	Binary  string   `yaml:"binary,omitempty" toml:"binary"`
	LDFlags []string `yaml:"ldflags,omitempty" toml:"ldflags"`
}

type testDecl struct {
	Args         []string `yaml:"args,omitempty" toml:"args"`
	ExpectExit   *int     `yaml:"expect_exit,omitempty" toml:"expect_exit"`
	ExpectOutput string   `yaml:"expect_output,omitempty" toml:"expect_output"`
}

// dependencyDecl accepts either a bare name or a {name, scope} table.
type dependencyDecl struct {
	Name  string `yaml:"name" toml:"name"`
	Scope string `yaml:"scope,omitempty" toml:"scope"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *dependencyDecl) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		d.Name = node.Value
		return nil
	}
	type plain dependencyDecl
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*d = dependencyDecl(p)
	return nil
}

// UnmarshalTOML implements toml.Unmarshaler.
func (d *dependencyDecl) UnmarshalTOML(v interface{}) error {
	switch val := v.(type) {
	case string:
		d.Name = val
	case map[string]interface{}:
		for key, raw := range val {
			s, ok := raw.(string)
			if !ok {
				return fmt.Errorf("depends_on.%s must be a string", key)
			}
			switch key {
			case "name":
				d.Name = s
			case "scope":
				d.Scope = s
			default:
				return fmt.Errorf("depends_on: unknown key %q", key)
			}
		}
	default:
		return fmt.Errorf("depends_on entries must be strings or tables, got %T", v)
	}
	return nil
}

// toFormula converts a declaration into a record. name is the identity
// derived from the declaration's location and is used when the file does
// not set one.
func (d declaration) toFormula(name, path string) brewkit.Formula {
	if d.Name != "" {
		name = d.Name
	}

	f := brewkit.Formula{
		Name:        name,
		Description: d.Desc,
		Homepage:    d.Homepage,
		URL:         d.URL,
		SHA256:      d.SHA256,
		License:     d.License,
		Head:        d.Head,
		Version:     d.Version,
		Install: brewkit.InstallSpec{
			Target:  d.Install.Target,
			Binary:  d.Install.Binary,
			LDFlags: append([]string(nil), d.Install.LDFlags...),
		},
		Test: brewkit.TestSpec{
			Args:         append([]string(nil), d.Test.Args...),
			ExpectExit:   brewkit.DefaultTestExitStatus,
			ExpectOutput: d.Test.ExpectOutput,
		},
		Path: path,
	}

	if f.Version == "" {
		f.Version = VersionFromURL(f.URL)
	}
	if f.Install.Binary == "" {
		f.Install.Binary = name
	}
	if len(f.Test.Args) == 0 {
		f.Test.Args = []string{brewkit.DefaultTestArg}
	}
	if d.Test.ExpectExit != nil {
		f.Test.ExpectExit = *d.Test.ExpectExit
	}

	for _, dep := range d.DependsOn {
		scope := brewkit.DependencyScope(dep.Scope)
		if dep.Scope == "" {
			scope = brewkit.ScopeRuntime
		}
		f.Dependencies = append(f.Dependencies, brewkit.Dependency{Name: dep.Name, Scope: scope})
	}

	return f
}
