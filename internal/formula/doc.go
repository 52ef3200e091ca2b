// Package formula loads and validates formula declarations.
//
// A formula is a static record: identity, provenance, a pinned source
// archive with its SHA-256 digest, build dependencies, and the parameters
// of its install and test procedures. Declarations are YAML (.yaml, .yml)
// or TOML (.toml) files; the file's base name is the formula name unless
// the declaration sets one explicitly.
//
// # Example Declaration
//
//	desc: Terminal MQTT client
//	homepage: https://github.com/marang/emqutiti
//	url: https://github.com/marang/emqutiti/archive/refs/tags/v0.4.1.tar.gz
//	sha256: ce8ab0d28762d6ed6d7284bd6d3a774225339a2696bf277a2f2d74bc65ed62bd
//	license: MIT
//	head: https://github.com/marang/emqutiti.git
//	depends_on:
//	  - name: go
//	    scope: build
//	install:
//	  target: ./cmd/emqutiti
//	test:
//	  args: ["-h"]
//	  expect_exit: 2
//	  expect_output: Usage
//
// Dependencies may also be written as bare names ("- openssl"), which
// declares a runtime dependency.
//
// # Index
//
// An Index holds every known formula by name. Built-in formulas are
// embedded in the binary and loaded first; formula directories are layered
// on top and may not redefine an existing name.
//
// Records handed out by the index are deep copies, so a loaded formula can
// never be mutated by its consumers.
package formula
