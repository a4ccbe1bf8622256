// Package config holds compile-wide ambient settings: default numeric
// types, source file extensions, and toggles read once at startup
// (spec.md 5, 6). Named constants and the IsTestMode-style toggle pattern
// are grounded on the teacher's internal/config/constants.go; the clay.yaml
// project file format is new surface wired onto gopkg.in/yaml.v3.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SourceFileExt is the canonical Language source extension.
const SourceFileExt = ".clay"

// SourceFileExtensions are every extension the loader recognizes, longest
// first so detectPackageExtension-style lookups prefer the canonical one.
var SourceFileExtensions = []string{".clay", ".cy"}

// TrimSourceExt removes a recognized extension, returning name unchanged if
// none matches.
func TrimSourceExt(name string) string {
	for _, ext := range SourceFileExtensions {
		if len(name) >= len(ext) && name[len(name)-len(ext):] == ext {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

// HasSourceExt reports whether path ends in a recognized source extension.
func HasSourceExt(path string) bool {
	for _, ext := range SourceFileExtensions {
		if len(path) >= len(ext) && path[len(path)-len(ext):] == ext {
			return true
		}
	}
	return false
}

// IsTestMode mirrors the teacher's package-level toggle, set once by
// cmd/clayc when running under `clayc test`.
var IsTestMode = false

// DisableAnalyzerCache lets `clayc --no-cache` force every propagation value
// to be recomputed, used to isolate caching bugs (spec.md 4.8 "Caching").
var DisableAnalyzerCache = false

// LogMatchSymbols is set from `clayc --log-match=<glob>`. Nothing reads it:
// no invoke-table match tracing is emitted for any symbol.
var LogMatchSymbols = ""

// FullMatchErrors mirrors `clayc --full-match-errors`. Nothing reads it: a
// failed call always reports every overload's individual rejection reason,
// and no candidate list is ever elided.
var FullMatchErrors = false

// Project is the parsed contents of a clay.yaml project file.
type Project struct {
	Name          string            `yaml:"name"`
	SearchPath    []string          `yaml:"search_path"`
	DefaultInt    string            `yaml:"default_integer_type"`
	DefaultFloat  string            `yaml:"default_float_type"`
	BuildFlags    map[string]bool   `yaml:"build_flags"`
	BackendTarget string            `yaml:"backend_target"` // e.g. "grpc://host:port"
	CacheDB       string            `yaml:"cache_db"`        // path to the invoke-table sqlite cache
}

// DefaultProject returns the settings used when no clay.yaml is present.
func DefaultProject() *Project {
	return &Project{
		DefaultInt:   "Int32",
		DefaultFloat: "Float64",
		BuildFlags:   map[string]bool{},
	}
}

// LoadProject reads and parses a clay.yaml file at path.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	p := DefaultProject()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return p, nil
}

// Built-in trait and method names the prelude binds by convention rather
// than the compiler hardcoding them (spec.md 9 Open Questions — resolved:
// operator_*/primitive_* overload names come from the prelude module, not a
// compiler-internal table).
const (
	IterTraitName  = "Iter"
	IterMethodName = "iter"
)

// Built-in type names the evaluator/analyzer special-case for literal
// desugaring (spec.md 4.4).
const (
	OptionTypeName = "Option"
	ResultTypeName = "Result"
	SomeCtorName   = "Some"
	NoneCtorName   = "None"
	OkCtorName     = "Ok"
	FailCtorName   = "Fail"
)
