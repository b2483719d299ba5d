package crates

import (
	"sort"
	"strings"

	"github.com/cargodeb/cargodeb/pkg/feature"
)

// CrateInfo is the read-only metadata of a single crate, as declared in its
// Cargo.toml. It is the sole input of the resolution pipeline; nothing here
// mutates after Load.
type CrateInfo struct {
	name        string
	version     string
	summary     string
	description string
	homepage    string
	checksum    string

	lib        bool
	binTargets []string
	devDeps    []string

	features *feature.Graph
}

// Name returns the crate name as declared upstream (underscores preserved).
func (c *CrateInfo) Name() string { return c.name }

// Version returns the upstream semver version string.
func (c *CrateInfo) Version() string { return c.version }

// DebVersion returns the upstream version mangled into a Debian upstream
// version: build metadata is dropped and the pre-release separator becomes
// "~" so that 1.2.3~beta.1 sorts before 1.2.3.
func (c *CrateInfo) DebVersion() string {
	return DebVersion(c.version)
}

// Summary returns the first line of the crate description, or "" when the
// crate declares none.
func (c *CrateInfo) Summary() string { return c.summary }

// Description returns the remainder of the crate description after the
// summary line. Opaque text; it is wrapped and pasted, never interpreted.
func (c *CrateInfo) Description() string { return c.description }

// Homepage returns the crate homepage URL, falling back to the repository
// URL when no homepage is declared.
func (c *CrateInfo) Homepage() string { return c.homepage }

// Checksum returns the registry checksum of the crate tarball, or "" when
// the crate directory carries no .cargo-checksum.json.
func (c *CrateInfo) Checksum() string { return c.checksum }

// IsLib reports whether the crate builds a library target.
func (c *CrateInfo) IsLib() bool { return c.lib }

// BinaryTargets returns the names of the crate's binary targets, sorted.
func (c *CrateInfo) BinaryTargets() []string { return c.binTargets }

// DevDependencies returns the names of dev-dependencies, sorted. These only
// matter for the test matrix, never for the package graph.
func (c *CrateInfo) DevDependencies() []string { return c.devDeps }

// FeatureGraph returns the crate's optional-feature dependency graph.
func (c *CrateInfo) FeatureGraph() *feature.Graph { return c.features }

// DebVersion translates a semver string into a Debian upstream version.
// Build metadata ("+...") is omitted and the pre-release part is attached
// with "~" so it compares earlier than the subsequent release.
func DebVersion(v string) string {
	if i := strings.IndexByte(v, '+'); i >= 0 {
		v = v[:i]
	}
	if i := strings.IndexByte(v, '-'); i >= 0 {
		return v[:i] + "~" + v[i+1:]
	}
	return v
}

// splitDescription splits a free-form crate description into a one-line
// summary and the remaining paragraphs.
func splitDescription(desc string) (summary, rest string) {
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return "", ""
	}
	line, remainder, _ := strings.Cut(desc, "\n")
	summary = strings.TrimSuffix(strings.TrimSpace(line), ".")
	rest = strings.TrimSpace(remainder)
	return summary, rest
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
