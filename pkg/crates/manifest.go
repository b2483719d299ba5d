package crates

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/cargodeb/cargodeb/pkg/errors"
	"github.com/cargodeb/cargodeb/pkg/feature"
)

// cargoFile mirrors the subset of Cargo.toml that cargodeb consumes.
type cargoFile struct {
	Package struct {
		Name        string `toml:"name"`
		Version     string `toml:"version"`
		Description string `toml:"description"`
		Homepage    string `toml:"homepage"`
		Repository  string `toml:"repository"`
	} `toml:"package"`
	Lib *struct {
		Name string `toml:"name"`
	} `toml:"lib"`
	Bin []struct {
		Name string `toml:"name"`
	} `toml:"bin"`
	Features          map[string][]string `toml:"features"`
	Dependencies      map[string]any      `toml:"dependencies"`
	DevDependencies   map[string]any      `toml:"dev-dependencies"`
	BuildDependencies map[string]any      `toml:"build-dependencies"`
}

// checksumFile mirrors the registry-generated .cargo-checksum.json.
type checksumFile struct {
	Package string `json:"package"`
}

// Load reads the crate at dir and returns its metadata. The manifest must
// declare at least a package name and version; everything else is optional.
func Load(dir string) (*CrateInfo, error) {
	path := filepath.Join(dir, "Cargo.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "failed to read %s", path)
	}

	var cargo cargoFile
	if err := toml.Unmarshal(data, &cargo); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "failed to parse %s", path)
	}

	if cargo.Package.Name == "" || cargo.Package.Version == "" {
		return nil, errors.New(errors.ErrCodeInvalidManifest,
			"%s: [package] must declare name and version", path)
	}
	if err := errors.ValidateCrateName(cargo.Package.Name); err != nil {
		return nil, err
	}

	summary, description := splitDescription(cargo.Package.Description)

	homepage := cargo.Package.Homepage
	if homepage == "" {
		homepage = cargo.Package.Repository
	}

	bins := make([]string, 0, len(cargo.Bin))
	for _, b := range cargo.Bin {
		if b.Name != "" {
			bins = append(bins, b.Name)
		}
	}
	sort.Strings(bins)

	info := &CrateInfo{
		name:        cargo.Package.Name,
		version:     cargo.Package.Version,
		summary:     summary,
		description: description,
		homepage:    homepage,
		checksum:    readChecksum(dir),
		lib:         cargo.Lib != nil || len(bins) == 0,
		binTargets:  bins,
		devDeps:     sortedKeys(cargo.DevDependencies),
		features:    buildFeatureGraph(cargo),
	}
	return info, nil
}

// readChecksum loads the registry checksum when the crate was unpacked from
// a registry tarball. A missing or unparsable file is not an error; local
// source trees simply have no checksum.
func readChecksum(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, ".cargo-checksum.json"))
	if err != nil {
		return ""
	}
	var cs checksumFile
	if err := json.Unmarshal(data, &cs); err != nil {
		return ""
	}
	return cs.Package
}

// buildFeatureGraph assembles the optional-feature graph from the manifest's
// dependency tables and [features] section.
func buildFeatureGraph(cargo cargoFile) *feature.Graph {
	g := feature.NewGraph()

	var baseDeps []string
	optional := make(map[string]bool)
	for _, name := range sortedKeys(cargo.Dependencies) {
		if isOptionalDep(cargo.Dependencies[name]) {
			optional[name] = true
		} else {
			baseDeps = append(baseDeps, name)
		}
	}
	g.Add(feature.Base, feature.Deps{Externals: baseDeps})

	// Implicit features for optional dependencies, unless shadowed by an
	// explicit [features] entry of the same name.
	for _, name := range sortedKeys(optional) {
		if _, declared := cargo.Features[name]; declared {
			continue
		}
		g.Add(name, feature.Deps{
			Features:  []string{feature.Base},
			Externals: []string{name},
		})
	}

	isDep := func(name string) bool {
		_, ok := cargo.Dependencies[name]
		return ok
	}

	for _, name := range sortedKeys(cargo.Features) {
		deps := feature.Deps{Features: []string{feature.Base}}
		for _, item := range cargo.Features[name] {
			switch dep, ok := depToken(item); {
			case ok:
				deps.Externals = append(deps.Externals, dep)
			case g.Has(item), optional[item]:
				deps.Features = append(deps.Features, item)
			case isDep(item):
				deps.Externals = append(deps.Externals, item)
			default:
				// Forward references to features declared later, and
				// anything genuinely unknown, are left as feature edges
				// for Validate to check.
				deps.Features = append(deps.Features, item)
			}
		}
		g.Add(name, deps)
	}

	if !g.Has(feature.Default) {
		g.Add(feature.Default, feature.Deps{Features: []string{feature.Base}})
	}

	return g
}

// depToken recognizes [features] items that name a dependency rather than
// another feature: "dep:serde", "serde/std", "serde?/std". It returns the
// dependency name.
func depToken(item string) (string, bool) {
	if name, ok := strings.CutPrefix(item, "dep:"); ok {
		return name, true
	}
	if dep, _, ok := strings.Cut(item, "/"); ok {
		return strings.TrimSuffix(dep, "?"), true
	}
	return "", false
}

// isOptionalDep inspects a dependency table value: either a bare version
// string (never optional) or a table that may set optional = true.
func isOptionalDep(v any) bool {
	table, ok := v.(map[string]any)
	if !ok {
		return false
	}
	opt, _ := table["optional"].(bool)
	return opt
}
