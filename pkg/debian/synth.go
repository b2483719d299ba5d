package debian

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cargodeb/cargodeb/pkg/config"
	"github.com/cargodeb/cargodeb/pkg/crates"
	"github.com/cargodeb/cargodeb/pkg/feature"
)

// ControlBundle is everything BuildControl derives from one crate: the
// source stanza, the binary package stanzas in emission order, and the
// autopkgtest matrix. The advisory fields let the CLI surface warnings
// without re-running the resolution.
type ControlBundle struct {
	Source   Source
	Packages []Package
	Tests    []PkgTest

	// Collapsed is set when the feature graph was merged into a single
	// package instead of being provides-reduced.
	Collapsed bool
	// DefaultTestBroken mirrors the effective broken flag of the default
	// feature; the rules file downgrades build-time test failures when set.
	DefaultTestBroken bool
	// OverlongSummaries lists package names whose generated summary exceeds
	// the advisory length and deserves a manual override.
	OverlongSummaries []string
}

// BuildControl resolves the crate's feature graph and synthesizes the full
// set of control stanzas: one source stanza, one -dev package per surviving
// feature, an optional binary package, and one autopkgtest row per original
// feature plus the all-features row.
func BuildControl(crate *crates.CrateInfo, cfg *config.Config) (*ControlBundle, error) {
	graph := crate.FeatureGraph()
	if err := graph.Validate(); err != nil {
		return nil, err
	}

	name := crate.Name()
	lib := crate.IsLib()
	bins := crate.BinaryTargets()
	if lib && !cfg.BuildBin() {
		bins = nil
	}
	binName := cfg.BinName
	if binName == "" {
		binName = BaseName(name)
	}

	fold := feature.NewBrokenFold(graph, func(f string) *bool {
		return cfg.TestIsBroken(config.FeatureKey(f))
	})
	// Known limitation: this looks at the "default" feature only. A non-default
	// feature whose package merely provides the default set is not considered.
	defaultBroken, err := fold.Effective(feature.Default)
	if err != nil {
		return nil, err
	}

	bundle := &ControlBundle{DefaultTestBroken: defaultBroken}
	bundle.Source = buildSource(crate, cfg, lib, bins)

	var provides feature.Provides
	var reduced *feature.Graph
	if cfg.CollapseFeatures {
		provides, reduced = feature.Collapse(graph)
		bundle.Collapsed = true
	} else {
		provides, reduced, err = feature.ReduceProvides(graph)
		if err != nil {
			return nil, err
		}
	}

	// A feature package reachable from default is worth installing by
	// default; the rest stay opt-in.
	var recommends, suggests []string
	for _, f := range reduced.Features() {
		if f == feature.Base {
			continue
		}
		if f == feature.Default || contains(provides[f], feature.Default) {
			recommends = append(recommends, f)
		} else {
			suggests = append(suggests, f)
		}
	}

	allFeatures := graph.Features()
	bundle.Tests = append(bundle.Tests, allFeaturesTest(crate, cfg, allFeatures))

	for _, f := range reduced.Features() {
		pkg := buildFeaturePackage(crate, cfg, reduced, provides, f, recommends, suggests)
		if pkg.SummaryTooLong() {
			bundle.OverlongSummaries = append(bundle.OverlongSummaries, pkg.Name)
		}
		bundle.Packages = append(bundle.Packages, pkg)

		owned := append([]string{f}, provides[f]...)
		sort.Strings(owned)
		for _, t := range owned {
			row, err := featureTest(crate, cfg, graph, fold, pkg.Name, t)
			if err != nil {
				return nil, err
			}
			bundle.Tests = append(bundle.Tests, row)
		}
	}

	if len(bins) > 0 {
		pkg := buildBinPackage(crate, cfg, lib, binName, bins)
		if pkg.SummaryTooLong() {
			bundle.OverlongSummaries = append(bundle.OverlongSummaries, pkg.Name)
		}
		bundle.Packages = append(bundle.Packages, pkg)
	}

	return bundle, nil
}

func buildSource(crate *crates.CrateInfo, cfg *config.Config, lib bool, bins []string) Source {
	buildDeps := []string{"debhelper (>= 12)", "dh-cargo (>= 25)"}

	extras := []string{"cargo:native", "rustc:native", "libstd-rust-dev"}
	feats, exts := feature.TransitiveDeps(crate.FeatureGraph(), feature.Default)
	extras = append(extras, externalDeps(exts)...)
	for _, f := range feats {
		extras = append(extras, cfg.PackageDepends(config.FeatureKey(f))...)
	}

	// Pure library builds only need the rust toolchain when tests run.
	libOnly := lib && len(bins) == 0
	for _, d := range extras {
		if libOnly {
			d = addNocheck(d)
		}
		buildDeps = append(buildDeps, d)
	}

	src := NewSource(crate.Name(), crate.Homepage(), lib, cfg.Maintainer, cfg.Uploaders, buildDeps, cfg.RequiresRoot())
	src.ApplyOverrides(cfg)
	return src
}

func buildFeaturePackage(crate *crates.CrateInfo, cfg *config.Config, reduced *feature.Graph, provides feature.Provides, f string, recommends, suggests []string) Package {
	name := crate.Name()
	d, _ := reduced.Deps(f)

	summary := Description{Prefix: crate.Summary()}
	if summary.Prefix == "" {
		summary.Prefix = fmt.Sprintf("Rust crate %q", name)
	}
	description := Description{Prefix: crate.Description()}

	if f == feature.Base {
		summary.Suffix = " - Rust source code"
		description.Suffix = fmt.Sprintf(
			"This package contains the source for the Rust %s crate, packaged by cargodeb for use with cargo and dh-cargo.", name)
	} else {
		summary.Suffix = fmt.Sprintf(" - feature %q", f)
		if n := len(provides[f]); n > 0 {
			summary.Suffix += fmt.Sprintf(" and %d more", n)
		}
		description.Suffix = fmt.Sprintf(
			"This metapackage enables feature %q for the Rust %s crate, by pulling in any additional dependencies needed by that feature.", f, name)
		if pp := provides[f]; len(pp) > 0 {
			description.Suffix += fmt.Sprintf(
				"\n\nAdditionally, this package also provides the %s.", featureListPhrase(pp))
		}
	}

	pkg := NewPackage(name, f, d.Features, externalDeps(d.Externals), provides[f], recommends, suggests, summary, description)
	pkg.ApplyOverrides(cfg, config.FeatureKey(f))
	return pkg
}

func buildBinPackage(crate *crates.CrateInfo, cfg *config.Config, lib bool, binName string, bins []string) Package {
	name := crate.Name()

	summary := Description{Prefix: crate.Summary()}
	if summary.Prefix == "" {
		summary.Prefix = fmt.Sprintf("Rust crate %q", name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "This package contains the following binaries built from the Rust %s crate:", name)
	for _, target := range bins {
		fmt.Fprintf(&b, "\n- %s", target)
	}
	description := Description{Prefix: crate.Description(), Suffix: b.String()}

	// A crate shipping both a library and binaries needs a human to pick
	// the binary package's archive section.
	section := ""
	if lib {
		section = fmt.Sprintf("FIXME-(packages.%q.section)", binName)
	}

	pkg := NewBinPackage(binName, section, summary, description)
	pkg.ApplyOverrides(cfg, config.BinKey)
	return pkg
}

// allFeaturesTest builds the matrix row that exercises every feature at
// once. It is marked flaky as soon as any feature carries an explicit broken
// override, since one broken combination poisons the whole run.
func allFeaturesTest(crate *crates.CrateInfo, cfg *config.Config, allFeatures []string) PkgTest {
	broken := false
	depSet := make(map[string]bool)
	for _, f := range allFeatures {
		key := config.FeatureKey(f)
		if v := cfg.TestIsBroken(key); v != nil && *v {
			broken = true
		}
		for _, d := range cfg.TestDepends(key) {
			depSet[d] = true
		}
	}
	for _, d := range externalDeps(crate.DevDependencies()) {
		depSet[d] = true
	}

	deps := make([]string, 0, len(depSet))
	for d := range depSet {
		deps = append(deps, d)
	}
	sort.Strings(deps)

	return PkgTest{
		Package: SourceName(crate.Name()),
		Crate:   crate.Name(),
		Feature: "@",
		Version: crate.DebVersion(),
		Args:    []string{"--all-features"},
		Depends: deps,
		Broken:  broken,
	}
}

// featureTest builds the matrix row exercising exactly one feature, computed
// against the original graph so that provides-reduction never changes what a
// test actually enables.
func featureTest(crate *crates.CrateInfo, cfg *config.Config, graph *feature.Graph, fold *feature.BrokenFold, pkgName, f string) (PkgTest, error) {
	feats, _ := feature.TransitiveDeps(graph, f)

	var args []string
	if f != feature.Default && !contains(feats, feature.Default) {
		args = append(args, "--no-default-features")
	}
	if f != feature.Base && f != feature.Default {
		args = append(args, "--features", f)
	}

	depSet := make(map[string]bool)
	for _, ff := range feats {
		for _, d := range cfg.TestDepends(config.FeatureKey(ff)) {
			depSet[d] = true
		}
	}
	for _, d := range externalDeps(crate.DevDependencies()) {
		depSet[d] = true
	}
	deps := make([]string, 0, len(depSet))
	for d := range depSet {
		deps = append(deps, d)
	}
	sort.Strings(deps)

	broken, err := fold.Effective(f)
	if err != nil {
		return PkgTest{}, err
	}

	return PkgTest{
		Package: pkgName,
		Crate:   crate.Name(),
		Feature: f,
		Version: crate.DebVersion(),
		Args:    args,
		Depends: deps,
		Broken:  broken,
	}, nil
}

// featureListPhrase renders a feature list as prose: `"a" feature`,
// `"a" and "b" features`, `"a", "b", and "c" features`.
func featureListPhrase(features []string) string {
	quoted := make([]string, len(features))
	for i, f := range features {
		quoted[i] = fmt.Sprintf("%q", f)
	}
	switch len(quoted) {
	case 1:
		return quoted[0] + " feature"
	case 2:
		return quoted[0] + " and " + quoted[1] + " features"
	default:
		return strings.Join(quoted[:len(quoted)-1], ", ") + ", and " + quoted[len(quoted)-1] + " features"
	}
}
