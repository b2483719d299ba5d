package debian

import (
	"fmt"
	"strings"

	"github.com/cargodeb/cargodeb/pkg/config"
)

// vcsBrowser is the default Vcs-Browser for team-maintained rust packages.
const vcsBrowser = "https://salsa.debian.org/rust-team/cargodeb-conf"

// summaryMaxLen is the point past which a generated one-line summary is
// worth flagging for a manual override.
const summaryMaxLen = 80

// Description carries the two halves of a package description: the part
// taken from the crate metadata and the generated packaging-specific part.
type Description struct {
	Prefix string
	Suffix string
}

// Source is the source-stanza descriptor.
type Source struct {
	Name         string
	Section      string
	Priority     string
	Maintainer   string
	Uploaders    []string
	Standards    string
	BuildDeps    []string
	VcsGit       string
	VcsBrowser   string
	Homepage     string
	XCargoCrate  string
	RequiresRoot string
}

// NewSource builds the source stanza for a crate. The X-Cargo-Crate field is
// only emitted when Debian name mangling loses information (underscores).
func NewSource(crate, homepage string, lib bool, maintainer string, uploaders []string, buildDeps []string, requiresRoot string) Source {
	section := "rust"
	if !lib {
		section = "FIXME-(source.section)"
	}
	xCargo := ""
	if crate != strings.ReplaceAll(crate, "_", "-") {
		xCargo = crate
	}
	return Source{
		Name:         SourceName(crate),
		Section:      section,
		Priority:     "optional",
		Maintainer:   maintainer,
		Uploaders:    uploaders,
		Standards:    "4.1.4",
		BuildDeps:    buildDeps,
		VcsGit:       vcsBrowser + ".git",
		VcsBrowser:   vcsBrowser,
		Homepage:     homepage,
		XCargoCrate:  xCargo,
		RequiresRoot: requiresRoot,
	}
}

// ApplyOverrides folds the source-level configuration overrides into the
// stanza: section, policy version, homepage, VCS fields, and the build
// dependency add/exclude lists.
func (s *Source) ApplyOverrides(cfg *config.Config) {
	if v := cfg.SourceSection(); v != "" {
		s.Section = v
	}
	if v := cfg.PolicyVersion(); v != "" {
		s.Standards = v
	}
	s.BuildDeps = append(s.BuildDeps, cfg.BuildDepends()...)
	if excludes := cfg.BuildDependsExcludes(); len(excludes) > 0 {
		kept := s.BuildDeps[:0]
		for _, d := range s.BuildDeps {
			excluded := false
			for _, x := range excludes {
				if d == x {
					excluded = true
					break
				}
			}
			if !excluded {
				kept = append(kept, d)
			}
		}
		s.BuildDeps = kept
	}
	if v := cfg.Homepage(); v != "" {
		s.Homepage = v
	}
	if v := cfg.VcsGit(); v != "" {
		s.VcsGit = v
	}
	if v := cfg.VcsBrowser(); v != "" {
		s.VcsBrowser = v
	}
}

// String renders the stanza in control-file field order.
func (s Source) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Source: %s\n", s.Name)
	fmt.Fprintf(&b, "Section: %s\n", s.Section)
	fmt.Fprintf(&b, "Priority: %s\n", s.Priority)
	fmt.Fprintf(&b, "Build-Depends: %s\n", strings.Join(s.BuildDeps, ",\n "))
	fmt.Fprintf(&b, "Maintainer: %s\n", s.Maintainer)
	if len(s.Uploaders) > 0 {
		fmt.Fprintf(&b, "Uploaders: %s\n", strings.Join(s.Uploaders, ",\n "))
	}
	fmt.Fprintf(&b, "Standards-Version: %s\n", s.Standards)
	fmt.Fprintf(&b, "Vcs-Git: %s\n", s.VcsGit)
	fmt.Fprintf(&b, "Vcs-Browser: %s\n", s.VcsBrowser)
	if s.Homepage != "" {
		fmt.Fprintf(&b, "Homepage: %s\n", s.Homepage)
	}
	if s.XCargoCrate != "" {
		fmt.Fprintf(&b, "X-Cargo-Crate: %s\n", s.XCargoCrate)
	}
	if s.RequiresRoot != "" {
		fmt.Fprintf(&b, "Rules-Requires-Root: %s\n", s.RequiresRoot)
	}
	return b.String()
}

// Package is a binary-package descriptor. Feature metapackages carry
// Depends and Provides; the base library package additionally carries the
// Recommends/Suggests classification of every feature package.
type Package struct {
	Name        string
	Arch        string
	MultiArch   string
	Section     string
	Depends     []string
	Recommends  []string
	Suggests    []string
	Provides    []string
	Summary     Description
	Description Description

	summaryOverride     string
	descriptionOverride string
}

// NewPackage builds the descriptor for a library or feature package.
// feature is "" for the base package. featureDeps and provides are feature
// names of the same crate; externDeps are already-translated Debian package
// names. recommends/suggests are only honored for the base package.
func NewPackage(crate, feature string, featureDeps, externDeps, provides, recommends, suggests []string, summary, description Description) Package {
	name := PkgName(crate)
	if feature != "" {
		name = FeaturePkgName(crate, feature)
	}

	depends := []string{"${misc:Depends}"}
	for _, f := range featureDeps {
		depends = append(depends, featureDep(crate, f))
	}
	depends = append(depends, externDeps...)

	provided := make([]string, 0, len(provides))
	for _, f := range provides {
		provided = append(provided, featureDep(crate, f))
	}

	var rec, sug []string
	if feature == "" {
		for _, f := range recommends {
			rec = append(rec, featureDep(crate, f))
		}
		for _, f := range suggests {
			sug = append(sug, featureDep(crate, f))
		}
	}

	// -dev packages are arch:any and must be M-A: same to stay
	// co-installable across architectures for cross builds.
	return Package{
		Name:        name,
		Arch:        "any",
		MultiArch:   "same",
		Depends:     depends,
		Recommends:  rec,
		Suggests:    sug,
		Provides:    provided,
		Summary:     summary,
		Description: description,
	}
}

// NewBinPackage builds the descriptor for the package holding the crate's
// compiled binaries.
func NewBinPackage(name, section string, summary, description Description) Package {
	return Package{
		Name:        name,
		Arch:        "any",
		MultiArch:   "allowed",
		Section:     section,
		Depends:     []string{"${misc:Depends}", "${shlibs:Depends}"},
		Summary:     summary,
		Description: description,
	}
}

// ApplyOverrides folds the per-package configuration overrides into the
// descriptor. key is the packages-table key ("lib", "lib+<feature>", "bin").
func (p *Package) ApplyOverrides(cfg *config.Config, key string) {
	if v := cfg.PackageSection(key); v != "" {
		p.Section = v
	}
	if summary, description, ok := cfg.PackageSummary(key); ok {
		if summary != "" {
			p.summaryOverride = summary
		}
		if description != "" {
			p.descriptionOverride = description
		}
	}
	p.Depends = append(p.Depends, cfg.PackageDepends(key)...)
}

// SummaryLine returns the rendered one-line summary.
func (p Package) SummaryLine() string {
	if p.summaryOverride != "" {
		return p.summaryOverride
	}
	return p.Summary.Prefix + p.Summary.Suffix
}

// SummaryTooLong reports whether the generated summary should be flagged
// for a manual override.
func (p Package) SummaryTooLong() bool {
	return len(p.SummaryLine()) > summaryMaxLen
}

// String renders the stanza in control-file field order.
func (p Package) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Package: %s\n", p.Name)
	fmt.Fprintf(&b, "Architecture: %s\n", p.Arch)
	fmt.Fprintf(&b, "Multi-Arch: %s\n", p.MultiArch)
	if p.Section != "" {
		fmt.Fprintf(&b, "Section: %s\n", p.Section)
	}
	if len(p.Depends) > 0 {
		fmt.Fprintf(&b, "Depends:\n %s\n", strings.Join(p.Depends, ",\n "))
	}
	if len(p.Recommends) > 0 {
		fmt.Fprintf(&b, "Recommends:\n %s\n", strings.Join(p.Recommends, ",\n "))
	}
	if len(p.Suggests) > 0 {
		fmt.Fprintf(&b, "Suggests:\n %s\n", strings.Join(p.Suggests, ",\n "))
	}
	if len(p.Provides) > 0 {
		fmt.Fprintf(&b, "Provides:\n %s\n", strings.Join(p.Provides, ",\n "))
	}
	p.writeDescription(&b)
	return b.String()
}

func (p Package) writeDescription(b *strings.Builder) {
	fmt.Fprintf(b, "Description: %s\n", p.SummaryLine())

	long := p.descriptionOverride
	if long == "" {
		var parts []string
		if t := strings.TrimSpace(p.Description.Prefix); t != "" {
			parts = append(parts, fill(t, 79))
		}
		if t := strings.TrimSpace(p.Description.Suffix); t != "" {
			parts = append(parts, fill(t, 79))
		}
		long = strings.Join(parts, "\n\n")
	}

	for _, line := range strings.Split(strings.TrimSpace(long), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			b.WriteString(" .\n")
		case strings.HasPrefix(line, "- "):
			fmt.Fprintf(b, "  %s\n", line)
		default:
			fmt.Fprintf(b, " %s\n", line)
		}
	}
}

// PkgTest is one row of the autopkgtest matrix: a single feature combination
// exercised against one generated package.
type PkgTest struct {
	Package string   // owning binary package (or source name for the @ row)
	Crate   string   // upstream crate name
	Feature string   // feature under test; "@" means all features
	Version string   // Debian upstream version
	Args    []string // extra cargo test arguments
	Depends []string // test dependencies beyond the package itself
	Broken  bool     // tests known broken; marks the row flaky
}

// String renders the stanza for debian/tests/control.
func (t PkgTest) String() string {
	var b strings.Builder
	cmd := fmt.Sprintf("/usr/share/cargo/bin/cargo-auto-test %s %s --all-targets", t.Crate, t.Version)
	for _, a := range t.Args {
		cmd += " " + a
	}
	fmt.Fprintf(&b, "Test-Command: %s\n", cmd)
	fmt.Fprintf(&b, "Features: test-name=%s:%s\n", t.Package, t.Feature)
	deps := append([]string{"dh-cargo (>= 18)"}, t.Depends...)
	fmt.Fprintf(&b, "Depends: %s\n", strings.Join(deps, ", "))
	restrictions := []string{"allow-stderr", "skippable"}
	if t.Broken {
		restrictions = append(restrictions, "flaky")
	}
	fmt.Fprintf(&b, "Restrictions: %s\n", strings.Join(restrictions, ", "))
	return b.String()
}

// fill greedily wraps text to the given width, preserving existing paragraph
// breaks. Words longer than the width are emitted on their own line.
func fill(text string, width int) string {
	var out []string
	for _, para := range strings.Split(text, "\n\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			continue
		}
		line := words[0]
		var lines []string
		for _, w := range words[1:] {
			if len(line)+1+len(w) > width {
				lines = append(lines, line)
				line = w
				continue
			}
			line += " " + w
		}
		lines = append(lines, line)
		out = append(out, strings.Join(lines, "\n"))
	}
	return strings.Join(out, "\n\n")
}
