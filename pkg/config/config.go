// Package config reads the per-crate cargodeb.toml override file.
//
// The file is optional; a missing file yields the defaults. All lookups are
// exposed as typed accessor queries so the generator core never touches the
// raw tables.
package config

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/cargodeb/cargodeb/pkg/errors"
)

// DefaultMaintainer is the team address used when the config does not
// override the maintainer field.
const DefaultMaintainer = "Rust Maintainers <pkg-rust-maintainers@alioth-lists.debian.net>"

// Config holds the parsed override configuration. The zero value is not
// usable - use Default or Load.
type Config struct {
	Bin              *bool  `toml:"bin"`
	BinName          string `toml:"bin_name"`
	CollapseFeatures bool   `toml:"collapse_features"`

	Maintainer string   `toml:"maintainer"`
	Uploaders  []string `toml:"uploaders"`

	Source   *SourceOverride            `toml:"source"`
	Packages map[string]PackageOverride `toml:"packages"`
}

// SourceOverride adjusts fields of the generated source stanza.
type SourceOverride struct {
	Section              string   `toml:"section"`
	Policy               string   `toml:"policy"`
	Homepage             string   `toml:"homepage"`
	VcsGit               string   `toml:"vcs_git"`
	VcsBrowser           string   `toml:"vcs_browser"`
	BuildDepends         []string `toml:"build_depends"`
	BuildDependsExcludes []string `toml:"build_depends_excludes"`
	RequiresRoot         string   `toml:"requires_root"`
}

// PackageOverride adjusts one generated binary package or its tests. Tables
// are keyed "lib" (the base library package), "lib+<feature>" (a feature
// metapackage), or "bin" (the binary package).
type PackageOverride struct {
	Section      string   `toml:"section"`
	Summary      string   `toml:"summary"`
	Description  string   `toml:"description"`
	Depends      []string `toml:"depends"`
	TestIsBroken *bool    `toml:"test_is_broken"`
	TestDepends  []string `toml:"test_depends"`
}

// Default returns the built-in configuration used when no cargodeb.toml is
// present.
func Default() *Config {
	bin := true
	return &Config{
		Bin:        &bin,
		Maintainer: DefaultMaintainer,
	}
}

// Load parses the config file at path. A nonexistent file returns Default;
// any other read or parse failure is fatal.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "failed to read %s", path)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "failed to parse %s", path)
	}
	if cfg.Maintainer == "" {
		cfg.Maintainer = DefaultMaintainer
	}
	return cfg, nil
}

// FeatureKey returns the packages-table key for a feature: "lib" for the
// base feature, "lib+<feature>" otherwise.
func FeatureKey(feature string) string {
	if feature == "" {
		return "lib"
	}
	return "lib+" + feature
}

// BinKey is the packages-table key for the binary package.
const BinKey = "bin"

// BuildBin reports whether a binary package should be generated at all.
func (c *Config) BuildBin() bool {
	return c.Bin == nil || *c.Bin
}

// TestIsBroken returns the explicit broken-tests override for a packages
// key, or nil when the config is silent.
func (c *Config) TestIsBroken(key string) *bool {
	if o, ok := c.Packages[key]; ok {
		return o.TestIsBroken
	}
	return nil
}

// TestDepends returns extra test-only dependencies for a packages key.
func (c *Config) TestDepends(key string) []string {
	if o, ok := c.Packages[key]; ok {
		return o.TestDepends
	}
	return nil
}

// PackageDepends returns extra package dependencies for a packages key.
func (c *Config) PackageDepends(key string) []string {
	if o, ok := c.Packages[key]; ok {
		return o.Depends
	}
	return nil
}

// PackageSummary returns the summary/description override for a packages
// key. Empty strings mean "keep the generated text".
func (c *Config) PackageSummary(key string) (summary, description string, ok bool) {
	o, ok := c.Packages[key]
	if !ok {
		return "", "", false
	}
	return o.Summary, o.Description, true
}

// PackageSection returns the section override for a packages key, or "".
func (c *Config) PackageSection(key string) string {
	if o, ok := c.Packages[key]; ok {
		return o.Section
	}
	return ""
}

// SourceSection returns the source section override, or "".
func (c *Config) SourceSection() string {
	if c.Source != nil {
		return c.Source.Section
	}
	return ""
}

// PolicyVersion returns the Standards-Version override, or "".
func (c *Config) PolicyVersion() string {
	if c.Source != nil {
		return c.Source.Policy
	}
	return ""
}

// Homepage returns the homepage override, or "".
func (c *Config) Homepage() string {
	if c.Source != nil {
		return c.Source.Homepage
	}
	return ""
}

// VcsGit returns the Vcs-Git override, or "".
func (c *Config) VcsGit() string {
	if c.Source != nil {
		return c.Source.VcsGit
	}
	return ""
}

// VcsBrowser returns the Vcs-Browser override, or "".
func (c *Config) VcsBrowser() string {
	if c.Source != nil {
		return c.Source.VcsBrowser
	}
	return ""
}

// BuildDepends returns extra source build dependencies.
func (c *Config) BuildDepends() []string {
	if c.Source != nil {
		return c.Source.BuildDepends
	}
	return nil
}

// BuildDependsExcludes returns build dependencies to drop from the
// generated list.
func (c *Config) BuildDependsExcludes() []string {
	if c.Source != nil {
		return c.Source.BuildDependsExcludes
	}
	return nil
}

// RequiresRoot returns the Rules-Requires-Root override, defaulting to "no".
func (c *Config) RequiresRoot() string {
	if c.Source != nil && c.Source.RequiresRoot != "" {
		return c.Source.RequiresRoot
	}
	return "no"
}
