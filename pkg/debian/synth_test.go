package debian

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cargodeb/cargodeb/pkg/config"
	"github.com/cargodeb/cargodeb/pkg/crates"
)

const demoManifest = `
[package]
name = "demo_crate"
version = "1.2.3"
description = "A demo crate.\nA longer paragraph about the demo crate."

[lib]

[dependencies]
libc = "0.2"
serde = { version = "1", optional = true }

[dev-dependencies]
quickcheck = "1"

[features]
default = ["std"]
std = []
full = ["std", "serde"]
`

func loadCrate(t *testing.T, manifest string) *crates.CrateInfo {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	crate, err := crates.Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return crate
}

func pkgNames(bundle *ControlBundle) []string {
	names := make([]string, len(bundle.Packages))
	for i, p := range bundle.Packages {
		names[i] = p.Name
	}
	return names
}

func TestBuildControlPackages(t *testing.T) {
	crate := loadCrate(t, demoManifest)
	bundle, err := BuildControl(crate, config.Default())
	if err != nil {
		t.Fatalf("BuildControl: %v", err)
	}

	// std is provided by the base package, so it gets no package of its own.
	want := []string{
		"librust-demo-crate-dev",
		"librust-demo-crate+default-dev",
		"librust-demo-crate+full-dev",
		"librust-demo-crate+serde-dev",
	}
	got := pkgNames(bundle)
	if len(got) != len(want) {
		t.Fatalf("packages = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("packages[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	base := bundle.Packages[0]
	if len(base.Provides) != 1 || base.Provides[0] != "librust-demo-crate+std-dev (= ${binary:Version})" {
		t.Errorf("base Provides = %q", base.Provides)
	}
	if len(base.Recommends) != 1 || !strings.Contains(base.Recommends[0], "+default-dev") {
		t.Errorf("base Recommends = %q, want the default feature package", base.Recommends)
	}
	if len(base.Suggests) != 2 {
		t.Errorf("base Suggests = %q, want full and serde", base.Suggests)
	}

	serde := bundle.Packages[3]
	found := false
	for _, d := range serde.Depends {
		if d == "librust-serde-dev" {
			found = true
		}
	}
	if !found {
		t.Errorf("serde feature package Depends = %q, missing librust-serde-dev", serde.Depends)
	}

	if bundle.Collapsed {
		t.Error("Collapsed set on the provides-reduction path")
	}
	if bundle.DefaultTestBroken {
		t.Error("DefaultTestBroken set without any override")
	}
}

func TestBuildControlSource(t *testing.T) {
	crate := loadCrate(t, demoManifest)
	bundle, err := BuildControl(crate, config.Default())
	if err != nil {
		t.Fatalf("BuildControl: %v", err)
	}

	src := bundle.Source
	if src.Name != "rust-demo-crate" {
		t.Errorf("source name = %q", src.Name)
	}
	if src.XCargoCrate != "demo_crate" {
		t.Errorf("X-Cargo-Crate = %q, want the unmangled name", src.XCargoCrate)
	}

	// Library-only crate: everything past the helpers is nocheck-qualified.
	out := src.String()
	for _, want := range []string{
		"debhelper (>= 12)",
		"dh-cargo (>= 25)",
		"cargo:native <!nocheck>",
		"rustc:native <!nocheck>",
		"libstd-rust-dev <!nocheck>",
		"librust-libc-dev <!nocheck>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Build-Depends missing %q:\n%s", want, out)
		}
	}
	// serde is optional and outside the default closure.
	if strings.Contains(out, "librust-serde-dev") {
		t.Errorf("Build-Depends must not include non-default optional deps:\n%s", out)
	}
}

func TestBuildControlTests(t *testing.T) {
	crate := loadCrate(t, demoManifest)
	bundle, err := BuildControl(crate, config.Default())
	if err != nil {
		t.Fatalf("BuildControl: %v", err)
	}

	// One row per original feature plus the all-features row.
	if len(bundle.Tests) != 6 {
		t.Fatalf("got %d test rows, want 6", len(bundle.Tests))
	}

	all := bundle.Tests[0]
	if all.Feature != "@" {
		t.Fatalf("first row Feature = %q, want @", all.Feature)
	}
	if len(all.Args) != 1 || all.Args[0] != "--all-features" {
		t.Errorf("@ row Args = %q", all.Args)
	}
	if len(all.Depends) != 1 || all.Depends[0] != "librust-quickcheck-dev" {
		t.Errorf("@ row Depends = %q, want the dev-dependencies", all.Depends)
	}

	byFeature := make(map[string]PkgTest)
	for _, row := range bundle.Tests[1:] {
		byFeature[row.Feature] = row
	}

	// std survives as a test even though its package was reduced away, and
	// it belongs to the providing package.
	std, ok := byFeature["std"]
	if !ok {
		t.Fatal("no test row for the provided std feature")
	}
	if std.Package != "librust-demo-crate-dev" {
		t.Errorf("std row Package = %q, want the providing package", std.Package)
	}
	wantArgs := []string{"--no-default-features", "--features", "std"}
	if len(std.Args) != len(wantArgs) {
		t.Fatalf("std row Args = %q, want %q", std.Args, wantArgs)
	}
	for i := range wantArgs {
		if std.Args[i] != wantArgs[i] {
			t.Errorf("std Args[%d] = %q, want %q", i, std.Args[i], wantArgs[i])
		}
	}

	if def := byFeature["default"]; len(def.Args) != 0 {
		t.Errorf("default row Args = %q, want none", def.Args)
	}
	if base := byFeature[""]; len(base.Args) != 1 || base.Args[0] != "--no-default-features" {
		t.Errorf("base row Args = %q", base.Args)
	}
}

func TestBuildControlBrokenPropagation(t *testing.T) {
	broken := true
	cfg := config.Default()
	cfg.Packages = map[string]config.PackageOverride{
		"lib+std": {TestIsBroken: &broken},
	}

	crate := loadCrate(t, demoManifest)
	bundle, err := BuildControl(crate, cfg)
	if err != nil {
		t.Fatalf("BuildControl: %v", err)
	}

	// default requires std, so the flag propagates up.
	if !bundle.DefaultTestBroken {
		t.Error("DefaultTestBroken not propagated from std")
	}
	for _, row := range bundle.Tests {
		switch row.Feature {
		case "std", "default", "full", "@":
			if !row.Broken {
				t.Errorf("row %q not marked broken", row.Feature)
			}
		case "", "serde":
			if row.Broken {
				t.Errorf("row %q wrongly marked broken", row.Feature)
			}
		}
	}
}

func TestBuildControlCollapse(t *testing.T) {
	cfg := config.Default()
	cfg.CollapseFeatures = true

	crate := loadCrate(t, demoManifest)
	bundle, err := BuildControl(crate, cfg)
	if err != nil {
		t.Fatalf("BuildControl: %v", err)
	}

	if !bundle.Collapsed {
		t.Error("Collapsed not reported")
	}
	if len(bundle.Packages) != 1 {
		t.Fatalf("packages = %q, want a single collapsed package", pkgNames(bundle))
	}
	base := bundle.Packages[0]
	if base.Name != "librust-demo-crate-dev" {
		t.Errorf("collapsed package = %q", base.Name)
	}
	// The single package provides every non-base feature.
	if len(base.Provides) != 4 {
		t.Errorf("collapsed Provides = %q, want default, full, serde and std", base.Provides)
	}
	// External deps are the union across all features.
	deps := strings.Join(base.Depends, " ")
	if !strings.Contains(deps, "librust-libc-dev") || !strings.Contains(deps, "librust-serde-dev") {
		t.Errorf("collapsed Depends = %q", base.Depends)
	}
}

func TestBuildControlBinPackage(t *testing.T) {
	manifest := `
[package]
name = "demo-tool"
version = "0.4.0"
description = "A demo tool."

[[bin]]
name = "demo-tool"

[dependencies]
clap = "4"
`
	crate := loadCrate(t, manifest)
	bundle, err := BuildControl(crate, config.Default())
	if err != nil {
		t.Fatalf("BuildControl: %v", err)
	}

	names := pkgNames(bundle)
	if names[len(names)-1] != "demo-tool" {
		t.Fatalf("packages = %q, want the binary package last", names)
	}
	bin := bundle.Packages[len(bundle.Packages)-1]
	if bin.MultiArch != "allowed" {
		t.Errorf("bin Multi-Arch = %q, want allowed", bin.MultiArch)
	}
	if bin.Section != "" {
		t.Errorf("bin Section = %q, want none for a bin-only crate", bin.Section)
	}
	if !strings.Contains(bin.String(), "${shlibs:Depends}") {
		t.Error("bin package missing ${shlibs:Depends}")
	}
}

func TestBuildControlBinSuppressed(t *testing.T) {
	manifest := `
[package]
name = "demo-mixed"
version = "0.4.0"
description = "A mixed crate."

[lib]

[[bin]]
name = "demo-mixed"
`
	noBin := false
	cfg := config.Default()
	cfg.Bin = &noBin

	crate := loadCrate(t, manifest)
	bundle, err := BuildControl(crate, cfg)
	if err != nil {
		t.Fatalf("BuildControl: %v", err)
	}
	for _, name := range pkgNames(bundle) {
		if name == "demo-mixed" {
			t.Error("binary package generated despite bin = false")
		}
	}
}

func TestBuildControlOverlongSummary(t *testing.T) {
	manifest := `
[package]
name = "wordy"
version = "1.0.0"
description = "` + strings.Repeat("An extremely long summary line. ", 5) + `"

[lib]
`
	crate := loadCrate(t, manifest)
	bundle, err := BuildControl(crate, config.Default())
	if err != nil {
		t.Fatalf("BuildControl: %v", err)
	}
	if len(bundle.OverlongSummaries) == 0 {
		t.Fatal("overlong summary not flagged")
	}
	if bundle.OverlongSummaries[0] != "librust-wordy-dev" {
		t.Errorf("OverlongSummaries = %q", bundle.OverlongSummaries)
	}
}
