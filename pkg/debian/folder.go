package debian

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cargodeb/cargodeb/pkg/crates"
	"github.com/cargodeb/cargodeb/pkg/errors"
)

// PrepareInput carries the run-specific inputs of Prepare that do not come
// from the crate or the resolved bundle.
type PrepareInput struct {
	OutputDir  string // directory that will receive the final debian/ folder
	OverlayDir string // optional directory of hand-maintained files copied in first
	Origin     string // provenance note for the changelog, e.g. "crates.io"
	ToolVer    string
	Author     string
	Uploaders  []string
	Date       time.Time
}

// PrepareResult reports what Prepare wrote.
type PrepareResult struct {
	Dir       string // final path of the generated debian/ directory
	Changelog *ReconcileResult
}

// Prepare assembles the complete debian/ directory for a resolved crate. All
// files are written into a uniquely named staging directory first and the
// staging directory is renamed into place as the last step, so an aborted
// run never leaves a half-written debian/ behind.
func Prepare(crate *crates.CrateInfo, bundle *ControlBundle, in PrepareInput) (*PrepareResult, error) {
	target := filepath.Join(in.OutputDir, "debian")
	if _, err := os.Stat(target); err == nil {
		return nil, errors.New(errors.ErrCodeInvalidPath,
			"output directory %s already exists; remove it or pick another output location", target)
	}

	staging := filepath.Join(in.OutputDir, "cargodeb-"+uuid.NewString())
	if err := os.MkdirAll(filepath.Join(staging, "source"), 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "failed to create staging directory")
	}
	if err := os.MkdirAll(filepath.Join(staging, "tests"), 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "failed to create staging directory")
	}
	committed := false
	defer func() {
		if !committed {
			os.RemoveAll(staging)
		}
	}()

	// The overlay goes in first and its files win: a generated file that
	// collides with an overlay file is diverted to a .hint sibling so the
	// maintainer can diff it against their hand-maintained copy. The
	// changelog is the exception; it is reconciled rather than replaced.
	if in.OverlayDir != "" {
		if err := copyTree(in.OverlayDir, staging); err != nil {
			return nil, err
		}
	}

	if err := writeControl(staging, bundle); err != nil {
		return nil, err
	}
	if err := writeTests(staging, bundle); err != nil {
		return nil, err
	}
	if err := writeRules(staging, bundle); err != nil {
		return nil, err
	}
	if err := writeStatic(staging, crate); err != nil {
		return nil, err
	}
	if err := writeLintianOverrides(staging, bundle); err != nil {
		return nil, err
	}

	clog, err := ReconcileFile(filepath.Join(staging, "changelog"), ReconcileInput{
		SourceName:      bundle.Source.Name,
		UpstreamVersion: crate.DebVersion(),
		CrateName:       crate.Name(),
		CrateVersion:    crate.Version(),
		Origin:          in.Origin,
		ToolVersion:     in.ToolVer,
		Author:          in.Author,
		Uploaders:       in.Uploaders,
		Date:            in.Date,
	})
	if err != nil {
		return nil, err
	}

	if err := os.Rename(staging, target); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "failed to move staging directory into place")
	}
	committed = true

	return &PrepareResult{Dir: target, Changelog: clog}, nil
}

func writeControl(dir string, bundle *ControlBundle) error {
	stanzas := make([]string, 0, len(bundle.Packages)+1)
	stanzas = append(stanzas, bundle.Source.String())
	for _, p := range bundle.Packages {
		stanzas = append(stanzas, p.String())
	}
	_, err := writeGenerated(filepath.Join(dir, "control"), strings.Join(stanzas, "\n"))
	return err
}

func writeTests(dir string, bundle *ControlBundle) error {
	rows := make([]string, 0, len(bundle.Tests))
	for _, t := range bundle.Tests {
		rows = append(rows, t.String())
	}
	_, err := writeGenerated(filepath.Join(dir, "tests", "control"), strings.Join(rows, "\n"))
	return err
}

func writeRules(dir string, bundle *ControlBundle) error {
	var b strings.Builder
	b.WriteString("#!/usr/bin/make -f\n%:\n\tdh $@ --buildsystem cargo\n")
	if bundle.DefaultTestBroken {
		b.WriteString("\noverride_dh_auto_test:\n\tdh_auto_test -- test --all || true\n")
	}
	path := filepath.Join(dir, "rules")
	wrote, err := writeGenerated(path, b.String())
	if err != nil {
		return err
	}
	// The overlay owns the executable bit on its own rules file.
	if wrote == path {
		if err := os.Chmod(path, 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeIO, err, "failed to mark rules executable")
		}
	}
	return nil
}

func writeStatic(dir string, crate *crates.CrateInfo) error {
	name := crate.Name()
	watch := fmt.Sprintf(`version=4
opts=filenamemangle=s/.*\/(.*)\/download/%s-$1\.tar\.gz/g \
 https://qa.debian.org/cgi-bin/fakeupstream.cgi?upstream=crates.io/%s .*/crates/%s/@ANY_VERSION@/download
`, name, name, name)
	if _, err := writeGenerated(filepath.Join(dir, "watch"), watch); err != nil {
		return err
	}
	if _, err := writeGenerated(filepath.Join(dir, "source", "format"), "3.0 (quilt)\n"); err != nil {
		return err
	}
	if _, err := writeGenerated(filepath.Join(dir, "compat"), "12\n"); err != nil {
		return err
	}
	checksum := fmt.Sprintf("{\"package\":%q,\"files\":{}}\n", crate.Checksum())
	_, err := writeGenerated(filepath.Join(dir, "cargo-checksum.json"), checksum)
	return err
}

// writeLintianOverrides silences the empty-package warning for every feature
// metapackage; they are empty on purpose.
func writeLintianOverrides(dir string, bundle *ControlBundle) error {
	for _, p := range bundle.Packages {
		if !strings.Contains(p.Name, "+") {
			continue
		}
		content := fmt.Sprintf("%s: empty-rust-library-declares-provides\n", p.Name)
		if _, err := writeGenerated(filepath.Join(dir, p.Name+".lintian-overrides"), content); err != nil {
			return err
		}
	}
	return nil
}

// writeGenerated writes content to path, unless a file already exists there
// (an overlay file copied in earlier). In that case the generated content is
// written to path+".hint" instead. Returns the path actually written.
func writeGenerated(path, content string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		path += ".hint"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err, "failed to write %s", path)
	}
	return path, nil
}

// copyTree copies a directory tree, preserving regular files only. File
// permissions carry over so an executable overlay rules file stays executable.
func copyTree(src, dst string) error {
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		out := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(out, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()
		f, err := os.OpenFile(out, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
		if err != nil {
			return err
		}
		if _, err := io.Copy(f, in); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "failed to copy overlay from %s", src)
	}
	return nil
}
