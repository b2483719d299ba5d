package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/cargodeb/cargodeb/pkg/buildinfo"
	"github.com/cargodeb/cargodeb/pkg/config"
	"github.com/cargodeb/cargodeb/pkg/crates"
	"github.com/cargodeb/cargodeb/pkg/debian"
)

// packageCommand creates the package command for generating a debian/ folder.
func (c *CLI) packageCommand() *cobra.Command {
	var (
		configPath string
		output     string
		overlay    string
	)

	cmd := &cobra.Command{
		Use:   "package <crate-dir>",
		Short: "Generate Debian packaging for a Rust crate",
		Long: `Generate Debian packaging for a Rust crate.

The package command reads <crate-dir>/Cargo.toml, resolves the crate's
feature graph into a minimal set of binary packages, and writes a complete
debian/ directory: control, tests/control, changelog, rules and the
supporting files.

An optional cargodeb.toml in the crate directory (or given via --config)
overrides generated fields per package. An existing debian/changelog is
never rewritten from scratch; the new entry is merged on top of it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPackage(args[0], configPath, output, overlay)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "override config file (default: <crate-dir>/cargodeb.toml)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output directory (default: <crate-dir>)")
	cmd.Flags().StringVar(&overlay, "overlay", "", "directory of hand-maintained files copied into debian/ first")

	return cmd
}

// runPackage loads the crate and config, synthesizes the control data, and
// writes the debian/ directory.
func (c *CLI) runPackage(crateDir, configPath, output, overlay string) error {
	if !dirExists(crateDir) {
		return fmt.Errorf("crate directory %s does not exist", crateDir)
	}

	crate, err := crates.Load(crateDir)
	if err != nil {
		return fmt.Errorf("load crate %s: %w", crateDir, err)
	}
	c.Logger.Debug("loaded crate", "name", crate.Name(), "version", crate.Version())

	if configPath == "" {
		configPath = defaultConfigPath(crateDir)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", configPath, err)
	}

	author, err := debian.Author()
	if err != nil {
		return err
	}

	bundle, err := debian.BuildControl(crate, cfg)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", crate.Name(), err)
	}
	c.Logger.Debug("resolved feature graph",
		"packages", len(bundle.Packages), "tests", len(bundle.Tests))

	if bundle.Collapsed {
		printWarning("collapse_features is set: all features were merged into %s", debian.PkgName(crate.Name()))
		printDetail("Feature packages lose their granularity; every dependent")
		printDetail("pulls in the union of all feature dependencies.")
	}
	for _, name := range bundle.OverlongSummaries {
		printWarning("summary for %s exceeds 80 characters; consider a summary override in %s", name, configFileName)
	}

	if output == "" {
		output = crateDir
	}
	origin := "local source"
	if crate.Checksum() != "" {
		origin = "crates.io"
	}

	res, err := debian.Prepare(crate, bundle, debian.PrepareInput{
		OutputDir:  output,
		OverlayDir: overlay,
		Origin:     origin,
		ToolVer:    buildinfo.Version,
		Author:     author,
		Uploaders:  cfg.Uploaders,
		Date:       time.Now(),
	})
	if err != nil {
		return err
	}

	if res.Changelog.TeamUpload {
		printInfo("marked as team upload: %s is not listed in uploaders", author)
	}

	printSuccess("Packaged %s %s as %s (%s)",
		crate.Name(), crate.Version(), bundle.Source.Name, res.Changelog.Entry.Version)
	printFile(filepath.Join(res.Dir, "control"))
	printFile(filepath.Join(res.Dir, "changelog"))
	printNewline()
	printNextStep("Build", "dpkg-buildpackage -us -uc")

	return nil
}
