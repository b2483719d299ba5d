package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-graphviz"
	"github.com/spf13/cobra"

	"github.com/cargodeb/cargodeb/pkg/crates"
	"github.com/cargodeb/cargodeb/pkg/feature"
)

// Output formats for the graph command.
const (
	formatDOT = "dot"
	formatSVG = "svg"
)

// graphCommand creates the graph command for inspecting a crate's feature
// graph before packaging it.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:   "graph <crate-dir>",
		Short: "Visualize a crate's feature dependency graph",
		Long: `Visualize a crate's feature dependency graph.

The graph command reads <crate-dir>/Cargo.toml and renders the feature graph
that drives package generation: feature nodes, requirement edges, and the
external crate dependencies each feature pulls in. Useful for understanding
why a feature package depends on what it does.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd.Context(), args[0], output, format)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <crate>.<format>)")
	cmd.Flags().StringVarP(&format, "format", "f", formatSVG, "output format: svg (default), dot")

	return cmd
}

// runGraph loads the crate and writes its feature graph as DOT or SVG.
func (c *CLI) runGraph(ctx context.Context, crateDir, output, format string) error {
	if format != formatDOT && format != formatSVG {
		return fmt.Errorf("unknown format %q (want dot or svg)", format)
	}

	crate, err := crates.Load(crateDir)
	if err != nil {
		return fmt.Errorf("load crate %s: %w", crateDir, err)
	}
	if err := crate.FeatureGraph().Validate(); err != nil {
		return fmt.Errorf("validate feature graph: %w", err)
	}

	dot := feature.ToDOT(crate.FeatureGraph())

	data := []byte(dot)
	if format == formatSVG {
		data, err = renderSVG(ctx, dot)
		if err != nil {
			return fmt.Errorf("render SVG: %w", err)
		}
	}

	if output == "" {
		output = filepath.Join(crateDir, crate.Name()+"."+format)
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Feature graph rendered")
	printFile(output)
	printDetail("%d features", crate.FeatureGraph().Len())

	return nil
}

// renderSVG renders a DOT graph to SVG using Graphviz.
func renderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
