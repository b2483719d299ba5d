package feature

import (
	"bytes"
	"fmt"
)

// ToDOT converts a feature graph to Graphviz DOT format. Feature nodes are
// rendered as rounded boxes and external dependencies as plain grey boxes;
// feature requirement edges are solid, external dependency edges dashed.
//
// Output is deterministic: nodes and edges follow the graph's canonical
// sorted order. The resulting DOT string can be rendered with any Graphviz
// frontend.
func ToDOT(g *Graph) string {
	var buf bytes.Buffer
	buf.WriteString("digraph features {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	for _, f := range g.Features() {
		fmt.Fprintf(&buf, "  %q [label=%q];\n", nodeID(f), label(f))
	}

	extSeen := make(map[string]bool)
	for _, f := range g.Features() {
		d, _ := g.Deps(f)
		for _, e := range d.Externals {
			if !extSeen[e] {
				extSeen[e] = true
				fmt.Fprintf(&buf, "  %q [style=filled, fillcolor=lightgrey];\n", "dep:"+e)
			}
		}
	}

	buf.WriteString("\n")
	for _, f := range g.Features() {
		d, _ := g.Deps(f)
		for _, req := range d.Features {
			fmt.Fprintf(&buf, "  %q -> %q;\n", nodeID(f), nodeID(req))
		}
		for _, e := range d.Externals {
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed];\n", nodeID(f), "dep:"+e)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(f string) string {
	if f == Base {
		return "(base)"
	}
	return f
}

func label(f string) string {
	if f == Base {
		return "(base)"
	}
	return f
}
