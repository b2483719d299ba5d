package feature

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrUnknownFeature is returned by [Graph.Validate] when a feature's
	// requirement list references a feature that is not in the graph.
	ErrUnknownFeature = errors.New("unknown feature in requirement list")

	// ErrGraphHasCycle is returned by [Graph.Validate] when a cycle is
	// detected. Cargo guarantees per-feature acyclicity, so a cycle here
	// indicates corrupt input. Cycles are detected using depth-first search
	// with white/gray/black coloring.
	ErrGraphHasCycle = errors.New("feature graph contains a cycle")
)

// Base is the name of the crate's base feature: the crate with no optional
// feature enabled. It is never removed by resolution.
const Base = ""

// Default is the feature set cargo activates when no explicit selection is
// made.
const Default = "default"

// Deps holds the requirements of a single feature: the other features it
// activates and the external dependency tokens (crate names) it pulls in.
// Both lists are kept sorted by [Graph.Add] so that identical requirement
// signatures compare equal and iteration is deterministic.
type Deps struct {
	Features  []string // other features of the same crate
	Externals []string // opaque external-dependency tokens
}

// signature returns a canonical string key for grouping features with
// identical requirements. Every element is quoted so that list boundaries
// survive the encoding: a list holding only the base feature name must not
// compare equal to an empty list.
func (d Deps) signature() string {
	var b strings.Builder
	for _, f := range d.Features {
		b.WriteString(strconv.Quote(f))
	}
	b.WriteString("\x1e")
	for _, e := range d.Externals {
		b.WriteString(strconv.Quote(e))
	}
	return b.String()
}

// clone returns a deep copy of the dependency lists.
func (d Deps) clone() Deps {
	return Deps{Features: slices.Clone(d.Features), Externals: slices.Clone(d.Externals)}
}

// Graph is a crate's feature graph: an ordered mapping from feature name to
// its requirements. Iteration via [Graph.Features] is always sorted by name,
// so output derived from the graph is canonical and deterministic.
//
// The zero value is not usable - use NewGraph. Graph is not safe for
// concurrent use without external synchronization.
type Graph struct {
	deps map[string]Deps
}

// NewGraph creates an empty feature graph.
func NewGraph() *Graph {
	return &Graph{deps: make(map[string]Deps)}
}

// Add inserts or replaces a feature and its requirements. The dependency
// lists are copied and sorted; callers keep ownership of their slices.
func (g *Graph) Add(name string, d Deps) {
	d = d.clone()
	sort.Strings(d.Features)
	sort.Strings(d.Externals)
	g.deps[name] = d
}

// Deps returns the requirements of a feature and whether it exists.
func (g *Graph) Deps(name string) (Deps, bool) {
	d, ok := g.deps[name]
	return d, ok
}

// Has reports whether the feature exists in the graph.
func (g *Graph) Has(name string) bool {
	_, ok := g.deps[name]
	return ok
}

// Len returns the number of features in the graph.
func (g *Graph) Len() int { return len(g.deps) }

// Features returns all feature names in sorted order. The base feature ""
// sorts first, which also makes it the canonical representative when several
// features share a requirement signature.
func (g *Graph) Features() []string {
	names := make([]string, 0, len(g.deps))
	for name := range g.deps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	c := NewGraph()
	for name, d := range g.deps {
		c.deps[name] = d.clone()
	}
	return c
}

// Validate checks graph integrity and returns nil if valid.
// It verifies two constraints:
//
//  1. Every feature requirement references a feature present in the graph
//  2. The graph is acyclic on the per-feature level
//
// Returns an error wrapping ErrUnknownFeature or ErrGraphHasCycle naming the
// offending feature. Use this before resolution, which assumes a valid graph.
//
// Cycle detection runs in O(N+E) time using depth-first search.
func (g *Graph) Validate() error {
	for _, name := range g.Features() {
		for _, req := range g.deps[name].Features {
			if !g.Has(req) {
				return fmt.Errorf("feature %q requires %q: %w", name, req, ErrUnknownFeature)
			}
		}
	}
	return g.detectCycles()
}

func (g *Graph) detectCycles() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(g.deps))

	// The base feature's name is the empty string, so presence is tracked
	// separately from the cycle location.
	var cycleAt string
	found := false

	var dfs func(name string)
	dfs = func(name string) {
		color[name] = gray
		for _, req := range g.deps[name].Features {
			if found {
				return
			}
			switch color[req] {
			case white:
				dfs(req)
			case gray:
				cycleAt, found = req, true
				return
			}
		}
		color[name] = black
	}

	for _, name := range g.Features() {
		if color[name] == white {
			dfs(name)
			if found {
				return fmt.Errorf("at feature %q: %w", cycleAt, ErrGraphHasCycle)
			}
		}
	}
	return nil
}

// String renders the graph in a compact, deterministic one-feature-per-line
// form, useful for debug logging and byte-comparison in tests.
func (g *Graph) String() string {
	var b strings.Builder
	for _, name := range g.Features() {
		d := g.deps[name]
		fmt.Fprintf(&b, "%q -> features=%v externals=%v\n", name, d.Features, d.Externals)
	}
	return b.String()
}
