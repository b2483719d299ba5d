package feature

import (
	"sort"

	"github.com/cargodeb/cargodeb/pkg/errors"
)

// Provides maps each surviving feature to the sorted list of features whose
// role its package also satisfies. The value sets and the reduced graph's
// key set together form an exact partition of the original feature set.
type Provides map[string][]string

// ReduceProvides minimizes the number of binary packages to generate while
// preserving every feature's dependency semantics.
//
// The algorithm runs in stages, each building a new graph:
//
//  1. Signature dedup: features with identical requirements are rewritten as
//     pass-throughs of the lexicographically smallest member of their group.
//  2. Provides extraction: a feature with no external deps that requires
//     exactly one other feature is provided by that feature and removed.
//  3. Transitive provides closure: chains of provided features are flattened
//     onto the surviving feature, sorted for deterministic output.
//  4. Partition check: every original feature must end up either as a
//     surviving key or in exactly one provides list.
//
// The algorithm is deliberately simple and incomplete; it does not simplify
// shapes like f1 requiring {f2, f3} where f2 and f3 both require f4 into
// "f4 provides f1, f2, f3".
//
// A partition-check failure or a non-base feature with neither external deps
// nor feature requirements is an internal-consistency violation and aborts
// the run; guessing would produce an incorrect package graph.
func ReduceProvides(g *Graph) (Provides, *Graph, error) {
	working := dedupSignatures(g)

	// Provides extraction: follow 0- or 1-length requirement lists.
	direct := make(map[string][]string)
	var provided []string
	for _, f := range working.Features() {
		d, _ := working.Deps(f)
		if len(d.Externals) != 0 {
			continue
		}
		if len(d.Features) == 0 {
			if f != Base {
				return nil, nil, errors.New(errors.ErrCodeInconsistentGraph,
					"feature %q has no dependencies at all; only the base feature may be empty", f)
			}
			continue
		}
		if len(d.Features) != 1 {
			continue
		}
		// f requires a single feature k, so k's package provides f.
		k := d.Features[0]
		direct[k] = append(direct[k], f)
		provided = append(provided, f)
	}

	reduced := NewGraph()
	removed := make(map[string]bool, len(provided))
	for _, f := range provided {
		removed[f] = true
	}
	for _, f := range working.Features() {
		if !removed[f] {
			d, _ := working.Deps(f)
			reduced.Add(f, d)
		}
	}

	// Transitive provides closure over the surviving keys.
	provides := make(Provides, reduced.Len())
	for _, k := range reduced.Features() {
		pp := traverseProvides(direct, k)
		sort.Strings(pp)
		provides[k] = pp
	}

	if err := checkPartition(g, provides, reduced); err != nil {
		return nil, nil, err
	}

	return provides, reduced, nil
}

// Collapse is the fallback for graphs where per-feature acyclicity cannot
// guarantee installability once features are aggregated into packages across
// crates. It merges the entire graph into a single package keyed by the base
// feature, whose external deps are the union of every feature's external
// deps and which provides every non-base feature.
//
// This sacrifices per-feature package granularity; callers must surface a
// prominent warning since it can silently widen the installed footprint.
func Collapse(g *Graph) (Provides, *Graph) {
	extSet := make(map[string]bool)
	var nonBase []string
	for _, f := range g.Features() {
		d, _ := g.Deps(f)
		for _, e := range d.Externals {
			extSet[e] = true
		}
		if f != Base {
			nonBase = append(nonBase, f)
		}
	}

	externals := make([]string, 0, len(extSet))
	for e := range extSet {
		externals = append(externals, e)
	}
	sort.Strings(externals)
	sort.Strings(nonBase)

	collapsed := NewGraph()
	collapsed.Add(Base, Deps{Externals: externals})

	return Provides{Base: nonBase}, collapsed
}

// dedupSignatures rewrites every feature whose requirements are identical to
// an earlier (lexicographically smaller) feature as a pure pass-through of
// that feature.
func dedupSignatures(g *Graph) *Graph {
	rep := make(map[string]string)
	out := NewGraph()
	for _, f := range g.Features() {
		d, _ := g.Deps(f)
		sig := d.signature()
		if f0, ok := rep[sig]; ok {
			out.Add(f, Deps{Features: []string{f0}})
			continue
		}
		rep[sig] = f
		out.Add(f, d)
	}
	return out
}

// traverseProvides collects every feature reachable from k through the
// direct provides map, flattening provided-by chains.
func traverseProvides(direct map[string][]string, k string) []string {
	var out []string
	for _, p := range direct[k] {
		out = append(out, p)
		out = append(out, traverseProvides(direct, p)...)
	}
	return out
}

// checkPartition verifies that the surviving keys and all provides lists
// partition the original feature set exactly.
func checkPartition(orig *Graph, provides Provides, reduced *Graph) error {
	seen := make(map[string]int, orig.Len())
	for _, k := range reduced.Features() {
		seen[k]++
		for _, p := range provides[k] {
			seen[p]++
		}
	}
	for _, f := range orig.Features() {
		switch seen[f] {
		case 1:
			delete(seen, f)
		case 0:
			return errors.New(errors.ErrCodeInconsistentGraph,
				"feature %q missing from reduction output", f)
		default:
			return errors.New(errors.ErrCodeInconsistentGraph,
				"feature %q assigned %d times in reduction output", f, seen[f])
		}
	}
	for f := range seen {
		return errors.New(errors.ErrCodeInconsistentGraph,
			"reduction output contains unknown feature %q", f)
	}
	return nil
}
