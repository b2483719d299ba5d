package feature

import (
	"fmt"
	"sort"
)

// TransitiveDeps returns the reflexive-transitive closure of a feature: the
// sorted set of all features reachable by following requirement edges from
// name (including name itself), and the sorted union of every external
// dependency encountered along the way.
//
// The traversal keeps an explicit visited set, so it runs in time linear in
// the number of edges visited and terminates on any per-feature-acyclic
// graph. All callers pass names present in the graph; an unknown name is a
// caller contract violation and panics.
func TransitiveDeps(g *Graph, name string) (features []string, externals []string) {
	if !g.Has(name) {
		panic(fmt.Sprintf("feature: TransitiveDeps called with unknown feature %q", name))
	}

	visited := make(map[string]bool)
	extSet := make(map[string]bool)

	var visit func(f string)
	visit = func(f string) {
		if visited[f] {
			return
		}
		visited[f] = true
		d, ok := g.Deps(f)
		if !ok {
			panic(fmt.Sprintf("feature: %q requires unknown feature %q", name, f))
		}
		for _, e := range d.Externals {
			extSet[e] = true
		}
		for _, req := range d.Features {
			visit(req)
		}
	}
	visit(name)

	features = make([]string, 0, len(visited))
	for f := range visited {
		features = append(features, f)
	}
	sort.Strings(features)

	externals = make([]string, 0, len(extSet))
	for e := range extSet {
		externals = append(externals, e)
	}
	sort.Strings(externals)

	return features, externals
}
