// Package feature models a crate's optional-feature dependency graph and
// implements the resolution pipeline that decides how many Debian binary
// packages to generate for it.
//
// # Overview
//
// A crate declares features; each feature may require other features of the
// same crate and external dependencies (other crates). The empty feature ""
// is the crate's base (no optional feature enabled) and always survives
// resolution. The feature "default" is the set cargo activates when no
// explicit selection is made.
//
// The pipeline runs in stages, each producing a new immutable Graph:
//
//	graph := feature.NewGraph()
//	...
//	provides, reduced, err := feature.ReduceProvides(graph)
//
// ReduceProvides deduplicates features with identical requirement signatures,
// folds pass-through features into the package that already satisfies them,
// and returns the minimal surviving feature set together with a provides map.
// Collapse is the degraded fallback that merges everything into the base
// package when per-feature granularity cannot guarantee an installable
// package graph.
//
// Per-feature graphs are acyclic (cargo enforces this); Validate checks the
// invariant with a depth-first search before resolution.
package feature
