// Package crates extracts package metadata from a crate's Cargo.toml.
//
// # Overview
//
// Load reads a crate directory and produces a read-only [CrateInfo]: name,
// version, description, homepage, binary targets, dev-dependencies, and the
// optional-feature dependency graph consumed by the resolution pipeline in
// pkg/feature.
//
// The feature graph is normalized the same way cargo presents it:
//
//   - the base feature "" carries the crate's non-optional dependencies
//   - every optional dependency contributes an implicit feature of the same
//     name, requiring the base and pulling in that dependency
//   - every [features] entry requires the base plus whatever its items name;
//     items referencing dependencies become external dependency tokens
//   - "default" always exists, defaulting to the bare base when undeclared
package crates
