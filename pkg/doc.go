// Package pkg provides the core libraries for cargodeb Debian package
// generation.
//
// # Overview
//
// Cargodeb turns a Rust crate's manifest into a complete debian/ source
// folder. The pkg directory is organized by pipeline stage:
//
//  1. [crates] - manifest parsing (Cargo.toml, registry checksums)
//  2. [feature] - the feature dependency graph and its resolution algorithms
//  3. [config] - per-crate override configuration (cargodeb.toml)
//  4. [debian] - control synthesis, changelog reconciliation, folder assembly
//  5. [errors] - structured error codes shared across the pipeline
//
// # Architecture
//
// The typical data flow through cargodeb:
//
//	Cargo.toml
//	     ↓
//	[crates] package (parse manifest, build feature graph)
//	     ↓
//	[feature] package (validate, provides-reduce or collapse)
//	     ↓
//	[debian] package (synthesize control stanzas + test matrix)
//	     ↓
//	debian/ folder on disk
//
// # Quick Start
//
// Generate packaging for a crate directory:
//
//	crate, err := crates.Load("path/to/crate")
//	if err != nil { ... }
//
//	cfg, err := config.Load("path/to/crate/cargodeb.toml")
//	if err != nil { ... }
//
//	bundle, err := debian.BuildControl(crate, cfg)
//	if err != nil { ... }
//
//	res, err := debian.Prepare(crate, bundle, debian.PrepareInput{
//	    OutputDir: "path/to/crate",
//	    Origin:    "crates.io",
//	    Author:    "Jane Doe <jane@debian.org>",
//	    Date:      time.Now(),
//	})
package pkg
