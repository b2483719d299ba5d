// Package debian turns resolved crate metadata into Debian packaging
// artifacts.
//
// # Overview
//
// The package has three layers:
//
//   - control descriptors ([Source], [Package], [PkgTest]) and their
//     on-disk stanza rendering
//   - the synthesizer ([BuildControl]), which runs the feature-graph
//     resolution from pkg/feature and emits one binary package per
//     surviving feature plus an autopkgtest matrix
//   - the changelog reconciler ([Reconcile], [ReconcileFile]), which merges
//     an autogenerated entry into a human-maintained debian/changelog
//     without disturbing prior entries
//
// [Prepare] assembles the full debian/ directory in a staging location and
// renames it into place atomically, so a failed run leaves no partial
// output behind.
package debian
