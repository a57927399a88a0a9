// Package publisher stages a POS build into the network share and writes the
// release manifest consumed by updaters.
//
// It mirrors the build directory into the share, computes checksums for every
// staged file, and persists the manifest at the share root. Terminals in
// watch mode compare their installed manifest against it to decide whether an
// update is due.
package publisher
