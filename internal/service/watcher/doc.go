// Package watcher keeps a POS terminal current by polling the network share
// for new releases and triggering the update sequence when one is due.
//
// The decision combines the installed and published manifests: a missing
// installed manifest or a version mismatch means an update is due, and equal
// versions fall back to checksum verification of the installed files. A
// filesystem watch on the share's manifest shortens the reaction time when
// the share supports it.
package watcher
