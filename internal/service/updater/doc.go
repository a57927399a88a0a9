// Package updater performs the update sequence for the POS application.
//
// It terminates the running POS process by image name, mirrors the build
// tree from the network share into the local install directory (applying the
// executable atomically), prints a completion message, pauses briefly, and
// relaunches the application detached. Failures along the way are logged and
// never stop the sequence.
package updater
