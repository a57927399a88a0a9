// Package manifest defines the release description that travels with a
// published build: its version, the executable to relaunch, and per-file
// checksums. The publisher writes it at the share root, the copy step mirrors
// it into the install directory, and watch mode compares the two to decide
// whether an update is due.
package manifest

import (
	"crypto"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	// Ensure SHA512 is available for checksum calculation.
	_ "crypto/sha512"
)

const (
	// Filename stores the release description next to the distributed files.
	Filename = "pos-version.yaml"

	// DefaultFileMode is used when producing artifacts for distribution.
	DefaultFileMode os.FileMode = 0o755

	// ChecksumFunction is used to calculate distributed file hashes.
	ChecksumFunction crypto.Hash = crypto.SHA512

	// defaultMapCapacity is the default initial capacity for maps.
	defaultMapCapacity = 16
)

var errHashUnavailable = errors.New("hash function unavailable")

// Description contains metadata about a published release.
type Description struct {
	// Version is the semantic version of this release.
	Version string `yaml:"version"`
	// Executable is the file name of the application to relaunch after updating.
	Executable string `yaml:"executable"`
	// Files maps relative file paths to their base64-encoded checksums.
	Files map[string]string `yaml:"files"`
}

// NewDescription produces a Description for the given release version and executable.
func NewDescription(version, executable string) *Description {
	return &Description{
		Version:    version,
		Executable: executable,
		Files:      make(map[string]string, defaultMapCapacity),
	}
}

// Load reads and parses a release description from disk.
func Load(path string) (*Description, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var desc Description
	if err = yaml.Unmarshal(contents, &desc); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}

	return &desc, nil
}

// Save writes the release description to disk.
func (d *Description) Save(path string) error {
	contents, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(path), contents, DefaultFileMode); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}

// AddFile hashes the file at path and records it under the given relative name.
func (d *Description) AddFile(name, path string) error {
	checksum, err := FileChecksum(path)
	if err != nil {
		return err
	}

	d.Files[name] = base64.StdEncoding.EncodeToString(checksum)

	return nil
}

// Checksum returns the decoded checksum recorded for the given relative name,
// or false when the manifest does not cover it.
func (d *Description) Checksum(name string) ([]byte, bool, error) {
	encoded, ok := d.Files[name]
	if !ok {
		return nil, false, nil
	}

	checksum, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, false, fmt.Errorf("decode checksum for %s: %w", name, err)
	}

	return checksum, true, nil
}

// FileChecksum returns checksum bytes for a file using ChecksumFunction.
func FileChecksum(path string) ([]byte, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	if !ChecksumFunction.Available() {
		return nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	hasher := ChecksumFunction.New()
	if _, err = hasher.Write(contents); err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	return hasher.Sum(nil), nil
}
