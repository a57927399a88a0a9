// Package fsutil provides the recursive copy primitives used to mirror a
// build tree from the network share into the local install directory.
package fsutil

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// defaultDirectoryMode is used when a source directory mode cannot be applied.
const defaultDirectoryMode os.FileMode = 0o755

// CopyTree recursively copies every file and subdirectory from src into dst,
// overwriting existing files without prompting and preserving the directory
// structure and file modes. Entries already present in dst but absent from
// src are left untouched.
func CopyTree(src, dst string) error {
	return copyTree(src, dst, nil)
}

// CopyTreeExcluding behaves like CopyTree but skips the named entries at the
// root of the source tree. Callers use it when a file needs separate,
// atomic handling.
func CopyTreeExcluding(src, dst string, names ...string) error {
	skip := make(map[string]struct{}, len(names))
	for _, name := range names {
		skip[name] = struct{}{}
	}

	return copyTree(src, dst, skip)
}

func copyTree(src, dst string, skip map[string]struct{}) error {
	src = filepath.Clean(src)
	dst = filepath.Clean(dst)

	return filepath.WalkDir(src, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", path, err)
		}

		relativePath, err := filepath.Rel(src, path)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", path, err)
		}

		if _, excluded := skip[relativePath]; excluded {
			if entry.IsDir() {
				return fs.SkipDir
			}

			return nil
		}

		target := filepath.Join(dst, relativePath)

		if entry.IsDir() {
			if err = os.MkdirAll(target, directoryMode(entry)); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}

			return nil
		}

		// Sockets, devices and the like are not part of a build tree.
		if !entry.Type().IsRegular() {
			return nil
		}

		return CopyFile(path, target)
	})
}

// CopyFile copies a single regular file from src to dst, replacing dst if it
// already exists and carrying over the source file mode.
func CopyFile(src, dst string) error {
	sourceInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	sourceFile, err := os.Open(filepath.Clean(src))
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}

	defer func() {
		_ = sourceFile.Close()
	}()

	destinationFile, err := os.OpenFile(
		filepath.Clean(dst),
		os.O_WRONLY|os.O_CREATE|os.O_TRUNC,
		sourceInfo.Mode().Perm(),
	)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	if _, err = io.Copy(destinationFile, sourceFile); err != nil {
		_ = destinationFile.Close()

		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}

	if err = destinationFile.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}

	// An overwritten file keeps its old mode, so apply the source mode explicitly.
	if err = os.Chmod(dst, sourceInfo.Mode().Perm()); err != nil {
		return fmt.Errorf("chmod %s: %w", dst, err)
	}

	return nil
}

// directoryMode returns the source directory's permissions,
// falling back to a sane default when they cannot be read.
func directoryMode(entry fs.DirEntry) os.FileMode {
	info, err := entry.Info()
	if err != nil {
		return defaultDirectoryMode
	}

	return info.Mode().Perm()
}
