// Package fileutil provides file system utility functions.
package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FindFileCaseInsensitive searches dir for a regular file named filename,
// ignoring case. It returns the path with the name as stored on disk.
//
// Example:
//
//	path, err := FindFileCaseInsensitive("/path/to/dir", "Main.TINY")
//	// Will find "main.tiny", "MAIN.TINY", "Main.tiny", etc.
func FindFileCaseInsensitive(dir, filename string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(entry.Name(), filename) {
			return filepath.Join(dir, entry.Name()), nil
		}
	}

	return "", fmt.Errorf("file not found: %s (searched in %s): %w", filename, dir, fs.ErrNotExist)
}

// Resolve returns path unchanged when it exists. Otherwise it looks for the
// file in the same directory ignoring case, so scripts written on
// case-insensitive systems still find each other.
func Resolve(path string) (string, error) {
	_, err := os.Stat(path)
	if err == nil {
		return path, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	found, ferr := FindFileCaseInsensitive(filepath.Dir(path), filepath.Base(path))
	if ferr != nil {
		return "", err
	}
	return found, nil
}
