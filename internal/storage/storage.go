// Package storage holds what the blob store backends share. The backends themselves live in the
// local, gcs, and memory subpackages; all of them refuse to overwrite an existing object so
// that two submissions can never clobber each other's log file.
package storage

import (
	"errors"
	"fmt"
	"strings"
)

// ErrObjectExists is returned when a write targets a path that is already taken.
var ErrObjectExists = errors.New("object already exists")

// CleanPath validates an object path and strips leading slashes.
func CleanPath(path string) (string, error) {
	path = strings.TrimLeft(strings.TrimSpace(path), "/")
	if path == "" {
		return "", fmt.Errorf("path is required")
	}
	for _, part := range strings.Split(path, "/") {
		if part == ".." {
			return "", fmt.Errorf("path traversal detected in %q", path)
		}
	}
	return path, nil
}
