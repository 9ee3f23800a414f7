// Package manifest locates and reads npm package manifests (package.json).
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
)

// FileName is the manifest file name looked up by Find.
const FileName = "package.json"

// ErrNotFound is returned when no manifest exists at or above a directory.
var ErrNotFound = errors.New("package.json not found")

// Find walks from start up to the filesystem root and returns the path of the
// nearest package.json. start may be a file, a directory, or a path that does
// not exist yet; the walk begins at the closest existing ancestor.
func Find(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", start, err)
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}

	for {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w above %s", ErrNotFound, start)
		}
		dir = parent
	}
}

// Read returns the raw bytes of a manifest after checking they are valid JSON.
func Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%s is not valid JSON", path)
	}
	return data, nil
}

// Main returns the "main" field of the manifest at path, or "" if unset.
func Main(path string) (string, error) {
	data, err := Read(path)
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(data, "main").String(), nil
}
