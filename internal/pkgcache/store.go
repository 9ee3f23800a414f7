package pkgcache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Entry is one package version present in a cache directory.
type Entry struct {
	Spec
	Path string
}

// ParseEntryName is the inverse of EntryName.
func ParseEntryName(entry string) (Spec, bool) {
	rest, ok := strings.CutPrefix(entry, "_")
	if !ok {
		return Spec{}, false
	}
	// Scoped names start with "@", so the separator before the trailing name
	// is not necessarily the last one.
	for at := len(rest) - 1; at > 0; at-- {
		if rest[at] != '@' {
			continue
		}
		name := strings.ReplaceAll(rest[at+1:], scopeEscape, "/")
		prefix := sanitize(name) + "@"
		if name == "" || !strings.HasPrefix(rest, prefix) || len(prefix) >= at {
			continue
		}
		return Spec{Name: name, Version: rest[len(prefix):at]}, true
	}
	return Spec{}, false
}

// List returns the cache entries under storeDir sorted by name and version.
// A missing store is empty.
func List(storeDir string) ([]Entry, error) {
	dirents, err := os.ReadDir(storeDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache %s: %w", storeDir, err)
	}

	var entries []Entry
	for _, d := range dirents {
		if !d.IsDir() {
			continue
		}
		if spec, ok := ParseEntryName(d.Name()); ok {
			entries = append(entries, Entry{Spec: spec, Path: filepath.Join(storeDir, d.Name())})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].Version < entries[j].Version
	})
	return entries, nil
}

// Remove deletes every cached version of name, or the whole cache when name
// is empty. It returns the number of entries removed.
func Remove(storeDir, name string) (int, error) {
	entries, err := List(storeDir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if name != "" && e.Name != name {
			continue
		}
		if err := os.RemoveAll(e.Path); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", e.Path, err)
		}
		_ = os.Remove(LockPath(e.Path))
		removed++
	}
	return removed, nil
}

// DiskUsage sums the sizes of the regular files under path.
func DiskUsage(path string) (int64, error) {
	var total int64
	err := filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to measure %s: %w", path, err)
	}
	return total, nil
}
