package io

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ListFiles returns the sorted paths of the regular files in dir whose
// extension matches one of exts, ignoring case.
func ListFiles(dir string, exts []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if slices.ContainsFunc(exts, func(x string) bool { return strings.ToLower(x) == ext }) {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	slices.Sort(out)
	return out, nil
}

// Neighbor returns the file after (step 1) or before (step -1) current in
// files, wrapping around. current need not be in files.
func Neighbor(files []string, current string, step int) (string, bool) {
	if len(files) == 0 {
		return "", false
	}
	i, found := slices.BinarySearch(files, current)
	switch {
	case found:
		i = (i + step) % len(files)
	case step < 0:
		i--
	}
	i = (i%len(files) + len(files)) % len(files)
	return files[i], true
}
