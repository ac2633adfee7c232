// Package fsutil provides file system helpers for locating input files.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// InputExt is the extension of input files.
const InputExt = ".mbk"

// ResolveInput turns a user-supplied path into the top input file. A file
// path is returned as is; for a directory the top file must be
// unambiguous: either a single input file, or one named main.mbk.
func ResolveInput(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return path, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return "", err
	}
	var found []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), InputExt) {
			continue
		}
		if e.Name() == "main"+InputExt {
			return filepath.Join(path, e.Name()), nil
		}
		found = append(found, e.Name())
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("no %s files found in %s", InputExt, path)
	case 1:
		return filepath.Join(path, found[0]), nil
	default:
		return "", fmt.Errorf("ambiguous input: %s contains %s, pick one or add a main%s",
			path, strings.Join(found, ", "), InputExt)
	}
}
