package sources

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Discover lists files in dataDir whose names match any of the glob
// patterns, sorted by name so ingestion order is stable across runs.
func Discover(dataDir string, patterns []string) ([]string, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("reading data dir %s: %w", dataDir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		for _, pattern := range patterns {
			ok, err := doublestar.Match(pattern, entry.Name())
			if err != nil {
				return nil, fmt.Errorf("bad glob %q: %w", pattern, err)
			}
			if ok {
				paths = append(paths, filepath.Join(dataDir, entry.Name()))
				break
			}
		}
	}

	sort.Strings(paths)
	return paths, nil
}
