package watchlist

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type yamlFile struct {
	Watchlist []yamlEntry `yaml:"watchlist"`
}

type yamlEntry struct {
	Symbol string `yaml:"symbol"`
}

// ImportYAML reads a file of the form
//
//	watchlist:
//	  - symbol: AAPL
//	  - symbol: msft
//
// and returns the normalized symbols in file order without duplicates.
// Invalid entries are reported as an error naming the entry index.
func ImportYAML(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f yamlFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	seen := make(map[string]bool, len(f.Watchlist))
	out := make([]string, 0, len(f.Watchlist))
	for i, e := range f.Watchlist {
		sym, err := Normalize(e.Symbol)
		if err != nil {
			return nil, fmt.Errorf("%s: entry %d: %w", path, i, err)
		}
		if seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, sym)
	}
	return out, nil
}
