// Package pipeline turns raw source fragments into loaded tables: normalize
// column names, apply the source's cleaning policy, infer and coerce types,
// optionally geocode, reconcile the live schema, and bulk-insert. Fragments
// are independent partitions; the runner processes them concurrently and a
// failed fragment never blocks the others.
package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Fragment is one pre-fetched partition of a source: the source tag the
// dataset policies key on, the raw header row, and position-aligned data
// rows. Fetchers write fragments as JSON files; the runner reads them back.
type Fragment struct {
	Source  string   `json:"source"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// ReadFragment decodes one fragment file.
func ReadFragment(path string) (Fragment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fragment{}, fmt.Errorf("read fragment: %w", err)
	}
	var frag Fragment
	if err := json.Unmarshal(data, &frag); err != nil {
		return Fragment{}, fmt.Errorf("read fragment %s: %w", path, err)
	}
	if frag.Source == "" {
		return Fragment{}, fmt.Errorf("read fragment %s: missing source tag", path)
	}
	if len(frag.Columns) == 0 {
		return Fragment{}, fmt.Errorf("read fragment %s: no columns", path)
	}
	return frag, nil
}

// ReadFragmentDir reads every *.json fragment in dir, in name order so runs
// are deterministic.
func ReadFragmentDir(dir string) ([]Fragment, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("scan fragments: %w", err)
	}
	sort.Strings(paths)

	frags := make([]Fragment, 0, len(paths))
	for _, p := range paths {
		frag, err := ReadFragment(p)
		if err != nil {
			return nil, err
		}
		frags = append(frags, frag)
	}
	return frags, nil
}
