package index

import (
	"github.com/repoman-dev/repoman/internal/extract"
	"github.com/repoman-dev/repoman/internal/walker"
)

// Candidate is a file selected for (re)indexing, with its effective
// modification timestamp already resolved (a leading filename date overrides
// the filesystem mtime).
type Candidate struct {
	walker.Entry
	LastMod string
}

// SelectForIndexing compares walked entries against the recorded
// (path -> last modified) state and returns the entries that need work.
// With force set, every entry is selected regardless of recorded state.
// The second return value counts entries that were already current.
func SelectForIndexing(indexed map[string]string, entries []walker.Entry, force bool) ([]Candidate, int) {
	var stale []Candidate
	fresh := 0
	for _, e := range entries {
		lastMod := extract.LastModified(e.Path, e.ModTime)
		if !force {
			if recorded, ok := indexed[e.Path]; ok && recorded == lastMod {
				fresh++
				continue
			}
		}
		stale = append(stale, Candidate{Entry: e, LastMod: lastMod})
	}
	return stale, fresh
}
