// Package query fuses full-text and exact-tag matches into one ranked,
// filterable, pageable result set.
package query

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/repoman-dev/repoman/internal/store"
)

// searchLimit caps how many full-text hits are pulled before filtering.
const searchLimit = 1000

// tagOnlyRank is the sentinel shown for documents matched by tag alone.
const tagOnlyRank = " 0.00"

// Options selects and shapes one query.
type Options struct {
	// Terms are the query tokens. They are joined with spaces into one query
	// string used for both the full-text search and the exact tag match.
	Terms []string

	// Suffix keeps only documents with this extension ("" = all).
	Suffix string

	// Sort is one of rank, lastmod, name, path, suffix. A leading "-"
	// reverses the order. Empty means rank.
	Sort string

	// TopN truncates the sorted results (0 = no limit).
	TopN int
}

// Result is one fused match.
type Result struct {
	DocID   int64
	Path    string
	Name    string
	Suffix  string
	LastMod string
	Score   float64 // 0 for tag-only matches
	Rank    string  // fixed-width display form of Score
	Snippet string
	ByTag   bool // matched by tag only, no full-text hit
}

// ResultSet is the handle returned by Run: the page of results plus how many
// matches the truncation cut off.
type ResultSet struct {
	Results   []Result
	Total     int // matches before truncation
	Remainder int // matches beyond TopN
}

// Run executes the query. Full-text hits come first in score order; documents
// matched only by an exact tag follow with a sentinel rank. A document hit by
// both appears once, under its full-text score.
func Run(ctx context.Context, st *store.Store, opts Options) (*ResultSet, error) {
	if len(opts.Terms) == 0 {
		return &ResultSet{}, nil
	}

	queryString := strings.Join(opts.Terms, " ")
	hits, err := st.Search(ctx, queryString, searchLimit)
	if err != nil {
		return nil, err
	}

	// The whole query string is matched exactly against tags. Fragments of a
	// multi-word query never match on their own.
	ids, err := st.TagExact(ctx, queryString)
	if err != nil {
		return nil, err
	}
	tagIDs := make(map[int64]bool, len(ids))
	for _, id := range ids {
		tagIDs[id] = true
	}

	allIDs := make([]int64, 0, len(hits)+len(tagIDs))
	seen := make(map[int64]bool, len(hits))
	for _, h := range hits {
		seen[h.DocID] = true
		allIDs = append(allIDs, h.DocID)
	}
	for id := range tagIDs {
		if !seen[id] {
			allIDs = append(allIDs, id)
		}
	}

	metas, err := st.GetDocuments(ctx, allIDs)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(allIDs))
	for _, h := range hits {
		meta, ok := metas[h.DocID]
		if !ok {
			continue // text index ahead of metadata, skip the orphan
		}
		results = append(results, Result{
			DocID:   h.DocID,
			Path:    meta.Path,
			Name:    filepath.Base(meta.Path),
			Suffix:  meta.Suffix,
			LastMod: meta.LastMod,
			Score:   h.Score,
			Rank:    fmt.Sprintf("%5.2f", h.Score),
			Snippet: h.Snippet,
		})
	}

	var tagOnly []Result
	for id := range tagIDs {
		if seen[id] {
			continue // full-text hit wins, keep its score and snippet
		}
		meta, ok := metas[id]
		if !ok {
			continue
		}
		tagOnly = append(tagOnly, Result{
			DocID:   id,
			Path:    meta.Path,
			Name:    filepath.Base(meta.Path),
			Suffix:  meta.Suffix,
			LastMod: meta.LastMod,
			Rank:    tagOnlyRank,
			Snippet: "Tag: >>>" + queryString + "<<<",
			ByTag:   true,
		})
	}
	sort.Slice(tagOnly, func(i, j int) bool { return tagOnly[i].Path < tagOnly[j].Path })
	results = append(results, tagOnly...)

	if opts.Suffix != "" {
		want := strings.ToLower(opts.Suffix)
		filtered := results[:0]
		for _, r := range results {
			if r.Suffix == want {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	}

	if err := sortResults(results, opts.Sort); err != nil {
		return nil, err
	}

	set := &ResultSet{Results: results, Total: len(results)}
	if opts.TopN > 0 && len(results) > opts.TopN {
		set.Remainder = len(results) - opts.TopN
		set.Results = results[:opts.TopN]
	}
	return set, nil
}

// SortOrders lists the accepted sort keys, without the reversal prefix.
var SortOrders = []string{"rank", "lastmod", "name", "path", "suffix"}

// sortResults orders results in place. Fusion order is already rank order,
// so "rank" keeps it; other keys sort stably over it.
func sortResults(results []Result, order string) error {
	reverse := strings.HasPrefix(order, "-")
	key := strings.TrimPrefix(order, "-")
	if key == "" {
		key = "rank"
	}

	var less func(a, b Result) bool
	switch key {
	case "rank":
		less = nil
	case "lastmod":
		less = func(a, b Result) bool { return a.LastMod < b.LastMod }
	case "name":
		less = func(a, b Result) bool { return a.Name < b.Name }
	case "path":
		less = func(a, b Result) bool { return a.Path < b.Path }
	case "suffix":
		less = func(a, b Result) bool { return a.Suffix < b.Suffix }
	default:
		return fmt.Errorf("unknown sort order %q (want one of %s)",
			order, strings.Join(SortOrders, ", "))
	}

	if less != nil {
		sort.SliceStable(results, func(i, j int) bool { return less(results[i], results[j]) })
	}
	if reverse {
		for i, j := 0, len(results)-1; i < j; i, j = i+1, j-1 {
			results[i], results[j] = results[j], results[i]
		}
	}
	return nil
}

// ValidSort reports whether order is an accepted sort key, with or without
// the reversal prefix.
func ValidSort(order string) bool {
	key := strings.TrimPrefix(order, "-")
	if key == "" {
		return false
	}
	for _, o := range SortOrders {
		if key == o {
			return true
		}
	}
	return false
}
