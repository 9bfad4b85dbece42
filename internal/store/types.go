// Package store persists the document index.
//
// Document metadata, tags, and links live in SQLite. Full-text search over
// document bodies is a pluggable TextIndex: SQLite FTS5 in the same database
// (default, concurrent access via WAL) or a Bleve index on disk. Both return
// relevance-scored hits with >>>match<<< snippet markers.
package store

import "context"

// Document is the full state written for one path on (re)indexing.
type Document struct {
	Path    string
	Suffix  string
	LastMod string // fixed-width timestamp, lexicographic == chronological
	Body    string
	Tags    []string
	Links   []Link
}

// Link is a hyperlink owned by a document.
type Link struct {
	URL         string
	Description string
}

// DocMeta is the metadata row for a stored document.
type DocMeta struct {
	ID      int64
	Path    string
	Suffix  string
	LastMod string
	LastIdx string
}

// SearchHit is one full-text match.
type SearchHit struct {
	DocID   int64
	Score   float64 // higher is better in every backend
	Snippet string  // excerpt with >>> <<< match markers
}

// SuffixCount is a per-suffix document count.
type SuffixCount struct {
	Suffix string
	Count  int
}

// TagCount is a per-tag document count.
type TagCount struct {
	Tag   string
	Count int
}

// Stats summarizes the index contents.
type Stats struct {
	Documents int
	Tags      int
	Links     int
	BySuffix  []SuffixCount
}

// TextIndex is the full-text search capability consumed by the store.
// Implementations must treat Index as delete-then-insert keyed by docID.
type TextIndex interface {
	Init(ctx context.Context) error
	Index(ctx context.Context, docID int64, path, body string) error
	Delete(ctx context.Context, docIDs []int64) error
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)
	Reset(ctx context.Context) error
	Close() error
}
