package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

const bleveExt = ".bleve"

// bleveText is the alternative text index, kept on disk next to the database.
// Useful when query syntax beyond FTS5 is wanted, or the FTS5 extension is
// unavailable.
type bleveText struct {
	mu     sync.RWMutex
	index  bleve.Index
	path   string // "" means in-memory
	closed bool
}

// bleveDoc is the document shape handed to Bleve.
type bleveDoc struct {
	Path string `json:"path"`
	Body string `json:"body"`
}

func newBleveText(basePath string) (*bleveText, error) {
	indexMapping := createBleveMapping()

	var idx bleve.Index
	var err error
	path := ""
	if basePath == "" {
		idx, err = bleve.NewMemOnly(indexMapping)
	} else {
		path = basePath + bleveExt
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", mkErr)
		}
		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, indexMapping)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open text index: %w", err)
	}

	return &bleveText{index: idx, path: path}, nil
}

func createBleveMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = standard.Name

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("path", bleve.NewTextFieldMapping())

	bodyField := bleve.NewTextFieldMapping()
	bodyField.Store = true // needed for highlighted snippets
	docMapping.AddFieldMappingsAt("body", bodyField)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// Init is a no-op; the index is created on open.
func (t *bleveText) Init(ctx context.Context) error { return nil }

func (t *bleveText) Index(ctx context.Context, docID int64, path, body string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fmt.Errorf("text index is closed")
	}
	return t.index.Index(strconv.FormatInt(docID, 10), bleveDoc{Path: path, Body: body})
}

func (t *bleveText) Delete(ctx context.Context, docIDs []int64) error {
	if len(docIDs) == 0 {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fmt.Errorf("text index is closed")
	}

	batch := t.index.NewBatch()
	for _, id := range docIDs {
		batch.Delete(strconv.FormatInt(id, 10))
	}
	return t.index.Batch(batch)
}

func (t *bleveText) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return nil, fmt.Errorf("text index is closed")
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	matchQuery := bleve.NewMatchQuery(query)
	matchQuery.SetField("body")

	req := bleve.NewSearchRequest(matchQuery)
	req.Size = limit
	req.Highlight = bleve.NewHighlightWithStyle("html")
	req.Highlight.AddField("body")

	result, err := t.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]SearchHit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		docID, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			continue
		}
		snippet := ""
		if frags, ok := hit.Fragments["body"]; ok && len(frags) > 0 {
			snippet = rewriteMarkers(frags[0])
		}
		hits = append(hits, SearchHit{DocID: docID, Score: hit.Score, Snippet: snippet})
	}
	return hits, nil
}

// rewriteMarkers converts the html highlighter's tags to the store-wide
// snippet markers.
func rewriteMarkers(s string) string {
	s = strings.ReplaceAll(s, "<mark>", ">>>")
	s = strings.ReplaceAll(s, "</mark>", "<<<")
	return s
}

// Reset drops every document by recreating the index.
func (t *bleveText) Reset(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fmt.Errorf("text index is closed")
	}
	if err := t.index.Close(); err != nil {
		return err
	}

	indexMapping := createBleveMapping()
	var idx bleve.Index
	var err error
	if t.path == "" {
		idx, err = bleve.NewMemOnly(indexMapping)
	} else {
		if err := os.RemoveAll(t.path); err != nil {
			return err
		}
		idx, err = bleve.New(t.path, indexMapping)
	}
	if err != nil {
		return fmt.Errorf("failed to recreate text index: %w", err)
	}
	t.index = idx
	return nil
}

func (t *bleveText) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	return t.index.Close()
}
