package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO

	rerr "github.com/repoman-dev/repoman/internal/errors"
)

// timeFormat matches extract.TimeFormat; stored timestamps are fixed width so
// lexicographic compare equals chronological compare.
const timeFormat = "2006-01-02 15:04"

// tagCacheSize bounds the tag name -> id cache used on the upsert path.
const tagCacheSize = 1024

// Options configures opening a store handle.
type Options struct {
	// DatabasePath is the SQLite file ("" = in-memory, for tests).
	DatabasePath string

	// TextBackend selects the text index: "sqlite" (default) or "bleve".
	TextBackend string

	// TextIndexBasePath is the base path for file-backed text indexes
	// (the backend appends its extension). Ignored by the sqlite backend,
	// which lives inside the database itself.
	TextIndexBasePath string

	// SnippetTokens caps snippet length (0 = default 8).
	SnippetTokens int
}

// Store is a single-handle connection to the document index. Handles are
// never shared across concurrent indexing workers; each worker opens its own.
type Store struct {
	db     *sql.DB
	text   TextIndex
	path   string
	tagIDs *lru.Cache[string, int64]
}

// Open opens a store handle. The schema is not created here; see Init and
// CheckSchema. Missing schema surfaces on first use as a distinct fatal
// error.
func Open(opts Options) (*Store, error) {
	dsn := opts.DatabasePath
	if dsn == "" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer per handle; cross-handle contention is resolved by the
	// store's busy timeout plus retry-with-backoff at the caller.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -65536",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	text, err := newTextIndex(opts, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	cache, err := lru.New[string, int64](tagCacheSize)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tag cache: %w", err)
	}

	return &Store{db: db, text: text, path: opts.DatabasePath, tagIDs: cache}, nil
}

// Close closes the handle and its text index.
func (s *Store) Close() error {
	var firstErr error
	if s.text != nil {
		if err := s.text.Close(); err != nil {
			firstErr = err
		}
	}
	if err := s.db.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Init creates the schema. Safe to call on an existing database.
func (s *Store) Init(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS document (
		id       INTEGER PRIMARY KEY,
		path     TEXT NOT NULL UNIQUE,
		suffix   TEXT,
		last_mod TEXT NOT NULL,
		last_idx TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tag (
		id   INTEGER PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS document_tag (
		doc_id INTEGER NOT NULL,
		tag_id INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS document_link (
		doc_id      INTEGER NOT NULL,
		url         TEXT NOT NULL,
		description TEXT
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return wrapStoreErr(err)
	}
	return s.text.Init(ctx)
}

// CheckSchema verifies the schema exists, returning the distinct fatal
// schema-missing error if not.
func (s *Store) CheckSchema(ctx context.Context) error {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='document'`).Scan(&count)
	if err != nil {
		return wrapStoreErr(err)
	}
	if count == 0 {
		return rerr.New(rerr.ErrCodeSchemaMissing,
			"index schema missing, run 'repoman db init' first", nil)
	}
	return nil
}

// Upsert replaces the full state for doc.Path: any prior document row, tag
// relations, links, and text-index entry are removed, then fresh state is
// inserted. Returns the new document id.
func (s *Store) Upsert(ctx context.Context, doc Document) (int64, error) {
	if err := s.DeleteByPath(ctx, doc.Path); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, wrapStoreErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO document (path, suffix, last_mod, last_idx) VALUES (?, ?, ?, ?)`,
		doc.Path, doc.Suffix, doc.LastMod, time.Now().Format(timeFormat))
	if err != nil {
		return 0, wrapStoreErr(err)
	}
	docID, err := res.LastInsertId()
	if err != nil {
		return 0, wrapStoreErr(err)
	}

	// Tags are created lazily and never deleted; newly resolved ids go into
	// the cache only after the transaction commits.
	created := make(map[string]int64)
	for _, name := range doc.Tags {
		tagID, fresh, err := s.resolveTag(ctx, tx, name)
		if err != nil {
			return 0, err
		}
		if fresh {
			created[name] = tagID
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO document_tag (doc_id, tag_id) VALUES (?, ?)`, docID, tagID); err != nil {
			return 0, wrapStoreErr(err)
		}
	}

	for _, link := range doc.Links {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO document_link (doc_id, url, description) VALUES (?, ?, ?)`,
			docID, link.URL, link.Description); err != nil {
			return 0, wrapStoreErr(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, wrapStoreErr(err)
	}
	for name, id := range created {
		s.tagIDs.Add(name, id)
	}

	if err := s.text.Index(ctx, docID, doc.Path, doc.Body); err != nil {
		return 0, err
	}
	return docID, nil
}

// resolveTag returns the id for a tag name, creating the row if needed.
func (s *Store) resolveTag(ctx context.Context, tx *sql.Tx, name string) (int64, bool, error) {
	if id, ok := s.tagIDs.Get(name); ok {
		return id, false, nil
	}

	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM tag WHERE name = ?`, name).Scan(&id)
	switch {
	case err == nil:
		return id, true, nil
	case err != sql.ErrNoRows:
		return 0, false, wrapStoreErr(err)
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO tag (name) VALUES (?)`, name)
	if err != nil {
		return 0, false, wrapStoreErr(err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, false, wrapStoreErr(err)
	}
	return id, true, nil
}

// DeleteByPath removes all state for path. Missing paths are a no-op.
func (s *Store) DeleteByPath(ctx context.Context, path string) error {
	var docID int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM document WHERE path = ?`, path).Scan(&docID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return wrapStoreErr(err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapStoreErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{
		`DELETE FROM document_tag WHERE doc_id = ?`,
		`DELETE FROM document_link WHERE doc_id = ?`,
		`DELETE FROM document WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, docID); err != nil {
			return wrapStoreErr(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return wrapStoreErr(err)
	}

	return s.text.Delete(ctx, []int64{docID})
}

// PathsLastModified returns the recorded (path -> last_mod) map for change
// detection.
func (s *Store) PathsLastModified(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, last_mod FROM document`)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var path, lastMod string
		if err := rows.Scan(&path, &lastMod); err != nil {
			return nil, wrapStoreErr(err)
		}
		out[path] = lastMod
	}
	return out, wrapStoreErr(rows.Err())
}

// GetDocuments returns metadata for the given document ids.
func (s *Store) GetDocuments(ctx context.Context, ids []int64) (map[int64]DocMeta, error) {
	if len(ids) == 0 {
		return map[int64]DocMeta{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(
		`SELECT id, path, suffix, last_mod, last_idx FROM document WHERE id IN (%s)`,
		strings.Join(placeholders, ","))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	defer rows.Close()

	out := make(map[int64]DocMeta, len(ids))
	for rows.Next() {
		var m DocMeta
		if err := rows.Scan(&m.ID, &m.Path, &m.Suffix, &m.LastMod, &m.LastIdx); err != nil {
			return nil, wrapStoreErr(err)
		}
		out[m.ID] = m
	}
	return out, wrapStoreErr(rows.Err())
}

// Search runs a full-text query through the configured text index.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	return s.text.Search(ctx, query, limit)
}

// TagExact returns the ids of documents carrying exactly the given tag.
func (s *Store) TagExact(ctx context.Context, token string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT dt.doc_id
		  FROM document_tag dt
		  JOIN tag t ON t.id = dt.tag_id
		 WHERE t.name = ?`, token)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, wrapStoreErr(err)
		}
		ids = append(ids, id)
	}
	return ids, wrapStoreErr(rows.Err())
}

// Stats returns document totals and per-suffix counts (descending).
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM document`).Scan(&st.Documents); err != nil {
		return st, wrapStoreErr(err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tag`).Scan(&st.Tags); err != nil {
		return st, wrapStoreErr(err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM document_link`).Scan(&st.Links); err != nil {
		return st, wrapStoreErr(err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(suffix, ''), COUNT(*)
		  FROM document
		 GROUP BY suffix
		 ORDER BY COUNT(*) DESC`)
	if err != nil {
		return st, wrapStoreErr(err)
	}
	defer rows.Close()
	for rows.Next() {
		var sc SuffixCount
		if err := rows.Scan(&sc.Suffix, &sc.Count); err != nil {
			return st, wrapStoreErr(err)
		}
		st.BySuffix = append(st.BySuffix, sc)
	}
	return st, wrapStoreErr(rows.Err())
}

// CountsByTag returns documents-per-tag, descending.
func (s *Store) CountsByTag(ctx context.Context) ([]TagCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.name, COUNT(*)
		  FROM document_tag dt
		  JOIN tag t ON t.id = dt.tag_id
		 GROUP BY dt.tag_id
		 ORDER BY COUNT(*) DESC, t.name`)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	defer rows.Close()

	var out []TagCount
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, wrapStoreErr(err)
		}
		out = append(out, tc)
	}
	return out, wrapStoreErr(rows.Err())
}

// AllLinks returns every stored link.
func (s *Store) AllLinks(ctx context.Context) ([]Link, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT url, COALESCE(description, '') FROM document_link`)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	defer rows.Close()

	var out []Link
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.URL, &l.Description); err != nil {
			return nil, wrapStoreErr(err)
		}
		out = append(out, l)
	}
	return out, wrapStoreErr(rows.Err())
}

// Clear deletes all rows from every table and resets the text index.
func (s *Store) Clear(ctx context.Context) error {
	for _, table := range []string{"document_link", "document_tag", "document", "tag"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return wrapStoreErr(err)
		}
	}
	s.tagIDs.Purge()
	return s.text.Reset(ctx)
}

// Drop removes the index files from disk. The store must be closed first.
func Drop(databasePath, textBasePath string) error {
	for _, p := range []string{databasePath, databasePath + "-wal", databasePath + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	if textBasePath != "" {
		if err := os.RemoveAll(textBasePath + bleveExt); err != nil {
			return err
		}
	}
	return nil
}

// wrapStoreErr classifies database errors: lock contention becomes the
// retryable busy error, missing tables become the fatal schema error.
func wrapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked"):
		return rerr.Wrap(rerr.ErrCodeStoreBusy, err)
	case strings.Contains(msg, "no such table"):
		return rerr.New(rerr.ErrCodeSchemaMissing,
			"index schema missing, run 'repoman db init' first", err)
	default:
		return err
	}
}
