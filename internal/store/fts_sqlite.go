package store

import (
	"context"
	"database/sql"
	"strings"
)

// sqliteText is the default text index: an FTS5 table living in the same
// database as the metadata, so one file holds the whole index and WAL covers
// both.
type sqliteText struct {
	db            *sql.DB
	snippetTokens int
}

func newSQLiteText(db *sql.DB, snippetTokens int) *sqliteText {
	if snippetTokens <= 0 {
		snippetTokens = defaultSnippetTokens
	}
	return &sqliteText{db: db, snippetTokens: snippetTokens}
}

func (t *sqliteText) Init(ctx context.Context) error {
	_, err := t.db.ExecContext(ctx, `
		CREATE VIRTUAL TABLE IF NOT EXISTS document_fts
		USING fts5(path, body, tokenize='porter unicode61')`)
	return wrapStoreErr(err)
}

func (t *sqliteText) Index(ctx context.Context, docID int64, path, body string) error {
	if _, err := t.db.ExecContext(ctx,
		`DELETE FROM document_fts WHERE rowid = ?`, docID); err != nil {
		return wrapStoreErr(err)
	}
	_, err := t.db.ExecContext(ctx,
		`INSERT INTO document_fts (rowid, path, body) VALUES (?, ?, ?)`,
		docID, path, body)
	return wrapStoreErr(err)
}

func (t *sqliteText) Delete(ctx context.Context, docIDs []int64) error {
	for _, id := range docIDs {
		if _, err := t.db.ExecContext(ctx,
			`DELETE FROM document_fts WHERE rowid = ?`, id); err != nil {
			return wrapStoreErr(err)
		}
	}
	return nil
}

// Search runs an FTS5 MATCH query. bm25 ranks ascending (lower is better) so
// the score is negated to fit the higher-is-better convention. A query the
// FTS5 parser rejects yields zero hits rather than an error.
func (t *sqliteText) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	rows, err := t.db.QueryContext(ctx, `
		SELECT rowid,
		       bm25(document_fts),
		       snippet(document_fts, 1, '>>>', '<<<', '...', ?)
		  FROM document_fts
		 WHERE document_fts MATCH ?
		 ORDER BY bm25(document_fts)
		 LIMIT ?`, t.snippetTokens, query, limit)
	if err != nil {
		if isFTSSyntaxErr(err) {
			return nil, nil
		}
		return nil, wrapStoreErr(err)
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var h SearchHit
		var rank float64
		if err := rows.Scan(&h.DocID, &rank, &h.Snippet); err != nil {
			return nil, wrapStoreErr(err)
		}
		h.Score = -rank
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		if isFTSSyntaxErr(err) {
			return nil, nil
		}
		return nil, wrapStoreErr(err)
	}
	return hits, nil
}

func (t *sqliteText) Reset(ctx context.Context) error {
	_, err := t.db.ExecContext(ctx, `DELETE FROM document_fts`)
	return wrapStoreErr(err)
}

// Close is a no-op; the store owns the shared database handle.
func (t *sqliteText) Close() error { return nil }

func isFTSSyntaxErr(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "fts5: syntax error") ||
		strings.Contains(msg, "unterminated string") ||
		strings.Contains(msg, "malformed MATCH") ||
		strings.Contains(msg, "unknown special query") ||
		strings.Contains(msg, "no such column")
}
