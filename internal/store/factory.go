package store

import (
	"database/sql"
	"fmt"

	rerr "github.com/repoman-dev/repoman/internal/errors"
)

// Text backend names accepted in configuration.
const (
	BackendSQLite = "sqlite"
	BackendBleve  = "bleve"
)

const defaultSnippetTokens = 8

// newTextIndex builds the configured text backend. The sqlite backend shares
// the store's database handle; bleve keeps its own files.
func newTextIndex(opts Options, db *sql.DB) (TextIndex, error) {
	switch opts.TextBackend {
	case "", BackendSQLite:
		return newSQLiteText(db, opts.SnippetTokens), nil
	case BackendBleve:
		return newBleveText(opts.TextIndexBasePath)
	default:
		return nil, rerr.New(rerr.ErrCodeConfigInvalid,
			fmt.Sprintf("unknown text backend %q (want %q or %q)",
				opts.TextBackend, BackendSQLite, BackendBleve), nil)
	}
}
