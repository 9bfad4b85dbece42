package extract

import (
	"bytes"
	"context"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	rerr "github.com/repoman-dev/repoman/internal/errors"
)

// extractRaw reads the whole file as text. No links are produced.
func extractRaw(_ context.Context, _ *Extractor, path string) (Content, error) {
	text, err := readText(path)
	if err != nil {
		return Content{}, err
	}
	return Content{Body: text}, nil
}

// readText reads path and decodes it heuristically: valid UTF-8 passes
// through, a UTF-16 BOM selects the matching decoder, anything else is
// treated as Latin-1 (which cannot fail and preserves every byte).
func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", rerr.Wrap(rerr.ErrCodeFileUnread, err).WithPath(path)
	}
	return decodeText(data, path)
}

func decodeText(data []byte, path string) (string, error) {
	switch {
	case len(data) == 0:
		return "", nil
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}), bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		dec := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
		out, err := dec.Bytes(data)
		if err != nil {
			return "", rerr.Wrap(rerr.ErrCodeFileDecode, err).WithPath(path)
		}
		return string(out), nil
	case utf8.Valid(data):
		// Strip a UTF-8 BOM if present.
		return string(bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})), nil
	default:
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return "", rerr.Wrap(rerr.ErrCodeFileDecode, err).WithPath(path)
		}
		return string(out), nil
	}
}
