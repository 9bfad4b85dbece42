package extract

import (
	"context"
	"fmt"
	"strings"

	rerr "github.com/repoman-dev/repoman/internal/errors"
)

// extractOrg performs structured extraction for org files: lines inside
// #+begin_src / #+end_src blocks are excluded from the body, remaining
// non-blank lines are space-joined, and every line is scanned for [[url]] /
// [[url][description]] markup. Malformed link markup aborts link extraction
// for the file; the body is still returned alongside the error so the
// document can be indexed without links.
func extractOrg(_ context.Context, _ *Extractor, path string) (Content, error) {
	text, err := readText(path)
	if err != nil {
		return Content{}, err
	}

	var body []string
	var links []Link
	var linkErr error
	inSrc := false

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)

		switch {
		case strings.HasPrefix(lower, "#+begin_src"):
			inSrc = true
		case strings.HasPrefix(lower, "#+end_src"):
			inSrc = false
		case !inSrc && trimmed != "":
			body = append(body, trimmed)
		}

		if linkErr == nil {
			found, err := parseLinks(line)
			if err != nil {
				linkErr = rerr.Wrap(rerr.ErrCodeLinkMarkup, err).WithPath(path)
				links = nil
				continue
			}
			links = append(links, found...)
		}
	}

	return Content{Body: strings.Join(body, " "), Links: links}, linkErr
}

// parseLinks scans one line left to right, consuming one bracket pair at a
// time so multiple links on a line are all captured in order. An unterminated
// or malformed pair is an error rather than silently dropped data.
func parseLinks(line string) ([]Link, error) {
	var links []Link
	rest := line
	for {
		start := strings.Index(rest, "[[")
		if start < 0 {
			return links, nil
		}
		rest = rest[start+2:]

		urlEnd := strings.Index(rest, "]")
		if urlEnd < 0 {
			return nil, fmt.Errorf("unterminated link markup near %q", truncate(rest))
		}
		url := rest[:urlEnd]
		after := rest[urlEnd+1:]

		switch {
		case strings.HasPrefix(after, "]"):
			// [[url]]
			links = append(links, Link{URL: url})
			rest = after[1:]
		case strings.HasPrefix(after, "["):
			// [[url][description]]
			descEnd := strings.Index(after, "]]")
			if descEnd < 0 {
				return nil, fmt.Errorf("unterminated link description near %q", truncate(after))
			}
			links = append(links, Link{URL: url, Description: after[1:descEnd]})
			rest = after[descEnd+2:]
		default:
			return nil, fmt.Errorf("malformed link markup near %q", truncate(rest))
		}
	}
}

func truncate(s string) string {
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}
