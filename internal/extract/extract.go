// Package extract turns files into indexable text and metadata.
//
// Dispatch is a closed strategy table keyed by lowercase suffix: txt, py, and
// md are read raw; org gets structured extraction (source blocks stripped,
// bracket links collected); pdf is delegated to an external text extractor.
// Suffixes without a strategy yield no body; the caller records such
// documents metadata-only.
//
// Independently of the body, the filename carries optional metadata: a
// leading YYYY-MM-DD date that overrides the filesystem mtime, and a
// " -- tag1 tag2" group before the extension.
package extract

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// TimeFormat is the fixed-width timestamp format stored for documents.
// Lexicographic comparison of formatted values equals chronological
// comparison; change detection depends on this.
const TimeFormat = "2006-01-02 15:04"

// Link is a hyperlink found in a document body.
type Link struct {
	URL         string
	Description string // empty when the markup had no description
}

// Content is the extraction result for one file.
type Content struct {
	Body  string
	Links []Link
}

// Extractor runs per-suffix extraction strategies.
type Extractor struct {
	runner Runner
}

// New creates an Extractor. A nil runner uses the system pdftotext binary.
func New(runner Runner) *Extractor {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Extractor{runner: runner}
}

// strategy extracts content from a single file.
type strategy func(ctx context.Context, e *Extractor, path string) (Content, error)

// strategies is the closed dispatch table. Suffixes are lowercase.
var strategies = map[string]strategy{
	"txt": extractRaw,
	"py":  extractRaw,
	"md":  extractRaw,
	"org": extractOrg,
	"pdf": extractPDF,
}

// HasStrategy reports whether suffix has an extraction strategy.
func HasStrategy(suffix string) bool {
	_, ok := strategies[strings.ToLower(suffix)]
	return ok
}

// Extract runs the strategy for suffix against path. For suffixes without a
// strategy it returns empty content and ok=false. The error is non-fatal for
// a batch: an org file with malformed link markup still returns its body, and
// callers may keep metadata for files whose body failed to extract.
func (e *Extractor) Extract(ctx context.Context, path, suffix string) (c Content, ok bool, err error) {
	fn, found := strategies[strings.ToLower(suffix)]
	if !found {
		return Content{}, false, nil
	}
	c, err = fn(ctx, e, path)
	return c, true, err
}

// filenameDate matches an explicit leading date in a filename, optionally
// followed by T, space, underscore, or dash.
var filenameDate = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})([T _-]|$)`)

// LastModified derives the document timestamp for path. An explicit leading
// YYYY-MM-DD in the filename wins over the filesystem mtime, with the
// time-of-day zeroed; this lets users pin a logical document date
// independent of when the file was last touched on disk.
func LastModified(path string, mtime time.Time) string {
	name := baseName(path)
	if m := filenameDate.FindStringSubmatch(name); m != nil {
		if d, err := time.Parse("2006-01-02", m[1]); err == nil {
			return d.Format(TimeFormat)
		}
	}
	return mtime.Format(TimeFormat)
}

// filenameTags matches the "<name> -- <tags>" convention on the stem.
var filenameTags = regexp.MustCompile(`^.* -- (.*)$`)

// Tags derives tags from the filename stem. The tag group is whitespace-split
// with empty tokens discarded; filenames without the separator have no tags.
func Tags(path string) []string {
	stem := baseName(path)
	if i := strings.LastIndex(stem, "."); i > 0 {
		stem = stem[:i]
	}
	m := filenameTags.FindStringSubmatch(stem)
	if m == nil {
		return nil
	}
	tags := strings.Fields(m[1])
	if len(tags) == 0 {
		return nil
	}
	return tags
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}
