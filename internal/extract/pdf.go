package extract

import (
	"context"
	"os"
	"os/exec"

	rerr "github.com/repoman-dev/repoman/internal/errors"
)

// Runner executes an external command and returns its stdout. It exists so
// tests can substitute the pdftotext binary.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// extractPDF delegates to the opaque pdftotext extractor. A format error is
// per-document: the caller records the file metadata-only and the batch
// continues.
func extractPDF(ctx context.Context, e *Extractor, path string) (Content, error) {
	if _, err := os.Stat(path); err != nil {
		return Content{}, rerr.Wrap(rerr.ErrCodeFileNotFound, err).WithPath(path)
	}
	out, err := e.runner.Run(ctx, "pdftotext", "-q", path, "-")
	if err != nil {
		return Content{}, rerr.Wrap(rerr.ErrCodeFileCorrupt, err).WithPath(path)
	}
	text, err := decodeText(out, path)
	if err != nil {
		return Content{}, err
	}
	return Content{Body: text}, nil
}
