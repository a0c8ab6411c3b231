package extract

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// extractPdftotext shells out to poppler. The content is written to a temp file since
// pdftotext needs a seekable input.
func (e *Extractor) extractPdftotext(ctx context.Context, content []byte) (string, error) {
	f, err := os.CreateTemp("", "cobalt-*.pdf")
	if err != nil {
		return "", fmt.Errorf("temp file: %w", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", f.Name(), "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w: %s", err, strings.TrimSpace(string(errb)))
	}
	// Form feeds separate pages.
	return strings.ReplaceAll(string(out), "\f", "\n"), nil
}
