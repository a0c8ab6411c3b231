// Package extract turns downloaded document bytes into cleaned text using an ordered chain of backends.
package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"strings"

	"github.com/Winder2006/COBALT/pkg/utils"
	"go.uber.org/zap"
)

// backend produces text from raw content. An error or whitespace-only result means "no text".
type backend struct {
	name string
	fn   func(ctx context.Context, content []byte) (string, error)
}

// Extractor extracts plain text from document bytes and downloads documents for batch extraction.
type Extractor struct {
	fetcher      Fetcher
	cache        TextCache
	runner       utils.Runner
	pdftotext    string // path to poppler's pdftotext; empty disables the tertiary PDF backend
	defaultLimit int
	logger       *zap.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithLogger sets a logger for backend failures and per-document outcomes.
func WithLogger(l *zap.Logger) ExtractorOption {
	return func(e *Extractor) { e.logger = l }
}

// WithFetcher sets how ExtractDocument obtains document bytes.
func WithFetcher(f Fetcher) ExtractorOption {
	return func(e *Extractor) { e.fetcher = f }
}

// WithCache sets a cache of successful extraction text keyed by download URL.
func WithCache(c TextCache) ExtractorOption {
	return func(e *Extractor) { e.cache = c }
}

// WithPdftotext enables poppler's pdftotext as the last PDF backend.
// runner may be nil to use os/exec.
func WithPdftotext(path string, runner utils.Runner) ExtractorOption {
	return func(e *Extractor) {
		e.pdftotext = path
		if runner != nil {
			e.runner = runner
		}
	}
}

// WithDefaultLimit sets the batch limit used when ExtractAll is called with limit <= 0.
func WithDefaultLimit(n int) ExtractorOption {
	return func(e *Extractor) {
		if n > 0 {
			e.defaultLimit = n
		}
	}
}

// NewExtractor returns an Extractor. Without WithFetcher, ExtractDocument reports every
// document with a URL as download_failed.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		runner:       utils.ExecRunner{},
		defaultLimit: DefaultLimit,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract sniffs content and returns cleaned text, or "" when no backend produced any.
// It never fails: backend errors and panics are treated as empty output.
func (e *Extractor) Extract(ctx context.Context, content []byte) string {
	if len(content) == 0 {
		return ""
	}
	return e.run(ctx, e.chainFor(content), content)
}

// chainFor picks the backend chain from the content's leading bytes.
func (e *Extractor) chainFor(content []byte) []backend {
	switch {
	case isPDF(content):
		chain := []backend{
			{"ledongthuc/pdf", extractPDF},
			{"pdfcpu", extractPDFContent},
		}
		if e.pdftotext != "" {
			chain = append(chain, backend{"pdftotext", e.extractPdftotext})
		}
		return chain
	case bytes.HasPrefix(content, []byte("PK\x03\x04")):
		return zipChain(content)
	case bytes.HasPrefix(content, []byte(`{\rtf`)):
		return []backend{{"cat", extractCat}}
	}
	ct := http.DetectContentType(content)
	if strings.HasPrefix(ct, "text/plain") {
		return []backend{{"plain", extractPlain}}
	}
	return nil
}

// zipChain inspects an OOXML/ODF package and returns the matching chain.
func zipChain(content []byte) []backend {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil
	}
	for _, f := range zr.File {
		switch f.Name {
		case docxDocumentXMLPath, contentTypesPath:
			if hasZipEntry(zr, "xl/workbook.xml") {
				return []backend{{"excelize", extractExcel}}
			}
			return []backend{{"docx", extractDOCX}, {"cat", extractCat}}
		case "content.xml":
			return []backend{{"cat", extractCat}}
		}
	}
	return nil
}

func hasZipEntry(zr *zip.Reader, name string) bool {
	for _, f := range zr.File {
		if f.Name == name {
			return true
		}
	}
	return false
}

func isPDF(content []byte) bool {
	head := content
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.Contains(head, []byte("%PDF-"))
}

func (e *Extractor) run(ctx context.Context, chain []backend, content []byte) string {
	for _, b := range chain {
		text := Clean(e.try(ctx, b, content))
		if text != "" {
			return text
		}
		e.logger.Debug("backend produced no text", zap.String("backend", b.name))
	}
	return ""
}

// try runs one backend, converting errors and panics to "".
func (e *Extractor) try(ctx context.Context, b backend, content []byte) (text string) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("extraction backend panicked", zap.String("backend", b.name), zap.Any("panic", r))
			text = ""
		}
	}()
	out, err := b.fn(ctx, content)
	if err != nil {
		e.logger.Debug("extraction backend failed", zap.String("backend", b.name), zap.Error(err))
		return ""
	}
	return out
}
