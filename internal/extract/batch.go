package extract

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Winder2006/COBALT/internal/fetch"
	"github.com/Winder2006/COBALT/internal/models"
	"go.uber.org/zap"
)

// DefaultLimit is the batch size used when no limit is given.
const DefaultLimit = 50

// Fetcher obtains the raw bytes of a document. Implementations return an error for
// anything that should be reported as download_failed.
type Fetcher interface {
	Fetch(ctx context.Context, doc models.DocumentRef) ([]byte, error)
}

// TextCache stores successful extraction text keyed by download URL.
type TextCache interface {
	GetText(ctx context.Context, downloadURL string) (string, bool, error)
	PutText(ctx context.Context, downloadURL, text string) error
}

// HTTPFetcher downloads documents directly with a fetch.Client.
type HTTPFetcher struct {
	Client *fetch.Client
}

// Fetch downloads doc.DownloadURL and applies the candidate-document rule.
func (f HTTPFetcher) Fetch(ctx context.Context, doc models.DocumentRef) ([]byte, error) {
	resp, err := f.Client.Download(ctx, doc.DownloadURL)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Using returns a copy of e that obtains document bytes from f.
func (e *Extractor) Using(f Fetcher) *Extractor {
	c := *e
	c.fetcher = f
	return &c
}

// ExtractDocument downloads and extracts one document. Only the extraction fields of the
// returned copy differ from doc; failures are recorded as a status, never returned.
func (e *Extractor) ExtractDocument(ctx context.Context, doc models.DocumentRef) models.DocumentRef {
	out := doc
	out.ExtractedText = ""
	out.TextLength = 0
	if strings.TrimSpace(doc.DownloadURL) == "" {
		out.ExtractionStatus = models.ExtractionNoURL
		return out
	}
	if text, ok := e.cached(ctx, doc.DownloadURL); ok {
		return withText(out, text)
	}
	if e.fetcher == nil {
		out.ExtractionStatus = models.ExtractionDownloadFailed
		return out
	}
	content, err := e.fetcher.Fetch(ctx, doc)
	if err != nil {
		e.logger.Info("document download failed", zap.String("url", doc.DownloadURL), zap.Error(err))
		out.ExtractionStatus = models.ExtractionDownloadFailed
		return out
	}
	text := e.Extract(ctx, content)
	if text == "" {
		e.logger.Info("no text extracted", zap.String("url", doc.DownloadURL), zap.Int("bytes", len(content)))
		out.ExtractionStatus = models.ExtractionFailed
		return out
	}
	if e.cache != nil {
		if err := e.cache.PutText(ctx, doc.DownloadURL, text); err != nil {
			e.logger.Warn("cache extraction text", zap.Error(err))
		}
	}
	return withText(out, text)
}

func (e *Extractor) cached(ctx context.Context, url string) (string, bool) {
	if e.cache == nil {
		return "", false
	}
	text, ok, err := e.cache.GetText(ctx, url)
	if err != nil {
		e.logger.Warn("read extraction cache", zap.Error(err))
		return "", false
	}
	return text, ok && text != ""
}

func withText(doc models.DocumentRef, text string) models.DocumentRef {
	doc.ExtractedText = text
	doc.ExtractionStatus = models.ExtractionSuccess
	doc.TextLength = utf8.RuneCountInString(text)
	return doc
}

// ExtractAll extracts docs in input order, one at a time. Only the first limit documents
// are considered (limit <= 0 uses the default). Each successful document contributes its
// text to the combined output under a one-line header.
func (e *Extractor) ExtractAll(ctx context.Context, docs []models.DocumentRef, limit int) ([]models.DocumentRef, string) {
	if limit <= 0 {
		limit = e.defaultLimit
	}
	if len(docs) > limit {
		docs = docs[:limit]
	}
	results := make([]models.DocumentRef, 0, len(docs))
	var parts []string
	for i, doc := range docs {
		res := e.ExtractDocument(ctx, doc)
		results = append(results, res)
		if res.Succeeded() {
			parts = append(parts, DocumentHeader(i, res)+res.ExtractedText)
		}
	}
	e.logger.Debug("batch extraction finished",
		zap.Int("documents", len(results)),
		zap.Int("successful", len(parts)),
	)
	return results, strings.Join(parts, "\n\n")
}

// DocumentHeader is the line that introduces document i in combined text.
func DocumentHeader(i int, doc models.DocumentRef) string {
	name := strings.TrimSpace(doc.Name)
	if name == "" {
		name = "Unknown"
	}
	date := doc.Date
	if date == "" {
		date = "No date"
	}
	return fmt.Sprintf("=== Document %d: %s (%s) ===\n", i+1, name, date)
}

// Summarize counts outcomes of a batch.
func Summarize(results []models.DocumentRef) models.ExtractionSummary {
	s := models.ExtractionSummary{Total: len(results)}
	for _, r := range results {
		if r.Succeeded() {
			s.Successful++
			s.TotalTextLength += r.TextLength
		} else {
			s.Failed++
		}
	}
	return s
}
