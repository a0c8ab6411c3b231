// Package keyword provides per-session full-text search over extracted document text.
package keyword

import (
	"context"
)

// Entry is one extracted document as stored in an index.
type Entry struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Date     string `json:"date"`
	URL      string `json:"url"`
	Content  string `json:"content"`
}

// SearchOptions are optional search parameters. Nil means defaults.
type SearchOptions struct {
	// FuzzyEnabled matches terms within Fuzziness edits, for OCR noise and typos.
	FuzzyEnabled bool
	// Fuzziness is the maximum edit distance (1 or 2). Defaults to 1.
	Fuzziness int
}

// Result is a single search hit.
type Result struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Score     float64  `json:"score"`
	Fragments []string `json:"fragments,omitempty"`
}

// Index is a keyword index over session documents.
type Index interface {
	Index(ctx context.Context, id string, e Entry) error
	Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*Result, error)
	Delete(ctx context.Context, id string) error
	DocCount() (uint64, error)
	Close() error
}

// TermDictionary gives a suggester access to indexed terms.
type TermDictionary interface {
	Terms() ([]string, error)
	TermFrequency(term string) (int, error)
}
