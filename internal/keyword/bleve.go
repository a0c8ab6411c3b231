package keyword

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
)

const defaultLimit = 10

// BleveIndex implements Index with an in-memory Bleve index.
type BleveIndex struct {
	index bleve.Index
}

// NewMemIndex creates an empty in-memory index. Nothing is written to disk.
func NewMemIndex() (*BleveIndex, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	text := bleve.NewTextFieldMapping()
	// Standard analyzer: no stemming, so chemical names match as written.
	text.Analyzer = standard.Name
	text.Store = true
	text.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("content", text)
	docMapping.AddFieldMappingsAt("name", text)
	docMapping.AddFieldMappingsAt("category", text)
	stored := bleve.NewKeywordFieldMapping()
	stored.Index = false
	docMapping.AddFieldMappingsAt("date", stored)
	docMapping.AddFieldMappingsAt("url", stored)
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// Index adds or replaces the entry stored under id.
func (b *BleveIndex) Index(ctx context.Context, id string, e Entry) error {
	return b.index.Index(id, e)
}

// Search runs a match (or fuzzy) query over name, category and content and returns up to
// limit hits with highlighted content fragments.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	var q blevequery.Query
	if opts != nil && opts.FuzzyEnabled {
		fuzziness := opts.Fuzziness
		if fuzziness <= 0 {
			fuzziness = 1
		}
		q = fuzzyQuery(query, fuzziness)
	} else {
		q = bleve.NewMatchQuery(query)
	}
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	req.Fields = []string{"name"}
	req.Highlight = bleve.NewHighlight()
	req.Highlight.AddField("content")

	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*Result, len(res.Hits))
	for i, hit := range res.Hits {
		r := &Result{ID: hit.ID, Score: hit.Score, Fragments: hit.Fragments["content"]}
		if name, ok := hit.Fields["name"].(string); ok {
			r.Name = name
		}
		out[i] = r
	}
	return out, nil
}

// fuzzyQuery ORs one FuzzyQuery per term.
func fuzzyQuery(query string, fuzziness int) blevequery.Query {
	terms := tokenize(query)
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		queries = append(queries, fq)
	}
	return bleve.NewDisjunctionQuery(queries...)
}

func tokenize(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// Delete removes id from the index.
func (b *BleveIndex) Delete(ctx context.Context, id string) error {
	return b.index.Delete(id)
}

// DocCount returns the number of indexed documents.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close releases the index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

// Terms returns every distinct term of the content and name fields.
func (b *BleveIndex) Terms() ([]string, error) {
	seen := make(map[string]struct{})
	var terms []string
	for _, field := range []string{"content", "name"} {
		dict, err := b.index.FieldDict(field)
		if err != nil {
			return nil, fmt.Errorf("field dictionary %s: %w", field, err)
		}
		for {
			entry, err := dict.Next()
			if err != nil || entry == nil {
				break
			}
			if _, ok := seen[entry.Term]; !ok {
				seen[entry.Term] = struct{}{}
				terms = append(terms, entry.Term)
			}
		}
		_ = dict.Close()
	}
	return terms, nil
}

// TermFrequency returns how many documents contain term.
func (b *BleveIndex) TermFrequency(term string) (int, error) {
	req := bleve.NewSearchRequest(bleve.NewTermQuery(strings.ToLower(term)))
	req.Size = 0
	res, err := b.index.Search(req)
	if err != nil {
		return 0, fmt.Errorf("term frequency: %w", err)
	}
	return int(res.Total), nil
}
