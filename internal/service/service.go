// Package service ties discovery, extraction, sessions and risk inference into the
// operations exposed by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/Winder2006/COBALT/internal/discovery"
	"github.com/Winder2006/COBALT/internal/extract"
	"github.com/Winder2006/COBALT/internal/keyword"
	"github.com/Winder2006/COBALT/internal/models"
	"github.com/Winder2006/COBALT/internal/risk"
	"github.com/Winder2006/COBALT/internal/session"
	"github.com/Winder2006/COBALT/internal/storage"
	"github.com/Winder2006/COBALT/pkg/utils"
	"go.uber.org/zap"
)

// MaxCombinedText caps the combined text returned to callers, in runes.
const MaxCombinedText = 50000

var (
	// ErrNoDocuments is returned by Extract for an empty document list.
	ErrNoDocuments = errors.New("no documents provided")
	// ErrUnknownSession is returned for a session id the registry does not hold.
	ErrUnknownSession = errors.New("unknown session")
	// ErrEmptyQuery is returned by Search for a blank query.
	ErrEmptyQuery = errors.New("empty search query")
)

// Discoverer finds a site's record and documents.
type Discoverer interface {
	Discover(ctx context.Context, identifier string) (*models.DiscoveryResult, error)
}

// Service is safe for concurrent use across sessions.
type Service struct {
	discoverer Discoverer
	extractor  *extract.Extractor
	registry   *session.Registry
	cache      storage.Cache
	engine     atomic.Pointer[risk.Engine]
	logger     *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCache sets the extraction text cache so requests can refresh it and health can report it.
// It should be the same cache the Extractor reads.
func WithCache(c storage.Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithEngine sets the initial risk engine.
func WithEngine(e *risk.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine.Store(e)
		}
	}
}

// New creates a Service.
func New(d Discoverer, ex *extract.Extractor, reg *session.Registry, opts ...Option) *Service {
	s := &Service{discoverer: d, extractor: ex, registry: reg, logger: zap.NewNop()}
	s.engine.Store(risk.NewEngine(risk.DefaultVocabulary()))
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetEngine swaps the risk engine used by later extractions.
func (s *Service) SetEngine(e *risk.Engine) {
	if e != nil {
		s.engine.Store(e)
	}
}

// Engine returns the current risk engine.
func (s *Service) Engine() *risk.Engine {
	return s.engine.Load()
}

// Analyze runs discovery for identifier.
func (s *Service) Analyze(ctx context.Context, identifier string) (*models.DiscoveryResult, error) {
	return s.discoverer.Discover(ctx, identifier)
}

// DocumentList is the document listing for a site.
type DocumentList struct {
	DSN       string               `json:"dsn"`
	Documents []models.DocumentRef `json:"documents"`
	Count     int                  `json:"count"`
	Listing   string               `json:"listing"`
	Source    string               `json:"source"`
	Note      string               `json:"note,omitempty"`
}

// Documents runs discovery and returns only the documents.
func (s *Service) Documents(ctx context.Context, identifier string) (*DocumentList, error) {
	res, err := s.discoverer.Discover(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return &DocumentList{
		DSN:       res.SiteInfo.DSN,
		Documents: res.Documents,
		Count:     len(res.Documents),
		Listing:   discovery.DocumentListing(res.Documents),
		Source:    res.Source,
		Note:      res.Note,
	}, nil
}

// AddDocument builds a manual document reference from a docSeqNo or URL.
func (s *Service) AddDocument(docSeqNo, rawURL string) (models.DocumentRef, error) {
	return discovery.ManualDocument(docSeqNo, rawURL)
}

// ExtractRequest selects documents to extract. An empty SessionID starts a new session.
// SiteFlags, when given, are the metadata flags from discovery; they are merged with the
// flags found in the text. Refresh drops cached text for the documents first.
type ExtractRequest struct {
	SessionID string               `json:"session_id"`
	Documents []models.DocumentRef `json:"documents"`
	Limit     int                  `json:"limit"`
	SiteFlags *models.RiskFlags    `json:"risk_flags,omitempty"`
	Refresh   bool                 `json:"refresh"`
}

// ExtractResponse carries per-document results, the combined text and its risk analysis.
type ExtractResponse struct {
	SessionID         string                   `json:"session_id"`
	Documents         []models.DocumentRef     `json:"documents"`
	CombinedText      string                   `json:"combined_text"`
	RiskAnalysis      risk.Analysis            `json:"risk_analysis"`
	ExtractionSummary models.ExtractionSummary `json:"extraction_summary"`
	CombinedFlags     *models.RiskFlags        `json:"combined_risk_flags,omitempty"`
}

// Extract downloads the documents through the session, extracts their text, indexes the
// successful ones for search and runs risk inference over the combined text.
func (s *Service) Extract(ctx context.Context, req ExtractRequest) (*ExtractResponse, error) {
	if len(req.Documents) == 0 {
		return nil, ErrNoDocuments
	}
	id := req.SessionID
	if id == "" {
		id = session.NewID()
	}
	sess, err := s.registry.GetOrCreate(id)
	if err != nil {
		return nil, err
	}

	if req.Refresh {
		s.forget(ctx, req.Documents)
	}
	results, combined := s.extractor.Using(sess).ExtractAll(ctx, req.Documents, req.Limit)
	s.index(ctx, sess, results)

	resp := &ExtractResponse{
		SessionID:         id,
		Documents:         results,
		CombinedText:      utils.TruncateRunes(combined, MaxCombinedText),
		RiskAnalysis:      s.Engine().Infer(combined),
		ExtractionSummary: extract.Summarize(results),
	}
	if req.SiteFlags != nil {
		merged := *req.SiteFlags
		merged.Merge(resp.RiskAnalysis.Flags)
		resp.CombinedFlags = &merged
	}
	s.logger.Info("extraction finished",
		zap.String("session", id),
		zap.Int("total", resp.ExtractionSummary.Total),
		zap.Int("successful", resp.ExtractionSummary.Successful))
	return resp, nil
}

func (s *Service) forget(ctx context.Context, docs []models.DocumentRef) {
	if s.cache == nil {
		return
	}
	for _, doc := range docs {
		if doc.DownloadURL == "" {
			continue
		}
		if err := s.cache.Delete(ctx, doc.DownloadURL); err != nil {
			s.logger.Warn("drop cached text", zap.String("url", doc.DownloadURL), zap.Error(err))
		}
	}
}

func (s *Service) index(ctx context.Context, sess *session.Session, docs []models.DocumentRef) {
	var idx *keyword.BleveIndex
	for _, doc := range docs {
		if !doc.Succeeded() {
			continue
		}
		if idx == nil {
			var err error
			if idx, err = sess.Index(); err != nil {
				s.logger.Warn("open session index", zap.Error(err))
				return
			}
		}
		entry := keyword.Entry{
			Name:     doc.Name,
			Category: doc.Category,
			Date:     doc.Date,
			URL:      doc.DownloadURL,
			Content:  doc.ExtractedText,
		}
		if err := idx.Index(ctx, doc.DownloadURL, entry); err != nil {
			s.logger.Warn("index document", zap.String("url", doc.DownloadURL), zap.Error(err))
		}
	}
}

// SearchRequest is a query over one session's extracted documents.
type SearchRequest struct {
	Query     string `json:"query"`
	Limit     int    `json:"limit"`
	Fuzzy     bool   `json:"fuzzy"`
	Fuzziness int    `json:"fuzziness"`
}

// SearchResponse holds hits and, when there are none, a corrected query.
type SearchResponse struct {
	Query      string            `json:"query"`
	Results    []*keyword.Result `json:"results"`
	Suggestion string            `json:"suggestion,omitempty"`
}

// Search queries the documents extracted in session id.
func (s *Service) Search(ctx context.Context, id string, req SearchRequest) (*SearchResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrEmptyQuery
	}
	sess, ok := s.registry.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	idx, err := sess.Index()
	if err != nil {
		return nil, err
	}
	opts := &keyword.SearchOptions{FuzzyEnabled: req.Fuzzy, Fuzziness: req.Fuzziness}
	hits, err := idx.Search(ctx, req.Query, req.Limit, opts)
	if err != nil {
		return nil, err
	}
	resp := &SearchResponse{Query: req.Query, Results: hits}
	if resp.Results == nil {
		resp.Results = []*keyword.Result{}
	}
	if len(hits) == 0 {
		if suggestion, err := keyword.NewSuggester(idx, 2).Suggest(req.Query); err == nil {
			resp.Suggestion = suggestion
		}
	}
	return resp, nil
}

// SessionInfo describes one session's scratch state.
type SessionInfo struct {
	SessionID    string `json:"session_id"`
	Materialized int    `json:"materialized"`
	Indexed      uint64 `json:"indexed"`
	DiskBytes    int64  `json:"disk_bytes"`
}

// Session reports the state of session id.
func (s *Service) Session(id string) (*SessionInfo, error) {
	sess, ok := s.registry.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	info := &SessionInfo{SessionID: id, Materialized: len(sess.Paths())}
	var err error
	if info.Indexed, err = sess.IndexedCount(); err != nil {
		return nil, err
	}
	if info.DiskBytes, err = sess.DiskUsage(); err != nil {
		return nil, err
	}
	return info, nil
}

// Status summarizes process-wide state for health checks.
type Status struct {
	Sessions    int   `json:"sessions"`
	CachedTexts int64 `json:"cached_texts"`
}

// Status reports open sessions and cached extraction texts.
func (s *Service) Status(ctx context.Context) Status {
	st := Status{Sessions: len(s.registry.IDs())}
	if s.cache != nil {
		if n, err := s.cache.Count(ctx); err == nil {
			st.CachedTexts = n
		}
	}
	return st
}

// Cleanup removes session id and its scratch directory.
func (s *Service) Cleanup(id string) error {
	return s.registry.Cleanup(id)
}

// Close removes every session.
func (s *Service) Close() error {
	return s.registry.CleanupAll()
}
