package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Winder2006/COBALT/internal/markup"
	"github.com/Winder2006/COBALT/internal/models"
	"github.com/Winder2006/COBALT/internal/risk"
	"go.uber.org/zap"
)

// DetailURLFormat is the activity detail page for a normalized DSN.
const DetailURLFormat = "https://apps.dnr.wi.gov/rrbotw/botw-activity-detail?dsn=%s"

// ErrNoSiteData means the rendered page carried neither a header nor form fields.
var ErrNoSiteData = errors.New("no site data on rendered page")

// Payload is the single JSON object the child prints on stdout.
// Error is null on success and the other fields are then present.
type Payload struct {
	SiteInfo  *models.SiteRecord   `json:"site_info,omitempty"`
	RiskFlags *models.RiskFlags    `json:"risk_flags,omitempty"`
	Documents []models.DocumentRef `json:"documents"`
	Error     *string              `json:"error"`
}

// Failed builds an error payload.
func Failed(err error) Payload {
	msg := err.Error()
	return Payload{Error: &msg}
}

// Scraper renders a detail page and reads it into a Payload.
type Scraper struct {
	backend   Backend
	urlFormat string
	logger    *zap.Logger
}

// ScraperOption configures a Scraper.
type ScraperOption func(*Scraper)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) ScraperOption {
	return func(s *Scraper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDetailURLFormat overrides the detail page URL; it must contain one %s for the DSN.
func WithDetailURLFormat(format string) ScraperOption {
	return func(s *Scraper) {
		if format != "" {
			s.urlFormat = format
		}
	}
}

// NewScraper creates a Scraper over backend.
func NewScraper(backend Backend, opts ...ScraperOption) *Scraper {
	s := &Scraper{backend: backend, urlFormat: DetailURLFormat, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scrape renders the detail page for dsn. It never returns an error; failures are
// reported in the payload's Error field.
func (s *Scraper) Scrape(ctx context.Context, dsn string) Payload {
	pageURL := fmt.Sprintf(s.urlFormat, dsn)
	body, err := s.backend.Content(ctx, pageURL)
	if err != nil {
		s.logger.Warn("render failed", zap.String("dsn", dsn), zap.Error(err))
		return Failed(err)
	}
	page, err := markup.Parse(body)
	if err != nil {
		return Failed(fmt.Errorf("parse rendered page: %w", err))
	}

	site := models.SiteRecord{DSN: dsn}
	header := ApplyHeader(&site, page.Text)
	values := page.FormControlValues()
	if !header && len(values) == 0 {
		return Failed(ErrNoSiteData)
	}
	ApplyPositional(&site, values)

	flags := risk.FromMetadata(site, page.Text)
	docs := DocumentsFromAnchors(pageURL, page.DocumentAnchors())
	s.logger.Debug("rendered page read",
		zap.String("dsn", dsn),
		zap.Int("fields", len(values)),
		zap.Int("documents", len(docs)))
	return Payload{SiteInfo: &site, RiskFlags: &flags, Documents: docs}
}

// Write prints p as one JSON object.
func Write(w io.Writer, p Payload) error {
	if p.Documents == nil && p.Error == nil {
		p.Documents = []models.DocumentRef{}
	}
	return json.NewEncoder(w).Encode(p)
}
