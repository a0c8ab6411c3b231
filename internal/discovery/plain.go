package discovery

import (
	"context"
	"fmt"

	"github.com/Winder2006/COBALT/internal/fetch"
	"github.com/Winder2006/COBALT/internal/markup"
	"github.com/Winder2006/COBALT/internal/models"
	"github.com/Winder2006/COBALT/internal/render"
	"github.com/Winder2006/COBALT/internal/risk"
	"go.uber.org/zap"
)

// plain fetches the detail page directly. Fields fill first-match-wins from the site-detail
// endpoint, then title and headings, then input attributes, then label/value cells.
// The auxiliary endpoints are still tried when the host answers the page with an error status.
// Transport failures are returned as-is so the caller can tell unreachable from exhausted.
func (d *Discoverer) plain(ctx context.Context, dsn string) (*models.DiscoveryResult, error) {
	pageURL := fmt.Sprintf(d.detailURLFormat, dsn)
	page := &markup.Page{}
	resp, err := d.client.Get(ctx, pageURL)
	switch {
	case fetch.IsUnreachable(err):
		return nil, err
	case err != nil:
		d.logger.Debug("detail page failed, trying auxiliary endpoints",
			zap.String("dsn", dsn), zap.Error(err))
	default:
		if page, err = markup.Parse(resp.Body); err != nil {
			return nil, fmt.Errorf("%w: parse detail page: %v", ErrStrategyExhausted, err)
		}
	}

	site := models.SiteRecord{DSN: dsn}
	found := siteFromJSON(&site, d.getJSON(ctx, d.siteEndpoint, dsn))
	if applyHeaders(&site, page) {
		found++
	}
	found += fillFromInputs(&site, page.Inputs)
	found += fillFromPairs(&site, page.Pairs)

	docs := render.DocumentsFromAnchors(pageURL, page.DocumentAnchors())
	docs = appendNew(docs, documentsFromJSON(pageURL, d.getJSON(ctx, d.docsEndpoint, dsn)))

	d.logger.Debug("plain strategy read page",
		zap.String("dsn", dsn),
		zap.Int("fields", found),
		zap.Int("documents", len(docs)))
	if found == 0 && len(docs) == 0 {
		return nil, fmt.Errorf("%w: nothing usable on %s", ErrStrategyExhausted, pageURL)
	}

	return &models.DiscoveryResult{
		SiteInfo:  site,
		RiskFlags: risk.FromMetadata(site, page.Text),
		Documents: docs,
		Source:    models.SourcePlain,
		Note:      limitedDataNote,
	}, nil
}

// applyHeaders looks for the "<activity number> <LOCATION>" header in the title and each
// heading, then in the whole page text.
func applyHeaders(site *models.SiteRecord, page *markup.Page) bool {
	candidates := append([]string{page.Title}, page.Headings...)
	for _, c := range candidates {
		if c != "" && render.ApplyHeader(site, c) {
			return true
		}
	}
	return render.ApplyHeader(site, page.Text)
}

// appendNew adds the documents whose download URL is not already listed.
func appendNew(docs, more []models.DocumentRef) []models.DocumentRef {
	if len(more) == 0 {
		return docs
	}
	seen := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		seen[doc.DownloadURL] = struct{}{}
	}
	for _, doc := range more {
		if _, dup := seen[doc.DownloadURL]; dup {
			continue
		}
		seen[doc.DownloadURL] = struct{}{}
		docs = append(docs, doc)
	}
	return docs
}
