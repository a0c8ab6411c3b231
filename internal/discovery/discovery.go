// Package discovery retrieves a site's record and document list from the remote record
// system, trying a rendered strategy first and a plain fetch second.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Winder2006/COBALT/internal/fetch"
	"github.com/Winder2006/COBALT/internal/models"
	"github.com/Winder2006/COBALT/internal/render"
	"github.com/Winder2006/COBALT/internal/siteid"
	"github.com/Winder2006/COBALT/pkg/utils"
	"go.uber.org/zap"
)

const (
	// DefaultRenderTimeout bounds the rendering child process.
	DefaultRenderTimeout = 2 * time.Minute

	// UnreachableLocation is the location name of the degraded record.
	UnreachableLocation = "Could not reach DNR site"
	// UnreachableSummary is the summary of the degraded record.
	UnreachableSummary = "Unable to connect to Wisconsin DNR BRRTS system."

	limitedDataNote = "Limited data - JavaScript content not available without the renderer"
	noDataNote      = "No site data found for this identifier"
)

var (
	// ErrInvalidIdentifier is returned when the identifier holds no digits.
	ErrInvalidIdentifier = errors.New("identifier contains no digits")
	// ErrStrategyExhausted means the host answered but no strategy produced usable data.
	ErrStrategyExhausted = errors.New("all discovery strategies exhausted")
	// ErrRenderTimeout means the rendering process ran past its time budget and was killed.
	ErrRenderTimeout = errors.New("render process timed out")
	// ErrRenderFailed means the rendering process exited badly or printed unusable output.
	ErrRenderFailed = errors.New("render process failed")
)

// Discoverer runs the strategy chain.
type Discoverer struct {
	client          *fetch.Client
	runner          utils.Runner
	renderCommand   string
	renderArgs      []string
	renderTimeout   time.Duration
	renderDisabled  bool
	detailURLFormat string
	siteEndpoint    string
	docsEndpoint    string
	logger          *zap.Logger
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Discoverer) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithClient sets the HTTP client used by the plain strategy.
func WithClient(c *fetch.Client) Option {
	return func(d *Discoverer) {
		if c != nil {
			d.client = c
		}
	}
}

// WithRunner sets the subprocess runner of the rendered strategy.
func WithRunner(r utils.Runner) Option {
	return func(d *Discoverer) {
		if r != nil {
			d.runner = r
		}
	}
}

// WithRenderCommand sets the rendering child command. Each "{dsn}" in args is replaced
// by the DSN; when none is present the DSN is appended.
func WithRenderCommand(command string, args ...string) Option {
	return func(d *Discoverer) {
		if command != "" {
			d.renderCommand = command
			d.renderArgs = args
		}
	}
}

// WithRenderTimeout sets the hard timeout of the rendering child.
func WithRenderTimeout(timeout time.Duration) Option {
	return func(d *Discoverer) {
		if timeout > 0 {
			d.renderTimeout = timeout
		}
	}
}

// WithoutRenderer skips the rendered strategy.
func WithoutRenderer() Option {
	return func(d *Discoverer) {
		d.renderDisabled = true
	}
}

// WithDetailURLFormat sets the detail page URL; it must contain one %s for the DSN.
func WithDetailURLFormat(format string) Option {
	return func(d *Discoverer) {
		if format != "" {
			d.detailURLFormat = format
		}
	}
}

// WithJSONEndpoints sets the auxiliary site-detail and document-list endpoints. Each must
// contain one %s for the DSN; empty disables the endpoint.
func WithJSONEndpoints(site, documents string) Option {
	return func(d *Discoverer) {
		d.siteEndpoint = site
		d.docsEndpoint = documents
	}
}

// New creates a Discoverer. The rendered strategy defaults to re-running the current
// binary with "render <dsn>".
func New(opts ...Option) *Discoverer {
	d := &Discoverer{
		renderTimeout:   DefaultRenderTimeout,
		renderArgs:      []string{"render", "{dsn}"},
		detailURLFormat: render.DetailURLFormat,
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.client == nil {
		d.client = fetch.NewClient(fetch.WithLogger(d.logger), fetch.WithTimeout(30*time.Second))
	}
	if d.runner == nil {
		d.runner = utils.ExecRunner{Logger: d.logger}
	}
	if d.renderCommand == "" {
		if exe, err := os.Executable(); err == nil {
			d.renderCommand = exe
		} else {
			d.renderDisabled = true
		}
	}
	return d
}

// Discover returns the site record, risk flags, documents and summary for identifier.
// Only an identifier without digits is an error; every other failure degrades the result.
func (d *Discoverer) Discover(ctx context.Context, identifier string) (*models.DiscoveryResult, error) {
	dsn := siteid.NormalizeDSN(identifier)
	if dsn == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIdentifier, identifier)
	}
	log := d.logger.With(zap.String("dsn", dsn))

	if !d.renderDisabled {
		res, err := d.rendered(ctx, dsn)
		if err == nil {
			log.Info("discovered via renderer", zap.Int("documents", len(res.Documents)))
			return finish(res), nil
		}
		log.Warn("rendered strategy failed, falling back", zap.Error(err))
	}

	res, err := d.plain(ctx, dsn)
	switch {
	case err == nil:
		log.Info("discovered via plain fetch", zap.Int("documents", len(res.Documents)))
		return finish(res), nil
	case fetch.IsUnreachable(err):
		log.Warn("record system unreachable", zap.Error(err))
		return Unreachable(dsn), nil
	default:
		log.Warn("discovery exhausted", zap.Error(err))
		return Exhausted(dsn), nil
	}
}

// Unreachable is the degraded result for a host that could not be contacted.
func Unreachable(dsn string) *models.DiscoveryResult {
	flags := models.NewRiskFlags()
	flags.StatusLabel = models.StatusUnavailable
	return &models.DiscoveryResult{
		SiteInfo: models.SiteRecord{
			DSN:          dsn,
			Status:       models.StatusUnavailable,
			ActivityType: models.StatusUnavailable,
			LocationName: UnreachableLocation,
		},
		RiskFlags: flags,
		Documents: []models.DocumentRef{},
		Summary:   UnreachableSummary,
		Source:    models.SourceUnavailable,
	}
}

// Exhausted is the result when the host answered but nothing usable came back.
func Exhausted(dsn string) *models.DiscoveryResult {
	site := models.SiteRecord{DSN: dsn}
	flags := models.NewRiskFlags()
	return &models.DiscoveryResult{
		SiteInfo:  site,
		RiskFlags: flags,
		Documents: []models.DocumentRef{},
		Summary:   Summary(site, flags, 0),
		Source:    models.SourceNone,
		Note:      noDataNote,
	}
}

// finish numbers documents, fills doc_seq_no and renders the summary.
func finish(res *models.DiscoveryResult) *models.DiscoveryResult {
	if res.Documents == nil {
		res.Documents = []models.DocumentRef{}
	}
	for i := range res.Documents {
		doc := &res.Documents[i]
		doc.ID = i
		if doc.DocSeqNo == "" {
			if seq := siteid.DocSeqNo(doc.DownloadURL); seq != "" {
				doc.DocSeqNo = seq
			} else {
				doc.DocSeqNo = fmt.Sprint(i)
			}
		}
	}
	if res.RiskFlags.StatusLabel == "" {
		res.RiskFlags.StatusLabel = models.StatusUnknown
	}
	res.Summary = Summary(res.SiteInfo, res.RiskFlags, len(res.Documents))
	return res
}
