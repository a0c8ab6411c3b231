package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Winder2006/COBALT/internal/models"
	"github.com/Winder2006/COBALT/pkg/utils"
	"go.uber.org/zap"
)

// childOutput mirrors render.Payload with raw fields so missing keys can be told apart
// from null ones.
type childOutput struct {
	SiteInfo  json.RawMessage `json:"site_info"`
	RiskFlags json.RawMessage `json:"risk_flags"`
	Documents json.RawMessage `json:"documents"`
	Error     json.RawMessage `json:"error"`
}

// rendered runs the rendering child under a hard timeout and validates its stdout.
func (d *Discoverer) rendered(ctx context.Context, dsn string) (*models.DiscoveryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, d.renderTimeout)
	defer cancel()

	args := d.childArgs(dsn)
	stdout, stderr, err := d.runner.Run(ctx, d.renderCommand, args...)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrRenderTimeout, d.renderTimeout)
		}
		d.logger.Debug("render stderr", zap.String("stderr", utils.Truncate(string(stderr), 500)))
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	return parseChildOutput(dsn, stdout)
}

func (d *Discoverer) childArgs(dsn string) []string {
	args := make([]string, 0, len(d.renderArgs)+1)
	replaced := false
	for _, a := range d.renderArgs {
		if strings.Contains(a, "{dsn}") {
			a = strings.ReplaceAll(a, "{dsn}", dsn)
			replaced = true
		}
		args = append(args, a)
	}
	if !replaced {
		args = append(args, dsn)
	}
	return args
}

// parseChildOutput accepts exactly one JSON object carrying all four keys and a null or
// empty error.
func parseChildOutput(dsn string, stdout []byte) (*models.DiscoveryResult, error) {
	dec := json.NewDecoder(bytes.NewReader(bytes.TrimSpace(stdout)))
	var out childOutput
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: malformed output: %v", ErrRenderFailed, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing output after JSON object", ErrRenderFailed)
	}
	if out.SiteInfo == nil || out.RiskFlags == nil || out.Documents == nil || out.Error == nil {
		return nil, fmt.Errorf("%w: missing keys in output", ErrRenderFailed)
	}
	if msg := errorText(out.Error); msg != "" {
		return nil, fmt.Errorf("%w: %s", ErrRenderFailed, msg)
	}

	res := &models.DiscoveryResult{RiskFlags: models.NewRiskFlags(), Source: models.SourceRendered}
	if err := json.Unmarshal(out.SiteInfo, &res.SiteInfo); err != nil {
		return nil, fmt.Errorf("%w: site_info: %v", ErrRenderFailed, err)
	}
	if err := json.Unmarshal(out.RiskFlags, &res.RiskFlags); err != nil {
		return nil, fmt.Errorf("%w: risk_flags: %v", ErrRenderFailed, err)
	}
	if err := json.Unmarshal(out.Documents, &res.Documents); err != nil {
		return nil, fmt.Errorf("%w: documents: %v", ErrRenderFailed, err)
	}
	res.SiteInfo.DSN = dsn
	return res, nil
}

// errorText returns the embedded error marker, or "" for null, false and empty values.
func errorText(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	switch e := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(e)
	case bool:
		if e {
			return "true"
		}
		return ""
	default:
		return string(raw)
	}
}
