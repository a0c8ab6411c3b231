package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/Winder2006/COBALT/internal/models"
	"github.com/Winder2006/COBALT/internal/render"
	"github.com/Winder2006/COBALT/internal/siteid"
	"go.uber.org/zap"
)

// Wrapper keys some endpoints nest their payload under.
var (
	siteEnvelope = []string{"data", "result", "site", "activity"}
	listEnvelope = []string{"data", "result", "results", "documents", "items"}
)

// docKeys maps normalized document JSON keys to DocumentRef fields.
var docKeys = map[string]string{
	"downloadurl": "url",
	"url":         "url",
	"href":        "url",
	"link":        "url",
	"docseqno":    "seq",
	"docseqnum":   "seq",
	"category":    "category",
	"doccategory": "category",
	"date":        "date",
	"docdate":     "date",
	"actiondate":  "date",
	"actioncode":  "action_code",
	"name":        "name",
	"title":       "name",
	"docname":     "name",
	"comment":     "comment",
	"comments":    "comment",
}

// getJSON fetches an auxiliary endpoint. Any failure yields nil.
func (d *Discoverer) getJSON(ctx context.Context, format, dsn string) any {
	if format == "" {
		return nil
	}
	u := fmt.Sprintf(format, dsn)
	resp, err := d.client.Get(ctx, u)
	if err != nil {
		d.logger.Debug("auxiliary endpoint unavailable", zap.String("url", u), zap.Error(err))
		return nil
	}
	var v any
	if err := json.Unmarshal(resp.Body, &v); err != nil {
		d.logger.Debug("auxiliary endpoint returned non-JSON", zap.String("url", u), zap.Error(err))
		return nil
	}
	return v
}

// siteFromJSON fills site from a site-detail payload and reports how many fields it set.
func siteFromJSON(site *models.SiteRecord, v any) int {
	obj := unwrapObject(v)
	if obj == nil {
		return 0
	}
	n := 0
	for _, k := range slices.Sorted(maps.Keys(obj)) {
		field, ok := fieldAliases[normalizeKey(k)]
		if !ok {
			continue
		}
		if fill(site, field, scalar(obj[k])) {
			n++
		}
	}
	return n
}

// documentsFromJSON reads a document-list payload; relative links resolve against base.
// Entries without a URL but with a docSeqNo get the standard download link.
func documentsFromJSON(base string, v any) []models.DocumentRef {
	list := unwrapList(v)
	var docs []models.DocumentRef
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		doc := models.DocumentRef{Category: render.DefaultCategory, Comment: render.DefaultComment}
		for k, raw := range obj {
			val := strings.TrimSpace(scalar(raw))
			if val == "" {
				continue
			}
			switch docKeys[normalizeKey(k)] {
			case "url":
				doc.DownloadURL = siteid.Resolve(base, val)
			case "seq":
				doc.DocSeqNo = val
			case "category":
				doc.Category = val
			case "date":
				doc.Date = val
			case "action_code":
				doc.ActionCode = val
			case "name":
				doc.Name = val
			case "comment":
				doc.Comment = val
			}
		}
		if doc.DownloadURL == "" && doc.DocSeqNo != "" {
			doc.DownloadURL = DownloadURL(doc.DocSeqNo)
		}
		if doc.DownloadURL == "" {
			continue
		}
		if doc.Name == "" {
			seq := doc.DocSeqNo
			if seq == "" {
				seq = siteid.DocSeqNo(doc.DownloadURL)
			}
			doc.Name = fmt.Sprintf("Site File Documentation (ID: %s)", seq)
		}
		docs = append(docs, doc)
	}
	return docs
}

func unwrapObject(v any) map[string]any {
	for depth := 0; depth < 3; depth++ {
		switch t := v.(type) {
		case map[string]any:
			next, ok := envelope(t, siteEnvelope)
			if !ok {
				return t
			}
			v = next
		case []any:
			if len(t) == 0 {
				return nil
			}
			v = t[0]
		default:
			return nil
		}
	}
	obj, _ := v.(map[string]any)
	return obj
}

func unwrapList(v any) []any {
	for depth := 0; depth < 3; depth++ {
		switch t := v.(type) {
		case []any:
			return t
		case map[string]any:
			next, ok := envelope(t, listEnvelope)
			if !ok {
				return nil
			}
			v = next
		default:
			return nil
		}
	}
	return nil
}

func envelope(obj map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if inner, ok := obj[k]; ok {
			switch inner.(type) {
			case map[string]any, []any:
				return inner, true
			}
		}
	}
	return nil, false
}

func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}
