package discovery

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/Winder2006/COBALT/internal/models"
	"github.com/Winder2006/COBALT/internal/render"
	"github.com/Winder2006/COBALT/internal/siteid"
)

const (
	downloadURLFormat = "https://apps.dnr.wi.gov/rrbotw/download-document?docSeqNo=%s&sender=activity"
	manualComment     = "Manually added document"
)

// ErrInvalidDocument is returned by ManualDocument for a missing docSeqNo and URL or a bad URL.
var ErrInvalidDocument = errors.New("invalid document reference")

// DownloadURL is the record system's download link for a docSeqNo.
func DownloadURL(docSeqNo string) string {
	return fmt.Sprintf(downloadURLFormat, url.QueryEscape(docSeqNo))
}

// ManualDocument builds a reference for a user-supplied docSeqNo or URL. A docSeqNo wins
// when both are given.
func ManualDocument(docSeqNo, rawURL string) (models.DocumentRef, error) {
	docSeqNo = strings.TrimSpace(docSeqNo)
	rawURL = strings.TrimSpace(rawURL)

	doc := models.DocumentRef{
		Category: render.DefaultCategory,
		Comment:  manualComment,
	}
	switch {
	case docSeqNo != "":
		doc.DownloadURL = DownloadURL(docSeqNo)
		doc.DocSeqNo = docSeqNo
		doc.Name = fmt.Sprintf("Site File Documentation (ID: %s)", docSeqNo)
	case rawURL != "":
		u, err := url.Parse(rawURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return models.DocumentRef{}, fmt.Errorf("%w: %q", ErrInvalidDocument, rawURL)
		}
		doc.DownloadURL = rawURL
		doc.DocSeqNo = siteid.DocSeqNo(rawURL)
		doc.Name = "Site File Documentation (ID: Manual)"
	default:
		return models.DocumentRef{}, fmt.Errorf("%w: docSeqNo or url required", ErrInvalidDocument)
	}
	return doc, nil
}

// DocumentListing renders a numbered, plain-text description of docs.
func DocumentListing(docs []models.DocumentRef) string {
	if len(docs) == 0 {
		return "No documents selected."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Selected Documents (%d total):\n\n", len(docs))
	for i, doc := range docs {
		name := doc.Name
		if name == "" {
			name = "Unnamed Document"
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, name)
		for _, line := range [][2]string{
			{"Category", doc.Category},
			{"Date", doc.Date},
			{"Action Code", doc.ActionCode},
			{"Comment", doc.Comment},
		} {
			if line[1] != "" {
				fmt.Fprintf(&b, "   %s: %s\n", line[0], line[1])
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}
