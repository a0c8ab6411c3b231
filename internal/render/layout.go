package render

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Winder2006/COBALT/internal/markup"
	"github.com/Winder2006/COBALT/internal/models"
	"github.com/Winder2006/COBALT/internal/siteid"
)

// FieldPositions maps the position of each input.form-control on the detail page to the
// SiteRecord field it holds. The page has no stable schema; when its layout changes, only
// this table and CharacteristicPositions need updating.
var FieldPositions = []string{
	"activity_type",
	"status",
	"jurisdiction",
	"region",
	"county",
	"location_name",
	"address",
	"municipality",
	"plss_description",
	"latitude",
	"longitude",
	"acres",
	"facility_id",
	"pecfa_number",
	"epa_id",
	"start_date",
	"end_date",
}

// CharacteristicPositions lists the yes/no characteristics that follow the fields above.
var CharacteristicPositions = []string{
	"above_ground_tank",
	"dry_cleaner",
	"epa_npl",
	"pecfa_eligible",
	"pfas",
	"row_impact",
	"sediments",
	"wi_dot",
	"underground_tank",
}

// unknownValue is what the page shows for blank fields.
const unknownValue = "UNKNOWN"

// headerRe matches "<activity number> <LOCATION NAME>" ahead of the "Activity Type" label.
var headerRe = regexp.MustCompile(`(\d{2}-\d{2}-\d+)\s+([A-Z][A-Z0-9\s'\-\.]+?)(?:\s*Activity Type|\s*$)`)

// Document defaults for links that carry no row metadata.
const (
	DefaultCategory = "Site File"
	DefaultComment  = "DNR site documentation"
)

// ApplyHeader fills activity_number and location_name from the page header line.
func ApplyHeader(site *models.SiteRecord, pageText string) bool {
	m := headerRe.FindStringSubmatch(pageText)
	if m == nil {
		return false
	}
	site.Fill("activity_number", m[1])
	site.Fill("location_name", strings.Join(strings.Fields(m[2]), " "))
	return true
}

// ApplyPositional maps form-control values onto site through the position tables.
// Fields already set (location name from the header) are kept. Blank and UNKNOWN values
// are skipped, except acres which is recorded as UNKNOWN.
func ApplyPositional(site *models.SiteRecord, values []string) {
	for i, key := range FieldPositions {
		if i >= len(values) {
			break
		}
		v := strings.TrimSpace(values[i])
		if key == "acres" && v == "" {
			v = unknownValue
		}
		if v == unknownValue && key != "acres" {
			continue
		}
		site.Fill(key, v)
	}
	offset := len(FieldPositions)
	for i, name := range CharacteristicPositions {
		idx := offset + i
		if idx >= len(values) {
			break
		}
		switch strings.ToLower(strings.TrimSpace(values[idx])) {
		case "yes":
			site.SetCharacteristic(name, true)
		case "no":
			site.SetCharacteristic(name, false)
		}
	}
}

// DocumentsFromAnchors builds the document list from download links. Links are deduplicated
// by their raw href before resolution against baseURL. When a link sits in an action table
// row, the row's cells give category, date, action code, name and comment.
func DocumentsFromAnchors(baseURL string, anchors []markup.Anchor) []models.DocumentRef {
	seen := make(map[string]struct{}, len(anchors))
	docs := make([]models.DocumentRef, 0, len(anchors))
	for _, a := range anchors {
		if a.Href == "" {
			continue
		}
		if _, dup := seen[a.Href]; dup {
			continue
		}
		seen[a.Href] = struct{}{}

		seq := siteid.DocSeqNo(a.Href)
		if seq == "" {
			seq = strconv.Itoa(len(docs))
		}
		doc := models.DocumentRef{
			ID:          len(docs),
			DownloadURL: siteid.Resolve(baseURL, a.Href),
			Category:    DefaultCategory,
			Name:        fmt.Sprintf("Site File Documentation (ID: %s)", seq),
			Comment:     DefaultComment,
			DocSeqNo:    seq,
		}
		applyRow(&doc, a.Cells)
		docs = append(docs, doc)
	}
	return docs
}

// applyRow reads the action table layout: link, category, date, action code, name, comment.
func applyRow(doc *models.DocumentRef, cells []string) {
	if len(cells) < 4 {
		return
	}
	cell := func(i int) string {
		if i < len(cells) {
			return strings.TrimSpace(cells[i])
		}
		return ""
	}
	if v := cell(1); v != "" {
		doc.Category = v
	}
	doc.Date = cell(2)
	doc.ActionCode = cell(3)
	if v := cell(4); v != "" {
		doc.Name = v
	}
	if v := cell(5); v != "" {
		doc.Comment = v
	}
}
