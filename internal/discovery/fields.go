package discovery

import (
	"strings"
	"unicode"

	"github.com/Winder2006/COBALT/internal/markup"
	"github.com/Winder2006/COBALT/internal/models"
)

// fieldAliases maps normalized labels, input names and JSON keys to SiteRecord fields.
// Normalized means lower case with everything but letters and digits removed.
var fieldAliases = map[string]string{
	"activitynumber":  "activity_number",
	"activityno":      "activity_number",
	"brrtsnumber":     "activity_number",
	"brrtsno":         "activity_number",
	"status":          "status",
	"activitystatus":  "status",
	"activitytype":    "activity_type",
	"type":            "activity_type",
	"locationname":    "location_name",
	"sitename":        "location_name",
	"address":         "address",
	"locationaddress": "address",
	"streetaddress":   "address",
	"municipality":    "municipality",
	"city":            "municipality",
	"county":          "county",
	"countyname":      "county",
	"region":          "region",
	"dnrregion":       "region",
	"startdate":       "start_date",
	"enddate":         "end_date",
	"closeddate":      "end_date",
	"closuredate":     "end_date",
	"jurisdiction":    "jurisdiction",
	"plssdescription": "plss_description",
	"latitude":        "latitude",
	"longitude":       "longitude",
	"acres":           "acres",
	"facilityid":      "facility_id",
	"pecfanumber":     "pecfa_number",
	"epaid":           "epa_id",
}

// suffixMinLen is the shortest alias that may match as the tail of a longer hint,
// e.g. "txtActivityType".
const suffixMinLen = 6

func normalizeKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// fieldFor resolves a label or attribute hint to a SiteRecord field key.
func fieldFor(hint string) (string, bool) {
	key := normalizeKey(hint)
	if key == "" {
		return "", false
	}
	if f, ok := fieldAliases[key]; ok {
		return f, true
	}
	for alias, f := range fieldAliases {
		if len(alias) >= suffixMinLen && strings.HasSuffix(key, alias) {
			return f, true
		}
	}
	return "", false
}

// usable filters placeholder values.
func usable(v string) bool {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "", "UNKNOWN", "N/A", "NOT AVAILABLE", "-":
		return false
	}
	return true
}

func fill(site *models.SiteRecord, field, value string) bool {
	if field == "dsn" || !usable(value) {
		return false
	}
	return site.Fill(field, strings.TrimSpace(value))
}

// fillFromInputs applies the input-attribute heuristic.
func fillFromInputs(site *models.SiteRecord, inputs []markup.Input) int {
	n := 0
	for _, in := range inputs {
		if in.Type == "hidden" || in.Type == "submit" || in.Type == "button" {
			continue
		}
		for _, hint := range in.Hints() {
			if field, ok := fieldFor(hint); ok {
				if fill(site, field, in.Value) {
					n++
				}
				break
			}
		}
	}
	return n
}

// fillFromPairs applies the label/value cell heuristic.
func fillFromPairs(site *models.SiteRecord, pairs []markup.Pair) int {
	n := 0
	for _, p := range pairs {
		if field, ok := fieldFor(p.Label); ok && fill(site, field, p.Value) {
			n++
		}
	}
	return n
}
