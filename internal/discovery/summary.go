package discovery

import (
	"fmt"
	"strings"

	"github.com/Winder2006/COBALT/internal/models"
)

// riskLines are the summary sentences for raised flags, in output order.
var riskLines = []struct {
	flag string
	line string
}{
	{models.FlagPetroleum, "Petroleum contamination indicated (LUST site)"},
	{models.FlagPFAS, "PFAS contamination present"},
	{models.FlagHeavyMetals, "Heavy metals detected"},
	{models.FlagChlorinatedSolvents, "Chlorinated solvents present"},
	{models.FlagOffsiteImpact, "Off-site or ROW impact noted"},
}

const noRiskLine = "No major risk indicators identified from site data"

// Summary renders the fixed-template site summary.
func Summary(site models.SiteRecord, flags models.RiskFlags, docCount int) string {
	location := orDefault(site.LocationName, "Unknown Location")
	parts := []string{location}
	if site.Address != "" {
		parts = append(parts, "at "+site.Address)
	}
	if site.Municipality != "" {
		parts = append(parts, site.Municipality)
	}
	if site.County != "" {
		parts = append(parts, site.County+" County")
	}

	activity := orDefault(site.ActivityNumber, orDefault(site.DSN, "Unknown"))
	status := orDefault(site.Status, orDefault(flags.StatusLabel, "Unknown"))

	var risks []string
	for _, r := range riskLines {
		if flags.Get(r.flag) {
			risks = append(risks, "- "+r.line)
		}
	}
	if len(risks) == 0 {
		risks = []string{"- " + noRiskLine}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Site: %s\n", strings.Join(parts, ", "))
	fmt.Fprintf(&b, "Activity: %s | Type: %s | Status: %s\n\n", activity, orDefault(site.ActivityType, "Unknown"), status)
	fmt.Fprintf(&b, "Start Date: %s\n", orDefault(site.StartDate, "Unknown"))
	fmt.Fprintf(&b, "End Date: %s\n\n", orDefault(site.EndDate, "N/A"))
	b.WriteString("Risk Indicators:\n")
	b.WriteString(strings.Join(risks, "\n"))
	fmt.Fprintf(&b, "\n\nDocuments Available: %d\n\n", docCount)
	b.WriteString("Recommendations:\n")
	b.WriteString("- Select documents and click \"Extract Text\" to analyze content\n")
	b.WriteString("- For legal decisions, always conduct professional Phase I/II ESA review")
	return b.String()
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
