package risk

import (
	"fmt"
	"strings"

	"github.com/Winder2006/COBALT/internal/models"
)

// Vocabulary is the keyword set used by an Engine. All keywords are matched
// case-insensitively as plain substrings.
type Vocabulary struct {
	Flags   map[string][]string
	Closure []string
	Open    []string
}

// DefaultVocabulary returns the built-in keyword lists for free-text documents.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Flags: map[string][]string{
			models.FlagPFAS: {"pfas", "pfoa", "pfos", "perfluor", "forever chemical"},
			models.FlagPetroleum: {"petroleum", "gasoline", "diesel", "btex", "benzene", "toluene",
				"ethylbenzene", "xylene", "fuel oil", "heating oil", "ust ",
				"underground storage tank", "lust", "leaking underground"},
			models.FlagHeavyMetals: {"arsenic", "lead", "chromium", "mercury", "cadmium", "heavy metal",
				"metals contamination"},
			models.FlagChlorinatedSolvents: {"tce", "pce", "chlorinated", "trichloroethylene",
				"tetrachloroethylene", "vinyl chloride", "dce", "solvent"},
			models.FlagOffsiteImpact: {"off-site", "offsite", "migrated", "plume", "groundwater impact",
				"vapor intrusion", "neighboring property"},
			models.FlagGroundwaterImpact: {"groundwater", "aquifer", "well contamination", "drinking water"},
			models.FlagSoilContamination: {"soil contamination", "contaminated soil", "soil vapor"},
		},
		Closure: []string{"case closed", "no further action", "nfa", "closure", "closed"},
		Open:    []string{"open case", "ongoing", "active remediation", "monitoring required"},
	}
}

// metadataVocabulary is matched against raw detail-page text, before any document text exists.
var metadataVocabulary = map[string][]string{
	models.FlagPFAS:                {"pfas"},
	models.FlagPetroleum:           {"petroleum", "lust"},
	models.FlagHeavyMetals:         {"metal", "arsenic", "lead", "chromium", "mercury", "cadmium"},
	models.FlagChlorinatedSolvents: {"tce", "pce", "trichloroethylene", "tetrachloroethylene", "chlorinated"},
	models.FlagOffsiteImpact:       {"offsite", "off-site", "row impact"},
}

// WithOverrides returns a copy of v where every flag named in overrides has its
// keyword list replaced. The "closure" and "open" keys replace the status lists.
// Unknown names are rejected.
func (v Vocabulary) WithOverrides(overrides map[string][]string) (Vocabulary, error) {
	out := Vocabulary{
		Flags:   make(map[string][]string, len(v.Flags)),
		Closure: append([]string(nil), v.Closure...),
		Open:    append([]string(nil), v.Open...),
	}
	for k, words := range v.Flags {
		out.Flags[k] = append([]string(nil), words...)
	}
	for name, words := range overrides {
		words = lowerAll(words)
		switch name {
		case "closure":
			out.Closure = words
		case "open":
			out.Open = words
		default:
			if _, ok := out.Flags[name]; !ok {
				return Vocabulary{}, fmt.Errorf("unknown risk flag %q", name)
			}
			out.Flags[name] = words
		}
	}
	return out, nil
}

func lowerAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.ToLower(w); w != "" {
			out = append(out, w)
		}
	}
	return out
}

func containsAny(lowerText string, words []string) bool {
	for _, w := range words {
		if strings.Contains(lowerText, w) {
			return true
		}
	}
	return false
}
