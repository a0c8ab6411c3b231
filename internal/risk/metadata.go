package risk

import (
	"strings"

	"github.com/Winder2006/COBALT/internal/models"
)

// ActivityTypeLUST is the leaking-underground-storage-tank activity classification.
const ActivityTypeLUST = "LUST"

// characteristicFlags maps a "yes" site characteristic to the flag it raises.
var characteristicFlags = map[string]string{
	"pfas":              models.FlagPFAS,
	"underground_tank":  models.FlagPetroleum,
	"above_ground_tank": models.FlagPetroleum,
	"row_impact":        models.FlagOffsiteImpact,
}

// FromMetadata derives flags from structured site fields and the raw detail-page text.
// The status label comes from the site status, upper-cased, or UNKNOWN when absent.
func FromMetadata(site models.SiteRecord, pageText string) models.RiskFlags {
	flags := models.NewRiskFlags()
	if s := strings.ToUpper(strings.TrimSpace(site.Status)); s != "" {
		flags.StatusLabel = s
	}
	if strings.EqualFold(strings.TrimSpace(site.ActivityType), ActivityTypeLUST) {
		flags.Set(models.FlagPetroleum)
	}
	for name, yes := range site.Characteristics {
		if !yes {
			continue
		}
		if flag, ok := characteristicFlags[name]; ok {
			flags.Set(flag)
		}
	}
	if pageText != "" {
		lower := strings.ToLower(pageText)
		for flag, words := range metadataVocabulary {
			if containsAny(lower, words) {
				flags.Set(flag)
			}
		}
	}
	return flags
}
