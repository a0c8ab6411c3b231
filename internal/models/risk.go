package models

// Flag names.
const (
	FlagPFAS                = "pfas"
	FlagPetroleum           = "petroleum"
	FlagHeavyMetals         = "heavy_metals"
	FlagChlorinatedSolvents = "chlorinated_solvents"
	FlagOffsiteImpact       = "offsite_impact"
	FlagGroundwaterImpact   = "groundwater_impact"
	FlagSoilContamination   = "soil_contamination"
)

// FlagNames lists every known boolean flag in a stable order.
var FlagNames = []string{
	FlagPFAS,
	FlagPetroleum,
	FlagHeavyMetals,
	FlagChlorinatedSolvents,
	FlagOffsiteImpact,
	FlagGroundwaterImpact,
	FlagSoilContamination,
}

// Case status labels.
const (
	StatusOpen        = "OPEN"
	StatusClosed      = "CLOSED"
	StatusUnknown     = "UNKNOWN"
	StatusUnavailable = "UNAVAILABLE"
)

// RiskFlags is the fixed set of inferred hazard indicators plus a case status label.
// Every flag is always serialized; none use omitempty.
type RiskFlags struct {
	StatusLabel         string `json:"status_label"`
	PFAS                bool   `json:"pfas"`
	Petroleum           bool   `json:"petroleum"`
	HeavyMetals         bool   `json:"heavy_metals"`
	ChlorinatedSolvents bool   `json:"chlorinated_solvents"`
	OffsiteImpact       bool   `json:"offsite_impact"`
	GroundwaterImpact   bool   `json:"groundwater_impact"`
	SoilContamination   bool   `json:"soil_contamination"`
}

// NewRiskFlags returns all flags false with an UNKNOWN status label.
func NewRiskFlags() RiskFlags {
	return RiskFlags{StatusLabel: StatusUnknown}
}

// Set raises the named flag. Unknown names are ignored and reported false.
func (f *RiskFlags) Set(name string) bool {
	p := f.flag(name)
	if p == nil {
		return false
	}
	*p = true
	return true
}

// Get returns the named flag value.
func (f RiskFlags) Get(name string) bool {
	p := (&f).flag(name)
	return p != nil && *p
}

// Merge ORs other into f. Flags never go from true to false.
// A known status label in f is kept; an UNKNOWN or empty one is replaced by other's.
func (f *RiskFlags) Merge(other RiskFlags) {
	for _, name := range FlagNames {
		if other.Get(name) {
			f.Set(name)
		}
	}
	if f.StatusLabel == "" || f.StatusLabel == StatusUnknown {
		if other.StatusLabel != "" {
			f.StatusLabel = other.StatusLabel
		}
	}
	if f.StatusLabel == "" {
		f.StatusLabel = StatusUnknown
	}
}

func (f *RiskFlags) flag(name string) *bool {
	switch name {
	case FlagPFAS:
		return &f.PFAS
	case FlagPetroleum:
		return &f.Petroleum
	case FlagHeavyMetals:
		return &f.HeavyMetals
	case FlagChlorinatedSolvents:
		return &f.ChlorinatedSolvents
	case FlagOffsiteImpact:
		return &f.OffsiteImpact
	case FlagGroundwaterImpact:
		return &f.GroundwaterImpact
	case FlagSoilContamination:
		return &f.SoilContamination
	}
	return nil
}
