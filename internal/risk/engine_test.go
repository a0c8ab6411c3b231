package risk

import (
	"testing"

	"github.com/Winder2006/COBALT/internal/models"
)

func TestInfer_empty(t *testing.T) {
	a := Infer("")
	for _, name := range models.FlagNames {
		if a.Flags.Get(name) {
			t.Errorf("flag %s set on empty text", name)
		}
	}
	if a.InferredStatus != models.StatusUnknown {
		t.Errorf("InferredStatus = %q, want UNKNOWN", a.InferredStatus)
	}
	if a.ConcentrationMentions != 0 || a.TextLength != 0 {
		t.Errorf("got %+v", a)
	}
}

func TestInfer_status(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"closure only", "The DNR issued a letter of No Further Action in 2011.", models.StatusClosed},
		{"case closed", "Case closed with continuing obligations.", models.StatusClosed},
		{"open only", "Active remediation of the source area continues.", models.StatusOpen},
		{"both", "Closure requested but monitoring required for two more years; case closed later?", models.StatusOpen},
		{"ongoing beats nfa", "NFA letter pending, sampling is ongoing", models.StatusOpen},
		{"neither", "Site visit notes.", models.StatusUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Infer(tt.text)
			if a.InferredStatus != tt.want {
				t.Errorf("InferredStatus = %q, want %q", a.InferredStatus, tt.want)
			}
			if a.Flags.StatusLabel != tt.want {
				t.Errorf("StatusLabel = %q, want %q", a.Flags.StatusLabel, tt.want)
			}
		})
	}
}

func TestInfer_flags(t *testing.T) {
	tests := []struct {
		text string
		flag string
	}{
		{"Elevated PFOS in monitoring well MW-3", models.FlagPFAS},
		{"BTEX compounds detected", models.FlagPetroleum},
		{"Former Underground Storage Tank removed", models.FlagPetroleum},
		{"Arsenic above RCL", models.FlagHeavyMetals},
		{"Trichloroethylene plume", models.FlagChlorinatedSolvents},
		{"vapor intrusion assessment", models.FlagOffsiteImpact},
		{"private drinking water well sampled", models.FlagGroundwaterImpact},
		{"contaminated soil was excavated", models.FlagSoilContamination},
	}
	for _, tt := range tests {
		a := Infer(tt.text)
		if !a.Flags.Get(tt.flag) {
			t.Errorf("Infer(%q): flag %s not set", tt.text, tt.flag)
		}
	}
}

func TestInfer_concentrations(t *testing.T) {
	text := "Benzene 12.5 ug/L, lead 400 mg/kg, TCE 5ppb and 3 wells"
	a := Infer(text)
	if a.ConcentrationMentions != 3 {
		t.Errorf("ConcentrationMentions = %d, want 3", a.ConcentrationMentions)
	}
}

func TestInfer_textLengthCountsRunes(t *testing.T) {
	a := Infer("µg/L")
	if a.TextLength != 4 {
		t.Errorf("TextLength = %d, want 4", a.TextLength)
	}
}

func TestInfer_pure(t *testing.T) {
	text := "gasoline release; case closed"
	a1 := Infer(text)
	a2 := Infer(text)
	if a1 != a2 {
		t.Errorf("results differ: %+v vs %+v", a1, a2)
	}
}

func TestWithOverrides(t *testing.T) {
	v, err := DefaultVocabulary().WithOverrides(map[string][]string{
		models.FlagPFAS: {"AFFF"},
		"open":          {"pending review"},
	})
	if err != nil {
		t.Fatalf("WithOverrides: %v", err)
	}
	e := NewEngine(v)
	a := e.Infer("AFFF foam used in training; pending review")
	if !a.Flags.PFAS {
		t.Error("override keyword should set pfas")
	}
	if a.InferredStatus != models.StatusOpen {
		t.Errorf("InferredStatus = %q, want OPEN", a.InferredStatus)
	}
	if e.Infer("PFAS detected").Flags.PFAS {
		t.Error("replaced keyword list should no longer match pfas")
	}
	// Default vocabulary is untouched.
	if !Infer("PFAS detected").Flags.PFAS {
		t.Error("default vocabulary modified")
	}
}

func TestWithOverrides_unknownFlag(t *testing.T) {
	if _, err := DefaultVocabulary().WithOverrides(map[string][]string{"asbestos": {"asbestos"}}); err == nil {
		t.Error("expected error for unknown flag")
	}
}

func TestFromMetadata(t *testing.T) {
	site := models.SiteRecord{DSN: "123456", Status: "Open", ActivityType: "LUST"}
	site.SetCharacteristic("row_impact", true)
	site.SetCharacteristic("pfas", false)
	f := FromMetadata(site, "")
	if !f.Petroleum {
		t.Error("LUST activity should set petroleum")
	}
	if !f.OffsiteImpact {
		t.Error("row_impact characteristic should set offsite_impact")
	}
	if f.PFAS {
		t.Error("pfas characteristic is no")
	}
	if f.StatusLabel != "OPEN" {
		t.Errorf("StatusLabel = %q", f.StatusLabel)
	}
}

func TestFromMetadata_pageText(t *testing.T) {
	f := FromMetadata(models.SiteRecord{DSN: "1"}, "Substances: Arsenic; PFAS listed; Offsite impacts: Yes")
	if !f.PFAS || !f.HeavyMetals || !f.OffsiteImpact {
		t.Errorf("got %+v", f)
	}
	if f.StatusLabel != models.StatusUnknown {
		t.Errorf("StatusLabel = %q, want UNKNOWN", f.StatusLabel)
	}
}
