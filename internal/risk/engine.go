// Package risk infers environmental risk flags and case status from site metadata and document text.
package risk

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Winder2006/COBALT/internal/models"
)

// concentrationRe matches a numeric value followed by a unit token, e.g. "12.5 ug/l".
var concentrationRe = regexp.MustCompile(`\d+(?:\.\d+)?\s*(?:ppb|ppm|mg/l|ug/l|mg/kg)`)

// Analysis is the result of one inference pass over free text.
type Analysis struct {
	Flags                 models.RiskFlags `json:"risk_flags"`
	InferredStatus        string           `json:"inferred_status"`
	ConcentrationMentions int              `json:"concentrations_found"`
	TextLength            int              `json:"document_text_length"`
}

// Engine runs keyword inference with a fixed vocabulary. It has no state besides the
// vocabulary and is safe for concurrent use.
type Engine struct {
	vocab Vocabulary
}

// NewEngine returns an engine over vocab.
func NewEngine(vocab Vocabulary) *Engine {
	return &Engine{vocab: vocab}
}

var defaultEngine = NewEngine(DefaultVocabulary())

// Infer runs the default engine over text.
func Infer(text string) Analysis {
	return defaultEngine.Infer(text)
}

// Infer scans text for flag keywords, closure/open vocabulary and concentration mentions.
// A flag is true iff any of its keywords occurs anywhere in text.
func (e *Engine) Infer(text string) Analysis {
	lower := strings.ToLower(text)
	flags := models.NewRiskFlags()
	for _, name := range models.FlagNames {
		if containsAny(lower, e.vocab.Flags[name]) {
			flags.Set(name)
		}
	}
	status := inferStatus(lower, e.vocab.Closure, e.vocab.Open)
	flags.StatusLabel = status
	return Analysis{
		Flags:                 flags,
		InferredStatus:        status,
		ConcentrationMentions: len(concentrationRe.FindAllStringIndex(lower, -1)),
		TextLength:            utf8.RuneCountInString(text),
	}
}

// inferStatus: open vocabulary wins over closure vocabulary.
func inferStatus(lower string, closure, open []string) string {
	hasOpen := containsAny(lower, open)
	hasClosure := containsAny(lower, closure)
	switch {
	case hasOpen:
		return models.StatusOpen
	case hasClosure:
		return models.StatusClosed
	default:
		return models.StatusUnknown
	}
}
