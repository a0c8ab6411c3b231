package keyword

import (
	"sort"
	"strings"
)

// Suggester proposes a corrected query from the terms of an index.
type Suggester struct {
	dict        TermDictionary
	maxDistance int
}

// NewSuggester returns a suggester over dict. maxDistance <= 0 defaults to 2.
func NewSuggester(dict TermDictionary, maxDistance int) *Suggester {
	if maxDistance <= 0 {
		maxDistance = 2
	}
	return &Suggester{dict: dict, maxDistance: maxDistance}
}

type candidate struct {
	term     string
	distance int
	freq     int
}

// Suggest replaces each query term missing from the dictionary with its closest indexed term.
// It returns "" when every term is known or nothing close enough exists.
func (s *Suggester) Suggest(query string) (string, error) {
	terms, err := s.dict.Terms()
	if err != nil {
		return "", err
	}
	known := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		known[t] = struct{}{}
	}

	words := tokenize(query)
	changed := false
	for i, w := range words {
		if _, ok := known[w]; ok {
			continue
		}
		var cands []candidate
		for _, t := range terms {
			if abs(len(t)-len(w)) > s.maxDistance {
				continue
			}
			if d := levenshtein(w, t); d <= s.maxDistance {
				freq, err := s.dict.TermFrequency(t)
				if err != nil || freq == 0 {
					continue
				}
				cands = append(cands, candidate{term: t, distance: d, freq: freq})
			}
		}
		if len(cands) == 0 {
			continue
		}
		sort.Slice(cands, func(a, b int) bool {
			if cands[a].distance != cands[b].distance {
				return cands[a].distance < cands[b].distance
			}
			if cands[a].freq != cands[b].freq {
				return cands[a].freq > cands[b].freq
			}
			return cands[a].term < cands[b].term
		})
		words[i] = cands[0].term
		changed = true
	}
	if !changed {
		return "", nil
	}
	return strings.Join(words, " "), nil
}

// levenshtein is the rune-wise edit distance using two rolling rows.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
