// Package corpus fits a small term-vector model over the accumulated corpus of
// previously accepted norms and scores candidate texts against it.
package corpus

import (
	"math"
	"sort"
	"strings"

	"NormasScanner/internal/keywords"
	"NormasScanner/internal/textnorm"
)

const (
	maxVocabulary   = 5000
	bootstrapCopies = 3
)

// Model is a fitted vector space over a single corpus document. With one
// document the IDF component is degenerate, so the model acts as a weighted
// term-presence encoder: vectors are term counts over a bounded vocabulary of
// the corpus's most frequent unigrams and bigrams.
type Model struct {
	vocab      map[string]int
	corpusVec  []float64
	corpusNorm float64
}

// Bootstrap assembles a synthetic corpus from the keyword list so the vector
// space is never empty when no persisted corpus exists yet.
func Bootstrap(reg *keywords.Registry) string {
	joined := strings.Join(reg.Keywords, " ")
	parts := make([]string, 0, bootstrapCopies)
	for i := 0; i < bootstrapCopies; i++ {
		parts = append(parts, joined)
	}
	return strings.Join(parts, " ")
}

// Build fits a fresh model over the corpus text. Blank input falls back to the
// bootstrap corpus; Build never fails.
func Build(corpusText string, reg *keywords.Registry) *Model {
	if strings.TrimSpace(corpusText) == "" {
		corpusText = Bootstrap(reg)
	}

	counts := termCounts(textnorm.Normalize(corpusText))

	terms := make([]string, 0, len(counts))
	for t := range counts {
		terms = append(terms, t)
	}
	// Keep the most frequent terms; ties break lexicographically so the
	// vocabulary is deterministic.
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > maxVocabulary {
		terms = terms[:maxVocabulary]
	}

	m := &Model{vocab: make(map[string]int, len(terms))}
	m.corpusVec = make([]float64, len(terms))
	for i, t := range terms {
		m.vocab[t] = i
		m.corpusVec[i] = float64(counts[t])
	}
	m.corpusNorm = vectorNorm(m.corpusVec)

	return m
}

// VocabularySize reports how many terms the fitted vocabulary holds.
func (m *Model) VocabularySize() int {
	return len(m.vocab)
}

// Similarity returns the cosine similarity in [0,1] between the corpus vector
// and the candidate text vectorized under the fitted vocabulary. Texts with no
// vocabulary overlap score 0, degrading classification to keyword-only logic.
func (m *Model) Similarity(text string) float64 {
	if m == nil || len(m.vocab) == 0 || m.corpusNorm == 0 {
		return 0
	}

	vec := make([]float64, len(m.corpusVec))
	for term, n := range termCounts(textnorm.Normalize(text)) {
		if i, ok := m.vocab[term]; ok {
			vec[i] = float64(n)
		}
	}

	norm := vectorNorm(vec)
	if norm == 0 {
		return 0
	}

	var dot float64
	for i, v := range vec {
		dot += v * m.corpusVec[i]
	}
	return dot / (norm * m.corpusNorm)
}

// termCounts tokenizes normalized text into unigrams and bigrams.
func termCounts(normalized string) map[string]int {
	words := strings.Fields(normalized)
	counts := make(map[string]int, 2*len(words))
	for i, w := range words {
		counts[w]++
		if i+1 < len(words) {
			counts[w+" "+words[i+1]]++
		}
	}
	return counts
}

func vectorNorm(vec []float64) float64 {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	return math.Sqrt(sum)
}
