// Package classifier implements the relevance scoring engine for scraped
// norms: exclusion veto, mandatory-keyword gate, technical-token overlap and
// corpus similarity, combined into an accept/reject verdict.
package classifier

import (
	"fmt"
	"strings"

	"NormasScanner/internal/corpus"
	"NormasScanner/internal/domain"
	"NormasScanner/internal/keywords"
	"NormasScanner/internal/textnorm"
)

const (
	acceptTokenCount  = 3
	reducedTokenCount = 2
	similarityFloor   = 0.15
)

// Classifier scores candidates against the shared registries and the corpus
// model fitted for this run. It is pure and safe to share once built.
type Classifier struct {
	reg   *keywords.Registry
	model *corpus.Model
}

// New builds a classifier over a registry and a fitted corpus model.
func New(reg *keywords.Registry, model *corpus.Model) *Classifier {
	return &Classifier{reg: reg, model: model}
}

// Classify evaluates one candidate. Checks short-circuit in strict order:
// excluded sector, mandatory term, then the token-count/similarity threshold.
func (c *Classifier) Classify(cand domain.Candidate) domain.Verdict {
	text := textnorm.Normalize(cand.CombinedText())

	for _, sector := range c.reg.ExcludedSectors {
		if strings.Contains(text, sector) {
			return domain.Verdict{
				Reason: domain.ReasonExcludedSector,
				Detail: fmt.Sprintf("excluded sector: %s", sector),
			}
		}
	}

	mandatory := ""
	for _, term := range c.reg.MandatoryTerms {
		if strings.Contains(text, term) {
			mandatory = term
			break
		}
	}
	if mandatory == "" {
		return domain.Verdict{
			Reason: domain.ReasonNoMandatoryTerm,
			Detail: "no mandatory term present",
		}
	}

	// Distinct registry tokens found as substrings; a token appearing many
	// times still counts once. Overlapping matches ("gas" inside
	// "gasoducto") can inflate the tally, which is a known imprecision the
	// scoring thresholds were tuned around.
	var matched []string
	for _, tok := range c.reg.TechnicalTokens {
		if strings.Contains(text, tok) {
			matched = append(matched, tok)
		}
	}

	score := c.model.Similarity(text)

	accepted := len(matched) >= acceptTokenCount ||
		(len(matched) >= reducedTokenCount && score >= similarityFloor)

	v := domain.Verdict{
		Accepted:      accepted,
		MandatoryTerm: mandatory,
		MatchedTokens: matched,
		TokenCount:    len(matched),
		Similarity:    score,
	}
	if accepted {
		v.Reason = domain.ReasonThresholdMet
		v.Detail = fmt.Sprintf("mandatory term %q, %d technical tokens, similarity %.4f", mandatory, len(matched), score)
	} else {
		v.Reason = domain.ReasonBelowThreshold
		v.Detail = fmt.Sprintf("%d technical tokens, similarity %.4f below thresholds", len(matched), score)
	}
	return v
}

// MatchesPrioritySector reports whether the candidate's sector field alone
// names a priority regulatory body. The pipeline uses this for the bypass
// path; it is not part of Classify.
func MatchesPrioritySector(reg *keywords.Registry, cand domain.Candidate) bool {
	sector := textnorm.Normalize(cand.Sector)
	for _, p := range reg.PrioritySectors {
		if strings.Contains(sector, p) {
			return true
		}
	}
	return false
}
