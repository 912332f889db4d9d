package domain

import (
	"regexp"
	"strings"

	"NormasScanner/internal/textnorm"
)

// EditionKind distinguishes the two gazette issue types.
type EditionKind string

const (
	EditionOrdinary      EditionKind = "Ordinaria"
	EditionExtraordinary EditionKind = "Extraordinaria"
)

// Candidate is one scraped norm/announcement before relevance filtering.
type Candidate struct {
	Sector          string
	Title           string
	Summary         string
	PublicationDate string
	DocumentURL     string
	FileName        string
	Edition         EditionKind
}

// CombinedText is the sole classification input: sector, title and summary joined.
func (c Candidate) CombinedText() string {
	return strings.Join([]string{c.Sector, c.Title, c.Summary}, " ")
}

// DedupKey identifies a candidate for deduplication. Two distinct documents
// sharing a normalized title and publication date collide; first seen wins.
func (c Candidate) DedupKey() string {
	return textnorm.Normalize(c.Title) + "|" + c.PublicationDate
}

// Reason tags why a verdict came out the way it did.
type Reason string

const (
	ReasonExcludedSector  Reason = "excluded sector"
	ReasonNoMandatoryTerm Reason = "no mandatory term"
	ReasonBelowThreshold  Reason = "below threshold"
	ReasonThresholdMet    Reason = "threshold met"
	ReasonPrioritySector  Reason = "priority sector"
)

// Verdict is the classifier output for a single candidate.
type Verdict struct {
	Accepted      bool
	Reason        Reason
	Detail        string
	MandatoryTerm string
	MatchedTokens []string
	TokenCount    int
	Similarity    float64
}

// AcceptedNorm pairs an accepted candidate with its archival reference.
type AcceptedNorm struct {
	Candidate Candidate
	Verdict   Verdict
	// ReferenceURL points at the archived copy, or at the original
	// document when archiving failed.
	ReferenceURL string
}

var (
	unsafeChars = regexp.MustCompile(`[<>:"/\\|?*\n\r\t]`)
	spaceRuns   = regexp.MustCompile(`\s+`)
)

// SanitizeFileName turns a norm title into a safe archive file name.
func SanitizeFileName(name string) string {
	name = unsafeChars.ReplaceAllString(name, "")
	name = spaceRuns.ReplaceAllString(strings.TrimSpace(name), "_")
	runes := []rune(name)
	if len(runes) > 150 {
		name = string(runes[:150])
	}
	return name
}
