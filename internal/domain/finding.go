package domain

import (
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
)

// Severity represents the importance level of a finding
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// severityRank orders severities from most to least severe
var severityRank = map[Severity]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityMedium:   2,
	SeverityLow:      3,
}

// Rank returns the sort rank of the severity, most severe first.
// Unknown severities sort last.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return len(severityRank)
}

// Valid reports whether the severity is one of the known levels
func (s Severity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

// Category classifies what kind of issue a finding is
type Category string

const (
	CategorySecurity        Category = "security"
	CategoryPerformance     Category = "performance"
	CategoryLogic           Category = "logic"
	CategoryErrorHandling   Category = "error-handling"
	CategoryTypeSafety      Category = "type-safety"
	CategoryMaintainability Category = "maintainability"
)

// ValidCategories is the closed set of accepted finding categories
var ValidCategories = map[Category]bool{
	CategorySecurity:        true,
	CategoryPerformance:     true,
	CategoryLogic:           true,
	CategoryErrorHandling:   true,
	CategoryTypeSafety:      true,
	CategoryMaintainability: true,
}

// Confidence indicates how certain the engine is about a finding
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Valid reports whether the confidence is one of the known levels
func (c Confidence) Valid() bool {
	return c == ConfidenceHigh || c == ConfidenceMedium || c == ConfidenceLow
}

// Finding represents one issue discovered during a review
type Finding struct {
	Severity       Severity   `json:"severity"`
	Category       Category   `json:"category"`
	Confidence     Confidence `json:"confidence"`
	File           string     `json:"file"`
	Line           int        `json:"line"`
	EndLine        int        `json:"endLine,omitempty"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Suggestion     string     `json:"suggestion,omitempty"`
	SeverityReason string     `json:"severityReason"`
	References     []string   `json:"references,omitempty"`
	Hash           string     `json:"hash,omitempty"`
}

// IsBlocking returns true if the finding alone warrants blocking the PR
func (f *Finding) IsBlocking() bool {
	return f.Severity == SeverityCritical
}

// Location renders the file/line range the finding is anchored to
func (f *Finding) Location() string {
	if f.EndLine > f.Line {
		return fmt.Sprintf("%s:%d-%d", f.File, f.Line, f.EndLine)
	}
	return fmt.Sprintf("%s:%d", f.File, f.Line)
}

// ComputeHash derives the finding's stable identity from its location and
// normalized title. It is insensitive to severity, description, and
// confidence so a re-run recognizes the same finding even when the engine
// rephrases its assessment. FNV-32a is an identity key, not a security
// token; the collision risk is accepted.
func (f *Finding) ComputeHash() string {
	h := fnv.New32a()
	h.Write([]byte(normalizeTitle(f.Title)))
	h.Write([]byte("|"))
	h.Write([]byte(f.Location()))
	return fmt.Sprintf("%08x", h.Sum32())
}

// normalizeTitle case-folds the title and strips everything that is not a
// letter or digit, so cosmetic rewording does not change identity
func normalizeTitle(title string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Validate checks the finding invariants required of engine output
func (f *Finding) Validate() error {
	if !f.Severity.Valid() {
		return fmt.Errorf("invalid severity %q", f.Severity)
	}
	if !ValidCategories[f.Category] {
		return fmt.Errorf("invalid category %q", f.Category)
	}
	if !f.Confidence.Valid() {
		return fmt.Errorf("invalid confidence %q", f.Confidence)
	}
	if f.File == "" {
		return fmt.Errorf("finding has no file")
	}
	if f.Line <= 0 {
		return fmt.Errorf("finding has invalid line %d", f.Line)
	}
	if f.EndLine != 0 && f.EndLine < f.Line {
		return fmt.Errorf("endLine %d precedes line %d", f.EndLine, f.Line)
	}
	if f.Title == "" {
		return fmt.Errorf("finding has no title")
	}
	if f.Description == "" {
		return fmt.Errorf("finding has no description")
	}
	return nil
}
