package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFinding() Finding {
	return Finding{
		Severity:       SeverityHigh,
		Category:       CategoryLogic,
		Confidence:     ConfidenceHigh,
		File:           "internal/server/handler.go",
		Line:           42,
		EndLine:        45,
		Title:          "Nil pointer dereference on missing header",
		Description:    "The header is dereferenced without a presence check.",
		SeverityReason: "Crashes the request path.",
	}
}

func TestComputeHashDeterministic(t *testing.T) {
	f := validFinding()
	assert.Equal(t, f.ComputeHash(), f.ComputeHash())
	assert.Len(t, f.ComputeHash(), 8)
}

func TestComputeHashIgnoresAssessmentFields(t *testing.T) {
	f := validFinding()
	base := f.ComputeHash()

	f.Severity = SeverityLow
	f.Description = "completely different explanation"
	f.Confidence = ConfidenceLow
	f.SeverityReason = "different reason"
	f.Suggestion = "some fix"

	assert.Equal(t, base, f.ComputeHash(), "hash is location+title keyed, not full-content keyed")
}

func TestComputeHashSensitiveToIdentity(t *testing.T) {
	bf := validFinding()
	base := bf.ComputeHash()

	f := validFinding()
	f.Title = "A different issue entirely"
	assert.NotEqual(t, base, f.ComputeHash())

	f = validFinding()
	f.File = "other/file.go"
	assert.NotEqual(t, base, f.ComputeHash())

	f = validFinding()
	f.Line = 7
	assert.NotEqual(t, base, f.ComputeHash())
}

func TestComputeHashNormalizesTitle(t *testing.T) {
	a := validFinding()
	b := validFinding()
	b.Title = "NIL pointer-dereference, on missing header!!"
	assert.Equal(t, a.ComputeHash(), b.ComputeHash(), "case and punctuation do not change identity")
}

func TestLocation(t *testing.T) {
	f := validFinding()
	assert.Equal(t, "internal/server/handler.go:42-45", f.Location())

	f.EndLine = 0
	assert.Equal(t, "internal/server/handler.go:42", f.Location())
}

func TestFindingValidate(t *testing.T) {
	require.NoError(t, func() error { f := validFinding(); return f.Validate() }())

	cases := map[string]func(*Finding){
		"bad severity":   func(f *Finding) { f.Severity = "urgent" },
		"bad category":   func(f *Finding) { f.Category = "style" },
		"bad confidence": func(f *Finding) { f.Confidence = "certain" },
		"missing file":   func(f *Finding) { f.File = "" },
		"zero line":      func(f *Finding) { f.Line = 0 },
		"inverted range": func(f *Finding) { f.EndLine = 10 },
		"missing title":  func(f *Finding) { f.Title = "" },
		"missing descr":  func(f *Finding) { f.Description = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := validFinding()
			mutate(&f)
			assert.Error(t, f.Validate())
		})
	}
}

func TestEngineResultValidateAssignsHashes(t *testing.T) {
	res := EngineResult{
		Status:   EngineCompleted,
		Findings: []Finding{validFinding()},
	}
	require.NoError(t, res.Validate())
	assert.Equal(t, res.Findings[0].ComputeHash(), res.Findings[0].Hash)
}

func TestEngineResultValidateRejectsBadStatus(t *testing.T) {
	res := EngineResult{Status: "done"}
	assert.Error(t, res.Validate())

	res = EngineResult{Status: EngineFailed}
	assert.Error(t, res.Validate(), "failed result must carry an error")
}
