package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sev(s Severity) Finding {
	f := validFinding()
	f.Severity = s
	return f
}

func TestVerdictFor(t *testing.T) {
	assert.Equal(t, VerdictApprove, VerdictFor(nil))
	assert.Equal(t, VerdictApprove, VerdictFor([]Finding{sev(SeverityMedium), sev(SeverityLow)}))
	assert.Equal(t, VerdictComment, VerdictFor([]Finding{sev(SeverityHigh), sev(SeverityLow)}))
	assert.Equal(t, VerdictRequestChanges, VerdictFor([]Finding{sev(SeverityLow), sev(SeverityCritical)}))
}

func TestVerdictMonotonicity(t *testing.T) {
	sets := [][]Finding{
		nil,
		{sev(SeverityLow)},
		{sev(SeverityHigh)},
		{sev(SeverityCritical)},
		{sev(SeverityHigh), sev(SeverityMedium)},
	}
	for _, findings := range sets {
		withCritical := append([]Finding{sev(SeverityCritical)}, findings...)
		assert.Equal(t, VerdictRequestChanges, VerdictFor(withCritical),
			"adding a critical finding always requests changes")
	}
}

func TestSeverityRank(t *testing.T) {
	assert.Less(t, SeverityCritical.Rank(), SeverityHigh.Rank())
	assert.Less(t, SeverityHigh.Rank(), SeverityMedium.Rank())
	assert.Less(t, SeverityMedium.Rank(), SeverityLow.Rank())
	assert.Greater(t, Severity("bogus").Rank(), SeverityLow.Rank())
}
