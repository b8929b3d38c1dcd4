package domain

// Verdict is the top-level outcome of a review
type Verdict string

const (
	VerdictRequestChanges Verdict = "request-changes"
	VerdictComment        Verdict = "comment"
	VerdictApprove        Verdict = "approve"
)

// VerdictFor derives the verdict from the complete current finding set, not
// the reconciled subset, so the top-level outcome always reflects total
// unresolved risk: any critical finding requests changes, any high finding
// downgrades to a comment, everything else approves.
func VerdictFor(findings []Finding) Verdict {
	var high bool
	for i := range findings {
		switch findings[i].Severity {
		case SeverityCritical:
			return VerdictRequestChanges
		case SeverityHigh:
			high = true
		}
	}
	if high {
		return VerdictComment
	}
	return VerdictApprove
}
