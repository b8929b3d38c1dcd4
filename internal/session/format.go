package session

import (
	"fmt"
	"strings"

	"github.com/env0/claude-pr-reviewer/internal/domain"
	"github.com/env0/claude-pr-reviewer/internal/reconcile"
)

var severityBadges = map[domain.Severity]string{
	domain.SeverityCritical: "🔴 Critical",
	domain.SeverityHigh:     "🟠 High",
	domain.SeverityMedium:   "🟡 Medium",
	domain.SeverityLow:      "🟢 Low",
}

// formatFindingComment renders the review comment body for one finding,
// ending with the hidden marker future sessions recover the hash from
func formatFindingComment(f *domain.Finding) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "**%s** · %s · %s confidence\n\n", severityBadges[f.Severity], f.Category, f.Confidence)
	fmt.Fprintf(&sb, "**%s**\n\n", f.Title)
	sb.WriteString(f.Description)
	sb.WriteString("\n")

	if f.Suggestion != "" {
		fmt.Fprintf(&sb, "\n```suggestion\n%s\n```\n", strings.TrimRight(f.Suggestion, "\n"))
	}
	if f.SeverityReason != "" {
		fmt.Fprintf(&sb, "\n**Why %s:** %s\n", f.Severity, f.SeverityReason)
	}
	if len(f.References) > 0 {
		sb.WriteString("\nReferences:\n")
		for _, ref := range f.References {
			fmt.Fprintf(&sb, "- %s\n", ref)
		}
	}

	sb.WriteString("\n")
	sb.WriteString(reconcile.BuildMarker(f.Hash))
	return sb.String()
}

// formatSummary renders the top-level review body: verdict headline,
// engine summary, severity breakdown, and reconciliation accounting
func formatSummary(result *domain.EngineResult, verdict domain.Verdict, rec *reconcile.Result) string {
	var sb strings.Builder

	sb.WriteString("## AI Code Review\n\n")

	switch verdict {
	case domain.VerdictRequestChanges:
		sb.WriteString("❌ **Changes requested**: critical issues present.\n\n")
	case domain.VerdictComment:
		sb.WriteString("⚠️ **Review comments**: high-severity issues worth addressing.\n\n")
	default:
		sb.WriteString("✅ **Approved**: no blocking issues found.\n\n")
	}

	if result.Summary != "" {
		sb.WriteString(result.Summary)
		sb.WriteString("\n\n")
	}

	if len(result.Findings) == 0 {
		sb.WriteString("No issues found in this change set.\n")
	} else {
		counts := result.CountBySeverity()
		sb.WriteString("| Severity | Count |\n|----------|-------|\n")
		for _, sev := range []domain.Severity{domain.SeverityCritical, domain.SeverityHigh, domain.SeverityMedium, domain.SeverityLow} {
			if counts[sev] > 0 {
				fmt.Fprintf(&sb, "| %s | %d |\n", severityBadges[sev], counts[sev])
			}
		}
		fmt.Fprintf(&sb, "\n%d new, %d resolved since the last review, %d unchanged.\n",
			len(rec.ToPost), len(rec.ToResolve), len(rec.ToLeave))
	}

	fmt.Fprintf(&sb, "\nReviewed %d files (%d skipped) at `%s`.\n",
		result.Metadata.FilesReviewed, result.Metadata.SkippedFiles, result.Metadata.HeadCommit)

	return sb.String()
}

// formatSkip renders the comment-type review body for a skipped session
func formatSkip(reason string) string {
	return fmt.Sprintf("## AI Code Review\n\n⏭️ **Review skipped**: %s\n", reason)
}

// formatError renders the error comment posted when a session fails after
// exhausting its retry
func formatError(detail string) string {
	return fmt.Sprintf("## AI Code Review\n\n🚨 **Review failed**: %s\n\nRe-trigger with a review command once the underlying problem is addressed.\n", detail)
}
