package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/env0/claude-pr-reviewer/internal/domain"
)

func finding(title, file string, line int) domain.Finding {
	f := domain.Finding{
		Severity:    domain.SeverityMedium,
		Category:    domain.CategoryLogic,
		Confidence:  domain.ConfidenceHigh,
		File:        file,
		Line:        line,
		Title:       title,
		Description: "d",
	}
	f.Hash = f.ComputeHash()
	return f
}

func comment(id int64, hash string) domain.RemoteComment {
	return domain.RemoteComment{ID: id, Hash: hash}
}

func TestReconcilePartition(t *testing.T) {
	persisting := finding("unchecked error", "a.go", 10)
	fresh := finding("race on counter", "b.go", 20)

	current := []domain.Finding{persisting, fresh}
	existing := []domain.RemoteComment{
		comment(1, persisting.Hash), // still present
		comment(2, "a1b2c3d4"),      // no longer produced: fixed
		comment(3, ""),              // a reply, no marker
	}

	res := Reconcile(current, existing)

	require.Len(t, res.ToPost, 1)
	assert.Equal(t, fresh.Hash, res.ToPost[0].Hash)

	require.Len(t, res.ToResolve, 1)
	assert.Equal(t, int64(2), res.ToResolve[0].ID)

	require.Len(t, res.ToLeave, 1)
	assert.Equal(t, int64(1), res.ToLeave[0].ID)
}

func TestReconcileDisjointAndCovering(t *testing.T) {
	current := []domain.Finding{
		finding("one", "a.go", 1),
		finding("two", "a.go", 2),
		finding("three", "b.go", 3),
	}
	existing := []domain.RemoteComment{
		comment(1, current[0].Hash),
		comment(2, "deadbeef"),
		comment(3, current[2].Hash),
		comment(4, ""),
	}

	res := Reconcile(current, existing)

	// Every current finding lands in exactly one of toPost / already-posted
	assert.Len(t, res.ToPost, 1)
	assert.Equal(t, current[1].Hash, res.ToPost[0].Hash)

	// Every hashed comment lands in exactly one of toResolve / toLeave
	seen := map[int64]int{}
	for _, c := range res.ToResolve {
		seen[c.ID]++
	}
	for _, c := range res.ToLeave {
		seen[c.ID]++
	}
	assert.Equal(t, map[int64]int{1: 1, 2: 1, 3: 1}, seen, "hashless comment 4 is ignored, the rest appear exactly once")
}

func TestReconcileIdempotent(t *testing.T) {
	current := []domain.Finding{finding("one", "a.go", 1), finding("two", "b.go", 2)}
	existing := []domain.RemoteComment{comment(1, current[0].Hash), comment(2, "deadbeef")}

	first := Reconcile(current, existing)
	second := Reconcile(current, existing)
	assert.Equal(t, first, second)
}

func TestReconcileEmptyInputs(t *testing.T) {
	res := Reconcile(nil, nil)
	assert.Empty(t, res.ToPost)
	assert.Empty(t, res.ToResolve)
	assert.Empty(t, res.ToLeave)
	assert.False(t, res.HasBlocking())
}

func TestHasBlocking(t *testing.T) {
	critical := finding("injection", "a.go", 5)
	critical.Severity = domain.SeverityCritical

	res := Reconcile([]domain.Finding{critical}, nil)
	assert.True(t, res.HasBlocking())

	// A critical finding already posted does not count as newly blocking
	res = Reconcile([]domain.Finding{critical}, []domain.RemoteComment{comment(1, critical.Hash)})
	assert.False(t, res.HasBlocking())
}
