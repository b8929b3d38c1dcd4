// Package reconcile computes the diff between newly produced findings and
// previously posted review comments so repeated reviews of the same pull
// request stay idempotent: new findings are posted once, fixed findings are
// resolved, persisting findings are left alone.
package reconcile

import (
	"github.com/env0/claude-pr-reviewer/internal/domain"
)

// Result partitions findings and existing comments into disjoint actions
type Result struct {
	ToPost    []domain.Finding       // hash not present among existing comments
	ToResolve []domain.RemoteComment // hash no longer produced: presumed fixed
	ToLeave   []domain.RemoteComment // hash present in both: no action
}

// Reconcile is a pure function over the current finding set and the existing
// bot comments. Comments without a recoverable hash (replies, human comments)
// are ignored entirely. A current finding whose hash coincidentally matches
// an old comment at the same location is treated as already posted; that
// identity-collision risk is accepted.
func Reconcile(current []domain.Finding, existing []domain.RemoteComment) Result {
	existingHashes := make(map[string]bool)
	for i := range existing {
		if existing[i].HasHash() {
			existingHashes[existing[i].Hash] = true
		}
	}

	currentHashes := make(map[string]bool, len(current))
	for i := range current {
		currentHashes[current[i].Hash] = true
	}

	var res Result
	for i := range current {
		if !existingHashes[current[i].Hash] {
			res.ToPost = append(res.ToPost, current[i])
		}
	}
	for i := range existing {
		if !existing[i].HasHash() {
			continue
		}
		if currentHashes[existing[i].Hash] {
			res.ToLeave = append(res.ToLeave, existing[i])
		} else {
			res.ToResolve = append(res.ToResolve, existing[i])
		}
	}
	return res
}

// HasBlocking reports whether any finding still to be posted is critical.
// This governs whether a session actively requests changes versus merely
// updating stale state.
func (r *Result) HasBlocking() bool {
	for i := range r.ToPost {
		if r.ToPost[i].IsBlocking() {
			return true
		}
	}
	return false
}
