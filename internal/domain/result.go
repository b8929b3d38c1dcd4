package domain

import "fmt"

// EngineStatus is the terminal status reported by the analysis engine
type EngineStatus string

const (
	EngineCompleted EngineStatus = "completed"
	EngineSkipped   EngineStatus = "skipped"
	EngineFailed    EngineStatus = "failed"
)

// Valid reports whether the status is one the engine is allowed to emit
func (s EngineStatus) Valid() bool {
	return s == EngineCompleted || s == EngineSkipped || s == EngineFailed
}

// EngineMetadata carries accounting the engine reports alongside findings
type EngineMetadata struct {
	HeadCommit       string `json:"headCommit"`
	FilesReviewed    int    `json:"filesReviewed"`
	SkippedFiles     int    `json:"skippedFiles"`
	ReviewDurationMs int64  `json:"reviewDurationMs"`
}

// EngineResult is the structured output the engine must emit exactly once
type EngineResult struct {
	Status   EngineStatus   `json:"status"`
	Summary  string         `json:"summary"`
	Findings []Finding      `json:"findings"`
	Metadata EngineMetadata `json:"metadata"`
	Error    string         `json:"error,omitempty"`
}

// Validate checks the result against the engine output contract. Findings
// get their hash recomputed locally so identity never depends on the engine
// echoing it correctly.
func (r *EngineResult) Validate() error {
	if !r.Status.Valid() {
		return fmt.Errorf("invalid status %q", r.Status)
	}
	if r.Status == EngineFailed && r.Error == "" {
		return fmt.Errorf("failed result carries no error")
	}
	for i := range r.Findings {
		if err := r.Findings[i].Validate(); err != nil {
			return fmt.Errorf("finding %d: %w", i, err)
		}
		r.Findings[i].Hash = r.Findings[i].ComputeHash()
	}
	return nil
}

// CountBySeverity tallies the findings per severity level
func (r *EngineResult) CountBySeverity() map[Severity]int {
	counts := make(map[Severity]int)
	for i := range r.Findings {
		counts[r.Findings[i].Severity]++
	}
	return counts
}
