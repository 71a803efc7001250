// Package evaluation implements the multi-stage candidate evaluation:
// prompt composition, response interpretation and the orchestration that
// combines CV review, project review and a synthesized summary.
package evaluation

// CVResult is the outcome of the CV evaluation stage.
type CVResult struct {
	// MatchRate is the overall CV-to-role fit in [0, 1].
	MatchRate float64 `json:"match_rate"`
	Feedback  string  `json:"feedback"`
	// RawScores holds the per-parameter rubric scores as returned by the
	// model.
	RawScores map[string]float64 `json:"raw_scores"`
}

// ProjectResult is the outcome of the project report evaluation stage.
type ProjectResult struct {
	// ProjectScore is the overall project quality in [1, 5].
	ProjectScore float64            `json:"project_score"`
	Feedback     string             `json:"feedback"`
	RawScores    map[string]float64 `json:"raw_scores"`
}

// FinalResult aggregates both stage results with a synthesized summary.
// Every field is always populated, possibly with degraded defaults: the
// pipeline never hands an incomplete result to the job layer.
type FinalResult struct {
	CV      CVResult      `json:"cv"`
	Project ProjectResult `json:"project"`
	Summary string        `json:"summary"`
}
