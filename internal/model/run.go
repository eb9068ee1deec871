package model

import "time"

// RunKind identifies which command produced a stored run.
const (
	RunKindScreen = "screen"
	RunKindBatch  = "batch"
	RunKindServe  = "serve"
)

// RunSummary tallies a run's sites by status.
type RunSummary struct {
	Total   int `json:"total"`
	OK      int `json:"ok"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Run records one screening invocation. DatasetDigest fingerprints the
// reference catalog the run scored against, so stored results can be traced
// back to the exact dataset files that produced them.
type Run struct {
	ID            string     `json:"id"`
	Kind          string     `json:"kind"`
	CycleYear     int        `json:"cycle_year"`
	DatasetDigest string     `json:"dataset_digest,omitempty"`
	Summary       RunSummary `json:"summary"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    time.Time  `json:"finished_at"`
}
