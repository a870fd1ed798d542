package domain

import "time"

// BatchReport holds statistics about a batch adjustment run.
type BatchReport struct {
	Total     int
	Processed int
	Adjusted  int
	Skipped   int
	Failed    int
	Results   []BatchItemResult
	Duration  time.Duration
}

type BatchItemResult struct {
	ArtifactID string
	Result     AdjustmentResult
	Skipped    bool
	Err        error
}

// ScanReport summarizes quality across a set of artifacts without changing them.
type ScanReport struct {
	Total           int
	Bands           map[QualityBand]int
	Malformed       int
	NeedsAdjustment []string
	HighPriority    []string
}
