package domain

type QualityBand string

const (
	BandExcellent QualityBand = "excellent"
	BandGood      QualityBand = "good"
	BandPoor      QualityBand = "poor"
	BandCritical  QualityBand = "critical"
)

// QualityMetrics is derived from content on demand and never stored.
type QualityMetrics struct {
	Score                int
	Issues               []string
	Warnings             []string
	HasMalformedPatterns bool
	WordCount            int
}

func (m QualityMetrics) Band() QualityBand {
	switch {
	case m.Score >= 80:
		return BandExcellent
	case m.Score >= 60:
		return BandGood
	case m.Score >= 40:
		return BandPoor
	default:
		return BandCritical
	}
}

type ScoreDelta struct {
	Before int
	After  int
}

type AdjustmentResult struct {
	ArtifactID      string
	WasAdjusted     bool
	AdjustedContent string
	AdjustedTitle   string
	QualityScore    ScoreDelta
	Issues          []string
	Adjustments     []string
}
