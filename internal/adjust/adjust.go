// Package adjust repairs stored content without ever lowering its quality
// score.
package adjust

import (
	"strings"

	"content_publisher/internal/content"
	"content_publisher/internal/domain"
	"content_publisher/internal/quality"
)

// Adjuster is the value form of Adjust for callers that take it as a
// dependency.
type Adjuster struct{}

func (Adjuster) Adjust(a domain.ContentArtifact) domain.AdjustmentResult {
	return Adjust(a)
}

// Adjust sanitizes the body, derives a title and rescores. A sanitized body
// that scores below the original is discarded, so QualityScore.After is
// never lower than QualityScore.Before. Nothing is persisted.
func Adjust(a domain.ContentArtifact) domain.AdjustmentResult {
	before := quality.Analyze(a.Body, a.TargetURL)

	body := content.SanitizeHTML(a.Body)
	var notes []string
	if body == "" && strings.TrimSpace(a.Body) != "" {
		body = a.Body
		notes = append(notes, "no structural repair possible")
	}

	after := quality.Analyze(body, a.TargetURL)
	if after.Score < before.Score {
		body, after = a.Body, before
		notes = append(notes, "sanitized body scored lower, kept original")
	}

	title := content.DeriveTitle(a.Title, body)
	if title == "" {
		title = a.Title
	}

	if body != a.Body {
		notes = append(notes, "normalized html")
		if before.HasMalformedPatterns && !after.HasMalformedPatterns {
			notes = append(notes, "repaired malformed markup")
		}
	}
	if title != a.Title {
		if strings.TrimSpace(a.Title) == "" {
			notes = append(notes, "derived title from content")
		} else {
			notes = append(notes, "normalized title")
		}
	}

	return domain.AdjustmentResult{
		ArtifactID:      a.ID,
		WasAdjusted:     body != a.Body || title != a.Title || after.Score > before.Score,
		AdjustedContent: body,
		AdjustedTitle:   title,
		QualityScore:    domain.ScoreDelta{Before: before.Score, After: after.Score},
		Issues:          after.Issues,
		Adjustments:     notes,
	}
}
