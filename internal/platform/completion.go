package platform

import (
	"errors"
	"strings"

	"content_publisher/internal/domain"
)

var ErrNoActivePlatforms = errors.New("no active platforms")

// CanonicalFunc maps a reported platform identifier onto a catalog ID.
type CanonicalFunc func(string) string

// Evaluate decides campaign completion from the active platforms and the
// campaign's link records. A platform is satisfied by at least one active
// record; record order does not matter. No active platforms means completed.
func Evaluate(campaignID string, active []domain.PlatformDescriptor, records []domain.PublishedLinkRecord, canon CanonicalFunc) domain.CompletionReport {
	if canon == nil {
		canon = defaultCanonical
	}

	published := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if rec.Status != domain.LinkActive {
			continue
		}
		published[canon(rec.Platform)] = struct{}{}
	}

	report := domain.CompletionReport{
		CampaignID: campaignID,
		State:      domain.StateCompleted,
	}
	for _, p := range active {
		if _, ok := published[canon(p.ID)]; ok {
			report.Satisfied = append(report.Satisfied, p.ID)
			continue
		}
		report.Missing = append(report.Missing, p.ID)
	}
	if len(report.Missing) > 0 {
		report.State = domain.StateIncomplete
	}

	return report
}

// Evaluate runs the package-level Evaluate against the registry's active set.
func (r *Registry) Evaluate(campaignID string, records []domain.PublishedLinkRecord) domain.CompletionReport {
	return Evaluate(campaignID, r.ListActive(), records, r.Canonicalize)
}

// NextPlatform picks the active platform with the fewest non-removed records
// for the campaign. Ties go to the higher priority (lower number).
func NextPlatform(active []domain.PlatformDescriptor, records []domain.PublishedLinkRecord, canon CanonicalFunc) (domain.PlatformDescriptor, error) {
	if len(active) == 0 {
		return domain.PlatformDescriptor{}, ErrNoActivePlatforms
	}
	if canon == nil {
		canon = defaultCanonical
	}

	counts := make(map[string]int, len(active))
	for _, rec := range records {
		if rec.Status == domain.LinkRemoved {
			continue
		}
		counts[canon(rec.Platform)]++
	}

	ordered := make([]domain.PlatformDescriptor, len(active))
	copy(ordered, active)
	sortByPriority(ordered)

	best := ordered[0]
	bestCount := counts[canon(best.ID)]
	for _, p := range ordered[1:] {
		if c := counts[canon(p.ID)]; c < bestCount {
			best, bestCount = p, c
		}
	}
	return best, nil
}

func (r *Registry) NextPlatform(records []domain.PublishedLinkRecord) (domain.PlatformDescriptor, error) {
	return NextPlatform(r.ListActive(), records, r.Canonicalize)
}

func defaultCanonical(s string) string {
	return stripPunct(strings.ToLower(strings.TrimSpace(s)))
}
