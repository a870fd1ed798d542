package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content_publisher/internal/domain"
)

func record(platform string, status domain.LinkStatus) domain.PublishedLinkRecord {
	return domain.PublishedLinkRecord{CampaignID: "c1", Platform: platform, Status: status}
}

func TestEvaluate_OnlyOnePlatformPublished(t *testing.T) {
	r := NewRegistry(catalog())

	report := r.Evaluate("c1", []domain.PublishedLinkRecord{record("telegraph", domain.LinkActive)})

	assert.Equal(t, domain.StateIncomplete, report.State)
	assert.Equal(t, []string{"telegraph"}, report.Satisfied)
	assert.Equal(t, []string{"writeas"}, report.Missing)
}

func TestEvaluate_PunctuationVariantSatisfies(t *testing.T) {
	r := NewRegistry(catalog())

	report := r.Evaluate("c1", []domain.PublishedLinkRecord{
		record("telegraph", domain.LinkActive),
		record("write.as", domain.LinkActive),
	})

	assert.Equal(t, domain.StateCompleted, report.State)
	assert.Empty(t, report.Missing)
}

func TestEvaluate_NoActivePlatformsIsVacuouslyComplete(t *testing.T) {
	r := NewRegistry([]domain.PlatformDescriptor{{ID: "medium", Active: false}})

	assert.True(t, r.Evaluate("c1", nil).Completed())
	assert.True(t, Evaluate("c2", nil, []domain.PublishedLinkRecord{record("x", domain.LinkFailed)}, nil).Completed())
}

func TestEvaluate_InactiveRecordsDoNotSatisfy(t *testing.T) {
	r := NewRegistry(catalog())

	report := r.Evaluate("c1", []domain.PublishedLinkRecord{
		record("telegraph", domain.LinkActive),
		record("writeas", domain.LinkFailed),
		record("writeas", domain.LinkRemoved),
	})

	assert.Equal(t, domain.StateIncomplete, report.State)
	assert.Equal(t, []string{"writeas"}, report.Missing)
}

func TestEvaluate_DuplicatesCountOnce(t *testing.T) {
	r := NewRegistry(catalog())

	report := r.Evaluate("c1", []domain.PublishedLinkRecord{
		record("telegraph", domain.LinkActive),
		record("telegraph", domain.LinkActive),
		record("writeas", domain.LinkFailed),
		record("writeas", domain.LinkActive),
	})

	assert.True(t, report.Completed())
	assert.Equal(t, []string{"telegraph", "writeas"}, report.Satisfied)
}

func TestEvaluate_OrderIndependentAndMonotonic(t *testing.T) {
	r := NewRegistry(catalog())
	records := []domain.PublishedLinkRecord{
		record("writeas", domain.LinkActive),
		record("medium", domain.LinkActive),
		record("telegraph", domain.LinkFailed),
		record("Telegraph.ph", domain.LinkActive),
	}

	var reversed []domain.PublishedLinkRecord
	for i := len(records) - 1; i >= 0; i-- {
		reversed = append(reversed, records[i])
	}
	require.Equal(t, r.Evaluate("c1", records).State, r.Evaluate("c1", reversed).State)

	var seen []domain.PublishedLinkRecord
	completed := false
	for _, rec := range records {
		seen = append(seen, rec)
		now := r.Evaluate("c1", seen).Completed()
		if completed {
			assert.True(t, now, "completion flipped back after adding %s", rec.Platform)
		}
		completed = now
	}
	assert.True(t, completed)

	seen = append(seen, record("writeas", domain.LinkActive), record("devto", domain.LinkActive))
	assert.True(t, r.Evaluate("c1", seen).Completed())
}

func TestNextPlatform_RoundRobin(t *testing.T) {
	r := NewRegistry(catalog())

	p, err := r.NextPlatform(nil)
	require.NoError(t, err)
	assert.Equal(t, "telegraph", p.ID)

	p, err = r.NextPlatform([]domain.PublishedLinkRecord{record("telegra.ph", domain.LinkActive)})
	require.NoError(t, err)
	assert.Equal(t, "writeas", p.ID)

	p, err = r.NextPlatform([]domain.PublishedLinkRecord{
		record("telegraph", domain.LinkActive),
		record("write.as", domain.LinkFailed),
	})
	require.NoError(t, err)
	assert.Equal(t, "telegraph", p.ID)
}

func TestNextPlatform_RemovedRecordsIgnored(t *testing.T) {
	r := NewRegistry(catalog())

	p, err := r.NextPlatform([]domain.PublishedLinkRecord{record("telegraph", domain.LinkRemoved)})
	require.NoError(t, err)
	assert.Equal(t, "telegraph", p.ID)
}

func TestNextPlatform_NoActive(t *testing.T) {
	_, err := NextPlatform(nil, nil, nil)
	assert.ErrorIs(t, err, ErrNoActivePlatforms)
}
