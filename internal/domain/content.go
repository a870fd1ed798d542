package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidArtifact  = errors.New("invalid content artifact")
	ErrArtifactNotFound = errors.New("content artifact not found")
)

type ContentStatus string

const (
	ContentDraft     ContentStatus = "draft"
	ContentPublished ContentStatus = "published"
	ContentFailed    ContentStatus = "failed"
)

type ContentArtifact struct {
	ID          string
	CampaignID  string
	Title       string
	Body        string
	TargetURL   string
	AnchorText  string
	Status      ContentStatus
	PublishedAt *time.Time
	UpdatedAt   time.Time
}

func (a ContentArtifact) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidArtifact)
	}
	return nil
}

// ContentFilter narrows a paginated artifact listing.
type ContentFilter struct {
	CampaignID string
	Statuses   []ContentStatus
	Limit      int
	Offset     int
}
