package domain

import (
	"errors"
	"time"
)

var ErrCampaignNotFound = errors.New("campaign not found")

type CampaignStatus string

const (
	CampaignPending    CampaignStatus = "pending"
	CampaignPublishing CampaignStatus = "publishing"
	CampaignCompleted  CampaignStatus = "completed"
)

type Campaign struct {
	ID          string
	Keyword     string
	AnchorText  string
	TargetURL   string
	Status      CampaignStatus
	CreatedAt   time.Time
	CompletedAt *time.Time
}

type CompletionState string

const (
	StateIncomplete CompletionState = "incomplete"
	StateCompleted  CompletionState = "completed"
)

// CompletionReport is recomputed from link records on every evaluation.
type CompletionReport struct {
	CampaignID string
	State      CompletionState
	Satisfied  []string
	Missing    []string
	Err        error
}

func (r CompletionReport) Completed() bool {
	return r.State == StateCompleted
}
