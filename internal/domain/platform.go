package domain

import "time"

// ContentFormat is the structural format a destination accepts.
type ContentFormat string

const (
	FormatNodes    ContentFormat = "nodes"
	FormatMarkdown ContentFormat = "markdown"
	FormatHTML     ContentFormat = "html"
)

// PlatformDescriptor is an immutable catalog entry for a publishing destination.
type PlatformDescriptor struct {
	ID       string
	Name     string
	Active   bool
	Priority int
	Format   ContentFormat
	Aliases  []string
}

type LinkStatus string

const (
	LinkActive  LinkStatus = "active"
	LinkRemoved LinkStatus = "removed"
	LinkFailed  LinkStatus = "failed"
)

func (s LinkStatus) Valid() bool {
	switch s {
	case LinkActive, LinkRemoved, LinkFailed:
		return true
	}
	return false
}

// PublishedLinkRecord is the outcome of one publish attempt. Several records
// may exist for the same campaign and platform.
type PublishedLinkRecord struct {
	ID          int64
	CampaignID  string
	Platform    string
	URL         string
	Title       string
	Status      LinkStatus
	PublishedAt time.Time
}
