package domain

import "time"

// ExternalIssueLink is the persisted pointer from a local request to exactly
// one remote tracker issue. Created lazily on first successful sync and
// immutable afterwards; TrackerRef caches the numeric tracker id platforms
// like SourceHut require for every ticket operation.
type ExternalIssueLink struct {
	ID         string
	Dataspace  string
	RequestID  string
	Platform   string
	Repo       string
	IssueID    string
	BaseURL    string
	TrackerRef *int64
	CreatedAt  time.Time
}
