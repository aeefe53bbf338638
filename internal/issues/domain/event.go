package domain

import "time"

// Issue event types published after a successful mutation.
const (
	EventIssueCreated = "issue.created"
	EventIssueUpdated = "issue.updated"
	EventIssueDeleted = "issue.deleted"
)

// IssueEvent describes a committed change to a project's issue list.
type IssueEvent struct {
	Type    string    `json:"type"`
	Project string    `json:"project"`
	IssueID string    `json:"issue_id"`
	Issue   *Issue    `json:"issue,omitempty"`
	At      time.Time `json:"at"`
}
