package domain

import "time"

// TimestampPrecision is the resolution of issue timestamps. BSON datetimes
// hold milliseconds, so finer values would not survive a reload.
const TimestampPrecision = time.Millisecond

// Timestamp normalizes t to UTC at TimestampPrecision.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(TimestampPrecision)
}

// Issue is a single trackable unit of work. It is owned by exactly one
// Project and only ever stored embedded in that project's document.
type Issue struct {
	ID         string    `json:"_id" bson:"_id"`
	IssueTitle string    `json:"issue_title" bson:"issue_title"`
	IssueText  string    `json:"issue_text" bson:"issue_text"`
	CreatedOn  time.Time `json:"created_on" bson:"created_on"`
	UpdatedOn  time.Time `json:"updated_on" bson:"updated_on"`
	CreatedBy  string    `json:"created_by" bson:"created_by"`
	AssignedTo string    `json:"assigned_to" bson:"assigned_to"`
	StatusText string    `json:"status_text" bson:"status_text"`
	Open       bool      `json:"open" bson:"open"`
}

// Project is the persisted aggregate: a title and its issues in insertion order.
type Project struct {
	Title     string    `json:"title" bson:"project_title"`
	Issues    []Issue   `json:"issues" bson:"issues"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// NewProject returns an empty project stamped with now.
func NewProject(title string, now time.Time) *Project {
	return &Project{
		Title:     title,
		Issues:    []Issue{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IndexOf returns the position of the issue with the given id, or -1.
func (p *Project) IndexOf(id string) int {
	for i := range p.Issues {
		if p.Issues[i].ID == id {
			return i
		}
	}
	return -1
}

// CreateIssueInput carries the caller-supplied fields for a new issue.
type CreateIssueInput struct {
	IssueTitle string
	IssueText  string
	CreatedBy  string
	AssignedTo string
	StatusText string
}

// Valid reports whether all required fields are present.
func (in CreateIssueInput) Valid() bool {
	return in.IssueTitle != "" && in.IssueText != "" && in.CreatedBy != ""
}

// UpdateIssueInput carries a partial update. Empty strings mean "keep the
// stored value"; a nil Open means the caller did not supply it.
type UpdateIssueInput struct {
	IssueTitle string
	IssueText  string
	CreatedBy  string
	AssignedTo string
	StatusText string
	Open       *bool
}

// Merge applies the update on top of existing and stamps UpdatedOn.
// CreatedOn is never touched and UpdatedOn never precedes it.
func (in UpdateIssueInput) Merge(existing Issue, now time.Time) Issue {
	merged := existing
	merged.IssueTitle = pick(in.IssueTitle, existing.IssueTitle)
	merged.IssueText = pick(in.IssueText, existing.IssueText)
	merged.CreatedBy = pick(in.CreatedBy, existing.CreatedBy)
	merged.AssignedTo = pick(in.AssignedTo, existing.AssignedTo)
	merged.StatusText = pick(in.StatusText, existing.StatusText)
	if in.Open != nil {
		merged.Open = *in.Open
	}
	if now.Before(existing.CreatedOn) {
		now = existing.CreatedOn
	}
	merged.UpdatedOn = now
	return merged
}

func pick(supplied, current string) string {
	if supplied != "" {
		return supplied
	}
	return current
}

// DeleteResult is the confirmation returned after an issue is removed.
type DeleteResult struct {
	Result string `json:"result"`
	ID     string `json:"_id"`
}

const DeleteResultMessage = "successfully deleted"
