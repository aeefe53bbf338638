package domain

import "errors"

var (
	ErrMissingProjectName    = errors.New("project name is required")
	ErrMissingRequiredFields = errors.New("issue title, text, and created_by fields are required")
	ErrMissingIdentifier     = errors.New("issue _id is required")
	ErrIssueNotFound         = errors.New("issue not found")
)
