package domain

import (
	"net/url"
	"strconv"
	"time"
)

// field renders an issue attribute in its wire form for comparison.
type field func(Issue) string

// filterFields is the closed set of attributes a listing can be narrowed by.
// Keys match the JSON names clients see on an issue.
var filterFields = map[string]field{
	"issue_title": func(i Issue) string { return i.IssueTitle },
	"issue_text":  func(i Issue) string { return i.IssueText },
	"created_on":  func(i Issue) string { return formatTime(i.CreatedOn) },
	"updated_on":  func(i Issue) string { return formatTime(i.UpdatedOn) },
	"created_by":  func(i Issue) string { return i.CreatedBy },
	"assigned_to": func(i Issue) string { return i.AssignedTo },
	"status_text": func(i Issue) string { return i.StatusText },
	"open":        func(i Issue) string { return strconv.FormatBool(i.Open) },
}

// Filter maps recognized attribute names to the value they must equal.
type Filter map[string]string

// ParseFilter keeps the first value of every recognized key in values and
// drops everything else.
func ParseFilter(values url.Values) Filter {
	f := Filter{}
	for key, vals := range values {
		if _, ok := filterFields[key]; !ok || len(vals) == 0 {
			continue
		}
		f[key] = vals[0]
	}
	return f
}

// Matches reports whether issue satisfies every constraint in f.
func (f Filter) Matches(issue Issue) bool {
	for key, want := range f {
		get, ok := filterFields[key]
		if !ok {
			continue
		}
		if get(issue) != want {
			return false
		}
	}
	return true
}

// Apply returns the matching issues in their original order. The result is
// never nil so it always encodes as a JSON array.
func (f Filter) Apply(issues []Issue) []Issue {
	out := make([]Issue, 0, len(issues))
	for _, issue := range issues {
		if f.Matches(issue) {
			out = append(out, issue)
		}
	}
	return out
}

// formatTime matches the encoding/json representation of time.Time.
func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}
