package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/GoSim-25-26J-441/issue-tracker/internal/issues/domain"
)

type createIssueReq struct {
	IssueTitle string `form:"issue_title" json:"issue_title"`
	IssueText  string `form:"issue_text" json:"issue_text"`
	CreatedBy  string `form:"created_by" json:"created_by"`
	AssignedTo string `form:"assigned_to" json:"assigned_to"`
	StatusText string `form:"status_text" json:"status_text"`
}

func (r createIssueReq) toInput() domain.CreateIssueInput {
	return domain.CreateIssueInput{
		IssueTitle: r.IssueTitle,
		IssueText:  r.IssueText,
		CreatedBy:  r.CreatedBy,
		AssignedTo: r.AssignedTo,
		StatusText: r.StatusText,
	}
}

type updateIssueReq struct {
	ID         string       `form:"_id" json:"_id"`
	IssueTitle string       `form:"issue_title" json:"issue_title"`
	IssueText  string       `form:"issue_text" json:"issue_text"`
	CreatedBy  string       `form:"created_by" json:"created_by"`
	AssignedTo string       `form:"assigned_to" json:"assigned_to"`
	StatusText string       `form:"status_text" json:"status_text"`
	Open       optionalBool `form:"open" json:"open"`
}

func (r updateIssueReq) toInput() domain.UpdateIssueInput {
	return domain.UpdateIssueInput{
		IssueTitle: r.IssueTitle,
		IssueText:  r.IssueText,
		CreatedBy:  r.CreatedBy,
		AssignedTo: r.AssignedTo,
		StatusText: r.StatusText,
		Open:       r.Open.ptr(),
	}
}

type deleteIssueReq struct {
	ID string `form:"_id" json:"_id"`
}

// optionalBool distinguishes an omitted flag from an explicit false. It
// accepts JSON booleans as well as "true"/"false" strings from JSON or
// form bodies; null and "" count as omitted.
type optionalBool struct {
	set   bool
	value bool
}

func (b *optionalBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*b = optionalBool{}
		return nil
	}

	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		*b = optionalBool{set: true, value: v}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("open must be a boolean")
	}
	return b.UnmarshalParam(s)
}

// UnmarshalParam implements gin's binding.BindUnmarshaler for form values.
func (b *optionalBool) UnmarshalParam(param string) error {
	param = strings.TrimSpace(param)
	if param == "" {
		*b = optionalBool{}
		return nil
	}
	v, err := strconv.ParseBool(param)
	if err != nil {
		return fmt.Errorf("open must be true or false, got %q", param)
	}
	*b = optionalBool{set: true, value: v}
	return nil
}

func (b optionalBool) ptr() *bool {
	if !b.set {
		return nil
	}
	v := b.value
	return &v
}
