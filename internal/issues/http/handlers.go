package http

import (
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/GoSim-25-26J-441/issue-tracker/internal/issues/domain"
	"github.com/GoSim-25-26J-441/issue-tracker/internal/issues/service"
)

// User-facing failures are answered with 200 and one of these plain-text
// bodies; existing clients match on the exact strings.
const (
	msgListMissingProject  = "Please enter a project name."
	msgMissingProject      = "Please provide a project name."
	msgMissingFields       = "issue title, text, and created_by fields are required."
	msgUpdateMissingID     = "_id field is required."
	msgUpdateNotFound      = "The issue _id provided does not match an existing project issue."
	msgDeleteMissingID     = "Please provide an issue _id"
	msgDeleteNotFound      = "The issue _id does not match an exist project issue."
	msgInvalidRequestBody  = "invalid request body"
	msgInternalServerError = "internal server error"
)

// Handler bundles the dependencies for the issue endpoints.
type Handler struct {
	svc *service.IssueService
}

func New(svc *service.IssueService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) list(c *gin.Context) {
	project := c.Param("project")
	if project == "" {
		c.String(http.StatusOK, msgListMissingProject)
		return
	}

	filter := domain.ParseFilter(c.Request.URL.Query())
	issues, err := h.svc.ListIssues(c.Request.Context(), project, filter)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, issues)
}

func (h *Handler) create(c *gin.Context) {
	project := c.Param("project")
	if project == "" {
		c.String(http.StatusOK, msgMissingProject)
		return
	}

	var req createIssueReq
	if err := bindBody(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidRequestBody})
		return
	}

	issue, err := h.svc.CreateIssue(c.Request.Context(), project, req.toInput())
	if err != nil {
		h.respondError(c, err, map[error]string{
			domain.ErrMissingRequiredFields: msgMissingFields,
		})
		return
	}

	c.JSON(http.StatusOK, issue)
}

func (h *Handler) update(c *gin.Context) {
	project := c.Param("project")
	if project == "" {
		c.String(http.StatusOK, msgMissingProject)
		return
	}

	var req updateIssueReq
	if err := bindBody(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidRequestBody})
		return
	}

	issue, err := h.svc.UpdateIssue(c.Request.Context(), project, req.ID, req.toInput())
	if err != nil {
		h.respondError(c, err, map[error]string{
			domain.ErrMissingIdentifier: msgUpdateMissingID,
			domain.ErrIssueNotFound:     msgUpdateNotFound,
		})
		return
	}

	c.JSON(http.StatusOK, issue)
}

func (h *Handler) delete(c *gin.Context) {
	project := c.Param("project")
	if project == "" {
		c.String(http.StatusOK, msgMissingProject)
		return
	}

	var req deleteIssueReq
	if err := bindBody(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidRequestBody})
		return
	}

	res, err := h.svc.DeleteIssue(c.Request.Context(), project, req.ID)
	if err != nil {
		h.respondError(c, err, map[error]string{
			domain.ErrMissingIdentifier: msgDeleteMissingID,
			domain.ErrIssueNotFound:     msgDeleteNotFound,
		})
		return
	}

	c.JSON(http.StatusOK, res)
}

// respondError answers known domain errors with their plain-text message
// and anything else (store failures) with a 500.
func (h *Handler) respondError(c *gin.Context, err error, messages map[error]string) {
	for target, msg := range messages {
		if errors.Is(err, target) {
			c.String(http.StatusOK, msg)
			return
		}
	}
	if errors.Is(err, domain.ErrMissingProjectName) {
		c.String(http.StatusOK, msgMissingProject)
		return
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternalServerError})
}

// bindBody binds a JSON or form body. An empty body binds to the zero
// value. net/http only parses form bodies for POST, PUT and PATCH, so
// DELETE form bodies are decoded here.
func bindBody(c *gin.Context, obj any) error {
	if c.Request.Method == http.MethodDelete && c.ContentType() == binding.MIMEPOSTForm {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return err
		}
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return err
		}
		return binding.MapFormWithTag(obj, values, "form")
	}

	if err := c.ShouldBind(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
