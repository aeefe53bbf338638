package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/issue-tracker/internal/issues/domain"
	"github.com/GoSim-25-26J-441/issue-tracker/internal/logging"
)

// IssueService implements project resolution and the issue operations on
// top of a ProjectStore. Every mutation is a read-modify-write of the whole
// project document; concurrent writers to one project are last-writer-wins.
type IssueService struct {
	store     ProjectStore
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewIssueService creates a service that does not publish events.
func NewIssueService(store ProjectStore, logger *zap.Logger) *IssueService {
	return NewIssueServiceWithEvents(store, nil, logger)
}

// NewIssueServiceWithEvents creates a service that publishes an IssueEvent
// after each successful create, update and delete.
func NewIssueServiceWithEvents(store ProjectStore, publisher EventPublisher, logger *zap.Logger) *IssueService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IssueService{
		store:     store,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// GetOrCreateProject resolves a project by exact title, creating an empty
// one on first reference.
func (s *IssueService) GetOrCreateProject(ctx context.Context, name string) (*domain.Project, error) {
	if name == "" {
		return nil, domain.ErrMissingProjectName
	}
	project, err := s.store.GetOrCreate(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("resolve project %q: %w", name, err)
	}
	return project, nil
}

// CreateIssue validates the input, appends a new open issue to the project
// and persists it.
func (s *IssueService) CreateIssue(ctx context.Context, projectName string, in domain.CreateIssueInput) (*domain.Issue, error) {
	const op = "create"

	if projectName == "" {
		recordOperation(op, outcomeRejected)
		return nil, domain.ErrMissingProjectName
	}
	if !in.Valid() {
		recordOperation(op, outcomeRejected)
		return nil, domain.ErrMissingRequiredFields
	}

	project, err := s.GetOrCreateProject(ctx, projectName)
	if err != nil {
		return nil, s.fail(ctx, op, projectName, err)
	}

	now := s.timestamp()
	issue := domain.Issue{
		ID:         domain.NewIssueID(),
		IssueTitle: in.IssueTitle,
		IssueText:  in.IssueText,
		CreatedOn:  now,
		UpdatedOn:  now,
		CreatedBy:  in.CreatedBy,
		AssignedTo: in.AssignedTo,
		StatusText: in.StatusText,
		Open:       true,
	}
	project.Issues = append(project.Issues, issue)

	if err := s.store.Save(ctx, project); err != nil {
		return nil, s.fail(ctx, op, projectName, fmt.Errorf("save project: %w", err))
	}

	recordOperation(op, outcomeOK)
	s.publish(ctx, domain.EventIssueCreated, projectName, issue.ID, &issue)
	return &issue, nil
}

// ListIssues returns the project's issues narrowed by filter, in insertion
// order. Listing an unknown project creates it and returns an empty list.
func (s *IssueService) ListIssues(ctx context.Context, projectName string, filter domain.Filter) ([]domain.Issue, error) {
	const op = "list"

	project, err := s.GetOrCreateProject(ctx, projectName)
	if err != nil {
		if errors.Is(err, domain.ErrMissingProjectName) {
			recordOperation(op, outcomeRejected)
			return nil, err
		}
		return nil, s.fail(ctx, op, projectName, err)
	}

	recordOperation(op, outcomeOK)
	return filter.Apply(project.Issues), nil
}

// UpdateIssue merges the supplied fields into the issue with the given id
// and persists the project.
func (s *IssueService) UpdateIssue(ctx context.Context, projectName, id string, in domain.UpdateIssueInput) (*domain.Issue, error) {
	const op = "update"

	if projectName == "" {
		recordOperation(op, outcomeRejected)
		return nil, domain.ErrMissingProjectName
	}
	if id == "" {
		recordOperation(op, outcomeRejected)
		return nil, domain.ErrMissingIdentifier
	}

	project, err := s.GetOrCreateProject(ctx, projectName)
	if err != nil {
		return nil, s.fail(ctx, op, projectName, err)
	}

	idx := project.IndexOf(id)
	if idx < 0 {
		recordOperation(op, outcomeRejected)
		return nil, domain.ErrIssueNotFound
	}

	merged := in.Merge(project.Issues[idx], s.timestamp())
	project.Issues[idx] = merged

	if err := s.store.Save(ctx, project); err != nil {
		return nil, s.fail(ctx, op, projectName, fmt.Errorf("save project: %w", err))
	}

	recordOperation(op, outcomeOK)
	s.publish(ctx, domain.EventIssueUpdated, projectName, id, &merged)
	return &merged, nil
}

// DeleteIssue removes the issue with the given id, keeping the order of the
// remaining issues.
func (s *IssueService) DeleteIssue(ctx context.Context, projectName, id string) (*domain.DeleteResult, error) {
	const op = "delete"

	if projectName == "" {
		recordOperation(op, outcomeRejected)
		return nil, domain.ErrMissingProjectName
	}
	if id == "" {
		recordOperation(op, outcomeRejected)
		return nil, domain.ErrMissingIdentifier
	}

	project, err := s.GetOrCreateProject(ctx, projectName)
	if err != nil {
		return nil, s.fail(ctx, op, projectName, err)
	}

	idx := project.IndexOf(id)
	if idx < 0 {
		recordOperation(op, outcomeRejected)
		return nil, domain.ErrIssueNotFound
	}
	project.Issues = slices.Delete(project.Issues, idx, idx+1)

	if err := s.store.Save(ctx, project); err != nil {
		return nil, s.fail(ctx, op, projectName, fmt.Errorf("save project: %w", err))
	}

	recordOperation(op, outcomeOK)
	s.publish(ctx, domain.EventIssueDeleted, projectName, id, nil)
	return &domain.DeleteResult{Result: domain.DeleteResultMessage, ID: id}, nil
}

// PruneEmptyProjects removes projects that hold no issues and have not been
// written for at least minAge.
func (s *IssueService) PruneEmptyProjects(ctx context.Context, minAge time.Duration) (int, error) {
	cutoff := s.now().Add(-minAge)
	n, err := s.store.PruneEmpty(ctx, cutoff)
	if err != nil {
		return 0, s.fail(ctx, "prune", "", err)
	}
	s.logger.Info("pruned empty projects", append(logging.ContextFields(ctx),
		zap.Int("removed", n),
		zap.Time("cutoff", cutoff),
	)...)
	return n, nil
}

// timestamp reads the clock at the precision every store can round-trip.
func (s *IssueService) timestamp() time.Time {
	return domain.Timestamp(s.now())
}

func (s *IssueService) fail(ctx context.Context, op, project string, err error) error {
	recordOperation(op, outcomeError)
	s.logger.Error("issue operation failed", append(logging.ContextFields(ctx),
		zap.String("operation", op),
		zap.String("project", project),
		zap.Error(err),
	)...)
	return err
}

func (s *IssueService) publish(ctx context.Context, eventType, project, issueID string, issue *domain.Issue) {
	event := domain.IssueEvent{
		Type:    eventType,
		Project: project,
		IssueID: issueID,
		Issue:   issue,
		At:      s.timestamp(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish issue event failed", append(logging.ContextFields(ctx),
			zap.String("type", eventType),
			zap.String("project", project),
			zap.Error(err),
		)...)
	}
}
