package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/dmitrijs2005/goproj/internal/common"
	"github.com/dmitrijs2005/goproj/internal/logging"
	"github.com/dmitrijs2005/goproj/internal/server/models"
	"github.com/dmitrijs2005/goproj/internal/server/repositories/repomanager"
)

const defaultIssueLimit = 50

type CreateIssueInput struct {
	Type        models.IssueType     `json:"type"`
	Title       string               `json:"title"`
	Status      models.IssueStatus   `json:"status"`
	Priority    models.IssuePriority `json:"priority"`
	Version     *string              `json:"version"`
	Assignee    *string              `json:"assignee"`
	Description string               `json:"description"`
}

type IssueService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	activity    *ActivityService
	log         logging.Logger
}

func NewIssueService(db *sql.DB, m repomanager.RepositoryManager, activity *ActivityService, log logging.Logger) *IssueService {
	return &IssueService{db: db, repomanager: m, activity: activity, log: log}
}

func (s *IssueService) List(ctx context.Context, projectID int64, f models.IssueFilter) ([]models.Issue, error) {
	if f.Type != "" && !f.Type.Valid() {
		return nil, common.NewValidationError("invalid issue type")
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, common.NewValidationError("invalid issue status")
	}
	if f.Priority != "" && !f.Priority.Valid() {
		return nil, common.NewValidationError("invalid issue priority")
	}
	f.Limit, f.Offset = normalizePage(f.Limit, f.Offset, defaultIssueLimit)

	list, err := s.repomanager.Issues(s.db).List(ctx, projectID, f)
	if err != nil {
		return nil, s.internal(ctx, "list issues", err)
	}
	return list, nil
}

func (s *IssueService) Get(ctx context.Context, projectID, issueID int64) (*models.Issue, error) {
	issue, err := s.repomanager.Issues(s.db).Get(ctx, projectID, issueID)
	if err != nil {
		return nil, s.mapErr(ctx, "get issue", err)
	}
	return issue, nil
}

// Create adds an issue. Status defaults to open and priority to medium.
func (s *IssueService) Create(ctx context.Context, projectID, userID int64, in CreateIssueInput) (*models.Issue, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, common.NewValidationError("issue title is required")
	}
	if !in.Type.Valid() {
		return nil, common.NewValidationError("invalid issue type")
	}
	if in.Status == "" {
		in.Status = models.IssueOpen
	}
	if !in.Status.Valid() {
		return nil, common.NewValidationError("invalid issue status")
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if !in.Priority.Valid() {
		return nil, common.NewValidationError("invalid issue priority")
	}

	issue, err := s.repomanager.Issues(s.db).Create(ctx, &models.Issue{
		ProjectID:   projectID,
		Type:        in.Type,
		Title:       title,
		Status:      in.Status,
		Priority:    in.Priority,
		Version:     blankToNil(in.Version),
		Assignee:    blankToNil(in.Assignee),
		Description: in.Description,
	})
	if err != nil {
		return nil, s.internal(ctx, "create issue", err)
	}

	s.activity.Record(ctx, projectID, userID, models.ActionCreated, models.EntityIssue, issue.ID, issue.Title)
	return issue, nil
}

// Update applies a partial change. A transition into closed is recorded as
// closed, a transition out of it as reopened.
func (s *IssueService) Update(ctx context.Context, projectID, issueID, userID int64, patch models.IssuePatch) (*models.Issue, error) {
	if patch.Title != nil {
		t := strings.TrimSpace(*patch.Title)
		if t == "" {
			return nil, common.NewValidationError("issue title cannot be empty")
		}
		patch.Title = &t
	}
	if patch.Type != nil && !patch.Type.Valid() {
		return nil, common.NewValidationError("invalid issue type")
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, common.NewValidationError("invalid issue status")
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return nil, common.NewValidationError("invalid issue priority")
	}

	repo := s.repomanager.Issues(s.db)
	before, err := repo.Get(ctx, projectID, issueID)
	if err != nil {
		return nil, s.mapErr(ctx, "get issue", err)
	}

	issue, err := repo.Update(ctx, projectID, issueID, patch)
	if err != nil {
		return nil, s.mapErr(ctx, "update issue", err)
	}

	action := models.ActionUpdated
	switch {
	case before.Status != models.IssueClosed && issue.Status == models.IssueClosed:
		action = models.ActionClosed
	case before.Status == models.IssueClosed && issue.Status != models.IssueClosed:
		action = models.ActionReopened
	}
	s.activity.Record(ctx, projectID, userID, action, models.EntityIssue, issue.ID, issue.Title)
	return issue, nil
}

func (s *IssueService) Delete(ctx context.Context, projectID, issueID, userID int64) error {
	repo := s.repomanager.Issues(s.db)
	issue, err := repo.Get(ctx, projectID, issueID)
	if err != nil {
		return s.mapErr(ctx, "get issue", err)
	}
	if err := repo.Delete(ctx, projectID, issueID); err != nil {
		return s.mapErr(ctx, "delete issue", err)
	}
	s.activity.Record(ctx, projectID, userID, models.ActionDeleted, models.EntityIssue, issueID, issue.Title)
	return nil
}

func (s *IssueService) Comments(ctx context.Context, projectID, issueID int64) ([]models.Comment, error) {
	if _, err := s.Get(ctx, projectID, issueID); err != nil {
		return nil, err
	}
	list, err := s.repomanager.Comments(s.db).ListByIssue(ctx, issueID)
	if err != nil {
		return nil, s.internal(ctx, "list comments", err)
	}
	return list, nil
}

// AddComment posts content on an issue under author's display name.
func (s *IssueService) AddComment(ctx context.Context, projectID, issueID int64, author *models.User, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, common.NewValidationError("comment content is required")
	}
	issue, err := s.Get(ctx, projectID, issueID)
	if err != nil {
		return nil, err
	}

	c, err := s.repomanager.Comments(s.db).Create(ctx, &models.Comment{
		IssueID: issueID,
		Author:  author.Name,
		Content: content,
	})
	if err != nil {
		return nil, s.internal(ctx, "create comment", err)
	}
	s.activity.Record(ctx, projectID, author.ID, models.ActionCommented, models.EntityIssue, issueID, issue.Title)
	return c, nil
}

func (s *IssueService) mapErr(ctx context.Context, op string, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrorNotFound
	}
	return s.internal(ctx, op, err)
}

func (s *IssueService) internal(ctx context.Context, op string, err error) error {
	s.log.Error(ctx, op+" failed", "error", err)
	return common.ErrorInternal
}

func blankToNil(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
