package models

import "time"

type IssueType string

const (
	IssueBug         IssueType = "bug"
	IssueRequirement IssueType = "requirement"
	IssueTask        IssueType = "task"
)

func (t IssueType) Valid() bool {
	switch t {
	case IssueBug, IssueRequirement, IssueTask:
		return true
	}
	return false
}

type IssueStatus string

const (
	IssueOpen       IssueStatus = "open"
	IssueInProgress IssueStatus = "in_progress"
	IssueResolved   IssueStatus = "resolved"
	IssueClosed     IssueStatus = "closed"
)

func (s IssueStatus) Valid() bool {
	switch s {
	case IssueOpen, IssueInProgress, IssueResolved, IssueClosed:
		return true
	}
	return false
}

type IssuePriority string

const (
	PriorityLow      IssuePriority = "low"
	PriorityMedium   IssuePriority = "medium"
	PriorityHigh     IssuePriority = "high"
	PriorityCritical IssuePriority = "critical"
)

func (p IssuePriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

type Issue struct {
	ID          int64         `json:"id"`
	ProjectID   int64         `json:"project_id"`
	Type        IssueType     `json:"type"`
	Title       string        `json:"title"`
	Status      IssueStatus   `json:"status"`
	Priority    IssuePriority `json:"priority"`
	Version     *string       `json:"version,omitempty"`
	Assignee    *string       `json:"assignee,omitempty"`
	Description string        `json:"description"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// IssueFilter narrows an issue listing. Empty fields match everything.
type IssueFilter struct {
	Type     IssueType
	Status   IssueStatus
	Priority IssuePriority
	Version  string
	Limit    int
	Offset   int
}

// IssuePatch carries a partial update. Nil fields are left unchanged.
type IssuePatch struct {
	Type        *IssueType     `json:"type"`
	Title       *string        `json:"title"`
	Status      *IssueStatus   `json:"status"`
	Priority    *IssuePriority `json:"priority"`
	Version     *string        `json:"version"`
	Assignee    *string        `json:"assignee"`
	Description *string        `json:"description"`
}

// Empty reports whether the patch changes nothing.
func (p IssuePatch) Empty() bool {
	return p.Type == nil && p.Title == nil && p.Status == nil && p.Priority == nil &&
		p.Version == nil && p.Assignee == nil && p.Description == nil
}

type Comment struct {
	ID        int64     `json:"id"`
	IssueID   int64     `json:"issue_id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
