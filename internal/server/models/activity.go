package models

import "time"

type Action string

const (
	ActionCreated     Action = "created"
	ActionUpdated     Action = "updated"
	ActionDeleted     Action = "deleted"
	ActionClosed      Action = "closed"
	ActionReopened    Action = "reopened"
	ActionCommented   Action = "commented"
	ActionJoined      Action = "joined"
	ActionLeft        Action = "left"
	ActionRoleChanged Action = "role_changed"
)

type EntityType string

const (
	EntityProject    EntityType = "project"
	EntityIssue      EntityType = "issue"
	EntityComment    EntityType = "comment"
	EntityVersion    EntityType = "version"
	EntityAttachment EntityType = "attachment"
	EntityMember     EntityType = "member"
)

// Activity is one entry of a project's audit feed.
type Activity struct {
	ID          int64      `json:"id"`
	ProjectID   int64      `json:"project_id"`
	UserID      int64      `json:"user_id"`
	Action      Action     `json:"action"`
	EntityType  EntityType `json:"entity_type"`
	EntityID    int64      `json:"entity_id"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	UserEmail   string     `json:"user_email,omitempty"`
	UserName    string     `json:"user_name,omitempty"`
}

type ActivityStats struct {
	Total    int64            `json:"total"`
	ByType   map[string]int64 `json:"by_type"`
	ByAction map[string]int64 `json:"by_action"`
}

func (e EntityType) Valid() bool {
	switch e {
	case EntityProject, EntityIssue, EntityComment, EntityVersion, EntityAttachment, EntityMember:
		return true
	}
	return false
}
