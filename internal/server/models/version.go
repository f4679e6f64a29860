package models

import "time"

type VersionStatus string

const (
	VersionPlanned    VersionStatus = "planned"
	VersionInProgress VersionStatus = "in_progress"
	VersionReleased   VersionStatus = "released"
)

func (s VersionStatus) Valid() bool {
	switch s {
	case VersionPlanned, VersionInProgress, VersionReleased:
		return true
	}
	return false
}

// Version is a release milestone. Names are unique within a project.
type Version struct {
	ProjectID   int64         `json:"project_id"`
	Name        string        `json:"name"`
	Status      VersionStatus `json:"status"`
	Description string        `json:"description"`
	CreatedAt   time.Time     `json:"created_at"`
	ReleasedAt  *time.Time    `json:"released_at,omitempty"`
}

type VersionPatch struct {
	Status      *VersionStatus `json:"status"`
	Description *string        `json:"description"`
	ReleasedAt  *time.Time     `json:"released_at"`
}

func (p VersionPatch) Empty() bool {
	return p.Status == nil && p.Description == nil && p.ReleasedAt == nil
}

// VersionStats summarizes the issues targeting a version.
type VersionStats struct {
	Version  Version          `json:"version"`
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
	ByType   map[string]int64 `json:"by_type"`
}
