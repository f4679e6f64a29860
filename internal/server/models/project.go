package models

import "time"

type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     int64     `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectWithRole is a project as seen by one of its members.
type ProjectWithRole struct {
	Project
	Role Role `json:"role"`
}

// Membership is the sole source of project-level authorization.
type Membership struct {
	ProjectID int64     `json:"project_id"`
	UserID    int64     `json:"user_id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Member is a membership joined with the user it belongs to.
type Member struct {
	Membership
	Email string `json:"email"`
	Name  string `json:"name"`
}
