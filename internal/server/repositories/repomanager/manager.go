package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/goproj/internal/dbx"
	"github.com/dmitrijs2005/goproj/internal/server/repositories/activities"
	"github.com/dmitrijs2005/goproj/internal/server/repositories/attachments"
	"github.com/dmitrijs2005/goproj/internal/server/repositories/comments"
	"github.com/dmitrijs2005/goproj/internal/server/repositories/issues"
	"github.com/dmitrijs2005/goproj/internal/server/repositories/members"
	"github.com/dmitrijs2005/goproj/internal/server/repositories/projects"
	"github.com/dmitrijs2005/goproj/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/goproj/internal/server/repositories/users"
	"github.com/dmitrijs2005/goproj/internal/server/repositories/versions"
)

// RepositoryManager vends repositories bound to a DBTX so services can use
// the same code inside and outside transactions.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Projects(db dbx.DBTX) projects.Repository
	Members(db dbx.DBTX) members.Repository
	Issues(db dbx.DBTX) issues.Repository
	Comments(db dbx.DBTX) comments.Repository
	Versions(db dbx.DBTX) versions.Repository
	Attachments(db dbx.DBTX) attachments.Repository
	Activities(db dbx.DBTX) activities.Repository
}
