// Package httpapi exposes the services over a JSON REST API routed with
// gorilla/mux. Authentication accepts a bearer token or the session cookie.
package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/goproj/internal/logging"
	"github.com/dmitrijs2005/goproj/internal/server/models"
	"github.com/dmitrijs2005/goproj/internal/server/services"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type AuthService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, in services.LoginInput) (*services.LoginResult, error)
	Resolve(ctx context.Context, token string) (*models.User, error)
	Logout(ctx context.Context, token string) error
	Refresh(ctx context.Context, token string) (*services.Session, error)
	PendingUsers(ctx context.Context, admin *models.User) ([]models.User, error)
	Approve(ctx context.Context, admin *models.User, userID int64) (*models.User, error)
}

type ProjectService interface {
	Authorize(ctx context.Context, projectID, userID int64, min models.Role) (models.Role, error)
	Create(ctx context.Context, userID int64, in services.CreateProjectInput) (*models.ProjectWithRole, error)
	ListForUser(ctx context.Context, userID int64) ([]models.ProjectWithRole, error)
	Get(ctx context.Context, projectID int64) (*models.Project, error)
	Update(ctx context.Context, projectID, userID int64, in services.UpdateProjectInput) (*models.Project, error)
	Delete(ctx context.Context, projectID, userID int64) error
	Members(ctx context.Context, projectID int64) ([]models.Member, error)
	AddMember(ctx context.Context, projectID, actorID int64, in services.AddMemberInput) (*models.Membership, error)
	ChangeRole(ctx context.Context, projectID, actorID, targetID int64, role models.Role) error
	RemoveMember(ctx context.Context, projectID, actorID, targetID int64) error
	TransferOwnership(ctx context.Context, projectID, actorID, targetID int64) error
}

type IssueService interface {
	List(ctx context.Context, projectID int64, f models.IssueFilter) ([]models.Issue, error)
	Get(ctx context.Context, projectID, issueID int64) (*models.Issue, error)
	Create(ctx context.Context, projectID, userID int64, in services.CreateIssueInput) (*models.Issue, error)
	Update(ctx context.Context, projectID, issueID, userID int64, patch models.IssuePatch) (*models.Issue, error)
	Delete(ctx context.Context, projectID, issueID, userID int64) error
	Comments(ctx context.Context, projectID, issueID int64) ([]models.Comment, error)
	AddComment(ctx context.Context, projectID, issueID int64, author *models.User, content string) (*models.Comment, error)
}

type VersionService interface {
	List(ctx context.Context, projectID int64) ([]models.Version, error)
	Get(ctx context.Context, projectID int64, name string) (*models.Version, error)
	Create(ctx context.Context, projectID, userID int64, in services.CreateVersionInput) (*models.Version, error)
	Update(ctx context.Context, projectID int64, name string, userID int64, patch models.VersionPatch) (*models.Version, error)
	Delete(ctx context.Context, projectID int64, name string, userID int64) error
	Stats(ctx context.Context, projectID int64, name string) (*models.VersionStats, error)
}

type AttachmentService interface {
	Create(ctx context.Context, projectID, issueID, userID int64, in services.CreateAttachmentInput) (*models.AttachmentUpload, error)
	List(ctx context.Context, projectID, issueID int64) ([]models.Attachment, error)
	DownloadURL(ctx context.Context, projectID, issueID, attachmentID int64) (string, error)
	Delete(ctx context.Context, projectID, issueID, attachmentID, userID int64) error
	Stats(ctx context.Context, projectID int64) (*models.StorageStats, error)
}

type ActivityService interface {
	ProjectFeed(ctx context.Context, projectID int64, limit, offset int) ([]models.Activity, error)
	EntityFeed(ctx context.Context, projectID int64, entity models.EntityType, entityID int64) ([]models.Activity, error)
	Recent(ctx context.Context, userID int64, limit int) ([]models.Activity, error)
	Stats(ctx context.Context, projectID int64) (*models.ActivityStats, error)
}

// Instrumentation is the metrics side of the API. It may be nil.
type Instrumentation interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
	ObserveLogin(result string)
}

type Options struct {
	Auth        AuthService
	Projects    ProjectService
	Issues      IssueService
	Versions    VersionService
	Attachments AttachmentService
	Activity    ActivityService
	Metrics     Instrumentation
	Logger      logging.Logger

	CORSOrigins  []string
	SecureCookie bool
	// Tracing wraps the router with otelhttp.
	Tracing bool
}

type Handler struct {
	auth        AuthService
	projects    ProjectService
	issues      IssueService
	versions    VersionService
	attachments AttachmentService
	activity    ActivityService
	metrics     Instrumentation
	log         logging.Logger

	corsOrigins  []string
	secureCookie bool
	tracing      bool
}

func NewHandler(o Options) *Handler {
	log := o.Logger
	if log == nil {
		log = logging.Nop{}
	}
	return &Handler{
		auth:         o.Auth,
		projects:     o.Projects,
		issues:       o.Issues,
		versions:     o.Versions,
		attachments:  o.Attachments,
		activity:     o.Activity,
		metrics:      o.Metrics,
		log:          log,
		corsOrigins:  o.CORSOrigins,
		secureCookie: o.SecureCookie,
		tracing:      o.Tracing,
	}
}

// Routes builds the full router with cross-cutting middleware applied.
func (h *Handler) Routes() http.Handler {
	r := mux.NewRouter()
	if h.metrics != nil {
		r.Use(h.metrics.Middleware)
		r.Handle("/metrics", h.metrics.Handler()).Methods(http.MethodGet)
	}
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/register", h.register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.login).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", h.logout).Methods(http.MethodPost)
	api.HandleFunc("/auth/refresh", h.refresh).Methods(http.MethodPost)

	authed := api.NewRoute().Subrouter()
	authed.Use(h.authenticate)
	authed.HandleFunc("/auth/me", h.me).Methods(http.MethodGet)
	authed.HandleFunc("/auth/pending", h.pendingUsers).Methods(http.MethodGet)
	authed.HandleFunc("/auth/users/{userId}/approve", h.approveUser).Methods(http.MethodPost)
	authed.HandleFunc("/activity/recent", h.recentActivity).Methods(http.MethodGet)

	authed.HandleFunc("/projects", h.listProjects).Methods(http.MethodGet)
	authed.HandleFunc("/projects", h.createProject).Methods(http.MethodPost)
	h.projectRoutes(authed)

	// logging and CORS sit outside the router so unmatched routes and
	// preflights are covered too
	handler := h.requestLogger(h.cors(r))
	if h.tracing {
		handler = otelhttp.NewHandler(handler, "goproj")
	}
	return handler
}

// projectRoutes registers every route scoped by the {id} project variable
// together with the minimum role it requires.
func (h *Handler) projectRoutes(r *mux.Router) {
	const p = "/projects/{id}"
	viewer, member, admin, owner := models.RoleViewer, models.RoleMember, models.RoleAdmin, models.RoleOwner

	r.Handle(p, h.requireRole(viewer, h.getProject)).Methods(http.MethodGet)
	r.Handle(p, h.requireRole(admin, h.updateProject)).Methods(http.MethodPut, http.MethodPatch)
	r.Handle(p, h.requireRole(owner, h.deleteProject)).Methods(http.MethodDelete)

	r.Handle(p+"/members", h.requireRole(viewer, h.listMembers)).Methods(http.MethodGet)
	r.Handle(p+"/members", h.requireRole(admin, h.addMember)).Methods(http.MethodPost)
	r.Handle(p+"/members/{userId}", h.requireRole(admin, h.changeMemberRole)).Methods(http.MethodPut, http.MethodPatch)
	r.Handle(p+"/members/{userId}", h.requireRole(viewer, h.removeMember)).Methods(http.MethodDelete)
	r.Handle(p+"/leave", h.requireRole(viewer, h.leaveProject)).Methods(http.MethodPost)
	r.Handle(p+"/transfer", h.requireRole(owner, h.transferOwnership)).Methods(http.MethodPost)

	r.Handle(p+"/issues", h.requireRole(viewer, h.listIssues)).Methods(http.MethodGet)
	r.Handle(p+"/issues", h.requireRole(member, h.createIssue)).Methods(http.MethodPost)
	r.Handle(p+"/issues/{issueId}", h.requireRole(viewer, h.getIssue)).Methods(http.MethodGet)
	r.Handle(p+"/issues/{issueId}", h.requireRole(member, h.updateIssue)).Methods(http.MethodPut, http.MethodPatch)
	r.Handle(p+"/issues/{issueId}", h.requireRole(admin, h.deleteIssue)).Methods(http.MethodDelete)
	r.Handle(p+"/issues/{issueId}/comments", h.requireRole(viewer, h.listComments)).Methods(http.MethodGet)
	r.Handle(p+"/issues/{issueId}/comments", h.requireRole(member, h.addComment)).Methods(http.MethodPost)

	r.Handle(p+"/issues/{issueId}/attachments", h.requireRole(viewer, h.listAttachments)).Methods(http.MethodGet)
	r.Handle(p+"/issues/{issueId}/attachments", h.requireRole(member, h.createAttachment)).Methods(http.MethodPost)
	r.Handle(p+"/issues/{issueId}/attachments/{attachmentId}/download", h.requireRole(viewer, h.downloadAttachment)).Methods(http.MethodGet)
	r.Handle(p+"/issues/{issueId}/attachments/{attachmentId}", h.requireRole(member, h.deleteAttachment)).Methods(http.MethodDelete)
	r.Handle(p+"/storage", h.requireRole(viewer, h.storageStats)).Methods(http.MethodGet)

	r.Handle(p+"/versions", h.requireRole(viewer, h.listVersions)).Methods(http.MethodGet)
	r.Handle(p+"/versions", h.requireRole(admin, h.createVersion)).Methods(http.MethodPost)
	r.Handle(p+"/versions/{name}", h.requireRole(viewer, h.getVersion)).Methods(http.MethodGet)
	r.Handle(p+"/versions/{name}", h.requireRole(admin, h.updateVersion)).Methods(http.MethodPut, http.MethodPatch)
	r.Handle(p+"/versions/{name}", h.requireRole(admin, h.deleteVersion)).Methods(http.MethodDelete)
	r.Handle(p+"/versions/{name}/stats", h.requireRole(viewer, h.versionStats)).Methods(http.MethodGet)

	r.Handle(p+"/activity", h.requireRole(viewer, h.projectActivity)).Methods(http.MethodGet)
	r.Handle(p+"/activity/stats", h.requireRole(viewer, h.activityStats)).Methods(http.MethodGet)
	r.Handle(p+"/activity/{entityType}/{entityId}", h.requireRole(viewer, h.entityActivity)).Methods(http.MethodGet)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
