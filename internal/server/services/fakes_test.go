package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/goproj/internal/common"
	"github.com/dmitrijs2005/goproj/internal/dbx"
	"github.com/dmitrijs2005/goproj/internal/server/models"
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

var errBoom = errors.New("boom")

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

type memSession struct {
	userID    int64
	expiresAt time.Time
}

// memStore is an in-memory stand-in for every repository. Fields ending in
// Err force the matching repository to fail.
type memStore struct {
	mu sync.Mutex

	nextID      int64
	users       map[int64]*models.User
	sessions    map[string]memSession
	projects    map[int64]*models.Project
	members     map[[2]int64]models.Membership
	issues      map[int64]*models.Issue
	comments    []models.Comment
	versions    map[string]*models.Version
	attachments map[int64]*models.Attachment
	activities  []models.Activity

	usersErr      error
	sessionsErr   error
	membersErr    error
	activitiesErr error
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[int64]*models.User{},
		sessions:    map[string]memSession{},
		projects:    map[int64]*models.Project{},
		members:     map[[2]int64]models.Membership{},
		issues:      map[int64]*models.Issue{},
		versions:    map[string]*models.Version{},
		attachments: map[int64]*models.Attachment{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *memStore) Users(dbx.DBTX) users.Repository              { return memUsers{m} }
func (m *memStore) Sessions(dbx.DBTX) sessions.Repository        { return memSessions{m} }
func (m *memStore) Projects(dbx.DBTX) projects.Repository        { return memProjects{m} }
func (m *memStore) Members(dbx.DBTX) members.Repository          { return memMembers{m} }
func (m *memStore) Issues(dbx.DBTX) issues.Repository            { return memIssues{m} }
func (m *memStore) Comments(dbx.DBTX) comments.Repository        { return memComments{m} }
func (m *memStore) Versions(dbx.DBTX) versions.Repository        { return memVersions{m} }
func (m *memStore) Attachments(dbx.DBTX) attachments.Repository  { return memAttachments{m} }
func (m *memStore) Activities(dbx.DBTX) activities.Repository    { return memActivities{m} }

// addUser seeds a user directly, bypassing registration.
func (m *memStore) addUser(email, name, hash string, status models.UserStatus, admin bool) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &models.User{ID: m.id(), Email: email, Name: name, PasswordHash: hash, Status: status, IsAdmin: admin, CreatedAt: time.Now()}
	m.users[u.ID] = u
	return u
}

func (m *memStore) addMember(projectID, userID int64, role models.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[[2]int64{projectID, userID}] = models.Membership{ProjectID: projectID, UserID: userID, Role: role}
}

func (m *memStore) role(projectID, userID int64) (models.Role, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.members[[2]int64{projectID, userID}]
	return ms.Role, ok
}

type memUsers struct{ m *memStore }

func (r memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.usersErr != nil {
		return nil, r.m.usersErr
	}
	for _, x := range r.m.users {
		if x.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	c := *u
	c.ID = r.m.id()
	c.CreatedAt = time.Now()
	r.m.users[c.ID] = &c
	return &c, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.usersErr != nil {
		return nil, r.m.usersErr
	}
	for _, u := range r.m.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (r memUsers) ListByStatus(_ context.Context, status models.UserStatus) ([]models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.User
	for _, u := range r.m.users {
		if u.Status == status {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memUsers) UpdateStatus(_ context.Context, id int64, status models.UserStatus) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u.Status = status
	c := *u
	return &c, nil
}

type memSessions struct{ m *memStore }

func (r memSessions) Create(_ context.Context, userID int64, token string, ttl time.Duration) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.sessionsErr != nil {
		return r.m.sessionsErr
	}
	r.m.sessions[token] = memSession{userID: userID, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (r memSessions) Resolve(_ context.Context, token string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.sessionsErr != nil {
		return nil, r.m.sessionsErr
	}
	s, ok := r.m.sessions[token]
	if !ok || !s.expiresAt.After(time.Now()) {
		return nil, common.ErrorNotFound
	}
	c := *r.m.users[s.userID]
	return &c, nil
}

func (r memSessions) Delete(_ context.Context, token string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.sessionsErr != nil {
		return r.m.sessionsErr
	}
	delete(r.m.sessions, token)
	return nil
}

func (r memSessions) DeleteExpired(context.Context) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.sessionsErr != nil {
		return 0, r.m.sessionsErr
	}
	var n int64
	for k, s := range r.m.sessions {
		if s.expiresAt.Before(time.Now()) {
			delete(r.m.sessions, k)
			n++
		}
	}
	return n, nil
}

type memProjects struct{ m *memStore }

func (r memProjects) Create(_ context.Context, p *models.Project) (*models.Project, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c := *p
	c.ID = r.m.id()
	c.CreatedAt, c.UpdatedAt = time.Now(), time.Now()
	r.m.projects[c.ID] = &c
	out := c
	return &out, nil
}

func (r memProjects) GetByID(_ context.Context, id int64) (*models.Project, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.projects[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *p
	return &c, nil
}

func (r memProjects) ListForUser(_ context.Context, userID int64) ([]models.ProjectWithRole, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.ProjectWithRole
	for k, ms := range r.m.members {
		if k[1] == userID {
			if p, ok := r.m.projects[k[0]]; ok {
				out = append(out, models.ProjectWithRole{Project: *p, Role: ms.Role})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memProjects) Update(_ context.Context, id int64, name, description *string) (*models.Project, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.projects[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if name != nil {
		p.Name = *name
	}
	if description != nil {
		p.Description = *description
	}
	c := *p
	return &c, nil
}

func (r memProjects) SetOwner(_ context.Context, id, ownerID int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.projects[id]
	if !ok {
		return common.ErrorNotFound
	}
	p.OwnerID = ownerID
	return nil
}

func (r memProjects) Delete(_ context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.projects[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.m.projects, id)
	for k := range r.m.members {
		if k[0] == id {
			delete(r.m.members, k)
		}
	}
	return nil
}

type memMembers struct{ m *memStore }

func (r memMembers) Add(_ context.Context, projectID, userID int64, role models.Role) (*models.Membership, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.membersErr != nil {
		return nil, r.m.membersErr
	}
	k := [2]int64{projectID, userID}
	if _, ok := r.m.members[k]; ok {
		return nil, common.ErrorAlreadyExists
	}
	ms := models.Membership{ProjectID: projectID, UserID: userID, Role: role, CreatedAt: time.Now()}
	r.m.members[k] = ms
	return &ms, nil
}

func (r memMembers) Get(_ context.Context, projectID, userID int64) (*models.Membership, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.membersErr != nil {
		return nil, r.m.membersErr
	}
	ms, ok := r.m.members[[2]int64{projectID, userID}]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &ms, nil
}

func (r memMembers) List(_ context.Context, projectID int64) ([]models.Member, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.Member
	for k, ms := range r.m.members {
		if k[0] == projectID {
			u := r.m.users[k[1]]
			out = append(out, models.Member{Membership: ms, Email: u.Email, Name: u.Name})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (r memMembers) UpdateRole(_ context.Context, projectID, userID int64, role models.Role) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	k := [2]int64{projectID, userID}
	ms, ok := r.m.members[k]
	if !ok {
		return common.ErrorNotFound
	}
	ms.Role = role
	r.m.members[k] = ms
	return nil
}

func (r memMembers) Remove(_ context.Context, projectID, userID int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	k := [2]int64{projectID, userID}
	if _, ok := r.m.members[k]; !ok {
		return common.ErrorNotFound
	}
	delete(r.m.members, k)
	return nil
}

type memIssues struct{ m *memStore }

func (r memIssues) List(_ context.Context, projectID int64, f models.IssueFilter) ([]models.Issue, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.Issue
	for _, i := range r.m.issues {
		if i.ProjectID != projectID ||
			(f.Type != "" && i.Type != f.Type) ||
			(f.Status != "" && i.Status != f.Status) ||
			(f.Priority != "" && i.Priority != f.Priority) ||
			(f.Version != "" && (i.Version == nil || *i.Version != f.Version)) {
			continue
		}
		out = append(out, *i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID > out[b].ID })
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r memIssues) Get(_ context.Context, projectID, id int64) (*models.Issue, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	i, ok := r.m.issues[id]
	if !ok || i.ProjectID != projectID {
		return nil, common.ErrorNotFound
	}
	c := *i
	return &c, nil
}

func (r memIssues) Create(_ context.Context, issue *models.Issue) (*models.Issue, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c := *issue
	c.ID = r.m.id()
	c.CreatedAt, c.UpdatedAt = time.Now(), time.Now()
	r.m.issues[c.ID] = &c
	out := c
	return &out, nil
}

func (r memIssues) Update(_ context.Context, projectID, id int64, p models.IssuePatch) (*models.Issue, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	i, ok := r.m.issues[id]
	if !ok || i.ProjectID != projectID {
		return nil, common.ErrorNotFound
	}
	if p.Type != nil {
		i.Type = *p.Type
	}
	if p.Title != nil {
		i.Title = *p.Title
	}
	if p.Status != nil {
		i.Status = *p.Status
	}
	if p.Priority != nil {
		i.Priority = *p.Priority
	}
	if p.Version != nil {
		i.Version = blankToNil(p.Version)
	}
	if p.Assignee != nil {
		i.Assignee = blankToNil(p.Assignee)
	}
	if p.Description != nil {
		i.Description = *p.Description
	}
	c := *i
	return &c, nil
}

func (r memIssues) Delete(_ context.Context, projectID, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	i, ok := r.m.issues[id]
	if !ok || i.ProjectID != projectID {
		return common.ErrorNotFound
	}
	delete(r.m.issues, id)
	return nil
}

func (r memIssues) CountByVersion(_ context.Context, projectID int64, version string) (int64, map[string]int64, map[string]int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var total int64
	byStatus, byType := map[string]int64{}, map[string]int64{}
	for _, i := range r.m.issues {
		if i.ProjectID == projectID && i.Version != nil && *i.Version == version {
			total++
			byStatus[string(i.Status)]++
			byType[string(i.Type)]++
		}
	}
	return total, byStatus, byType, nil
}

type memComments struct{ m *memStore }

func (r memComments) ListByIssue(_ context.Context, issueID int64) ([]models.Comment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.Comment
	for _, c := range r.m.comments {
		if c.IssueID == issueID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r memComments) Create(_ context.Context, c *models.Comment) (*models.Comment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := *c
	out.ID = r.m.id()
	out.CreatedAt = time.Now()
	r.m.comments = append(r.m.comments, out)
	return &out, nil
}

type memVersions struct{ m *memStore }

func versionKey(projectID int64, name string) string {
	return fmt.Sprintf("%d/%s", projectID, name)
}

func (r memVersions) List(_ context.Context, projectID int64) ([]models.Version, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.Version
	for _, v := range r.m.versions {
		if v.ProjectID == projectID {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memVersions) Get(_ context.Context, projectID int64, name string) (*models.Version, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	v, ok := r.m.versions[versionKey(projectID, name)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *v
	return &c, nil
}

func (r memVersions) Create(_ context.Context, v *models.Version) (*models.Version, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	k := versionKey(v.ProjectID, v.Name)
	if _, ok := r.m.versions[k]; ok {
		return nil, common.ErrorAlreadyExists
	}
	c := *v
	c.CreatedAt = time.Now()
	r.m.versions[k] = &c
	out := c
	return &out, nil
}

func (r memVersions) Update(_ context.Context, projectID int64, name string, p models.VersionPatch) (*models.Version, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	v, ok := r.m.versions[versionKey(projectID, name)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if p.Status != nil {
		v.Status = *p.Status
	}
	if p.Description != nil {
		v.Description = *p.Description
	}
	if p.ReleasedAt != nil {
		v.ReleasedAt = p.ReleasedAt
	}
	c := *v
	return &c, nil
}

func (r memVersions) Delete(_ context.Context, projectID int64, name string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	k := versionKey(projectID, name)
	if _, ok := r.m.versions[k]; !ok {
		return common.ErrorNotFound
	}
	delete(r.m.versions, k)
	return nil
}

type memAttachments struct{ m *memStore }

func (r memAttachments) Create(_ context.Context, a *models.Attachment) (*models.Attachment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c := *a
	c.ID = r.m.id()
	c.CreatedAt = time.Now()
	r.m.attachments[c.ID] = &c
	out := c
	return &out, nil
}

func (r memAttachments) ListByIssue(_ context.Context, issueID int64) ([]models.Attachment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.Attachment
	for _, a := range r.m.attachments {
		if a.IssueID == issueID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memAttachments) Get(_ context.Context, issueID, id int64) (*models.Attachment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a, ok := r.m.attachments[id]
	if !ok || a.IssueID != issueID {
		return nil, common.ErrorNotFound
	}
	c := *a
	return &c, nil
}

func (r memAttachments) Delete(_ context.Context, issueID, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a, ok := r.m.attachments[id]
	if !ok || a.IssueID != issueID {
		return common.ErrorNotFound
	}
	delete(r.m.attachments, id)
	return nil
}

func (r memAttachments) StatsByProject(_ context.Context, projectID int64) (*models.StorageStats, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	st := &models.StorageStats{}
	for _, a := range r.m.attachments {
		if i, ok := r.m.issues[a.IssueID]; ok && i.ProjectID == projectID {
			st.Count++
			st.TotalBytes += a.Size
		}
	}
	return st, nil
}

type memActivities struct{ m *memStore }

func (r memActivities) Create(_ context.Context, a *models.Activity) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.activitiesErr != nil {
		return r.m.activitiesErr
	}
	a.ID = r.m.id()
	a.CreatedAt = time.Now()
	r.m.activities = append(r.m.activities, *a)
	return nil
}

func (r memActivities) ListByProject(_ context.Context, projectID int64, limit, offset int) ([]models.Activity, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.Activity
	for i := len(r.m.activities) - 1; i >= 0; i-- {
		if r.m.activities[i].ProjectID == projectID {
			out = append(out, r.m.activities[i])
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memActivities) ListByEntity(_ context.Context, projectID int64, entity models.EntityType, entityID int64) ([]models.Activity, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.Activity
	for _, a := range r.m.activities {
		if a.ProjectID == projectID && a.EntityType == entity && a.EntityID == entityID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r memActivities) ListRecentForUser(_ context.Context, userID int64, limit int) ([]models.Activity, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.Activity
	for i := len(r.m.activities) - 1; i >= 0 && len(out) < limit; i-- {
		a := r.m.activities[i]
		if _, ok := r.m.members[[2]int64{a.ProjectID, userID}]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r memActivities) Stats(_ context.Context, projectID int64) (*models.ActivityStats, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	st := &models.ActivityStats{ByType: map[string]int64{}, ByAction: map[string]int64{}}
	for _, a := range r.m.activities {
		if a.ProjectID == projectID {
			st.Total++
			st.ByType[string(a.EntityType)]++
			st.ByAction[string(a.Action)]++
		}
	}
	return st, nil
}
