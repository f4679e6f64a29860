package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/dmitrijs2005/goproj/internal/common"
	"github.com/dmitrijs2005/goproj/internal/dbx"
	"github.com/dmitrijs2005/goproj/internal/logging"
	"github.com/dmitrijs2005/goproj/internal/server/models"
	"github.com/dmitrijs2005/goproj/internal/server/rbac"
	"github.com/dmitrijs2005/goproj/internal/server/repositories/repomanager"
)

type CreateProjectInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type UpdateProjectInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type AddMemberInput struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

// ProjectService owns projects and their memberships.
type ProjectService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	activity    *ActivityService
	log         logging.Logger
}

func NewProjectService(db *sql.DB, m repomanager.RepositoryManager, activity *ActivityService, log logging.Logger) *ProjectService {
	return &ProjectService{db: db, repomanager: m, activity: activity, log: log}
}

// Authorize returns userID's role in projectID if it is at least min.
// Non-members get common.ErrNotAMember, members below min get
// common.ErrInsufficientPermissions.
func (s *ProjectService) Authorize(ctx context.Context, projectID, userID int64, min models.Role) (models.Role, error) {
	m, err := s.membership(ctx, s.db, projectID, userID)
	if err != nil {
		return 0, err
	}
	if err := rbac.Require(m.Role, min); err != nil {
		return 0, err
	}
	return m.Role, nil
}

// Create makes a project with the creator as owner, atomically.
func (s *ProjectService) Create(ctx context.Context, userID int64, in CreateProjectInput) (*models.ProjectWithRole, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, common.NewValidationError("project name is required")
	}

	var p *models.Project
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		p, err = s.repomanager.Projects(tx).Create(ctx, &models.Project{
			Name:        name,
			Description: in.Description,
			OwnerID:     userID,
		})
		if err != nil {
			return err
		}
		_, err = s.repomanager.Members(tx).Add(ctx, p.ID, userID, models.RoleOwner)
		return err
	})
	if err != nil {
		return nil, s.internal(ctx, "create project", err)
	}

	s.activity.Record(ctx, p.ID, userID, models.ActionCreated, models.EntityProject, p.ID, p.Name)
	return &models.ProjectWithRole{Project: *p, Role: models.RoleOwner}, nil
}

func (s *ProjectService) ListForUser(ctx context.Context, userID int64) ([]models.ProjectWithRole, error) {
	list, err := s.repomanager.Projects(s.db).ListForUser(ctx, userID)
	if err != nil {
		return nil, s.internal(ctx, "list projects", err)
	}
	return list, nil
}

func (s *ProjectService) Get(ctx context.Context, projectID int64) (*models.Project, error) {
	p, err := s.repomanager.Projects(s.db).GetByID(ctx, projectID)
	if err != nil {
		return nil, s.mapErr(ctx, "get project", err)
	}
	return p, nil
}

func (s *ProjectService) Update(ctx context.Context, projectID, userID int64, in UpdateProjectInput) (*models.Project, error) {
	if in.Name != nil {
		trimmed := strings.TrimSpace(*in.Name)
		if trimmed == "" {
			return nil, common.NewValidationError("project name cannot be empty")
		}
		in.Name = &trimmed
	}

	p, err := s.repomanager.Projects(s.db).Update(ctx, projectID, in.Name, in.Description)
	if err != nil {
		return nil, s.mapErr(ctx, "update project", err)
	}
	s.activity.Record(ctx, p.ID, userID, models.ActionUpdated, models.EntityProject, p.ID, p.Name)
	return p, nil
}

// Delete removes a project. Only its owner may do so, whatever route guard
// the caller went through.
func (s *ProjectService) Delete(ctx context.Context, projectID, userID int64) error {
	m, err := s.membership(ctx, s.db, projectID, userID)
	if err != nil {
		return err
	}
	if m.Role != models.RoleOwner {
		return common.ErrInsufficientPermissions
	}

	if err := s.repomanager.Projects(s.db).Delete(ctx, projectID); err != nil {
		return s.mapErr(ctx, "delete project", err)
	}
	s.log.Info(ctx, "project deleted", "project_id", projectID, "user_id", userID)
	return nil
}

func (s *ProjectService) Members(ctx context.Context, projectID int64) ([]models.Member, error) {
	list, err := s.repomanager.Members(s.db).List(ctx, projectID)
	if err != nil {
		return nil, s.internal(ctx, "list members", err)
	}
	return list, nil
}

// AddMember adds an existing, approved user by email.
func (s *ProjectService) AddMember(ctx context.Context, projectID, actorID int64, in AddMemberInput) (*models.Membership, error) {
	actor, err := s.membership(ctx, s.db, projectID, actorID)
	if err != nil {
		return nil, err
	}
	if in.Role == 0 {
		in.Role = models.RoleMember
	}
	if err := rbac.CanAddMember(*actor, in.Role); err != nil {
		return nil, err
	}

	u, err := s.repomanager.Users(s.db).GetByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, s.internal(ctx, "lookup user", err)
	}
	if !u.IsApproved() {
		return nil, common.NewValidationError("user has not been approved yet")
	}

	m, err := s.repomanager.Members(s.db).Add(ctx, projectID, u.ID, in.Role)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, s.internal(ctx, "add member", err)
	}
	s.activity.Record(ctx, projectID, actorID, models.ActionJoined, models.EntityMember, u.ID, u.Email)
	return m, nil
}

func (s *ProjectService) ChangeRole(ctx context.Context, projectID, actorID, targetID int64, role models.Role) error {
	actor, err := s.membership(ctx, s.db, projectID, actorID)
	if err != nil {
		return err
	}
	target, err := s.target(ctx, projectID, targetID)
	if err != nil {
		return err
	}
	if err := rbac.CanChangeRole(*actor, *target, role); err != nil {
		return err
	}

	if err := s.repomanager.Members(s.db).UpdateRole(ctx, projectID, targetID, role); err != nil {
		return s.mapErr(ctx, "change role", err)
	}
	s.activity.Record(ctx, projectID, actorID, models.ActionRoleChanged, models.EntityMember, targetID, role.String())
	return nil
}

// RemoveMember removes targetID from the project, or lets a member leave
// when targetID is the actor.
func (s *ProjectService) RemoveMember(ctx context.Context, projectID, actorID, targetID int64) error {
	actor, err := s.membership(ctx, s.db, projectID, actorID)
	if err != nil {
		return err
	}
	target := actor
	if targetID != actorID {
		if target, err = s.target(ctx, projectID, targetID); err != nil {
			return err
		}
	}
	if err := rbac.CanRemoveMember(*actor, *target); err != nil {
		return err
	}

	if err := s.repomanager.Members(s.db).Remove(ctx, projectID, targetID); err != nil {
		return s.mapErr(ctx, "remove member", err)
	}
	s.activity.Record(ctx, projectID, actorID, models.ActionLeft, models.EntityMember, targetID, "")
	return nil
}

// TransferOwnership makes targetID the owner and demotes the current owner
// to admin in one transaction.
func (s *ProjectService) TransferOwnership(ctx context.Context, projectID, actorID, targetID int64) error {
	actor, err := s.membership(ctx, s.db, projectID, actorID)
	if err != nil {
		return err
	}
	target, err := s.target(ctx, projectID, targetID)
	if err != nil {
		return err
	}
	if err := rbac.CanTransferOwnership(*actor, *target); err != nil {
		return err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		members := s.repomanager.Members(tx)
		if err := members.UpdateRole(ctx, projectID, targetID, models.RoleOwner); err != nil {
			return err
		}
		if err := members.UpdateRole(ctx, projectID, actorID, models.RoleAdmin); err != nil {
			return err
		}
		return s.repomanager.Projects(tx).SetOwner(ctx, projectID, targetID)
	})
	if err != nil {
		return s.mapErr(ctx, "transfer ownership", err)
	}
	s.activity.Record(ctx, projectID, actorID, models.ActionRoleChanged, models.EntityMember, targetID, models.RoleOwner.String())
	return nil
}

// membership loads the caller's own membership; absence is ErrNotAMember.
func (s *ProjectService) membership(ctx context.Context, db dbx.DBTX, projectID, userID int64) (*models.Membership, error) {
	m, err := s.repomanager.Members(db).Get(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrNotAMember
		}
		return nil, s.internal(ctx, "lookup membership", err)
	}
	return m, nil
}

// target loads another user's membership; absence is ErrorNotFound.
func (s *ProjectService) target(ctx context.Context, projectID, userID int64) (*models.Membership, error) {
	m, err := s.repomanager.Members(s.db).Get(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, s.internal(ctx, "lookup membership", err)
	}
	return m, nil
}

func (s *ProjectService) mapErr(ctx context.Context, op string, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrorNotFound
	}
	return s.internal(ctx, op, err)
}

func (s *ProjectService) internal(ctx context.Context, op string, err error) error {
	if errors.Is(err, common.ErrorInternal) {
		return err
	}
	s.log.Error(ctx, op+" failed", "error", err)
	return common.ErrorInternal
}
