package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/goproj/internal/common"
	"github.com/dmitrijs2005/goproj/internal/logging"
	"github.com/dmitrijs2005/goproj/internal/server/models"
	"github.com/dmitrijs2005/goproj/internal/server/repositories/repomanager"
)

const (
	defaultFeedLimit   = 50
	defaultRecentLimit = 20
	maxFeedLimit       = 200
)

var actionLabels = map[models.Action]string{
	models.ActionCreated:     "created",
	models.ActionUpdated:     "updated",
	models.ActionDeleted:     "deleted",
	models.ActionClosed:      "closed",
	models.ActionReopened:    "reopened",
	models.ActionCommented:   "commented on",
	models.ActionJoined:      "added",
	models.ActionLeft:        "removed",
	models.ActionRoleChanged: "changed the role of",
}

// Describe renders the English feed line for an activity, for example
// "created issue: Login fails".
func Describe(action models.Action, entity models.EntityType, name string) string {
	label, ok := actionLabels[action]
	if !ok {
		label = string(action)
	}
	if name == "" {
		return fmt.Sprintf("%s %s", label, entity)
	}
	return fmt.Sprintf("%s %s: %s", label, entity, name)
}

// ActivityService records and reads the per-project audit feed.
type ActivityService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewActivityService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *ActivityService {
	return &ActivityService{db: db, repomanager: m, log: log}
}

// Record appends an activity. Failures are logged and never returned so a
// completed mutation is not reported as failed.
func (s *ActivityService) Record(ctx context.Context, projectID, userID int64, action models.Action, entity models.EntityType, entityID int64, name string) {
	a := &models.Activity{
		ProjectID:   projectID,
		UserID:      userID,
		Action:      action,
		EntityType:  entity,
		EntityID:    entityID,
		Description: Describe(action, entity, name),
	}
	if err := s.repomanager.Activities(s.db).Create(ctx, a); err != nil {
		s.log.Warn(ctx, "failed to record activity",
			"project_id", projectID, "action", action, "entity_type", entity, "entity_id", entityID, "error", err)
	}
}

func (s *ActivityService) ProjectFeed(ctx context.Context, projectID int64, limit, offset int) ([]models.Activity, error) {
	limit, offset = normalizePage(limit, offset, defaultFeedLimit)
	list, err := s.repomanager.Activities(s.db).ListByProject(ctx, projectID, limit, offset)
	if err != nil {
		return nil, s.internal(ctx, "list project activities", err)
	}
	return list, nil
}

func (s *ActivityService) EntityFeed(ctx context.Context, projectID int64, entity models.EntityType, entityID int64) ([]models.Activity, error) {
	if !entity.Valid() {
		return nil, common.NewValidationError("invalid entity type")
	}
	list, err := s.repomanager.Activities(s.db).ListByEntity(ctx, projectID, entity, entityID)
	if err != nil {
		return nil, s.internal(ctx, "list entity activities", err)
	}
	return list, nil
}

// Recent returns the newest activity across the projects userID belongs to.
func (s *ActivityService) Recent(ctx context.Context, userID int64, limit int) ([]models.Activity, error) {
	limit, _ = normalizePage(limit, 0, defaultRecentLimit)
	list, err := s.repomanager.Activities(s.db).ListRecentForUser(ctx, userID, limit)
	if err != nil {
		return nil, s.internal(ctx, "list recent activities", err)
	}
	return list, nil
}

func (s *ActivityService) Stats(ctx context.Context, projectID int64) (*models.ActivityStats, error) {
	stats, err := s.repomanager.Activities(s.db).Stats(ctx, projectID)
	if err != nil {
		return nil, s.internal(ctx, "activity stats", err)
	}
	return stats, nil
}

func (s *ActivityService) internal(ctx context.Context, op string, err error) error {
	s.log.Error(ctx, op+" failed", "error", err)
	return common.ErrorInternal
}

// normalizePage clamps limit to (0, maxFeedLimit] with def for unset values
// and floors offset at zero.
func normalizePage(limit, offset, def int) (int, int) {
	if limit <= 0 {
		limit = def
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
