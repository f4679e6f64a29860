package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/goproj/internal/common"
	"github.com/dmitrijs2005/goproj/internal/logging"
	"github.com/dmitrijs2005/goproj/internal/server/models"
	"github.com/dmitrijs2005/goproj/internal/server/repositories/repomanager"
)

type CreateVersionInput struct {
	Name        string               `json:"name"`
	Status      models.VersionStatus `json:"status"`
	Description string               `json:"description"`
}

type VersionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	activity    *ActivityService
	log         logging.Logger
	now         func() time.Time
}

func NewVersionService(db *sql.DB, m repomanager.RepositoryManager, activity *ActivityService, log logging.Logger) *VersionService {
	return &VersionService{db: db, repomanager: m, activity: activity, log: log, now: time.Now}
}

func (s *VersionService) List(ctx context.Context, projectID int64) ([]models.Version, error) {
	list, err := s.repomanager.Versions(s.db).List(ctx, projectID)
	if err != nil {
		return nil, s.internal(ctx, "list versions", err)
	}
	return list, nil
}

func (s *VersionService) Get(ctx context.Context, projectID int64, name string) (*models.Version, error) {
	v, err := s.repomanager.Versions(s.db).Get(ctx, projectID, name)
	if err != nil {
		return nil, s.mapErr(ctx, "get version", err)
	}
	return v, nil
}

func (s *VersionService) Create(ctx context.Context, projectID, userID int64, in CreateVersionInput) (*models.Version, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, common.NewValidationError("version name is required")
	}
	if in.Status == "" {
		in.Status = models.VersionPlanned
	}
	if !in.Status.Valid() {
		return nil, common.NewValidationError("invalid version status")
	}

	v := &models.Version{ProjectID: projectID, Name: name, Status: in.Status, Description: in.Description}
	if v.Status == models.VersionReleased {
		t := s.now().UTC()
		v.ReleasedAt = &t
	}

	v, err := s.repomanager.Versions(s.db).Create(ctx, v)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, s.internal(ctx, "create version", err)
	}
	s.activity.Record(ctx, projectID, userID, models.ActionCreated, models.EntityVersion, 0, v.Name)
	return v, nil
}

// Update changes a version. Moving to released without an explicit release
// date stamps the current time.
func (s *VersionService) Update(ctx context.Context, projectID int64, name string, userID int64, patch models.VersionPatch) (*models.Version, error) {
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, common.NewValidationError("invalid version status")
		}
		if *patch.Status == models.VersionReleased && patch.ReleasedAt == nil {
			t := s.now().UTC()
			patch.ReleasedAt = &t
		}
	}

	v, err := s.repomanager.Versions(s.db).Update(ctx, projectID, name, patch)
	if err != nil {
		return nil, s.mapErr(ctx, "update version", err)
	}
	s.activity.Record(ctx, projectID, userID, models.ActionUpdated, models.EntityVersion, 0, v.Name)
	return v, nil
}

func (s *VersionService) Delete(ctx context.Context, projectID int64, name string, userID int64) error {
	if err := s.repomanager.Versions(s.db).Delete(ctx, projectID, name); err != nil {
		return s.mapErr(ctx, "delete version", err)
	}
	s.activity.Record(ctx, projectID, userID, models.ActionDeleted, models.EntityVersion, 0, name)
	return nil
}

// Stats counts the issues targeting a version by status and type.
func (s *VersionService) Stats(ctx context.Context, projectID int64, name string) (*models.VersionStats, error) {
	v, err := s.Get(ctx, projectID, name)
	if err != nil {
		return nil, err
	}
	total, byStatus, byType, err := s.repomanager.Issues(s.db).CountByVersion(ctx, projectID, name)
	if err != nil {
		return nil, s.internal(ctx, "version stats", err)
	}
	return &models.VersionStats{Version: *v, Total: total, ByStatus: byStatus, ByType: byType}, nil
}

func (s *VersionService) mapErr(ctx context.Context, op string, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrorNotFound
	}
	return s.internal(ctx, op, err)
}

func (s *VersionService) internal(ctx context.Context, op string, err error) error {
	s.log.Error(ctx, op+" failed", "error", err)
	return common.ErrorInternal
}
