package services

import (
	"context"
	"database/sql"
	"errors"
	"path"
	"strings"

	"github.com/dmitrijs2005/goproj/internal/common"
	"github.com/dmitrijs2005/goproj/internal/logging"
	"github.com/dmitrijs2005/goproj/internal/server/models"
	"github.com/dmitrijs2005/goproj/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/goproj/internal/server/storage"
)

const defaultContentType = "application/octet-stream"

// BlobStore hands out presigned URLs for attachment bytes.
type BlobStore interface {
	PresignPut(ctx context.Context, key, contentType string) (string, error)
	PresignGet(ctx context.Context, key, filename string) (string, error)
	Delete(ctx context.Context, key string) error
}

type CreateAttachmentInput struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type AttachmentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       BlobStore
	activity    *ActivityService
	log         logging.Logger
	newKey      func(projectID, issueID int64) string
}

func NewAttachmentService(db *sql.DB, m repomanager.RepositoryManager, blobs BlobStore, activity *ActivityService, log logging.Logger) *AttachmentService {
	return &AttachmentService{
		db:          db,
		repomanager: m,
		blobs:       blobs,
		activity:    activity,
		log:         log,
		newKey:      storage.NewStorageKey,
	}
}

// Create stores attachment metadata and returns a presigned upload URL.
func (s *AttachmentService) Create(ctx context.Context, projectID, issueID, userID int64, in CreateAttachmentInput) (*models.AttachmentUpload, error) {
	filename := path.Base(strings.TrimSpace(in.Filename))
	if filename == "" || filename == "." || filename == "/" {
		return nil, common.NewValidationError("filename is required")
	}
	if in.Size < 0 {
		return nil, common.NewValidationError("size cannot be negative")
	}
	if in.ContentType == "" {
		in.ContentType = defaultContentType
	}
	if err := s.checkIssue(ctx, projectID, issueID); err != nil {
		return nil, err
	}

	key := s.newKey(projectID, issueID)
	url, err := s.blobs.PresignPut(ctx, key, in.ContentType)
	if err != nil {
		return nil, s.internal(ctx, "presign upload", err)
	}

	a, err := s.repomanager.Attachments(s.db).Create(ctx, &models.Attachment{
		IssueID:     issueID,
		Filename:    filename,
		ContentType: in.ContentType,
		Size:        in.Size,
		StorageKey:  key,
	})
	if err != nil {
		return nil, s.internal(ctx, "create attachment", err)
	}

	s.activity.Record(ctx, projectID, userID, models.ActionCreated, models.EntityAttachment, a.ID, a.Filename)
	return &models.AttachmentUpload{Attachment: *a, UploadURL: url}, nil
}

func (s *AttachmentService) List(ctx context.Context, projectID, issueID int64) ([]models.Attachment, error) {
	if err := s.checkIssue(ctx, projectID, issueID); err != nil {
		return nil, err
	}
	list, err := s.repomanager.Attachments(s.db).ListByIssue(ctx, issueID)
	if err != nil {
		return nil, s.internal(ctx, "list attachments", err)
	}
	return list, nil
}

// DownloadURL returns a presigned GET URL for the attachment bytes.
func (s *AttachmentService) DownloadURL(ctx context.Context, projectID, issueID, attachmentID int64) (string, error) {
	a, err := s.get(ctx, projectID, issueID, attachmentID)
	if err != nil {
		return "", err
	}
	url, err := s.blobs.PresignGet(ctx, a.StorageKey, a.Filename)
	if err != nil {
		return "", s.internal(ctx, "presign download", err)
	}
	return url, nil
}

// Delete removes the stored object and then the metadata row.
func (s *AttachmentService) Delete(ctx context.Context, projectID, issueID, attachmentID, userID int64) error {
	a, err := s.get(ctx, projectID, issueID, attachmentID)
	if err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, a.StorageKey); err != nil {
		return s.internal(ctx, "delete blob", err)
	}
	if err := s.repomanager.Attachments(s.db).Delete(ctx, issueID, attachmentID); err != nil {
		return s.mapErr(ctx, "delete attachment", err)
	}
	s.activity.Record(ctx, projectID, userID, models.ActionDeleted, models.EntityAttachment, a.ID, a.Filename)
	return nil
}

func (s *AttachmentService) Stats(ctx context.Context, projectID int64) (*models.StorageStats, error) {
	st, err := s.repomanager.Attachments(s.db).StatsByProject(ctx, projectID)
	if err != nil {
		return nil, s.internal(ctx, "storage stats", err)
	}
	return st, nil
}

func (s *AttachmentService) get(ctx context.Context, projectID, issueID, attachmentID int64) (*models.Attachment, error) {
	if err := s.checkIssue(ctx, projectID, issueID); err != nil {
		return nil, err
	}
	a, err := s.repomanager.Attachments(s.db).Get(ctx, issueID, attachmentID)
	if err != nil {
		return nil, s.mapErr(ctx, "get attachment", err)
	}
	return a, nil
}

// checkIssue makes sure the issue exists inside the project.
func (s *AttachmentService) checkIssue(ctx context.Context, projectID, issueID int64) error {
	if _, err := s.repomanager.Issues(s.db).Get(ctx, projectID, issueID); err != nil {
		return s.mapErr(ctx, "get issue", err)
	}
	return nil
}

func (s *AttachmentService) mapErr(ctx context.Context, op string, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrorNotFound
	}
	return s.internal(ctx, op, err)
}

func (s *AttachmentService) internal(ctx context.Context, op string, err error) error {
	s.log.Error(ctx, op+" failed", "error", err)
	return common.ErrorInternal
}
