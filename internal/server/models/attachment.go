package models

import "time"

// Attachment describes a blob stored in object storage under StorageKey.
type Attachment struct {
	ID          int64     `json:"id"`
	IssueID     int64     `json:"issue_id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	StorageKey  string    `json:"storage_key"`
	CreatedAt   time.Time `json:"created_at"`
}

// AttachmentUpload is returned on create: the stored row plus a presigned
// URL the client PUTs the bytes to.
type AttachmentUpload struct {
	Attachment Attachment `json:"attachment"`
	UploadURL  string     `json:"upload_url"`
}

// StorageStats aggregates attachment usage of a project.
type StorageStats struct {
	Count      int64 `json:"count"`
	TotalBytes int64 `json:"total_bytes"`
}
