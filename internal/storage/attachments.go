package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/jobsite-crm/internal/domain"
	"go.uber.org/zap"
)

// AttachmentStore uploads note attachments with a per-file size cap
type AttachmentStore struct {
	backend Storage
	maxSize int64
	now     func() time.Time
	logger  *zap.Logger
}

// NewAttachmentStore wraps a storage backend. A non-positive maxSize falls
// back to domain.MaxAttachmentSize.
func NewAttachmentStore(backend Storage, maxSize int64, logger *zap.Logger) *AttachmentStore {
	if maxSize <= 0 {
		maxSize = domain.MaxAttachmentSize
	}
	return &AttachmentStore{
		backend: backend,
		maxSize: maxSize,
		now:     time.Now,
		logger:  logger,
	}
}

// MaxSize returns the upload cap in bytes
func (a *AttachmentStore) MaxSize() int64 {
	return a.maxSize
}

// Upload stores the file and returns the attachment record to put on a note.
// Files larger than the cap are rejected with ErrFileTooLarge before
// anything reaches the backend.
func (a *AttachmentStore) Upload(ctx context.Context, fileName, contentType string, data io.Reader) (domain.Attachment, error) {
	buf := &bytes.Buffer{}
	n, err := io.Copy(buf, io.LimitReader(data, a.maxSize+1))
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("failed to read upload: %w", err)
	}
	if n > a.maxSize {
		a.logger.Warn("Attachment rejected",
			zap.String("fileName", fileName),
			zap.Int64("maxSize", a.maxSize),
		)
		return domain.Attachment{}, ErrFileTooLarge
	}

	storagePath, size, err := a.backend.Upload(ctx, fileName, contentType, buf)
	if err != nil {
		return domain.Attachment{}, err
	}

	a.logger.Info("Attachment uploaded",
		zap.String("fileName", fileName),
		zap.String("storagePath", storagePath),
		zap.Int64("size", size),
	)

	return domain.Attachment{
		ID:         uuid.New().String(),
		FileName:   fileName,
		FileURL:    storagePath,
		FileType:   contentType,
		FileSize:   size,
		UploadedAt: a.now(),
	}, nil
}

// Open returns the content behind an attachment's file handle
func (a *AttachmentStore) Open(ctx context.Context, fileURL string) (io.ReadCloser, error) {
	return a.backend.Download(ctx, fileURL)
}

// Remove deletes the blob behind an attachment's file handle
func (a *AttachmentStore) Remove(ctx context.Context, fileURL string) error {
	return a.backend.Delete(ctx, fileURL)
}
