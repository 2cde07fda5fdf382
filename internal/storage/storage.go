// Package storage keeps note attachments and change-log snapshots on the
// local filesystem or in Azure Blob Storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/straye-as/jobsite-crm/internal/config"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when a stored file does not exist
	ErrNotFound = errors.New("file not found")
	// ErrFileTooLarge is returned when an upload exceeds the size cap
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")
	// ErrInvalidPath is returned for storage paths escaping the storage root
	ErrInvalidPath = errors.New("invalid storage path")
)

// Storage defines the interface for file storage operations
type Storage interface {
	// Upload stores data under a generated name and returns its storage path and size
	Upload(ctx context.Context, filename string, contentType string, data io.Reader) (string, int64, error)
	// Save stores data under the given name, replacing any previous content
	Save(ctx context.Context, name string, contentType string, data io.Reader) (int64, error)
	Download(ctx context.Context, storagePath string) (io.ReadCloser, error)
	Delete(ctx context.Context, storagePath string) error
}

// NewStorage creates a storage backend based on configuration.
// "local" stores on the filesystem, "cloud" or "azure" in Azure Blob Storage.
func NewStorage(cfg *config.StorageConfig, logger *zap.Logger) (Storage, error) {
	switch cfg.Mode {
	case "local":
		return NewLocalStorage(cfg.LocalBasePath)
	case "cloud", "azure":
		if cfg.CloudConnectionString == "" {
			return nil, fmt.Errorf("cloud connection string required for azure storage")
		}
		return NewAzureBlobStorage(cfg.CloudConnectionString, cfg.CloudContainer, logger)
	default:
		return nil, fmt.Errorf("unsupported storage mode: %s", cfg.Mode)
	}
}

// generatedName returns a collision-free name keeping the original extension
func generatedName(filename string) string {
	return uuid.New().String() + strings.ToLower(filepath.Ext(filename))
}

// LocalStorage implements Storage interface for local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new local storage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

// resolve maps a storage path to a filesystem path under the base path
func (s *LocalStorage) resolve(storagePath string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(storagePath))
	if cleaned == "." || filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, storagePath)
	}
	return filepath.Join(s.basePath, cleaned), nil
}

// Upload stores a file under a generated, sharded path
func (s *LocalStorage) Upload(ctx context.Context, filename string, contentType string, data io.Reader) (string, int64, error) {
	name := generatedName(filename)
	storagePath := filepath.ToSlash(filepath.Join(name[:2], name[2:4], name))

	size, err := s.Save(ctx, storagePath, contentType, data)
	if err != nil {
		return "", 0, err
	}
	return storagePath, size, nil
}

// Save writes a file at the given storage path
func (s *LocalStorage) Save(ctx context.Context, name string, contentType string, data io.Reader) (int64, error) {
	fullPath, err := s.resolve(name)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	size, err := io.Copy(file, data)
	if err != nil {
		os.Remove(fullPath)
		return 0, fmt.Errorf("failed to write file: %w", err)
	}

	return size, nil
}

// Download opens a file from local storage
func (s *LocalStorage) Download(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	fullPath, err := s.resolve(storagePath)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, storagePath)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Delete deletes a file from local storage
func (s *LocalStorage) Delete(ctx context.Context, storagePath string) error {
	fullPath, err := s.resolve(storagePath)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}
