package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"go.uber.org/zap"
)

// AzureBlobStorage keeps attachments and change-log snapshots in one blob
// container
type AzureBlobStorage struct {
	client    *azblob.Client
	container string
	logger    *zap.Logger
}

// NewAzureBlobStorage connects with a connection string and creates the
// container when it does not exist yet
func NewAzureBlobStorage(connectionString, container string, logger *zap.Logger) (*AzureBlobStorage, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	if _, err := client.CreateContainer(context.Background(), container, nil); err != nil &&
		!bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return nil, fmt.Errorf("failed to create container %s: %w", container, err)
	}

	logger.Info("Azure Blob Storage initialized", zap.String("container", container))
	return &AzureBlobStorage{client: client, container: container, logger: logger}, nil
}

// Upload implements Storage
func (s *AzureBlobStorage) Upload(ctx context.Context, filename string, contentType string, data io.Reader) (string, int64, error) {
	name := generatedName(filename)
	size, err := s.Save(ctx, name, contentType, data)
	if err != nil {
		return "", 0, err
	}
	s.logger.Info("Attachment uploaded",
		zap.String("blob", name),
		zap.String("file_name", filename),
		zap.Int64("size", size),
	)
	return name, size, nil
}

// Save implements Storage
func (s *AzureBlobStorage) Save(ctx context.Context, name string, contentType string, data io.Reader) (int64, error) {
	counted := &countingReader{r: data}
	_, err := s.client.UploadStream(ctx, s.container, name, counted, &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upload blob %s: %w", name, err)
	}
	return counted.n, nil
}

// Download implements Storage. A missing blob yields ErrNotFound.
func (s *AzureBlobStorage) Download(ctx context.Context, name string) (io.ReadCloser, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, name, nil)
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to download blob %s: %w", name, err)
	}
	return resp.Body, nil
}

// Delete implements Storage. Deleting a missing blob is not an error.
func (s *AzureBlobStorage) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteBlob(ctx, s.container, name, nil)
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		s.logger.Debug("Blob already gone", zap.String("blob", name))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", name, err)
	}
	s.logger.Info("Blob deleted", zap.String("blob", name))
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
