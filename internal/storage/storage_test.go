package storage_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/straye-as/jobsite-crm/internal/config"
	"github.com/straye-as/jobsite-crm/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewStorage_Modes(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name    string
		cfg     *config.StorageConfig
		wantErr bool
	}{
		{
			name: "local",
			cfg:  &config.StorageConfig{Mode: "local", LocalBasePath: t.TempDir()},
		},
		{
			name:    "cloud without connection string",
			cfg:     &config.StorageConfig{Mode: "cloud"},
			wantErr: true,
		},
		{
			name:    "unknown mode",
			cfg:     &config.StorageConfig{Mode: "ftp"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := storage.NewStorage(tt.cfg, logger)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, s)
		})
	}
}

func TestLocalStorage_UploadDownloadDelete(t *testing.T) {
	ctx := context.Background()
	s, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	path, size, err := s.Upload(ctx, "Site Plan.PDF", "application/pdf", strings.NewReader("plan"))
	require.NoError(t, err)
	assert.Equal(t, int64(4), size)
	assert.True(t, strings.HasSuffix(path, ".pdf"))

	rc, err := s.Download(ctx, path)
	require.NoError(t, err)
	content, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "plan", string(content))

	require.NoError(t, s.Delete(ctx, path))
	_, err = s.Download(ctx, path)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// deleting twice is not an error
	assert.NoError(t, s.Delete(ctx, path))
}

func TestLocalStorage_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	s, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = s.Save(ctx, "changelog/latest.json", "application/json", strings.NewReader("[1]"))
	require.NoError(t, err)
	_, err = s.Save(ctx, "changelog/latest.json", "application/json", strings.NewReader("[1,2]"))
	require.NoError(t, err)

	rc, err := s.Download(ctx, "changelog/latest.json")
	require.NoError(t, err)
	defer rc.Close()
	content, _ := io.ReadAll(rc)
	assert.Equal(t, "[1,2]", string(content))
}

func TestLocalStorage_RejectsEscapingPaths(t *testing.T) {
	ctx := context.Background()
	s, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, p := range []string{"../outside.txt", "/etc/passwd", "."} {
		_, err := s.Save(ctx, p, "text/plain", strings.NewReader("x"))
		assert.ErrorIs(t, err, storage.ErrInvalidPath, p)
	}
}

func TestAttachmentStore_Upload(t *testing.T) {
	ctx := context.Background()
	backend, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	attachments := storage.NewAttachmentStore(backend, 10, zap.NewNop())

	att, err := attachments.Upload(ctx, "photo.jpg", "image/jpeg", bytes.NewReader([]byte("0123456789")))
	require.NoError(t, err)
	assert.NotEmpty(t, att.ID)
	assert.Equal(t, "photo.jpg", att.FileName)
	assert.Equal(t, "image/jpeg", att.FileType)
	assert.Equal(t, int64(10), att.FileSize)
	assert.False(t, att.UploadedAt.IsZero())

	rc, err := attachments.Open(ctx, att.FileURL)
	require.NoError(t, err)
	content, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "0123456789", string(content))

	require.NoError(t, attachments.Remove(ctx, att.FileURL))
}

func TestAttachmentStore_RejectsOversizedFiles(t *testing.T) {
	backend, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	attachments := storage.NewAttachmentStore(backend, 10, zap.NewNop())

	_, err = attachments.Upload(context.Background(), "big.bin", "application/octet-stream", bytes.NewReader(make([]byte, 11)))
	assert.ErrorIs(t, err, storage.ErrFileTooLarge)
}

func TestAttachmentStore_DefaultCap(t *testing.T) {
	backend, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	attachments := storage.NewAttachmentStore(backend, 0, zap.NewNop())
	assert.Equal(t, int64(5*1024*1024), attachments.MaxSize())
}
