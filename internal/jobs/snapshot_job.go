package jobs

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/straye-as/jobsite-crm/internal/changelog"
	"github.com/straye-as/jobsite-crm/internal/storage"
	"go.uber.org/zap"
)

// SnapshotJobName is the name of the change-log snapshot job
const SnapshotJobName = "changelog_snapshot"

// LatestSnapshotName is the file that always holds the newest snapshot
const LatestSnapshotName = "latest.json"

// SnapshotJob exports the whole change log as JSON to storage. Each run
// writes a timestamped file and overwrites the latest file. Runs that find
// no new entries since the previous export write nothing.
type SnapshotJob struct {
	recorder *changelog.Recorder
	storage  storage.Storage
	prefix   string
	timeout  time.Duration
	now      func() time.Time
	logger   *zap.Logger

	mu       sync.Mutex
	exported int
}

// NewSnapshotJob creates a snapshot job writing under prefix
func NewSnapshotJob(recorder *changelog.Recorder, store storage.Storage, prefix string, logger *zap.Logger) *SnapshotJob {
	return &SnapshotJob{
		recorder: recorder,
		storage:  store,
		prefix:   prefix,
		timeout:  2 * time.Minute,
		now:      time.Now,
		logger:   logger,
		exported: -1,
	}
}

// Run is the scheduler entry point
func (j *SnapshotJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if _, err := j.Export(ctx); err != nil {
		j.logger.Error("change-log snapshot failed", zap.Error(err))
	}
}

// Export writes a snapshot if the log grew since the last one and returns
// the name of the timestamped file, or "" when nothing was written.
func (j *SnapshotJob) Export(ctx context.Context) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	count := j.recorder.Len()
	if count == j.exported {
		j.logger.Debug("change log unchanged, skipping snapshot", zap.Int("entries", count))
		return "", nil
	}

	data, err := j.recorder.Export(changelog.Filter{})
	if err != nil {
		return "", fmt.Errorf("failed to encode change log: %w", err)
	}

	start := time.Now()
	name := path.Join(j.prefix, fmt.Sprintf("changelog-%s.json", j.now().UTC().Format("20060102T150405Z")))
	if _, err := j.storage.Save(ctx, name, "application/json", bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to write snapshot %s: %w", name, err)
	}
	latest := path.Join(j.prefix, LatestSnapshotName)
	if _, err := j.storage.Save(ctx, latest, "application/json", bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to write snapshot %s: %w", latest, err)
	}

	j.exported = count
	j.logger.Info("change-log snapshot written",
		zap.String("name", name),
		zap.Int("entries", count),
		zap.Int("bytes", len(data)),
		zap.Duration("duration", time.Since(start)))
	return name, nil
}

// RegisterSnapshotJob registers the snapshot job with the scheduler
func RegisterSnapshotJob(scheduler *Scheduler, job *SnapshotJob, cronExpr string) error {
	return scheduler.AddJob(SnapshotJobName, cronExpr, job.Run)
}
