package preferences

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/straye-as/jobsite-crm/internal/config"
	"github.com/straye-as/jobsite-crm/internal/database"
	"github.com/straye-as/jobsite-crm/internal/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrUnknownBackend is returned for an unsupported backend name
	ErrUnknownBackend = errors.New("unknown preference backend")
	// ErrNotFound is returned by backends for keys never written
	ErrNotFound = errors.New("preference not found")
)

// BackendMemory keeps preferences for the lifetime of the process only
const BackendMemory = "memory"

// Backend is a string key/value store
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// NewBackend creates the backend named in configuration. Database backends
// get their table created if missing.
func NewBackend(cfg *config.PreferencesConfig, logger *zap.Logger) (Backend, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		logger.Info("Using in-memory preference backend")
		return NewMemoryBackend(), nil
	case database.DialectSQLite, database.DialectPostgres:
		db, err := database.NewDatabase(cfg)
		if err != nil {
			return nil, err
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("failed to migrate preference table: %w", err)
		}
		logger.Info("Using database preference backend", zap.String("backend", cfg.Backend))
		return NewGormBackend(db), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Backend)
	}
}

// MemoryBackend stores values in a map
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryBackend creates an empty memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string]string)}
}

// Get implements Backend
func (b *MemoryBackend) Get(ctx context.Context, key string) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v, ok := b.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set implements Backend
func (b *MemoryBackend) Set(ctx context.Context, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.values[key] = value
	return nil
}

// GormBackend stores values in the preferences table
type GormBackend struct {
	db *gorm.DB
}

// NewGormBackend creates a backend over an open, migrated database
func NewGormBackend(db *gorm.DB) *GormBackend {
	return &GormBackend{db: db}
}

// Get implements Backend
func (b *GormBackend) Get(ctx context.Context, key string) (string, error) {
	var record domain.PreferenceRecord
	err := b.db.WithContext(ctx).Where(&domain.PreferenceRecord{Key: key}).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read preference %s: %w", key, err)
	}
	return record.Value, nil
}

// Set implements Backend
func (b *GormBackend) Set(ctx context.Context, key, value string) error {
	record := domain.PreferenceRecord{Key: key, Value: value}
	err := b.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to write preference %s: %w", key, err)
	}
	return nil
}

// DB returns the underlying connection
func (b *GormBackend) DB() *gorm.DB {
	return b.db
}

// HealthCheck reports whether the backend can serve reads. The memory
// backend is always healthy.
func HealthCheck(backend Backend) error {
	if gb, ok := backend.(*GormBackend); ok {
		return database.HealthCheck(gb.db)
	}
	return nil
}
