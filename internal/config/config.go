package config

import (
	"fmt"
	"time"
)

// Config is the service configuration, one section per concern
type Config struct {
	App           AppConfig
	Logging       LoggingConfig
	Server        ServerConfig
	CORS          CORSConfig
	Security      SecurityConfig
	RateLimit     RateLimitConfig
	Seed          SeedConfig
	Reference     ReferenceConfig
	DataWarehouse DataWarehouseConfig
	Preferences   PreferencesConfig
	Storage       StorageConfig
	Secrets       SecretsConfig
	Snapshot      SnapshotConfig
	Metrics       MetricsConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Port        int
	// DefaultActingUserID is attributed to mutations whose request names no acting user
	DefaultActingUserID int
}

type LoggingConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int
	EnableSwagger  bool
}

type CORSConfig struct {
	// AllowedOrigins is a list of allowed origins; "*" allows all
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	// MaxAge is the preflight cache lifetime in seconds
	MaxAge int
}

// SecurityConfig selects the response headers set on every request
type SecurityConfig struct {
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	HSTSPreload           bool
	ContentSecurityPolicy string
	// FrameOptions sets X-Frame-Options (DENY, SAMEORIGIN, or empty to disable)
	FrameOptions       string
	ContentTypeNosniff bool
	XSSProtection      string
	ReferrerPolicy     string
	PermissionsPolicy  string
}

type RateLimitConfig struct {
	Enabled bool
	// RequestsPerMinute is the limit per client IP
	RequestsPerMinute int
	// RequestsPerMinuteActor is the limit per acting user on mutating requests
	RequestsPerMinuteActor int
	WhitelistIPs           []string
	WhitelistPaths         []string
}

// SeedConfig points at the static seed records read once at startup
type SeedConfig struct {
	// Dir holds projects and opportunities as .json, .yaml or .yml files
	Dir string
}

// ReferenceConfig selects where sales reps, stages, types and divisions come from
type ReferenceConfig struct {
	// Source is "file" or "warehouse"
	Source string
	// Dir is read by the file source; empty means Seed.Dir
	Dir string
}

// DataWarehouseConfig holds configuration for the optional, read-only
// MS SQL Server reference-data source
type DataWarehouseConfig struct {
	Enabled bool
	// URL is host:port/database (from the WAREHOUSE-URL secret)
	URL      string
	User     string
	Password string
	// Schema prefixes the reference tables
	Schema          string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // seconds
	QueryTimeout    int // seconds
}

// PreferencesConfig selects the durable preference backend
type PreferencesConfig struct {
	// Backend is "memory", "sqlite" or "postgres"
	Backend    string
	SQLitePath string
	Database   DatabaseConfig
}

// DatabaseConfig holds PostgreSQL connection settings for the preference backend
type DatabaseConfig struct {
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

type StorageConfig struct {
	// Mode is "local" or "cloud"
	Mode                  string
	LocalBasePath         string
	CloudConnectionString string
	CloudContainer        string
	MaxUploadSizeMB       int64
}

type SecretsConfig struct {
	// Source is "environment", "vault" or "auto"
	Source       string
	KeyVaultName string
	CacheEnabled bool
	CacheTTL     int // seconds
}

// SnapshotConfig controls the periodic change-log export
type SnapshotConfig struct {
	Enabled bool
	// Schedule is a six-field cron expression (with seconds)
	Schedule string
	// Prefix is prepended to snapshot file names in storage
	Prefix string
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled   bool
	Namespace string
	Path      string
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// ConnectionString is the lib/pq DSN for the preference database
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

func (d *DatabaseConfig) ConnMaxLifetimeDuration() time.Duration { return seconds(d.ConnMaxLifetime) }

func (s *ServerConfig) ReadTimeoutDuration() time.Duration { return seconds(s.ReadTimeout) }
func (s *ServerConfig) WriteTimeoutDuration() time.Duration { return seconds(s.WriteTimeout) }
func (s *ServerConfig) RequestTimeoutDuration() time.Duration { return seconds(s.RequestTimeout) }

func (d *DataWarehouseConfig) ConnMaxLifetimeDuration() time.Duration {
	return seconds(d.ConnMaxLifetime)
}

func (d *DataWarehouseConfig) QueryTimeoutDuration() time.Duration { return seconds(d.QueryTimeout) }

// CacheTTLDuration is how long vault secrets stay cached
func (s *SecretsConfig) CacheTTLDuration() time.Duration { return seconds(s.CacheTTL) }

// MaxUploadBytes returns the upload cap in bytes
func (s *StorageConfig) MaxUploadBytes() int64 {
	return s.MaxUploadSizeMB << 20
}

// ReferenceDir returns the directory read by the file reference source
func (c *Config) ReferenceDir() string {
	if c.Reference.Dir != "" {
		return c.Reference.Dir
	}
	return c.Seed.Dir
}
