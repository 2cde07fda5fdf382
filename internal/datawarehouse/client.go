// Package datawarehouse provides read-only connectivity to the MS SQL Server
// data warehouse that owns the CRM reference tables (sales reps, stages,
// opportunity types, divisions).
package datawarehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb" // MS SQL Server driver
	"github.com/straye-as/jobsite-crm/internal/config"
	"go.uber.org/zap"
)

const (
	defaultPort         = "1433"
	pingTimeout         = 5 * time.Second
	defaultQueryTimeout = 30 * time.Second
	maxLoggedQuery      = 200
)

var errNotInitialized = errors.New("data warehouse client not initialized")

// retryPolicy controls how often the initial connection is attempted
type retryPolicy struct {
	attempts int
	initial  time.Duration
	max      time.Duration
}

var connectRetry = retryPolicy{attempts: 3, initial: time.Second, max: 10 * time.Second}

func (p retryPolicy) next(d time.Duration) time.Duration {
	return min(2*d, p.max)
}

// Row is one result row keyed by column name
type Row map[string]any

// Client provides read-only access to the warehouse reference tables.
// A nil *Client is valid and behaves as a disabled warehouse.
type Client struct {
	db           *sql.DB
	schema       string
	logger       *zap.Logger
	queryTimeout time.Duration
}

// HealthStatus is the readiness view of the warehouse connection pool
type HealthStatus struct {
	Status     string        `json:"status"`
	Latency    time.Duration `json:"latency_ms"`
	Error      string        `json:"error,omitempty"`
	MaxOpen    int           `json:"max_open_connections"`
	Open       int           `json:"open_connections"`
	InUse      int           `json:"in_use"`
	Idle       int           `json:"idle"`
	WaitCount  int64         `json:"wait_count"`
	WaitTimeMs int64         `json:"wait_time_ms"`
}

// NewClient connects to the warehouse. It returns (nil, nil) when the
// warehouse is disabled or its credentials are incomplete, so callers fall
// back to file-based reference data.
func NewClient(cfg *config.DataWarehouseConfig, logger *zap.Logger) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		logger.Info("Data warehouse disabled")
		return nil, nil
	}
	if cfg.URL == "" || cfg.User == "" || cfg.Password == "" {
		logger.Warn("Data warehouse enabled but credentials are incomplete, skipping",
			zap.Bool("url_present", cfg.URL != ""),
			zap.Bool("user_present", cfg.User != ""),
			zap.Bool("password_present", cfg.Password != ""),
		)
		return nil, nil
	}

	connStr, err := buildConnectionString(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build connection string: %w", err)
	}

	db, err := connect(connStr, cfg, logger, connectRetry)
	if err != nil {
		return nil, err
	}
	return NewClientFromDB(db, cfg, logger), nil
}

func connect(connStr string, cfg *config.DataWarehouseConfig, logger *zap.Logger, policy retryPolicy) (*sql.DB, error) {
	var lastErr error
	wait := policy.initial

	for attempt := 1; attempt <= policy.attempts; attempt++ {
		if attempt > 1 {
			time.Sleep(wait)
			wait = policy.next(wait)
		}

		db, err := sql.Open("sqlserver", connStr)
		if err != nil {
			lastErr = err
			logger.Warn("Opening data warehouse failed", zap.Error(err), zap.Int("attempt", attempt))
			continue
		}
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		err = db.PingContext(ctx)
		cancel()
		if err != nil {
			lastErr = err
			_ = db.Close()
			logger.Warn("Data warehouse ping failed", zap.Error(err), zap.Int("attempt", attempt))
			continue
		}

		logger.Info("Data warehouse connected",
			zap.Int("attempt", attempt),
			zap.Int("max_open_conns", cfg.MaxOpenConns),
		)
		return db, nil
	}
	return nil, fmt.Errorf("failed to connect to data warehouse after %d attempts: %w", policy.attempts, lastErr)
}

// NewClientFromDB wraps an already opened handle, e.g. a test database
func NewClientFromDB(db *sql.DB, cfg *config.DataWarehouseConfig, logger *zap.Logger) *Client {
	c := &Client{db: db, logger: logger, queryTimeout: defaultQueryTimeout}
	if cfg != nil {
		c.schema = cfg.Schema
		if cfg.QueryTimeout > 0 {
			c.queryTimeout = cfg.QueryTimeoutDuration()
		}
	}
	return c
}

// buildConnectionString turns host[:port][/database] into a sqlserver URL
func buildConnectionString(cfg *config.DataWarehouseConfig) (string, error) {
	hostPort, database, _ := strings.Cut(cfg.URL, "/")
	host, port, found := strings.Cut(hostPort, ":")
	if !found || port == "" {
		port = defaultPort
	}
	if host == "" {
		return "", fmt.Errorf("data warehouse URL %q has no host", cfg.URL)
	}

	query := url.Values{}
	query.Set("encrypt", "true")
	query.Set("TrustServerCertificate", "false")
	query.Set("connection timeout", "30")
	if database != "" {
		query.Set("database", database)
	}

	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     host + ":" + port,
		RawQuery: query.Encode(),
	}
	return u.String(), nil
}

// Close releases the connection pool
func (c *Client) Close() error {
	if !c.IsEnabled() {
		return nil
	}
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("failed to close data warehouse connection: %w", err)
	}
	c.logger.Info("Data warehouse connection closed")
	return nil
}

// HealthCheck pings the warehouse and reports pool statistics. A disabled
// warehouse reports status "disabled".
func (c *Client) HealthCheck(ctx context.Context) *HealthStatus {
	if !c.IsEnabled() {
		return &HealthStatus{Status: "disabled"}
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, pingTimeout)
		defer cancel()
	}

	start := time.Now()
	err := c.db.PingContext(ctx)
	stats := c.db.Stats()
	status := &HealthStatus{
		Status:     "healthy",
		Latency:    time.Since(start),
		MaxOpen:    stats.MaxOpenConnections,
		Open:       stats.OpenConnections,
		InUse:      stats.InUse,
		Idle:       stats.Idle,
		WaitCount:  stats.WaitCount,
		WaitTimeMs: stats.WaitDuration.Milliseconds(),
	}
	if err != nil {
		c.logger.Warn("Data warehouse health check failed", zap.Error(err))
		status.Status = "unhealthy"
		status.Error = err.Error()
	}
	return status
}

// ExecuteQuery runs a read-only query and returns every row. The client's
// query timeout applies when ctx has no deadline.
func (c *Client) ExecuteQuery(ctx context.Context, query string, args ...any) ([]Row, error) {
	if !c.IsEnabled() {
		return nil, errNotInitialized
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.queryTimeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		c.logger.Error("Data warehouse query failed",
			zap.Error(err),
			zap.String("query", truncateQuery(query, maxLoggedQuery)),
		)
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	defer rows.Close()

	result, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("Data warehouse query completed",
		zap.String("query", truncateQuery(query, maxLoggedQuery)),
		zap.Int("rows", len(result)),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

// SelectAll reads the named columns of a whole reference table
func (c *Client) SelectAll(ctx context.Context, table string, columns ...string) ([]Row, error) {
	return c.ExecuteQuery(ctx, "SELECT "+strings.Join(columns, ", ")+" FROM "+c.TableName(table))
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get column names: %w", err)
	}

	var result []Row
	values := make([]any, len(columns))
	targets := make([]any, len(columns))
	for i := range values {
		targets[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return result, nil
}

// TableName qualifies a reference table with the configured schema
func (c *Client) TableName(table string) string {
	if c == nil || c.schema == "" {
		return table
	}
	return c.schema + "." + table
}

// IsEnabled reports whether the client holds a live connection pool
func (c *Client) IsEnabled() bool {
	return c != nil && c.db != nil
}

func truncateQuery(query string, maxLen int) string {
	if len(query) <= maxLen {
		return query
	}
	return query[:maxLen] + "..."
}
