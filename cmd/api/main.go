package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/straye-as/jobsite-crm/docs"
	"github.com/straye-as/jobsite-crm/internal/changelog"
	"github.com/straye-as/jobsite-crm/internal/config"
	"github.com/straye-as/jobsite-crm/internal/datawarehouse"
	"github.com/straye-as/jobsite-crm/internal/http/handler"
	"github.com/straye-as/jobsite-crm/internal/http/middleware"
	"github.com/straye-as/jobsite-crm/internal/http/router"
	"github.com/straye-as/jobsite-crm/internal/jobs"
	"github.com/straye-as/jobsite-crm/internal/logger"
	"github.com/straye-as/jobsite-crm/internal/metrics"
	"github.com/straye-as/jobsite-crm/internal/migration"
	"github.com/straye-as/jobsite-crm/internal/preferences"
	"github.com/straye-as/jobsite-crm/internal/refdata"
	"github.com/straye-as/jobsite-crm/internal/seed"
	"github.com/straye-as/jobsite-crm/internal/storage"
	"github.com/straye-as/jobsite-crm/internal/store"
	"github.com/straye-as/jobsite-crm/internal/views"
	"go.uber.org/zap"
)

// @title Jobsite CRM API
// @version 1.0
// @description Projects, opportunities, companies, activities, notes and equipment for construction-industry sales teams

// @BasePath /api/v1

// @securityDefinitions.apikey ActingUser
// @in header
// @name X-Acting-User
// @description Sales rep the request acts as; defaults to the configured user

const shutdownGrace = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)

	// In development secrets come from the environment; in staging and
	// production from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	// Change log and entity store
	recorder := changelog.NewRecorder(log, time.Now)
	entityStore := store.New(recorder, log, time.Now)

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Metrics.Namespace, recorder.Len)
		recorder.Subscribe(collector.RecordMutation)
		entityStore.OnLookupMiss(collector.RecordLookupMiss)
	}

	// Seed records, normalized from every historical storage shape
	normalizer := migration.NewNormalizer(log, time.Now)
	seedReader := seed.NewReader(cfg.Seed.Dir, normalizer, log)
	data, err := seedReader.Load()
	switch {
	case errors.Is(err, seed.ErrSeedDirMissing):
		log.Warn("Seed directory missing, starting empty", zap.String("dir", cfg.Seed.Dir))
	case err != nil:
		return fmt.Errorf("failed to load seed data: %w", err)
	default:
		entityStore.Load(data.Projects, data.Opportunities)
		log.Info("Seed data loaded",
			zap.Int("projects", len(data.Projects)),
			zap.Int("opportunities", len(data.Opportunities)),
		)
	}

	// The data warehouse is optional and read-only
	var dwClient *datawarehouse.Client
	if cfg.DataWarehouse.Enabled {
		dwClient, err = datawarehouse.NewClient(&cfg.DataWarehouse, log)
		if err != nil {
			log.Warn("Data warehouse connection failed, continuing without it", zap.Error(err))
			dwClient = nil
		}
	} else {
		log.Info("Data warehouse not configured, skipping")
	}

	// Reference data
	refReader := seedReader
	if cfg.ReferenceDir() != cfg.Seed.Dir {
		refReader = seed.NewReader(cfg.ReferenceDir(), normalizer, log)
	}
	refSource, err := refdata.NewSource(&cfg.Reference, refReader, dwClient, log)
	if err != nil {
		return fmt.Errorf("failed to configure reference data: %w", err)
	}
	tables, err := refSource.Load(ctx)
	switch {
	case errors.Is(err, seed.ErrSeedDirMissing):
		log.Warn("Reference directory missing, using empty lookup tables", zap.String("dir", cfg.ReferenceDir()))
		tables = refdata.NewTables(nil, nil, nil, nil)
	case err != nil:
		return fmt.Errorf("failed to load reference data from %s: %w", refSource.Name(), err)
	}
	engine := views.NewEngine(entityStore, tables)

	// Preferences survive restarts; the store's tag taxonomy mirrors them
	prefBackend, err := preferences.NewBackend(&cfg.Preferences, log)
	if err != nil {
		return fmt.Errorf("failed to open preference backend: %w", err)
	}
	prefs := preferences.NewManager(prefBackend, log)
	prefs.Load(ctx)
	entityStore.SetNoteTags(prefs.NoteTags())
	entityStore.OnNoteTagsChanged(prefs.SetNoteTags)

	// Attachment storage
	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	attachments := storage.NewAttachmentStore(fileStorage, cfg.Storage.MaxUploadBytes(), log)
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Handlers
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)
	rt := router.NewRouter(
		cfg,
		log,
		prefBackend,
		dwClient,
		collector,
		rateLimiter,
		handler.NewProjectHandler(entityStore, engine, prefs, log),
		handler.NewOpportunityHandler(entityStore, log),
		handler.NewCompanyHandler(entityStore, log),
		handler.NewActivityHandler(entityStore, log),
		handler.NewNoteHandler(entityStore, attachments, log),
		handler.NewEquipmentHandler(entityStore, log),
		handler.NewPreferenceHandler(entityStore, prefs, log),
		handler.NewReferenceHandler(engine),
		handler.NewPipelineHandler(engine, prefs),
		handler.NewChangeLogHandler(recorder, log),
	)

	scheduler := startSnapshots(cfg, recorder, fileStorage, log)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := serve(sigCtx, srv, log)

	if scheduler != nil {
		<-scheduler.Stop().Done()
		log.Info("Scheduler stopped")
	}
	if dwClient != nil {
		if err := dwClient.Close(); err != nil {
			log.Warn("Error closing data warehouse connection", zap.Error(err))
		}
	}
	return serveErr
}

// startSnapshots schedules the change-log export; nil when disabled or the
// schedule does not parse
func startSnapshots(cfg *config.Config, recorder *changelog.Recorder, dst storage.Storage, log *zap.Logger) *jobs.Scheduler {
	if !cfg.Snapshot.Enabled {
		log.Info("Change-log snapshots disabled")
		return nil
	}

	scheduler := jobs.NewScheduler(log)
	job := jobs.NewSnapshotJob(recorder, dst, cfg.Snapshot.Prefix, log)
	if err := jobs.RegisterSnapshotJob(scheduler, job, cfg.Snapshot.Schedule); err != nil {
		log.Error("Failed to register snapshot job", zap.Error(err))
		return nil
	}
	scheduler.Start()
	log.Info("Snapshot job scheduled", zap.String("cron_expr", cfg.Snapshot.Schedule))
	return scheduler
}

// serve runs srv until it fails or ctx is cancelled, then drains in-flight
// requests for up to shutdownGrace
func serve(ctx context.Context, srv *http.Server, log *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("Listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutdown signal received, draining requests")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("Server stopped")
	return nil
}
