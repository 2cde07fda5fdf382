package router

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/straye-as/jobsite-crm/internal/config"
	"github.com/straye-as/jobsite-crm/internal/database"
	"github.com/straye-as/jobsite-crm/internal/datawarehouse"
	"github.com/straye-as/jobsite-crm/internal/domain"
	"github.com/straye-as/jobsite-crm/internal/http/handler"
	"github.com/straye-as/jobsite-crm/internal/http/middleware"
	"github.com/straye-as/jobsite-crm/internal/metrics"
	"github.com/straye-as/jobsite-crm/internal/preferences"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	_ "github.com/straye-as/jobsite-crm/docs" // Import generated swagger docs
)

type Router struct {
	cfg                *config.Config
	logger             *zap.Logger
	prefBackend        preferences.Backend
	warehouse          *datawarehouse.Client
	metrics            *metrics.Collector
	rateLimiter        *middleware.RateLimiter
	projectHandler     *handler.ProjectHandler
	opportunityHandler *handler.OpportunityHandler
	companyHandler     *handler.CompanyHandler
	activityHandler    *handler.ActivityHandler
	noteHandler        *handler.NoteHandler
	equipmentHandler   *handler.EquipmentHandler
	preferenceHandler  *handler.PreferenceHandler
	referenceHandler   *handler.ReferenceHandler
	pipelineHandler    *handler.PipelineHandler
	changeLogHandler   *handler.ChangeLogHandler
}

// NewRouter wires the handlers. metrics and warehouse may be nil when
// disabled.
func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	prefBackend preferences.Backend,
	warehouse *datawarehouse.Client,
	collector *metrics.Collector,
	rateLimiter *middleware.RateLimiter,
	projectHandler *handler.ProjectHandler,
	opportunityHandler *handler.OpportunityHandler,
	companyHandler *handler.CompanyHandler,
	activityHandler *handler.ActivityHandler,
	noteHandler *handler.NoteHandler,
	equipmentHandler *handler.EquipmentHandler,
	preferenceHandler *handler.PreferenceHandler,
	referenceHandler *handler.ReferenceHandler,
	pipelineHandler *handler.PipelineHandler,
	changeLogHandler *handler.ChangeLogHandler,
) *Router {
	return &Router{
		cfg:                cfg,
		logger:             logger,
		prefBackend:        prefBackend,
		warehouse:          warehouse,
		metrics:            collector,
		rateLimiter:        rateLimiter,
		projectHandler:     projectHandler,
		opportunityHandler: opportunityHandler,
		companyHandler:     companyHandler,
		activityHandler:    activityHandler,
		noteHandler:        noteHandler,
		equipmentHandler:   equipmentHandler,
		preferenceHandler:  preferenceHandler,
		referenceHandler:   referenceHandler,
		pipelineHandler:    pipelineHandler,
		changeLogHandler:   changeLogHandler,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.Recovery(rt.logger))
	if rt.metrics != nil {
		r.Use(rt.metrics.Middleware)
	}
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Preference database health check with pool stats
	r.Get("/health/db", rt.databaseHealth)

	// Combined readiness check
	r.Get("/health/ready", rt.readiness)

	if rt.metrics != nil {
		r.Handle(rt.cfg.Metrics.Path, rt.metrics.Handler())
	}

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ActingUser(domain.UserID(rt.cfg.App.DefaultActingUserID)))
		r.Use(rt.rateLimiter.Limit)
		if d := rt.cfg.Server.RequestTimeoutDuration(); d > 0 {
			r.Use(chimw.Timeout(d))
		}

		// Projects and their nested entities
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", rt.projectHandler.List)
			r.Post("/", rt.projectHandler.Create)
			r.Get("/{id}", rt.projectHandler.GetByID)
			r.Patch("/{id}", rt.projectHandler.Update)
			r.Get("/{id}/changelog", rt.projectHandler.ChangeLog)

			r.Put("/{id}/opportunities/{opportunityId}", rt.opportunityHandler.Associate)
			r.Delete("/{id}/opportunities/{opportunityId}", rt.opportunityHandler.Disassociate)

			r.Post("/{id}/companies", rt.companyHandler.Add)
			r.Post("/{id}/companies/associate", rt.companyHandler.AssociateExisting)
			r.Put("/{id}/companies/by-name/{name}", rt.companyHandler.UpdateByName)
			r.Delete("/{id}/companies/by-name/{name}", rt.companyHandler.RemoveByName)
			r.Put("/{id}/companies/{associationId}", rt.companyHandler.Update)
			r.Delete("/{id}/companies/{associationId}", rt.companyHandler.Remove)
			r.Post("/{id}/companies/{associationId}/contacts", rt.companyHandler.AddContact)
			r.Put("/{id}/companies/{associationId}/contacts/{contactId}", rt.companyHandler.UpdateContact)
			r.Delete("/{id}/companies/{associationId}/contacts/{contactId}", rt.companyHandler.RemoveContact)
			r.Put("/{id}/companies/{associationId}/primary-contact", rt.companyHandler.SetPrimaryContact)

			r.Get("/{id}/activities", rt.activityHandler.List)
			r.Post("/{id}/activities", rt.activityHandler.Create)
			r.Patch("/{id}/activities/{activityId}", rt.activityHandler.Update)
			r.Delete("/{id}/activities/{activityId}", rt.activityHandler.Delete)

			r.Get("/{id}/notes", rt.noteHandler.List)
			r.Post("/{id}/notes", rt.noteHandler.Create)
			r.Patch("/{id}/notes/{noteId}", rt.noteHandler.Update)
			r.Delete("/{id}/notes/{noteId}", rt.noteHandler.Delete)
			r.Post("/{id}/notes/{noteId}/attachments", rt.noteHandler.UploadAttachment)
			r.Get("/{id}/notes/{noteId}/attachments/{attachmentId}", rt.noteHandler.DownloadAttachment)

			r.Post("/{id}/equipment", rt.equipmentHandler.Create)
			r.Patch("/{id}/equipment/{equipmentId}", rt.equipmentHandler.Update)
			r.Delete("/{id}/equipment/{equipmentId}", rt.equipmentHandler.Delete)
		})

		// Opportunities
		r.Route("/opportunities", func(r chi.Router) {
			r.Get("/", rt.opportunityHandler.List)
			r.Post("/", rt.opportunityHandler.Create)
			r.Get("/{id}", rt.opportunityHandler.GetByID)
			r.Patch("/{id}", rt.opportunityHandler.Update)
		})

		// Pipeline views
		r.Get("/pipeline", rt.pipelineHandler.Get)
		r.Get("/pipeline/revenue-by-type", rt.pipelineHandler.RevenueByType)

		// Change log
		r.Get("/changelog", rt.changeLogHandler.List)
		r.Get("/changelog/export", rt.changeLogHandler.Export)

		// Preferences
		r.Route("/preferences", func(r chi.Router) {
			r.Get("/filters", rt.preferenceHandler.GetFilters)
			r.Put("/filters", rt.preferenceHandler.SetFilters)
			r.Get("/note-tags", rt.preferenceHandler.ListNoteTags)
			r.Post("/note-tags", rt.preferenceHandler.AddNoteTag)
			r.Put("/note-tags/reorder", rt.preferenceHandler.ReorderNoteTags)
			r.Patch("/note-tags/{tagId}", rt.preferenceHandler.UpdateNoteTag)
			r.Delete("/note-tags/{tagId}", rt.preferenceHandler.RemoveNoteTag)
			r.Get("/status-colors", rt.preferenceHandler.GetStatusColors)
			r.Put("/status-colors/{statusId}", rt.preferenceHandler.SetStatusColor)
		})

		// Reference data
		r.Route("/reference", func(r chi.Router) {
			r.Get("/sales-reps", rt.referenceHandler.SalesReps)
			r.Get("/stages", rt.referenceHandler.Stages)
			r.Get("/types", rt.referenceHandler.Types)
			r.Get("/divisions", rt.referenceHandler.Divisions)
			r.Get("/activity-types", rt.referenceHandler.ActivityTypes)
		})
	})

	return r
}

func (rt *Router) databaseHealth(w http.ResponseWriter, r *http.Request) {
	gb, ok := rt.prefBackend.(*preferences.GormBackend)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "healthy",
			"service": "database",
			"backend": preferences.BackendMemory,
		})
		return
	}

	stats, err := database.HealthCheckWithStats(gb.DB())
	if err != nil {
		rt.logger.Error("Database health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":  "unhealthy",
			"error":   err.Error(),
			"service": "database",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "database",
		"backend": rt.cfg.Preferences.Backend,
		"stats": map[string]any{
			"max_open_connections": stats.MaxOpenConnections,
			"open_connections":     stats.OpenConnections,
			"in_use":               stats.InUse,
			"idle":                 stats.Idle,
			"wait_count":           stats.WaitCount,
			"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
		},
	})
}

func (rt *Router) readiness(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]any)
	allHealthy := true

	if err := preferences.HealthCheck(rt.prefBackend); err != nil {
		rt.logger.Error("Preference backend health check failed", zap.Error(err))
		checks["preferences"] = map[string]any{"status": "unhealthy", "error": err.Error()}
		allHealthy = false
	} else {
		checks["preferences"] = map[string]any{"status": "healthy"}
	}

	// The warehouse is optional; only an enabled but failing one is unhealthy
	dwStatus := rt.warehouse.HealthCheck(r.Context())
	checks["datawarehouse"] = dwStatus
	if dwStatus.Status == "unhealthy" {
		allHealthy = false
	}

	status := http.StatusOK
	overall := "healthy"
	if !allHealthy {
		status = http.StatusServiceUnavailable
		overall = "unhealthy"
	}
	writeJSON(w, status, map[string]any{
		"status":    overall,
		"checks":    checks,
		"timestamp": time.Now().UTC(),
	})
}
