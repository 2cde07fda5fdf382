package middleware

import (
	"net/http"
	"slices"

	"github.com/go-chi/cors"
	"github.com/straye-as/jobsite-crm/internal/config"
	"go.uber.org/zap"
)

func isDevelopment(environment string) bool {
	return environment == "" || environment == "development" || environment == "local"
}

// originPolicy decides which origins may call the API. An empty list is
// open in development and closed everywhere else.
func originPolicy(origins []string, environment string, logger *zap.Logger) (allowed []string, fn func(*http.Request, string) bool) {
	anyOrigin := func(_ *http.Request, origin string) bool { return origin != "" }

	switch {
	case slices.Contains(origins, "*"):
		if !isDevelopment(environment) {
			logger.Warn("CORS wildcard origin outside development", zap.String("environment", environment))
		}
		return nil, anyOrigin
	case len(origins) > 0:
		logger.Info("CORS configured with explicit origins", zap.Strings("origins", origins))
		return origins, nil
	case isDevelopment(environment):
		logger.Info("CORS allowing all origins in development")
		return nil, anyOrigin
	default:
		// An empty AllowedOrigins means "*" to go-chi/cors, so deny through the func
		logger.Warn("CORS has no allowed origins; cross-origin requests are denied",
			zap.String("environment", environment))
		return nil, func(*http.Request, string) bool { return false }
	}
}

// CORS returns a CORS middleware configured from the application config.
// The acting-user header is always allowed so browser clients can attribute
// their mutations.
func CORS(cfg *config.CORSConfig, environment string, logger *zap.Logger) func(http.Handler) http.Handler {
	headers := slices.Clone(cfg.AllowedHeaders)
	if !slices.Contains(headers, ActingUserHeader) {
		headers = append(headers, ActingUserHeader)
	}

	origins, originFunc := originPolicy(cfg.AllowedOrigins, environment, logger)
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowOriginFunc:  originFunc,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   headers,
		ExposedHeaders:   cfg.ExposedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	})
}
