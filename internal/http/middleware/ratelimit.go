package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/httprate"
	"github.com/straye-as/jobsite-crm/internal/config"
	"github.com/straye-as/jobsite-crm/internal/domain"
	"go.uber.org/zap"
)

// RateLimiter throttles reads per client IP and mutations per acting user
type RateLimiter struct {
	enabled      bool
	logger       *zap.Logger
	byIP         func(http.Handler) http.Handler
	byActor      func(http.Handler) http.Handler
	exemptIPs    map[string]bool
	exemptPaths  map[string]bool
	exemptPrefix []string
}

// NewRateLimiter builds the limiters from config. Whitelisted paths ending
// in "/*" exempt everything below the prefix.
func NewRateLimiter(cfg *config.RateLimitConfig, logger *zap.Logger) *RateLimiter {
	rl := &RateLimiter{
		enabled:     cfg.Enabled,
		logger:      logger,
		exemptIPs:   make(map[string]bool, len(cfg.WhitelistIPs)),
		exemptPaths: make(map[string]bool, len(cfg.WhitelistPaths)),
	}
	for _, ip := range cfg.WhitelistIPs {
		rl.exemptIPs[ip] = true
	}
	for _, path := range cfg.WhitelistPaths {
		if prefix, ok := strings.CutSuffix(path, "/*"); ok {
			rl.exemptPrefix = append(rl.exemptPrefix, prefix)
			continue
		}
		rl.exemptPaths[path] = true
	}

	rl.byIP = httprate.Limit(cfg.RequestsPerMinute, time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) { return clientIP(r), nil }),
		httprate.WithLimitHandler(rl.rejected),
	)
	rl.byActor = httprate.Limit(cfg.RequestsPerMinuteActor, time.Minute,
		httprate.WithKeyFuncs(actorKeyFunc),
		httprate.WithLimitHandler(rl.rejected),
	)

	if cfg.Enabled {
		logger.Info("Rate limiter initialized",
			zap.Int("requests_per_minute", cfg.RequestsPerMinute),
			zap.Int("requests_per_minute_actor", cfg.RequestsPerMinuteActor),
			zap.Strings("whitelist_paths", cfg.WhitelistPaths),
		)
	}
	return rl
}

// Limit applies the per-actor limit to mutations and the per-IP limit to
// everything else. It must run after ActingUser.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	if !rl.enabled {
		return next
	}
	reads := rl.byIP(next)
	writes := rl.byActor(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case rl.exempt(r):
			next.ServeHTTP(w, r)
		case isMutation(r.Method):
			writes.ServeHTTP(w, r)
		default:
			reads.ServeHTTP(w, r)
		}
	})
}

// LimitByIP applies the per-IP limit to every request
func (rl *RateLimiter) LimitByIP(next http.Handler) http.Handler {
	if !rl.enabled {
		return next
	}
	limited := rl.byIP(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.exempt(r) {
			next.ServeHTTP(w, r)
			return
		}
		limited.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) exempt(r *http.Request) bool {
	if rl.exemptPaths[r.URL.Path] || rl.exemptIPs[clientIP(r)] {
		return true
	}
	for _, prefix := range rl.exemptPrefix {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func actorKeyFunc(r *http.Request) (string, error) {
	if actor, ok := ActorFromContext(r.Context()); ok {
		return "actor:" + strconv.Itoa(int(actor)), nil
	}
	return "ip:" + clientIP(r), nil
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// connection address
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (rl *RateLimiter) rejected(w http.ResponseWriter, r *http.Request) {
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("client_ip", clientIP(r)),
	}
	if actor, ok := ActorFromContext(r.Context()); ok {
		fields = append(fields, zap.Int("acting_user_id", int(actor)))
	}
	rl.logger.Warn("Rate limit exceeded", fields...)

	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, domain.ErrorTypeRateLimited, "Too many requests, try again later")
}
