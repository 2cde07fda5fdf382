package middleware

import (
	"net/http"
	"strconv"

	"github.com/straye-as/jobsite-crm/internal/config"
)

// securityHeaders resolves the configured header values once. Empty values
// are left out.
func securityHeaders(cfg *config.SecurityConfig) http.Header {
	h := http.Header{}
	set := func(name, value string) {
		if value != "" {
			h.Set(name, value)
		}
	}

	if cfg.ContentTypeNosniff {
		h.Set("X-Content-Type-Options", "nosniff")
	}
	set("X-Frame-Options", cfg.FrameOptions)
	set("X-XSS-Protection", cfg.XSSProtection)
	set("Content-Security-Policy", cfg.ContentSecurityPolicy)
	set("Referrer-Policy", cfg.ReferrerPolicy)
	set("Permissions-Policy", cfg.PermissionsPolicy)

	if cfg.EnableHSTS {
		hsts := "max-age=" + strconv.Itoa(cfg.HSTSMaxAge)
		if cfg.HSTSIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
		if cfg.HSTSPreload {
			hsts += "; preload"
		}
		h.Set("Strict-Transport-Security", hsts)
	}
	return h
}

// SecurityHeaders adds the configured security headers to every response
// and strips headers that identify the server
func SecurityHeaders(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	headers := securityHeaders(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			out := w.Header()
			for name, values := range headers {
				out[name] = values
			}
			out.Del("X-Powered-By")
			out.Del("Server")
			next.ServeHTTP(w, r)
		})
	}
}
