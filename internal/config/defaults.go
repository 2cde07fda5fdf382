package config

import "github.com/spf13/viper"

// defaults apply before the config file and environment are read. CORS
// starts closed: no origin is allowed until one is configured.
var defaults = map[string]any{
	"app.name":                "Jobsite CRM",
	"app.environment":         "development",
	"app.port":                8080,
	"app.defaultActingUserId": 1,

	"logging.level":  "info",
	"logging.format": "console",

	"server.readTimeout":    30,
	"server.writeTimeout":   30,
	"server.requestTimeout": 60,
	"server.enableSwagger":  true,

	"cors.allowedOrigins":   []string{},
	"cors.allowedMethods":   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
	"cors.allowedHeaders":   []string{"Accept", "Content-Type", "X-Acting-User", "X-Request-ID"},
	"cors.exposedHeaders":   []string{"Location", "X-Request-ID"},
	"cors.allowCredentials": false,
	"cors.maxAge":           300,

	"security.enableHSTS":            false,
	"security.hstsMaxAge":            31536000,
	"security.hstsIncludeSubdomains": true,
	"security.hstsPreload":           false,
	"security.contentSecurityPolicy": "default-src 'self'",
	"security.frameOptions":          "DENY",
	"security.contentTypeNosniff":    true,
	"security.xssProtection":         "1; mode=block",
	"security.referrerPolicy":        "strict-origin-when-cross-origin",
	"security.permissionsPolicy":     "geolocation=(), microphone=(), camera=()",

	"rateLimit.enabled":                true,
	"rateLimit.requestsPerMinute":      120,
	"rateLimit.requestsPerMinuteActor": 60,
	"rateLimit.whitelistIPs":           []string{"127.0.0.1", "::1"},
	"rateLimit.whitelistPaths":         []string{"/health", "/health/*", "/metrics"},

	"seed.dir":         "./data",
	"reference.source": "file",

	"dataWarehouse.enabled":         false,
	"dataWarehouse.schema":          "dbo",
	"dataWarehouse.maxOpenConns":    10,
	"dataWarehouse.maxIdleConns":    2,
	"dataWarehouse.connMaxLifetime": 300,
	"dataWarehouse.queryTimeout":    30,

	"preferences.backend":                  "sqlite",
	"preferences.sqlitePath":               "./data/preferences.db",
	"preferences.database.host":            "localhost",
	"preferences.database.port":            5432,
	"preferences.database.name":            "jobsite",
	"preferences.database.user":            "jobsite_user",
	"preferences.database.sslMode":         "disable",
	"preferences.database.maxOpenConns":    5,
	"preferences.database.maxIdleConns":    2,
	"preferences.database.connMaxLifetime": 300,

	"storage.mode":            "local",
	"storage.localBasePath":   "./storage",
	"storage.cloudContainer":  "jobsite-attachments",
	"storage.maxUploadSizeMB": 5,

	"secrets.source":       "auto",
	"secrets.cacheEnabled": true,
	"secrets.cacheTTL":     300,

	"snapshot.enabled":  false,
	"snapshot.schedule": "0 0 2 * * *",
	"snapshot.prefix":   "changelog",

	"metrics.enabled":   true,
	"metrics.namespace": "jobsite",
	"metrics.path":      "/metrics",
}

func setDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}
