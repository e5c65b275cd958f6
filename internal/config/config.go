// Package config defines the global configuration structure for the
// carbonview service. Configuration is loaded once at process initialization
// and is immutable thereafter; sub-components receive only the specific
// config subsets they require, threaded explicitly through constructors.
//
// Values are resolved from the OS environment, with an optional .env file
// for local development. Any missing required value or invalid format causes
// startup to fail fast.
package config

import "time"

// Config is the top-level configuration struct for the carbonview service.
// It is populated once during process initialization and never modified.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Domain Configurations
	Server    ServerConfig
	Database  DatabaseConfig
	AWS       AWSConfig
	Emissions EmissionsConfig
	Footprint FootprintConfig
	Security  SecurityConfig
}

// ServerConfig holds HTTP server tuning parameters.
type ServerConfig struct {
	Port              string        `envconfig:"PORT" default:"4000"`
	ReadHeaderTimeout time.Duration `envconfig:"SERVER_READ_HEADER_TIMEOUT" default:"10s"`
	ReadTimeout       time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout      time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout       time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"120s"`

	// FootprintTimeout is the per-connection write deadline extension applied
	// by the footprint handler. Estimation over long date ranges can far
	// exceed the default write timeout.
	FootprintTimeout time.Duration `envconfig:"FOOTPRINT_ROUTE_TIMEOUT" default:"10m"`
}

// DatabaseConfig holds database connection and pool tuning parameters.
type DatabaseConfig struct {
	URL string `envconfig:"DATABASE_URL" validate:"required,url"`

	MaxConns          int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns          int           `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`
}

// AWSConfig holds AWS regional configuration for the recommendation engine's
// CloudWatch utilization queries.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`

	// LocalStack support (empty in prod)
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// EmissionsConfig holds the live grid-intensity upstream settings. When
// UpstreamURL is empty the emissions service serves static factors only.
type EmissionsConfig struct {
	UpstreamURL     string        `envconfig:"GRID_INTENSITY_URL"`
	UpstreamAPIKey  string        `envconfig:"GRID_INTENSITY_API_KEY"`
	UpstreamTimeout time.Duration `envconfig:"GRID_INTENSITY_TIMEOUT" default:"10s"`
}

// FootprintConfig holds estimation pipeline settings.
type FootprintConfig struct {
	// GroupByDefault is substituted when a footprint request omits groupBy.
	GroupByDefault string `envconfig:"GROUP_BY_DEFAULT" default:"day" validate:"oneof=day week month quarter year"`

	// CacheEnabled disables the estimate cache entirely when false, as if
	// every request carried ignoreCache=true.
	CacheEnabled bool `envconfig:"ESTIMATE_CACHE_ENABLED" default:"true"`
}

// SecurityConfig holds CORS settings for browser clients.
type SecurityConfig struct {
	CorsAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}
