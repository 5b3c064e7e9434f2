// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig               `mapstructure:"app"`
	Camunda      CamundaConfig           `mapstructure:"camunda"`
	Database     DatabaseConfig          `mapstructure:"database"`
	Workers      map[string]WorkerConfig `mapstructure:"workers"`
	Integrations IntegrationConfig       `mapstructure:"integrations"`
	Leads        LeadsConfig             `mapstructure:"leads"`
	Logging      LoggingConfig           `mapstructure:"logging"`
	Metrics      MetricsConfig           `mapstructure:"metrics"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
	// MigrationsPath, when set, is applied at startup.
	MigrationsPath string `mapstructure:"migrations_path"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// IntegrationConfig holds settings for the lead service and AWS.
type IntegrationConfig struct {
	WLS WLSConfig `mapstructure:"wls"`

	AWS struct {
		Region string `mapstructure:"region"`
		SNS    struct {
			Enabled  bool   `mapstructure:"enabled"`
			TopicARN string `mapstructure:"topic_arn"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

// WLSConfig configures the remote lead service client.
type WLSConfig struct {
	Environment  string `mapstructure:"environment"` // "live" or anything else for dev
	EndpointURL  string `mapstructure:"endpoint_url"`
	Namespace    string `mapstructure:"namespace"`
	ProviderCode string `mapstructure:"provider_code"`
	Login        string `mapstructure:"login"`
	Password     string `mapstructure:"password"`
	UserAgent    string `mapstructure:"user_agent"`
	Timeout      int    `mapstructure:"timeout"` // milliseconds
}

// LeadsConfig holds routing and schema cache settings.
type LeadsConfig struct {
	// GroupAliases overrides the accepted input keys per group. Values may be a
	// single string or a list of strings.
	GroupAliases   map[string]interface{} `mapstructure:"group_aliases"`
	SchemaCacheTTL int                    `mapstructure:"schema_cache_ttl"` // seconds, 0 disables the shared cache
	// Timezone is the IANA zone DATE and DATETIME fields are sent in.
	Timezone string `mapstructure:"timezone"`
}

// Location resolves Timezone. Load has already checked it.
func (l LeadsConfig) Location() (*time.Location, error) {
	return time.LoadLocation(l.Timezone)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig holds the admin HTTP listener settings.
type MetricsConfig struct {
	Address string `mapstructure:"address"`
}
