package config

import "fmt"

// DatabaseConfig holds the MySQL connection settings.
type DatabaseConfig struct {
	Host            string `mapstructure:"host" validate:"required"`
	Port            int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Username        string `mapstructure:"username" validate:"required"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database" validate:"required"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// RedisConfig holds the optional intelligence-cache settings.
// An empty Host disables the cache entirely.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// LoggerConfig controls log level, format and destination.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format" validate:"omitempty,oneof=console json"`
	OutputPath string `mapstructure:"output_path"`
}

// ReconcileConfig holds reconciliation-run tunables.
type ReconcileConfig struct {
	// ReopenDays is the window during which a closed ticket is reopened
	// instead of recreated when the same finding resurfaces.
	ReopenDays int `mapstructure:"reopen_days" validate:"required,min=1"`

	// ManualScan stamps every event appended during a run as manual.
	ManualScan bool `mapstructure:"manual_scan"`
}

// SchedulerConfig controls the periodic reconciliation job. Scope lists the
// addresses and CIDR prefixes the periodic pass covers.
type SchedulerConfig struct {
	Enabled         bool     `mapstructure:"enabled"`
	IntervalMinutes int      `mapstructure:"interval_minutes" validate:"omitempty,min=1"`
	Source          string   `mapstructure:"source"`
	SourceIDs       []int    `mapstructure:"source_ids"`
	Scope           []string `mapstructure:"scope"`
	Ports           []int    `mapstructure:"ports"`
	Protocols       []string `mapstructure:"protocols"`
	MetricsAddr     string   `mapstructure:"metrics_addr"`
}
