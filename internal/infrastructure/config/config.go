package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	sharedConfig "github.com/argus-sec/argus/internal/shared/config"
)

type Config struct {
	Database  sharedConfig.DatabaseConfig  `mapstructure:"database" validate:"required"`
	Redis     sharedConfig.RedisConfig     `mapstructure:"redis"`
	Logger    sharedConfig.LoggerConfig    `mapstructure:"logger"`
	Reconcile sharedConfig.ReconcileConfig `mapstructure:"reconcile"`
	Scheduler sharedConfig.SchedulerConfig `mapstructure:"scheduler"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	// Load single config file
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../configs")
	viper.AddConfigPath("../../configs")

	// Set environment variable prefix and replacer
	viper.SetEnvPrefix("ARGUS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set default values
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

// setDefaults sets default configuration values
func setDefaults() {
	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.username", "root")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.database", "argus_dev")
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_open_conns", 100)
	viper.SetDefault("database.conn_max_lifetime", 60)

	// Redis defaults (empty host disables the intelligence cache)
	viper.SetDefault("redis.host", "")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("logger.output_path", "stdout")

	// Reconciliation defaults
	viper.SetDefault("reconcile.reopen_days", 90)
	viper.SetDefault("reconcile.manual_scan", false)

	// Scheduler defaults
	viper.SetDefault("scheduler.enabled", false)
	viper.SetDefault("scheduler.interval_minutes", 60)
	viper.SetDefault("scheduler.source", "nessus")
	viper.SetDefault("scheduler.protocols", []string{"tcp", "udp"})
	viper.SetDefault("scheduler.metrics_addr", ":9090")
}
