package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/traintrack/traintrack/pkg"
)

type Config struct {
	Environment string
	Host        string
	Port        int

	// logging
	LogLevel    string `toml:"log_level"`
	LogsPath    string `toml:"logs_path"`
	LogToStdout bool   `toml:"log_to_stdout"`

	SentryEnabled bool `toml:"sentry_enabled"`

	// postgres
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`

	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// prometheus metrics server
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	LoginRateLimitAllowedPerMin int `toml:"login_rate_limit_allowed_per_min"`

	QuotesCsvPath string `toml:"quotes_csv_path"`

	// health data provider used as fallback for steps counts
	HealthSyncBaseURL string `toml:"health_sync_base_url"`

	// daily calorie intake target, used for the remaining calories figure
	DailyCalorieTarget int `toml:"daily_calorie_target"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

func Load(env, path string) (*Config, error) {
	exists, err := pkg.PathExists(path, false)
	if err != nil {
		return nil, fmt.Errorf("check config file path: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("config file not found at: %s", path)
	}

	var tomlConfig Toml
	if _, err := toml.DecodeFile(path, &tomlConfig); err != nil {
		return nil, fmt.Errorf("decode config file: %w", err)
	}

	cfg, err := tomlConfig.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config for env: %s", env)
	}

	cfg.Environment = env
	return cfg, nil
}
