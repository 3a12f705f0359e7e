// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/cinematch/config.yaml",
	"/etc/cinematch/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DotEnvFile is loaded into the process environment before env vars are read.
var DotEnvFile = ".env"

func defaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Dir:         "data",
			IMDbDir:     "imdb",
			CatalogFile: "movies.json",
			ReviewsFile: "reviews.json",
			UsersFile:   "users.json",
			HistoryDir:  "history",
		},
		Ingest: IngestConfig{
			MinVotes:      1000,
			ProgressEvery: 100000,
			Schedule:      false,
			Interval:      24 * time.Hour,
			RunOnStartup:  false,
			DownloadFirst: false,
		},
		Download: DownloadConfig{
			BaseURL:         "https://datasets.imdbws.com/",
			Timeout:         30 * time.Minute,
			FilesPerMinute:  30,
			BreakerFailures: 3,
			BreakerTimeout:  time.Minute,
		},
		Search: SearchConfig{
			MaxResults: 100,
			PriorVotes: 5000,
		},
		Recommend: RecommendConfig{
			PerGenreLimit: 5,
		},
		Review: ReviewConfig{
			ScoreMin:        0,
			ScoreMax:        5,
			ActingThreshold: 4,
		},
		Cache: CacheConfig{
			Backend:      "memory",
			RecommendTTL: 10 * time.Minute,
			RedisAddr:    "localhost:6379",
		},
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
			BcryptCost:        12,
			PasswordMinLength: 6,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration with layered sources:
//  1. Defaults
//  2. Optional YAML config file
//  3. Environment variables (a .env file is merged in first when present)
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	// DATA_DIR -> data.dir, SEARCH_MAX_RESULTS -> search.max_results
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadDotEnv merges DotEnvFile into the environment without overriding
// variables that are already set.
func loadDotEnv() error {
	if DotEnvFile == "" {
		return nil
	}
	err := godotenv.Load(DotEnvFile)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", DotEnvFile, err)
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps lowercased environment variable names to koanf paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	"data_dir":     "data.dir",
	"imdb_dir":     "data.imdb_dir",
	"catalog_file": "data.catalog_file",
	"reviews_file": "data.reviews_file",
	"users_file":   "data.users_file",
	"history_dir":  "data.history_dir",

	"ingest_min_votes":      "ingest.min_votes",
	"ingest_progress_every": "ingest.progress_every",
	"ingest_schedule":       "ingest.schedule",
	"ingest_interval":       "ingest.interval",
	"ingest_run_on_startup": "ingest.run_on_startup",
	"ingest_download_first": "ingest.download_first",

	"download_base_url":         "download.base_url",
	"download_timeout":          "download.timeout",
	"download_files_per_minute": "download.files_per_minute",
	"download_breaker_failures": "download.breaker_failures",
	"download_breaker_timeout":  "download.breaker_timeout",

	"search_max_results": "search.max_results",
	"search_prior_votes": "search.prior_votes",

	"recommend_per_genre_limit": "recommend.per_genre_limit",

	"review_score_min":        "review.score_min",
	"review_score_max":        "review.score_max",
	"review_acting_threshold": "review.acting_threshold",

	"cache_backend":       "cache.backend",
	"cache_recommend_ttl": "cache.recommend_ttl",
	"redis_addr":          "cache.redis_addr",
	"redis_password":      "cache.redis_password",
	"redis_db":            "cache.redis_db",

	"http_port":             "server.port",
	"http_host":             "server.host",
	"http_timeout":          "server.timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",
	"bcrypt_cost":         "security.bcrypt_cost",
	"password_min_length": "security.password_min_length",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
