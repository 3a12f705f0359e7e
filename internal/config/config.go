// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package config loads Cinematch configuration from defaults, an optional
// YAML file and environment variables, in that order of precedence.
package config

import (
	"path/filepath"
	"time"
)

// Config is the root configuration.
type Config struct {
	Data      DataConfig      `koanf:"data"`
	Ingest    IngestConfig    `koanf:"ingest"`
	Download  DownloadConfig  `koanf:"download"`
	Search    SearchConfig    `koanf:"search"`
	Recommend RecommendConfig `koanf:"recommend"`
	Review    ReviewConfig    `koanf:"review"`
	Cache     CacheConfig     `koanf:"cache"`
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// DataConfig locates the files Cinematch reads and writes.
type DataConfig struct {
	// Dir is the root data directory.
	// Default: data
	Dir string `koanf:"dir"`

	// IMDbDir holds the downloaded *.tsv.gz dumps. Relative paths resolve under Dir.
	// Default: imdb
	IMDbDir string `koanf:"imdb_dir"`

	// CatalogFile is the ingested snapshot. Relative paths resolve under Dir.
	// Default: movies.json
	CatalogFile string `koanf:"catalog_file"`

	// ReviewsFile is the review ledger. Relative paths resolve under Dir.
	// Default: reviews.json
	ReviewsFile string `koanf:"reviews_file"`

	// UsersFile holds user records and their preferences. Relative paths resolve under Dir.
	// Default: users.json
	UsersFile string `koanf:"users_file"`

	// HistoryDir is the Badger directory for ingestion run history. Empty disables it.
	// Default: history
	HistoryDir string `koanf:"history_dir"`
}

// IngestConfig controls the catalog ingestion pipeline.
type IngestConfig struct {
	// MinVotes is the vote-count floor for a title to enter the catalog.
	// Default: 1000
	MinVotes int `koanf:"min_votes"`

	// ProgressEvery logs principals progress every N rows.
	// Default: 100000
	ProgressEvery int `koanf:"progress_every"`

	// Schedule enables periodic ingestion inside the server process.
	// Default: false
	Schedule bool `koanf:"schedule"`

	// Interval between scheduled runs.
	// Default: 24h
	Interval time.Duration `koanf:"interval"`

	// RunOnStartup runs ingestion once when the scheduled service starts.
	// Default: false
	RunOnStartup bool `koanf:"run_on_startup"`

	// DownloadFirst fetches fresh dumps before each scheduled run.
	// Default: false
	DownloadFirst bool `koanf:"download_first"`
}

// DownloadConfig controls fetching of the raw dumps.
type DownloadConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`

	// FilesPerMinute paces consecutive file downloads.
	// Default: 30
	FilesPerMinute int `koanf:"files_per_minute"`

	// BreakerFailures opens the circuit after N consecutive failures.
	// Default: 3
	BreakerFailures uint32 `koanf:"breaker_failures"`

	// BreakerTimeout is how long the circuit stays open.
	// Default: 1m
	BreakerTimeout time.Duration `koanf:"breaker_timeout"`
}

// SearchConfig tunes search ranking.
type SearchConfig struct {
	// MaxResults caps the ranked list. Must be within 50..500.
	// Default: 100
	MaxResults int `koanf:"max_results"`

	// PriorVotes is the damping constant in votes/(votes+prior)*rating.
	// Default: 5000
	PriorVotes float64 `koanf:"prior_votes"`
}

// RecommendConfig tunes recommendation generation.
type RecommendConfig struct {
	// PerGenreLimit is how many titles each preferred genre contributes.
	// Default: 5
	PerGenreLimit int `koanf:"per_genre_limit"`
}

// ReviewConfig bounds review scores and the cast signal trigger.
type ReviewConfig struct {
	ScoreMin int `koanf:"score_min"`
	ScoreMax int `koanf:"score_max"`

	// ActingThreshold: acting scores strictly above it record a cast signal.
	// Default: 4
	ActingThreshold int `koanf:"acting_threshold"`
}

// CacheConfig selects the recommendation cache backend.
type CacheConfig struct {
	// Backend is "memory" or "redis".
	// Default: memory
	Backend string `koanf:"backend"`

	// RecommendTTL is how long cached recommendations live.
	// Default: 10m
	RecommendTTL time.Duration `koanf:"recommend_ttl"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// SecurityConfig holds HTTP-facing protections and the password policy.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`

	// BcryptCost for password hashes.
	// Default: 12
	BcryptCost int `koanf:"bcrypt_cost"`

	PasswordMinLength int `koanf:"password_min_length"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}

// Path resolves p under the data directory unless it is absolute.
func (d DataConfig) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(d.Dir, p)
}

// CatalogPath returns the resolved catalog snapshot path.
func (d DataConfig) CatalogPath() string { return d.Path(d.CatalogFile) }

// ReviewsPath returns the resolved review ledger path.
func (d DataConfig) ReviewsPath() string { return d.Path(d.ReviewsFile) }

// UsersPath returns the resolved user store path.
func (d DataConfig) UsersPath() string { return d.Path(d.UsersFile) }

// IMDbPath returns the resolved dump directory.
func (d DataConfig) IMDbPath() string { return d.Path(d.IMDbDir) }

// HistoryPath returns the resolved Badger directory, or "" when disabled.
func (d DataConfig) HistoryPath() string { return d.Path(d.HistoryDir) }

// PasswordPolicy returns the policy derived from security settings.
func (c *Config) PasswordPolicy() PasswordPolicy {
	policy := DefaultPasswordPolicy()
	if c.Security.PasswordMinLength > 0 {
		policy.MinLength = c.Security.PasswordMinLength
	}
	return policy
}

// Load reads configuration using the layered koanf loader.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
