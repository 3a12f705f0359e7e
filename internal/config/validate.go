// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package config

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Search result cap bounds.
const (
	MinSearchResults = 50
	MaxSearchResults = 500
)

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	if err := c.validateData(); err != nil {
		return err
	}

	if err := c.validateIngest(); err != nil {
		return err
	}

	if err := c.validateDownload(); err != nil {
		return err
	}

	if err := c.validateSearch(); err != nil {
		return err
	}

	if err := c.validateReview(); err != nil {
		return err
	}

	if err := c.validateCache(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateData() error {
	if c.Data.Dir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	for name, v := range map[string]string{
		"CATALOG_FILE": c.Data.CatalogFile,
		"REVIEWS_FILE": c.Data.ReviewsFile,
		"USERS_FILE":   c.Data.UsersFile,
		"IMDB_DIR":     c.Data.IMDbDir,
	} {
		if v == "" {
			return fmt.Errorf("%s is required", name)
		}
	}
	return nil
}

func (c *Config) validateIngest() error {
	if c.Ingest.MinVotes < 0 {
		return fmt.Errorf("INGEST_MIN_VOTES must be non-negative, got %d", c.Ingest.MinVotes)
	}
	if c.Ingest.ProgressEvery <= 0 {
		return fmt.Errorf("INGEST_PROGRESS_EVERY must be positive, got %d", c.Ingest.ProgressEvery)
	}
	if c.Ingest.Schedule && c.Ingest.Interval <= 0 {
		return fmt.Errorf("INGEST_INTERVAL must be positive when scheduling is enabled")
	}
	return nil
}

func (c *Config) validateDownload() error {
	u, err := url.Parse(c.Download.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("DOWNLOAD_BASE_URL must be an absolute URL, got %q", c.Download.BaseURL)
	}
	if c.Download.FilesPerMinute <= 0 {
		return fmt.Errorf("DOWNLOAD_FILES_PER_MINUTE must be positive, got %d", c.Download.FilesPerMinute)
	}
	if c.Download.BreakerFailures == 0 {
		return fmt.Errorf("DOWNLOAD_BREAKER_FAILURES must be at least 1")
	}
	return nil
}

func (c *Config) validateSearch() error {
	if c.Search.MaxResults < MinSearchResults || c.Search.MaxResults > MaxSearchResults {
		return fmt.Errorf("SEARCH_MAX_RESULTS must be between %d and %d, got %d",
			MinSearchResults, MaxSearchResults, c.Search.MaxResults)
	}
	if c.Search.PriorVotes <= 0 {
		return fmt.Errorf("SEARCH_PRIOR_VOTES must be positive, got %v", c.Search.PriorVotes)
	}
	if c.Recommend.PerGenreLimit <= 0 {
		return fmt.Errorf("RECOMMEND_PER_GENRE_LIMIT must be positive, got %d", c.Recommend.PerGenreLimit)
	}
	return nil
}

func (c *Config) validateReview() error {
	if c.Review.ScoreMin < 0 || c.Review.ScoreMin >= c.Review.ScoreMax {
		return fmt.Errorf("review score range [%d, %d] is invalid", c.Review.ScoreMin, c.Review.ScoreMax)
	}
	if c.Review.ActingThreshold < c.Review.ScoreMin || c.Review.ActingThreshold > c.Review.ScoreMax {
		return fmt.Errorf("REVIEW_ACTING_THRESHOLD must be within the score range, got %d", c.Review.ActingThreshold)
	}
	return nil
}

func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when CACHE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be 'memory' or 'redis', got %q", c.Cache.Backend)
	}
	if c.Cache.RecommendTTL <= 0 {
		return fmt.Errorf("CACHE_RECOMMEND_TTL must be positive")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if !c.Security.RateLimitDisabled && (c.Security.RateLimitReqs <= 0 || c.Security.RateLimitWindow <= 0) {
		return fmt.Errorf("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive")
	}
	if c.Security.BcryptCost < bcrypt.MinCost || c.Security.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d",
			bcrypt.MinCost, bcrypt.MaxCost, c.Security.BcryptCost)
	}
	if c.Security.PasswordMinLength < 1 {
		return fmt.Errorf("PASSWORD_MIN_LENGTH must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a known level", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be 'json' or 'console', got %q", c.Logging.Format)
	}
	return nil
}
