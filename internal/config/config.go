package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"chainscout/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Subgraph struct {
		Endpoint          string `yaml:"endpoint"`
		RequestTimeoutSec int    `yaml:"request_timeout_sec"`
		MaxRetries        int    `yaml:"max_retries"`
		BackoffBaseMs     int    `yaml:"backoff_base_ms"`
		PageSize          int    `yaml:"page_size"`
		TokenPageSize     int    `yaml:"token_page_size"`
		TokenRefreshHours int    `yaml:"token_refresh_hours"`
	} `yaml:"subgraph"`
	Scout struct {
		CombineMode         string `yaml:"combine_mode"`
		Concurrency         int    `yaml:"concurrency"`
		ChunkSize           int    `yaml:"chunk_size"`
		RecentWindowDays    int    `yaml:"recent_window_days"`
		IncludeUnpriced     bool   `yaml:"include_unpriced"`
		MinTotalUSD         string `yaml:"min_total_usd"`
		PriceStalenessHours int    `yaml:"price_staleness_hours"`
	} `yaml:"scout"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Watch struct {
		Cron string `yaml:"cron"`
	} `yaml:"watch"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("SUBGRAPH_ENDPOINT"); v != "" {
		cfg.Subgraph.Endpoint = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("WATCH_CRON"); v != "" {
		cfg.Watch.Cron = v
	}
	if v := os.Getenv("SCOUT_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scout.Concurrency = n
		}
	}

	// Defaults
	if cfg.Subgraph.Endpoint == "" {
		cfg.Subgraph.Endpoint = "https://api.thegraph.com/subgraphs/name/uniswap/uniswap-v2"
	}
	if cfg.Subgraph.RequestTimeoutSec == 0 {
		cfg.Subgraph.RequestTimeoutSec = 60
	}
	if cfg.Subgraph.MaxRetries == 0 {
		cfg.Subgraph.MaxRetries = 5
	}
	if cfg.Subgraph.BackoffBaseMs == 0 {
		cfg.Subgraph.BackoffBaseMs = 1000
	}
	if cfg.Subgraph.PageSize == 0 {
		cfg.Subgraph.PageSize = 500
	}
	if cfg.Subgraph.TokenPageSize == 0 {
		cfg.Subgraph.TokenPageSize = 1000
	}
	if cfg.Subgraph.TokenRefreshHours == 0 {
		cfg.Subgraph.TokenRefreshHours = 24
	}
	if cfg.Scout.CombineMode == "" {
		cfg.Scout.CombineMode = string(model.CombineAny)
	}
	if cfg.Scout.Concurrency == 0 {
		cfg.Scout.Concurrency = 4
	}
	if cfg.Scout.ChunkSize == 0 {
		cfg.Scout.ChunkSize = 25
	}
	if cfg.Scout.RecentWindowDays == 0 {
		cfg.Scout.RecentWindowDays = 30
	}
	if cfg.Scout.MinTotalUSD == "" {
		cfg.Scout.MinTotalUSD = "0"
	}
	if cfg.Scout.PriceStalenessHours == 0 {
		cfg.Scout.PriceStalenessHours = 48
	}

	return cfg, nil
}

// Validate checks that all required fields are coherent.
func (c *Config) Validate() error {
	if c.Subgraph.Endpoint == "" {
		return fmt.Errorf("subgraph.endpoint is required")
	}
	if c.Scout.Concurrency <= 0 {
		return fmt.Errorf("scout.concurrency must be positive")
	}
	if c.Scout.ChunkSize <= 0 {
		return fmt.Errorf("scout.chunk_size must be positive")
	}
	if c.Scout.RecentWindowDays <= 0 {
		return fmt.Errorf("scout.recent_window_days must be positive")
	}
	if _, err := model.ParseCombineMode(c.Scout.CombineMode); err != nil {
		return fmt.Errorf("scout.combine_mode: %v", err)
	}
	if _, err := decimal.NewFromString(c.Scout.MinTotalUSD); err != nil {
		return fmt.Errorf("scout.min_total_usd is not numeric: %v", err)
	}
	return nil
}

// MinTotalUSDDecimal returns the parsed ranking floor. Validate must have
// passed first.
func (c *Config) MinTotalUSDDecimal() decimal.Decimal {
	d, _ := decimal.NewFromString(c.Scout.MinTotalUSD)
	return d
}
