package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	RunModeOnce = "once"
	RunModeLoop = "loop"

	NoveltyIntersect = "intersect"
	NoveltyUnion     = "union"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName              string        `mapstructure:"app_name"`
	Env                  string        `mapstructure:"app_env"`
	LogLevel             string        `mapstructure:"log_level"`
	SourcesFile          string        `mapstructure:"sources_file"`
	PublishersFile       string        `mapstructure:"publishers_file"`
	RunMode              string        `mapstructure:"run_mode"`
	CrawlIntervalSeconds int64         `mapstructure:"crawl_interval"`
	CrawlInterval        time.Duration `mapstructure:"-"`
	DryRun               bool          `mapstructure:"dry_run"`

	StateType string `mapstructure:"state_type"`
	StateDir  string `mapstructure:"state_dir"`
	BBoltPath string `mapstructure:"bbolt_path"`
	StatePath string `mapstructure:"-"`
	BatchSize int    `mapstructure:"batch_size"`
	Backfill  int    `mapstructure:"backfill_pages"`
	Workers   int    `mapstructure:"fetch_concurrency"`
	Novelty   string `mapstructure:"novelty_policy"`

	HTTPTimeoutSeconds       int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout              time.Duration `mapstructure:"-"`
	ClassifierURL            string        `mapstructure:"classifier_url"`
	ClassifierTimeoutSeconds int64         `mapstructure:"classifier_timeout_seconds"`
	ClassifierTimeout        time.Duration `mapstructure:"-"`
	DefaultCategory          string        `mapstructure:"default_category"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "news-harvester")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("sources_file", "./configs/sources.yaml")
	v.SetDefault("publishers_file", "./configs/publishers.yaml")
	v.SetDefault("run_mode", RunModeOnce)
	v.SetDefault("crawl_interval", 900) // seconds
	v.SetDefault("dry_run", false)
	v.SetDefault("state_type", "file")
	v.SetDefault("state_dir", "./data")
	v.SetDefault("bbolt_path", "./data/state.db")
	v.SetDefault("batch_size", 10)
	v.SetDefault("backfill_pages", 10)
	v.SetDefault("fetch_concurrency", 5)
	v.SetDefault("novelty_policy", NoveltyIntersect)
	v.SetDefault("http_timeout_seconds", 15)
	v.SetDefault("classifier_url", "http://classifier-api:8001/predict")
	v.SetDefault("classifier_timeout_seconds", 5)
	v.SetDefault("default_category", "Новости Фонда")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) normalize() error {
	cfg.RunMode = strings.ToLower(strings.TrimSpace(cfg.RunMode))
	if cfg.RunMode != RunModeOnce && cfg.RunMode != RunModeLoop {
		return fmt.Errorf("invalid run_mode %q (expected %q or %q)", cfg.RunMode, RunModeOnce, RunModeLoop)
	}
	if cfg.CrawlIntervalSeconds <= 0 {
		return fmt.Errorf("invalid crawl_interval (must be positive seconds)")
	}
	cfg.CrawlInterval = time.Duration(cfg.CrawlIntervalSeconds) * time.Second

	cfg.Novelty = strings.ToLower(strings.TrimSpace(cfg.Novelty))
	if cfg.Novelty != NoveltyIntersect && cfg.Novelty != NoveltyUnion {
		return fmt.Errorf("invalid novelty_policy %q", cfg.Novelty)
	}

	if cfg.BatchSize <= 0 {
		return fmt.Errorf("invalid batch_size (must be positive)")
	}
	if cfg.Backfill <= 0 {
		return fmt.Errorf("invalid backfill_pages (must be positive)")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("invalid fetch_concurrency (must be positive)")
	}

	if cfg.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid http_timeout_seconds (must be positive seconds)")
	}
	if cfg.ClassifierTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid classifier_timeout_seconds (must be positive seconds)")
	}
	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second
	cfg.ClassifierTimeout = time.Duration(cfg.ClassifierTimeoutSeconds) * time.Second
	cfg.ClassifierURL = strings.TrimSpace(cfg.ClassifierURL)

	cfg.StateType = strings.ToLower(strings.TrimSpace(cfg.StateType))
	switch cfg.StateType {
	case "bbolt":
		cfg.StatePath = cfg.BBoltPath
	default:
		cfg.StatePath = cfg.StateDir
	}
	return nil
}
