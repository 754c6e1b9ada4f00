// Package config loads and validates the contrib-stats YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oss-pulse/contrib-stats/internal/ingest"
)

var validLogLevels = []string{"debug", "info", "warn", "error"}

// DateLayout is the calendar-date form used throughout configuration and
// output documents.
const DateLayout = "2006-01-02"

// Config is the root application configuration.
type Config struct {
	Project     ProjectConfig
	Aggregation AggregationConfig
	Cache       CacheConfig
	Results     ResultsConfig
	Selection   SelectionConfig
	Server      ServerConfig
	Store       StoreConfig
	Telemetry   TelemetryConfig
	LogLevel    string
}

// ProjectConfig identifies the tracked organization and its output naming.
type ProjectConfig struct {
	Org              string
	Prefix           string
	DiscussionsRepo  string
	RepositoriesFile string
	LegacyPrefix     string
}

// AggregationConfig controls event qualification and leaderboard size.
type AggregationConfig struct {
	StartDate    time.Time
	Bots         []string
	RankingLimit int
}

// CacheConfig locates the raw cache directories written by the fetch layer.
type CacheConfig struct {
	ContributorDir string
	StargazerDir   string
}

// ResultsConfig locates computed output documents.
type ResultsConfig struct {
	Dir string
}

// SelectionConfig controls the tracked-repository selection procedure.
type SelectionConfig struct {
	CutoffYears int
	TopCount    int
}

// ServerConfig contains HTTP server settings for the serve command.
type ServerConfig struct {
	ListenAddr      string
	RefreshInterval time.Duration
}

// StoreConfig configures result-document storage backends.
type StoreConfig struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration
}

// TelemetryConfig configures OpenTelemetry behavior.
type TelemetryConfig struct {
	OTELEnabled          bool
	OTELTraceSampleRatio float64
}

// Default returns the configuration used when no config file is provided.
// The defaults reproduce the published Autoware dashboard pipeline.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads configuration from YAML and validates the result.
func Load(reader io.Reader) (*Config, error) {
	if reader == nil {
		return nil, fmt.Errorf("config reader is nil")
	}

	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)

	var raw rawConfig
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return Default(), nil
		}
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	cfg, err := raw.toConfig()
	if err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads configuration from a YAML file path. A missing file yields
// the defaults; any other read failure is an error.
func LoadFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()
	return Load(file)
}

// Validate validates configuration values.
func (c *Config) Validate() error {
	var errs []string

	if !slices.Contains(validLogLevels, c.LogLevel) {
		errs = append(errs, "log_level must be one of debug|info|warn|error")
	}
	if c.Project.Org == "" {
		errs = append(errs, "project.org is required")
	}
	if c.Project.Prefix == "" {
		errs = append(errs, "project.prefix is required")
	}
	if c.Aggregation.RankingLimit <= 0 {
		errs = append(errs, "aggregation.ranking_limit must be > 0")
	}
	if c.Selection.CutoffYears <= 0 {
		errs = append(errs, "selection.cutoff_years must be > 0")
	}
	if c.Selection.TopCount <= 0 {
		errs = append(errs, "selection.top_count must be > 0")
	}
	if c.Store.Backend != "file" && c.Store.Backend != "redis" {
		errs = append(errs, "store.backend must be file or redis")
	}
	if c.Store.Backend == "redis" && c.Store.RedisAddr == "" {
		errs = append(errs, "store.redis_addr is required when store.backend=redis")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Project.Org == "" {
		cfg.Project.Org = "autowarefoundation"
	}
	if cfg.Project.Prefix == "" {
		cfg.Project.Prefix = "autoware"
	}
	if cfg.Project.DiscussionsRepo == "" {
		cfg.Project.DiscussionsRepo = "autoware"
	}
	if cfg.Project.RepositoriesFile == "" {
		cfg.Project.RepositoriesFile = "public/repositories.json"
	}
	if cfg.Project.LegacyPrefix == "" {
		cfg.Project.LegacyPrefix = "autoware_ai"
	}
	if cfg.Aggregation.StartDate.IsZero() {
		cfg.Aggregation.StartDate = time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	if cfg.Aggregation.Bots == nil {
		cfg.Aggregation.Bots = slices.Clone(ingest.DefaultBots)
	}
	if cfg.Aggregation.RankingLimit == 0 {
		cfg.Aggregation.RankingLimit = 50
	}
	if cfg.Cache.ContributorDir == "" {
		cfg.Cache.ContributorDir = "cache/raw_contributor_data"
	}
	if cfg.Cache.StargazerDir == "" {
		cfg.Cache.StargazerDir = "cache/raw_stargazer_data"
	}
	if cfg.Results.Dir == "" {
		cfg.Results.Dir = "results"
	}
	if cfg.Selection.CutoffYears == 0 {
		cfg.Selection.CutoffYears = 2
	}
	if cfg.Selection.TopCount == 0 {
		cfg.Selection.TopCount = 25
	}
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Server.RefreshInterval <= 0 {
		cfg.Server.RefreshInterval = 30 * time.Second
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "file"
	}
}

type rawConfig struct {
	LogLevel    string         `yaml:"log_level"`
	Project     rawProject     `yaml:"project"`
	Aggregation rawAggregation `yaml:"aggregation"`
	Cache       rawCache       `yaml:"cache"`
	Results     rawResults     `yaml:"results"`
	Selection   rawSelection   `yaml:"selection"`
	Server      rawServer      `yaml:"server"`
	Store       rawStore       `yaml:"store"`
	Telemetry   rawTelemetry   `yaml:"telemetry"`
}

type rawProject struct {
	Org              string `yaml:"org"`
	Prefix           string `yaml:"prefix"`
	DiscussionsRepo  string `yaml:"discussions_repo"`
	RepositoriesFile string `yaml:"repositories_file"`
	LegacyPrefix     string `yaml:"legacy_prefix"`
}

type rawAggregation struct {
	StartDate    string   `yaml:"start_date"`
	Bots         []string `yaml:"bots"`
	RankingLimit int      `yaml:"ranking_limit"`
}

type rawCache struct {
	ContributorDir string `yaml:"contributor_dir"`
	StargazerDir   string `yaml:"stargazer_dir"`
}

type rawResults struct {
	Dir string `yaml:"dir"`
}

type rawSelection struct {
	CutoffYears int `yaml:"cutoff_years"`
	TopCount    int `yaml:"top_count"`
}

type rawServer struct {
	ListenAddr      string   `yaml:"listen_addr"`
	RefreshInterval duration `yaml:"refresh_interval"`
}

type rawStore struct {
	Backend       string   `yaml:"backend"`
	RedisAddr     string   `yaml:"redis_addr"`
	RedisPassword string   `yaml:"redis_password"`
	RedisDB       int      `yaml:"redis_db"`
	RedisTTL      duration `yaml:"redis_ttl"`
}

type rawTelemetry struct {
	OTELEnabled          bool    `yaml:"otel_enabled"`
	OTELTraceSampleRatio float64 `yaml:"otel_trace_sample_ratio"`
}

func (r rawConfig) toConfig() (*Config, error) {
	cfg := &Config{
		LogLevel: r.LogLevel,
		Project: ProjectConfig{
			Org:              r.Project.Org,
			Prefix:           r.Project.Prefix,
			DiscussionsRepo:  r.Project.DiscussionsRepo,
			RepositoriesFile: r.Project.RepositoriesFile,
			LegacyPrefix:     r.Project.LegacyPrefix,
		},
		Aggregation: AggregationConfig{
			Bots:         r.Aggregation.Bots,
			RankingLimit: r.Aggregation.RankingLimit,
		},
		Cache: CacheConfig{
			ContributorDir: r.Cache.ContributorDir,
			StargazerDir:   r.Cache.StargazerDir,
		},
		Results: ResultsConfig{Dir: r.Results.Dir},
		Selection: SelectionConfig{
			CutoffYears: r.Selection.CutoffYears,
			TopCount:    r.Selection.TopCount,
		},
		Server: ServerConfig{
			ListenAddr:      r.Server.ListenAddr,
			RefreshInterval: r.Server.RefreshInterval.Duration,
		},
		Store: StoreConfig{
			Backend:       r.Store.Backend,
			RedisAddr:     r.Store.RedisAddr,
			RedisPassword: r.Store.RedisPassword,
			RedisDB:       r.Store.RedisDB,
			RedisTTL:      r.Store.RedisTTL.Duration,
		},
		Telemetry: TelemetryConfig{
			OTELEnabled:          r.Telemetry.OTELEnabled,
			OTELTraceSampleRatio: r.Telemetry.OTELTraceSampleRatio,
		},
	}

	if trimmed := strings.TrimSpace(r.Aggregation.StartDate); trimmed != "" {
		parsed, err := time.Parse(DateLayout, trimmed)
		if err != nil {
			return nil, fmt.Errorf("parse aggregation.start_date: %w", err)
		}
		cfg.Aggregation.StartDate = parsed
	}

	return cfg, nil
}

type duration struct {
	time.Duration
}

func (d *duration) UnmarshalYAML(value *yaml.Node) error {
	if value == nil || value.Kind == 0 || strings.TrimSpace(value.Value) == "" {
		d.Duration = 0
		return nil
	}

	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("decode duration: %w", err)
	}

	parsed, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}
