package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Project.Org != "autowarefoundation" {
		t.Errorf("Project.Org = %q", cfg.Project.Org)
	}
	if cfg.Project.Prefix != "autoware" {
		t.Errorf("Project.Prefix = %q", cfg.Project.Prefix)
	}
	if want := time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC); !cfg.Aggregation.StartDate.Equal(want) {
		t.Errorf("Aggregation.StartDate = %v", cfg.Aggregation.StartDate)
	}
	if cfg.Aggregation.RankingLimit != 50 {
		t.Errorf("Aggregation.RankingLimit = %d", cfg.Aggregation.RankingLimit)
	}
	if len(cfg.Aggregation.Bots) == 0 {
		t.Error("Aggregation.Bots empty")
	}
	if cfg.Selection.CutoffYears != 2 || cfg.Selection.TopCount != 25 {
		t.Errorf("Selection = %+v", cfg.Selection)
	}
	if cfg.Store.Backend != "file" {
		t.Errorf("Store.Backend = %q", cfg.Store.Backend)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("Server.ListenAddr = %q", cfg.Server.ListenAddr)
	}
	if cfg.Server.RefreshInterval != 30*time.Second {
		t.Errorf("Server.RefreshInterval = %v", cfg.Server.RefreshInterval)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Parallel()

	yaml := `
log_level: debug
project:
  org: example-org
  prefix: example
  discussions_repo: forum
  legacy_prefix: example_old
aggregation:
  start_date: "2020-06-15"
  bots: ["custom-bot"]
  ranking_limit: 10
cache:
  contributor_dir: data/contrib
  stargazer_dir: data/stars
results:
  dir: out
selection:
  cutoff_years: 3
  top_count: 10
server:
  listen_addr: ":9090"
  refresh_interval: 5m
store:
  backend: redis
  redis_addr: localhost:6379
  redis_ttl: 1h
telemetry:
  otel_enabled: true
  otel_trace_sample_ratio: 0.25
`

	cfg, err := Load(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Project.Org != "example-org" || cfg.Project.LegacyPrefix != "example_old" {
		t.Errorf("Project = %+v", cfg.Project)
	}
	if want := time.Date(2020, time.June, 15, 0, 0, 0, 0, time.UTC); !cfg.Aggregation.StartDate.Equal(want) {
		t.Errorf("StartDate = %v", cfg.Aggregation.StartDate)
	}
	if len(cfg.Aggregation.Bots) != 1 || cfg.Aggregation.Bots[0] != "custom-bot" {
		t.Errorf("Bots = %v", cfg.Aggregation.Bots)
	}
	if cfg.Server.RefreshInterval != 5*time.Minute {
		t.Errorf("RefreshInterval = %v", cfg.Server.RefreshInterval)
	}
	if cfg.Store.Backend != "redis" || cfg.Store.RedisTTL != time.Hour {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if !cfg.Telemetry.OTELEnabled || cfg.Telemetry.OTELTraceSampleRatio != 0.25 {
		t.Errorf("Telemetry = %+v", cfg.Telemetry)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "bad log level",
			yaml: "log_level: loud",
			want: "log_level",
		},
		{
			name: "bad start date",
			yaml: "aggregation:\n  start_date: \"June 2020\"",
			want: "start_date",
		},
		{
			name: "redis backend without addr",
			yaml: "store:\n  backend: redis",
			want: "redis_addr",
		},
		{
			name: "unknown backend",
			yaml: "store:\n  backend: dynamo",
			want: "backend",
		},
		{
			name: "unknown field",
			yaml: "projects:\n  org: x",
			want: "field",
		},
		{
			name: "bad duration",
			yaml: "server:\n  refresh_interval: fast",
			want: "duration",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(strings.NewReader(tc.yaml))
			if err == nil {
				t.Fatal("Load() expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoadFileMissingYieldsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Project.Org != "autowarefoundation" {
		t.Errorf("Project.Org = %q, want defaults", cfg.Project.Org)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.LogLevel = "loud"
	cfg.Project.Org = ""
	cfg.Aggregation.RankingLimit = -1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error")
	}
	for _, want := range []string{"log_level", "project.org", "ranking_limit"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}
