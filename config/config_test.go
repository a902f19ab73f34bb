package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const engineYAML = `
matrix:
  window_days: 60
  min_user_interactions: 5
model:
  max_factors: 16
blend:
  collaborative_ratio: 0.6
  content_ratio: 0.2
coldstart:
  priority_categories: [tech, finance]
  per_category_quota: 4
  popular_window_days: 2
recall:
  source_timeout_ms: 500
  candidate_limit: 150
refresh_interval_minutes: 15
filter_rules:
  - 'item.score < 0.01'
redis:
  addr: localhost:6379
  db: 1
feast:
  host: feast.internal
  port: 6565
  project: newsrec
`

func TestLoadEngineConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	if err := os.WriteFile(path, []byte(engineYAML), 0o644); err != nil {
		t.Fatalf("write temp yaml: %v", err)
	}

	cfg, err := LoadEngineConfig(path)
	if err != nil {
		t.Fatalf("LoadEngineConfig() error = %v", err)
	}

	if cfg.Matrix.WindowDays != 60 {
		t.Errorf("matrix.window_days = %d, want 60", cfg.Matrix.WindowDays)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.DB != 1 {
		t.Errorf("redis = %+v, want addr localhost:6379 db 1", cfg.Redis)
	}
	if cfg.Feast.Host != "feast.internal" || cfg.Feast.Port != 6565 {
		t.Errorf("feast = %+v, want feast.internal:6565", cfg.Feast)
	}
	if len(cfg.FilterRules) != 1 {
		t.Errorf("filter_rules = %v, want 1 rule", cfg.FilterRules)
	}

	opts := cfg.EngineOptions()
	if opts.WindowDays != 60 || opts.MinUserInteractions != 5 {
		t.Errorf("matrix options = %d/%d, want 60/5", opts.WindowDays, opts.MinUserInteractions)
	}
	if opts.MaxFactors != 16 {
		t.Errorf("MaxFactors = %d, want 16", opts.MaxFactors)
	}
	if opts.CollaborativeRatio != 0.6 || opts.ContentRatio != 0.2 {
		t.Errorf("ratios = %v/%v, want 0.6/0.2", opts.CollaborativeRatio, opts.ContentRatio)
	}
	if len(opts.PriorityCategories) != 2 || opts.PriorityCategories[0] != "tech" {
		t.Errorf("PriorityCategories = %v, want [tech finance]", opts.PriorityCategories)
	}
	if opts.SourceTimeout != 500*time.Millisecond {
		t.Errorf("SourceTimeout = %v, want 500ms", opts.SourceTimeout)
	}
	if opts.RefreshInterval != 15*time.Minute {
		t.Errorf("RefreshInterval = %v, want 15m", opts.RefreshInterval)
	}
	if opts.CandidateLimit != 150 {
		t.Errorf("CandidateLimit = %d, want 150", opts.CandidateLimit)
	}
}

func TestLoadEngineConfigMissingFile(t *testing.T) {
	if _, err := LoadEngineConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing file must return error")
	}
}

func TestEngineOptionsNil(t *testing.T) {
	var cfg *EngineConfig
	if cfg.EngineOptions() != nil {
		t.Error("nil config must yield nil options")
	}
}
