package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/newsrec/engine"
)

// EngineConfig 是引擎的 YAML 配置。
//
// 示例：
//
//	matrix:
//	  window_days: 90
//	  min_user_interactions: 3
//	model:
//	  max_factors: 20
//	blend:
//	  collaborative_ratio: 0.5
//	  content_ratio: 0.3
//	coldstart:
//	  priority_categories: [tech, finance, sports]
//	  per_category_quota: 3
//	  popular_window_days: 3
//	recall:
//	  source_timeout_ms: 800
//	  candidate_limit: 200
//	refresh_interval_minutes: 30
//	filter_rules:
//	  - 'item.score < 0.01'
//	redis:
//	  addr: localhost:6379
//	  db: 0
//	feast:
//	  host: localhost
//	  port: 6565
//	  project: newsrec
type EngineConfig struct {
	Matrix struct {
		WindowDays          int `yaml:"window_days"`
		MinUserInteractions int `yaml:"min_user_interactions"`
	} `yaml:"matrix"`

	Model struct {
		MaxFactors int `yaml:"max_factors"`
	} `yaml:"model"`

	Blend struct {
		CollaborativeRatio float64 `yaml:"collaborative_ratio"`
		ContentRatio       float64 `yaml:"content_ratio"`
	} `yaml:"blend"`

	ColdStart struct {
		PriorityCategories []string `yaml:"priority_categories"`
		PerCategoryQuota   int      `yaml:"per_category_quota"`
		PopularWindowDays  int      `yaml:"popular_window_days"`
	} `yaml:"coldstart"`

	Recall struct {
		SourceTimeoutMS int `yaml:"source_timeout_ms"`
		CandidateLimit  int `yaml:"candidate_limit"`
	} `yaml:"recall"`

	RefreshIntervalMinutes int `yaml:"refresh_interval_minutes"`

	FilterRules []string `yaml:"filter_rules"`

	Redis struct {
		Addr string `yaml:"addr"`
		DB   int    `yaml:"db"`
	} `yaml:"redis"`

	Feast struct {
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
		Project string `yaml:"project"`
	} `yaml:"feast"`
}

// LoadEngineConfig 从 YAML 文件加载引擎配置。
func LoadEngineConfig(path string) (*EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var cfg EngineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return &cfg, nil
}

// EngineOptions 把配置映射为引擎参数，缺省值由引擎补齐。
func (c *EngineConfig) EngineOptions() *engine.Options {
	if c == nil {
		return nil
	}
	return &engine.Options{
		WindowDays:          c.Matrix.WindowDays,
		MinUserInteractions: c.Matrix.MinUserInteractions,
		MaxFactors:          c.Model.MaxFactors,
		CollaborativeRatio:  c.Blend.CollaborativeRatio,
		ContentRatio:        c.Blend.ContentRatio,
		PriorityCategories:  c.ColdStart.PriorityCategories,
		PerCategoryQuota:    c.ColdStart.PerCategoryQuota,
		PopularWindowDays:   c.ColdStart.PopularWindowDays,
		SourceTimeout:       time.Duration(c.Recall.SourceTimeoutMS) * time.Millisecond,
		RefreshInterval:     time.Duration(c.RefreshIntervalMinutes) * time.Minute,
		FilterRules:         c.FilterRules,
		CandidateLimit:      c.Recall.CandidateLimit,
	}
}
