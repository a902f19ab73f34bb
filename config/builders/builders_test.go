package builders

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rushteam/newsrec/config"
	"github.com/rushteam/newsrec/pipeline"
)

const pipelineYAML = `
pipeline:
  name: feed
  nodes:
    - type: filter
      config:
        rules:
          - 'item.score < 0.01'
    - type: blend.hybrid
      config:
        limit: 10
        collaborative_ratio: 0.5
        content_ratio: 0.3
    - type: rerank.diversity
      config:
        limit: 10
        level: 0.8
    - type: rerank.topn
      config:
        n: 10
`

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp yaml: %v", err)
	}
	return path
}

func TestBuildPipelineFromYAML(t *testing.T) {
	cfg, err := pipeline.LoadFromYAML(writeTempYAML(t, pipelineYAML))
	if err != nil {
		t.Fatalf("LoadFromYAML() error = %v", err)
	}

	if err := config.ValidatePipelineConfig(cfg); err != nil {
		t.Fatalf("ValidatePipelineConfig() error = %v", err)
	}

	p, err := cfg.BuildPipeline(config.DefaultFactory())
	if err != nil {
		t.Fatalf("BuildPipeline() error = %v", err)
	}
	if len(p.Nodes) != 4 {
		t.Fatalf("got %d nodes, want 4", len(p.Nodes))
	}

	wantKinds := []pipeline.Kind{
		pipeline.KindFilter,
		pipeline.KindBlend,
		pipeline.KindReRank,
		pipeline.KindReRank,
	}
	for i, node := range p.Nodes {
		if node.Kind() != wantKinds[i] {
			t.Errorf("node %d kind = %v, want %v", i, node.Kind(), wantKinds[i])
		}
	}
}

func TestValidateRejectsUnknownNodeType(t *testing.T) {
	cfg, err := pipeline.LoadFromYAML(writeTempYAML(t, `
pipeline:
  name: broken
  nodes:
    - type: rank.quantum
`))
	if err != nil {
		t.Fatalf("LoadFromYAML() error = %v", err)
	}
	if err := config.ValidatePipelineConfig(cfg); err == nil {
		t.Error("unknown node type must fail validation")
	}
}

func TestSupportedTypesRegistered(t *testing.T) {
	types := config.SupportedTypes()
	want := map[string]bool{
		"filter":           false,
		"blend.hybrid":     false,
		"rerank.diversity": false,
		"rerank.topn":      false,
	}
	for _, tp := range types {
		if _, ok := want[tp]; ok {
			want[tp] = true
		}
	}
	for tp, found := range want {
		if !found {
			t.Errorf("node type %q not registered", tp)
		}
	}
}
