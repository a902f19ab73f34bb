package dsl

import (
	"testing"

	"github.com/rushteam/newsrec/core"
	"github.com/rushteam/newsrec/pkg/utils"
)

func TestEval_Evaluate(t *testing.T) {
	item := core.NewItem("a42")
	item.Score = 0.85
	item.Source = core.SourceContent
	item.Category = "tech"
	item.PutLabel("recall_source", utils.Label{Value: "content", Source: "recall"})

	rctx := &core.RecommendContext{UserID: "u1", Scene: "feed"}

	tests := []struct {
		expr    string
		want    bool
		wantErr bool
	}{
		{`item.score > 0.7`, true, false},
		{`item.score > 0.9`, false, false},
		{`item.category == "tech"`, true, false},
		{`item.source == "content"`, true, false},
		{`label.recall_source == "content"`, true, false},
		{`label.recall_source.contains("cont")`, true, false},
		{`item.category == "tech" && item.score > 0.8`, true, false},
		{`rctx.scene == "feed"`, true, false},
		{`!("nonexist" in label)`, true, false},
		{``, true, false},
		{`item.score +`, false, true},         // 语法错误
		{`item.score`, false, true},           // 非布尔结果
		{`label.missing == "x"`, false, true}, // 不存在的 key 直接访问
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			eval := NewEval(item, rctx)
			got, err := eval.Evaluate(tt.expr)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Evaluate(%q) expected error, got %v", tt.expr, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Evaluate(%q) error = %v", tt.expr, err)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestEval_NilItem(t *testing.T) {
	eval := NewEval(nil, nil)
	got, err := eval.Evaluate(`"x" in label`)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if got {
		t.Error("empty label map should not contain any key")
	}
}
