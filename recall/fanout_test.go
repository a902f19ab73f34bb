package recall

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rushteam/newsrec/core"
)

// stubSource 是一个固定返回的召回源。
type stubSource struct {
	name  string
	items []*core.Item
	err   error
	delay time.Duration
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Recall(ctx context.Context, _ *core.RecommendContext) ([]*core.Item, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.items, nil
}

func scoredItem(id string, score float64, source core.CandidateSource) *core.Item {
	it := core.NewItem(id)
	it.Score = score
	it.Source = source
	return it
}

func TestFanout_Process_UnionCollectsAllSources(t *testing.T) {
	fanout := &Fanout{
		Sources: []Source{
			&stubSource{name: "s1", items: []*core.Item{scoredItem("a1", 1, core.SourceCollaborative)}},
			&stubSource{name: "s2", items: []*core.Item{scoredItem("a2", 1, core.SourceContent)}},
		},
		MergeStrategy: "union",
	}

	items, err := fanout.Process(context.Background(), &core.RecommendContext{UserID: "u1"}, nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
}

func TestFanout_Process_FailedSourceYieldsEmptyPool(t *testing.T) {
	fanout := &Fanout{
		Sources: []Source{
			&stubSource{name: "broken", err: errors.New("store down")},
			&stubSource{name: "ok", items: []*core.Item{scoredItem("a1", 1, core.SourceContent)}},
		},
		MergeStrategy: "union",
	}

	items, err := fanout.Process(context.Background(), &core.RecommendContext{UserID: "u1"}, nil)
	if err != nil {
		t.Fatalf("one failed source must not fail the request, got %v", err)
	}
	if len(items) != 1 || items[0].ID != "a1" {
		t.Errorf("expected only the healthy source's items, got %v", items)
	}
}

func TestFanout_Process_SlowSourceTimesOut(t *testing.T) {
	fanout := &Fanout{
		Sources: []Source{
			&stubSource{name: "slow", delay: 200 * time.Millisecond, items: []*core.Item{scoredItem("a1", 1, core.SourceContent)}},
			&stubSource{name: "fast", items: []*core.Item{scoredItem("a2", 1, core.SourceColdStart)}},
		},
		Timeout:       20 * time.Millisecond,
		MergeStrategy: "union",
	}

	start := time.Now()
	items, err := fanout.Process(context.Background(), &core.RecommendContext{UserID: "u1"}, nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
		t.Errorf("fanout waited %v, timeout not applied", elapsed)
	}
	if len(items) != 1 || items[0].ID != "a2" {
		t.Errorf("timed-out source must yield empty pool, got %v", items)
	}
}

func TestFanout_Process_PriorityMergeKeepsHigherPrioritySource(t *testing.T) {
	dup1 := scoredItem("a1", 0.3, core.SourceCollaborative)
	dup2 := scoredItem("a1", 0.9, core.SourceContent)

	fanout := &Fanout{
		Sources: []Source{
			&stubSource{name: "first", items: []*core.Item{dup1}},
			&stubSource{name: "second", items: []*core.Item{dup2}},
		},
		Dedup:         true,
		MergeStrategy: "priority",
	}

	items, err := fanout.Process(context.Background(), &core.RecommendContext{UserID: "u1"}, nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1 after dedup", len(items))
	}
	if items[0].Source != core.SourceCollaborative {
		t.Errorf("kept source = %s, want collaborative (higher priority)", items[0].Source)
	}
	// 分数取两个来源的较大值
	if items[0].Score != 0.9 {
		t.Errorf("score = %v, want 0.9", items[0].Score)
	}
}

func TestFanout_Process_NoSources(t *testing.T) {
	fanout := &Fanout{}
	items, err := fanout.Process(context.Background(), &core.RecommendContext{UserID: "u1"}, nil)
	if err != nil || items != nil {
		t.Errorf("no sources should yield nil, got items=%v err=%v", items, err)
	}
}
