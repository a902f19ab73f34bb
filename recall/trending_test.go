package recall

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rushteam/newsrec/core"
)

func TestTrending_Recall_ScoreFormula(t *testing.T) {
	fresh := article("fresh", "tech", 0, 0)
	fresh.TrustScore = 1.0
	stale := article("stale", "tech", 24*10, 0) // 10 天前，新近度归零
	stale.TrustScore = 1.0

	interactions := make([]core.Interaction, 0, 5)
	for i := 0; i < 5; i++ {
		interactions = append(interactions, core.Interaction{
			UserID:    "u1",
			ItemID:    "fresh",
			Kind:      core.KindClick,
			Timestamp: recallTestNow.Add(-time.Hour),
		})
	}

	tr := &Trending{
		Articles:     newFakeArticles(fresh, stale),
		Interactions: sliceInteractions(interactions),
		Now:          func() time.Time { return recallTestNow },
	}

	items, err := tr.Recall(context.Background(), nil)
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}

	// fresh: 0.4×1.0 + 0.4×(5/10) + 0.2×1.0 = 0.8
	if items[0].ID != "fresh" {
		t.Fatalf("top item = %s, want fresh", items[0].ID)
	}
	if math.Abs(items[0].Score-0.8) > 1e-9 {
		t.Errorf("fresh score = %v, want 0.8", items[0].Score)
	}
	// stale: 0.4×0 + 0.4×0 + 0.2×1.0 = 0.2
	if math.Abs(items[1].Score-0.2) > 1e-9 {
		t.Errorf("stale score = %v, want 0.2", items[1].Score)
	}
}

func TestTrending_Recall_EngagementSaturates(t *testing.T) {
	hot := article("hot", "tech", 0, 0)
	hot.TrustScore = 0

	interactions := make([]core.Interaction, 0, 50)
	for i := 0; i < 50; i++ {
		interactions = append(interactions, core.Interaction{
			UserID:    "u1",
			ItemID:    "hot",
			Kind:      core.KindClick,
			Timestamp: recallTestNow.Add(-time.Hour),
		})
	}

	tr := &Trending{
		Articles:     newFakeArticles(hot),
		Interactions: sliceInteractions(interactions),
		Now:          func() time.Time { return recallTestNow },
	}

	items, err := tr.Recall(context.Background(), nil)
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	// 参与度封顶 1.0：0.4×1 + 0.4×1 + 0 = 0.8
	if math.Abs(items[0].Score-0.8) > 1e-9 {
		t.Errorf("score = %v, want 0.8 (engagement capped at 1)", items[0].Score)
	}
}

func TestTrending_Recall_InteractionFailureDegradesToRecency(t *testing.T) {
	a := article("a1", "tech", 0, 0)
	a.TrustScore = 0.5

	tr := &Trending{
		Articles: newFakeArticles(a),
		// Interactions 为 nil：热度退化为纯新近度 + 可信度
		Now: func() time.Time { return recallTestNow },
	}

	items, err := tr.Recall(context.Background(), nil)
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	// 0.4×1.0 + 0 + 0.2×0.5 = 0.5
	if math.Abs(items[0].Score-0.5) > 1e-9 {
		t.Errorf("score = %v, want 0.5", items[0].Score)
	}
}
