package recall

import (
	"context"
	"testing"
	"time"

	"github.com/rushteam/newsrec/core"
	"github.com/rushteam/newsrec/matrix"
	"github.com/rushteam/newsrec/model"
)

type sliceInteractions []core.Interaction

func (s sliceInteractions) Query(_ context.Context, since time.Time) ([]core.Interaction, error) {
	out := make([]core.Interaction, 0, len(s))
	for _, it := range s {
		if it.Timestamp.Before(since) {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func buildTestFactors(t *testing.T, interactions []core.Interaction) (*matrix.Matrix, *model.LatentFactors) {
	t.Helper()
	b := &matrix.Builder{
		Interactions: sliceInteractions(interactions),
		Now:          func() time.Time { return recallTestNow },
	}
	m, err := b.Build(context.Background(), 90, 3)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	svd := &model.SVDModel{}
	f, err := svd.Fit(m)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	return m, f
}

func cfInteraction(user, item string, kind core.InteractionKind) core.Interaction {
	return core.Interaction{UserID: user, ItemID: item, Kind: kind, Timestamp: recallTestNow.Add(-time.Hour)}
}

func TestCollaborative_Recall_ExcludesInteractedItems(t *testing.T) {
	m, f := buildTestFactors(t, []core.Interaction{
		cfInteraction("u1", "a1", core.KindLike),
		cfInteraction("u1", "a2", core.KindRead),
		cfInteraction("u1", "a3", core.KindClick),
		cfInteraction("u2", "a1", core.KindLike),
		cfInteraction("u2", "a2", core.KindRead),
		cfInteraction("u2", "a4", core.KindShare),
		cfInteraction("u3", "a3", core.KindClick),
		cfInteraction("u3", "a4", core.KindLike),
		cfInteraction("u3", "a5", core.KindRead),
	})

	cf := &Collaborative{Matrix: m, Factors: f}
	items, err := cf.Recall(context.Background(), &core.RecommendContext{UserID: "u1"})
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}

	for _, it := range items {
		if it.ID == "a1" || it.ID == "a2" || it.ID == "a3" {
			t.Errorf("item %s already interacted by u1, must not be recommended", it.ID)
		}
		if it.Source != core.SourceCollaborative {
			t.Errorf("item %s source = %s, want collaborative", it.ID, it.Source)
		}
		if it.Score < 0 {
			t.Errorf("item %s score = %v, scores must be non-negative", it.ID, it.Score)
		}
	}

	// 分数降序
	for i := 1; i < len(items); i++ {
		if items[i-1].Score < items[i].Score {
			t.Errorf("items not sorted by score: %v then %v", items[i-1].Score, items[i].Score)
		}
	}
}

func TestCollaborative_Recall_UnknownUser(t *testing.T) {
	m, f := buildTestFactors(t, []core.Interaction{
		cfInteraction("u1", "a1", core.KindLike),
		cfInteraction("u1", "a2", core.KindRead),
		cfInteraction("u1", "a3", core.KindClick),
		cfInteraction("u2", "a1", core.KindLike),
		cfInteraction("u2", "a2", core.KindRead),
		cfInteraction("u2", "a3", core.KindShare),
	})

	cf := &Collaborative{Matrix: m, Factors: f}
	_, err := cf.Recall(context.Background(), &core.RecommendContext{UserID: "stranger"})
	if !core.IsNotFound(err) {
		t.Errorf("expected NOT_FOUND for unknown user, got %v", err)
	}
}

func TestCollaborative_Recall_TopKTruncates(t *testing.T) {
	interactions := []core.Interaction{}
	for _, u := range []string{"u1", "u2", "u3"} {
		for _, a := range []string{"a1", "a2", "a3"} {
			interactions = append(interactions, cfInteraction(u, a, core.KindClick))
		}
	}
	// 额外的未读文章，由其他用户带入矩阵列
	for i := 0; i < 6; i++ {
		interactions = append(interactions, cfInteraction("u4", "b"+string(rune('0'+i)), core.KindRead))
	}

	m, f := buildTestFactors(t, interactions)
	cf := &Collaborative{Matrix: m, Factors: f, TopK: 2}
	items, err := cf.Recall(context.Background(), &core.RecommendContext{UserID: "u1"})
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if len(items) > 2 {
		t.Errorf("TopK=2 but got %d items", len(items))
	}
}

func TestCollaborative_Recall_SmallCommunity(t *testing.T) {
	// 四个用户、六篇文章的小社区：uA 分享 a1、点击 a2，
	// 其余用户的浏览/阅读把 a3-a6 带入矩阵列。
	b := &matrix.Builder{
		Interactions: sliceInteractions([]core.Interaction{
			cfInteraction("uA", "a1", core.KindShare),
			cfInteraction("uA", "a2", core.KindClick),
			cfInteraction("uB", "a3", core.KindView),
			cfInteraction("uB", "a4", core.KindRead),
			cfInteraction("uC", "a3", core.KindView),
			cfInteraction("uC", "a5", core.KindRead),
			cfInteraction("uD", "a3", core.KindView),
			cfInteraction("uD", "a6", core.KindRead),
		}),
		Now: func() time.Time { return recallTestNow },
	}
	m, err := b.Build(context.Background(), 90, 1)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if m.Rows() != 4 || m.Cols() != 6 {
		t.Fatalf("matrix %dx%d, want 4x6", m.Rows(), m.Cols())
	}

	svd := &model.SVDModel{}
	f, err := svd.Fit(m)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	cf := &Collaborative{Matrix: m, Factors: f}
	items, err := cf.Recall(context.Background(), &core.RecommendContext{UserID: "uA"})
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}

	known := map[string]bool{"a3": true, "a4": true, "a5": true, "a6": true}
	for _, it := range items {
		if it.ID == "a1" || it.ID == "a2" {
			t.Errorf("item %s already interacted by uA, must not be recommended", it.ID)
		}
		if !known[it.ID] {
			t.Errorf("unexpected candidate %s", it.ID)
		}
		if it.Score < 0 {
			t.Errorf("item %s score = %v, scores must be non-negative", it.ID, it.Score)
		}
	}
}

func TestCollaborative_Recall_NilModel(t *testing.T) {
	cf := &Collaborative{}
	items, err := cf.Recall(context.Background(), &core.RecommendContext{UserID: "u1"})
	if err != nil || items != nil {
		t.Errorf("nil model should recall nothing, got items=%v err=%v", items, err)
	}
}
