package recall

import (
	"context"
	"math"
	"testing"

	"github.com/rushteam/newsrec/core"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"dimension mismatch", []float64{1, 0}, []float64{1, 0, 0}, 0},
		{"zero vector", []float64{0, 0}, []float64{1, 2}, 0},
		{"empty", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cosine(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContent_FindSimilar_SkipsArticlesWithoutVectors(t *testing.T) {
	articles := newFakeArticles(
		article("a1", "tech", 1, 100),
		article("a2", "tech", 2, 90),
		article("a3", "tech", 3, 80), // 没有向量
	)
	embeddings := &fakeEmbeddings{vectors: map[string][]float64{
		"a1": {1, 0, 0},
		"a2": {0.9, 0.1, 0},
	}}

	c := &Content{Articles: articles, Embeddings: embeddings}
	items, err := c.FindSimilar(context.Background(), Seed{Vector: []float64{1, 0, 0}}, nil, 10)
	if err != nil {
		t.Fatalf("FindSimilar() error = %v", err)
	}

	for _, it := range items {
		if it.ID == "a3" {
			t.Error("a3 has no stored vector, must be skipped rather than scored as zero")
		}
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].ID != "a1" {
		t.Errorf("most similar = %s, want a1", items[0].ID)
	}
	if items[0].Score < items[1].Score {
		t.Error("items not sorted by similarity")
	}
}

func TestContent_FindSimilar_ExcludesNonPositiveSimilarity(t *testing.T) {
	articles := newFakeArticles(
		article("a1", "tech", 1, 100),
		article("a2", "tech", 2, 90),
	)
	embeddings := &fakeEmbeddings{vectors: map[string][]float64{
		"a1": {0, 1, 0},  // 正交
		"a2": {-1, 0, 0}, // 反向
	}}

	c := &Content{Articles: articles, Embeddings: embeddings}
	items, err := c.FindSimilar(context.Background(), Seed{Vector: []float64{1, 0, 0}}, nil, 10)
	if err != nil {
		t.Fatalf("FindSimilar() error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("non-positive similarity must be dropped, got %d items", len(items))
	}
}

func TestContent_Recall_BuildsSeedFromProfile(t *testing.T) {
	articles := newFakeArticles(
		article("a1", "tech", 1, 100),
		article("a2", "tech", 2, 90),
		article("a3", "finance", 3, 80),
	)
	var embeddedText string
	embeddings := &fakeEmbeddings{
		vectors: map[string][]float64{
			"a1": {1, 0, 0},
			"a2": {1, 0, 0},
			"a3": {0, 1, 0},
		},
		embed: func(text string) []float64 {
			embeddedText = text
			return []float64{1, 0, 0}
		},
	}

	profile := core.NewUserProfile("u1")
	profile.RecentReads = []string{"a1"}
	profile.UpdateInterest("tech", 0.8)

	c := &Content{Articles: articles, Embeddings: embeddings}
	items, err := c.Recall(context.Background(), &core.RecommendContext{UserID: "u1", User: profile})
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}

	if embeddedText == "" {
		t.Fatal("expected seed text to be embedded")
	}
	for _, it := range items {
		if it.ID == "a1" {
			t.Error("recently read article must be excluded from results")
		}
		if it.Source != core.SourceContent {
			t.Errorf("item %s source = %s, want content", it.ID, it.Source)
		}
	}
}

func TestContent_Recall_NoProfileNoSeeds(t *testing.T) {
	c := &Content{
		Articles:   newFakeArticles(article("a1", "tech", 1, 100)),
		Embeddings: &fakeEmbeddings{},
	}
	items, err := c.Recall(context.Background(), &core.RecommendContext{UserID: "u1"})
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("no profile means no seed, expected empty result, got %d", len(items))
	}
}

func TestContent_SimilarToArticle_MissingVector(t *testing.T) {
	c := &Content{
		Articles:   newFakeArticles(article("a1", "tech", 1, 100)),
		Embeddings: &fakeEmbeddings{},
	}
	_, err := c.SimilarToArticle(context.Background(), "a1", nil, 5)
	if !core.IsNotFound(err) {
		t.Errorf("expected NOT_FOUND for missing vector, got %v", err)
	}
}
