package recall

import (
	"context"
	"sort"
	"time"

	"github.com/rushteam/newsrec/core"
)

// 共享测试夹具：内存文章库与向量表。

var recallTestNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeArticles struct {
	articles map[string]*core.Article
	err      error
}

func newFakeArticles(articles ...*core.Article) *fakeArticles {
	m := make(map[string]*core.Article, len(articles))
	for _, a := range articles {
		m[a.ID] = a
	}
	return &fakeArticles{articles: m}
}

func (f *fakeArticles) Get(_ context.Context, itemID string) (*core.Article, error) {
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.articles[itemID]
	if !ok {
		return nil, core.ErrArticleNotFound
	}
	return a, nil
}

func (f *fakeArticles) ListRecent(_ context.Context, limit int, category string) ([]*core.Article, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*core.Article, 0, len(f.articles))
	for _, a := range f.articles {
		if category != "" && a.PrimaryCategory() != category {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PublishedAt.Equal(out[j].PublishedAt) {
			return out[i].PublishedAt.After(out[j].PublishedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeArticles) ListPopular(_ context.Context, since time.Time, limit int) ([]*core.Article, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*core.Article, 0, len(f.articles))
	for _, a := range f.articles {
		if a.PublishedAt.Before(since) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ViewCount != out[j].ViewCount {
			return out[i].ViewCount > out[j].ViewCount
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeEmbeddings struct {
	vectors map[string][]float64
	embed   func(text string) []float64
}

func (f *fakeEmbeddings) Embed(_ context.Context, text string) ([]float64, error) {
	if f.embed != nil {
		return f.embed(text), nil
	}
	return []float64{1, 0, 0}, nil
}

func (f *fakeEmbeddings) GetStored(_ context.Context, itemID string) ([]float64, error) {
	vec, ok := f.vectors[itemID]
	if !ok {
		return nil, core.ErrEmbeddingNotFound
	}
	return vec, nil
}

func article(id, category string, hoursOld int, views int64) *core.Article {
	return &core.Article{
		ID:          id,
		Title:       "title " + id,
		Summary:     "summary " + id,
		Categories:  []string{category},
		PublishedAt: recallTestNow.Add(-time.Duration(hoursOld) * time.Hour),
		ViewCount:   views,
		TrustScore:  0.8,
	}
}
