package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rushteam/newsrec/core"
)

// MemoryStore 是内存实现的数据源，用于测试/开发/原型。
// 同时实现 core.InteractionSource、core.ArticleSource、core.EmbeddingProvider。
// 进程重启后数据丢失。
type MemoryStore struct {
	mu           sync.RWMutex
	interactions []core.Interaction
	articles     map[string]*core.Article
	embeddings   map[string][]float64
	profiles     map[string]*core.UserProfile
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		articles:   make(map[string]*core.Article),
		embeddings: make(map[string][]float64),
		profiles:   make(map[string]*core.UserProfile),
	}
}

func (m *MemoryStore) Name() string { return "memory" }

// AddInteraction 追加一条交互记录。
func (m *MemoryStore) AddInteraction(it core.Interaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interactions = append(m.interactions, it)
}

// AddArticle 写入一篇文章。
func (m *MemoryStore) AddArticle(a *core.Article) {
	if a == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.articles[a.ID] = a
}

// PutEmbedding 写入文章的预计算向量。
func (m *MemoryStore) PutEmbedding(itemID string, vec []float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embeddings[itemID] = vec
}

// PutProfile 写入用户画像。
func (m *MemoryStore) PutProfile(p *core.UserProfile) {
	if p == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.UserID] = p
}

// Query 实现 core.InteractionSource。
func (m *MemoryStore) Query(_ context.Context, since time.Time) ([]core.Interaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.Interaction, 0, len(m.interactions))
	for _, it := range m.interactions {
		if it.Timestamp.Before(since) {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

// Get 实现 core.ArticleSource。
func (m *MemoryStore) Get(_ context.Context, itemID string) (*core.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.articles[itemID]
	if !ok {
		return nil, core.ErrArticleNotFound
	}
	return a, nil
}

// ListRecent 实现 core.ArticleSource，按发布时间降序返回。
func (m *MemoryStore) ListRecent(_ context.Context, limit int, category string) ([]*core.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*core.Article, 0, len(m.articles))
	for _, a := range m.articles {
		if category != "" && !hasCategory(a, category) {
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

// ListPopular 实现 core.ArticleSource，按浏览量降序返回 since 之后发布的文章。
func (m *MemoryStore) ListPopular(_ context.Context, since time.Time, limit int) ([]*core.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*core.Article, 0, len(m.articles))
	for _, a := range m.articles {
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

// Embed 实现 core.EmbeddingProvider。
// 内存实现不接入真实的向量模型，使用确定性的词袋哈希向量，
// 仅保证“相同文本得到相同向量、词重叠越多相似度越高”这一测试语义。
func (m *MemoryStore) Embed(_ context.Context, text string) ([]float64, error) {
	return hashEmbed(text), nil
}

// GetStored 实现 core.EmbeddingProvider。
func (m *MemoryStore) GetStored(_ context.Context, itemID string) ([]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	vec, ok := m.embeddings[itemID]
	if !ok {
		return nil, core.ErrEmbeddingNotFound
	}
	return vec, nil
}

// Load 实现 core.ProfileLoader。
func (m *MemoryStore) Load(_ context.Context, userID string) (*core.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[userID]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	return p, nil
}

func hasCategory(a *core.Article, category string) bool {
	for _, c := range a.Categories {
		if c == category {
			return true
		}
	}
	return false
}
