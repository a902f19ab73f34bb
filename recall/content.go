package recall

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/rushteam/newsrec/core"
	"github.com/rushteam/newsrec/pkg/utils"
)

// Content 是基于内容向量相似度的召回源。
//
// 核心思想："用户读过什么样的文章，就推荐语义相近的其他文章"。
// 向量生成完全委托给外部 EmbeddingProvider；本召回源只做余弦相似度检索。
//
// 两种使用模式：
//   - 画像模式（Recall）：种子文本 = 最近阅读的标题/摘要 + 声明的兴趣类别
//   - 相似文章模式（SimilarToArticle）：种子 = 单篇文章的预存向量，
//     用于 "读过 X 的用户还在看" 场景
type Content struct {
	Articles   core.ArticleSource
	Embeddings core.EmbeddingProvider

	// TopK 返回 TopK 个候选，<= 0 时取 20。
	TopK int

	// CandidateLimit 参与相似度计算的候选池大小（按最新文章截取），<= 0 时取 200。
	CandidateLimit int

	// RecentSeeds 构建种子文本时使用的最近阅读条数，<= 0 时取 5。
	RecentSeeds int
}

func (r *Content) Name() string { return "recall.content" }

// Seed 是 FindSimilar 的查询入参：文本或现成向量二选一，向量优先。
type Seed struct {
	Text   string
	Vector []float64
}

// Recall 画像模式：从用户最近阅读与声明兴趣构建种子文本后检索。
func (r *Content) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Articles == nil || r.Embeddings == nil || rctx == nil || rctx.UserID == "" {
		return nil, nil
	}

	exclude := make(map[string]bool)
	var parts []string

	if rctx.User != nil {
		seeds := r.RecentSeeds
		if seeds <= 0 {
			seeds = 5
		}
		reads := rctx.User.RecentReads
		if len(reads) > seeds {
			reads = reads[:seeds]
		}
		for _, itemID := range reads {
			exclude[itemID] = true
			a, err := r.Articles.Get(ctx, itemID)
			if err != nil || a == nil {
				continue
			}
			parts = append(parts, a.Title)
			if a.Summary != "" {
				parts = append(parts, a.Summary)
			}
		}

		// 声明兴趣按名称排序后附加，保证种子文本确定
		interests := make([]string, 0, len(rctx.User.Interests))
		for cat := range rctx.User.Interests {
			interests = append(interests, cat)
		}
		sort.Strings(interests)
		parts = append(parts, interests...)
	}

	if len(parts) == 0 {
		return nil, nil
	}

	return r.FindSimilar(ctx, Seed{Text: strings.Join(parts, " ")}, exclude, r.TopK)
}

// SimilarToArticle 相似文章模式：以指定文章的预存向量为种子检索。
func (r *Content) SimilarToArticle(
	ctx context.Context,
	itemID string,
	exclude map[string]bool,
	limit int,
) ([]*core.Item, error) {
	if r.Embeddings == nil {
		return nil, nil
	}
	vec, err := r.Embeddings.GetStored(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if exclude == nil {
		exclude = make(map[string]bool)
	}
	exclude[itemID] = true
	return r.FindSimilar(ctx, Seed{Vector: vec}, exclude, limit)
}

// FindSimilar 对候选池逐篇计算余弦相似度，返回 top-limit。
//
// 没有预存向量的文章直接跳过（而不是按零分参与排序）——
// 缺数据不能悄悄把排名偏向零。
func (r *Content) FindSimilar(
	ctx context.Context,
	seed Seed,
	exclude map[string]bool,
	limit int,
) ([]*core.Item, error) {
	if r.Articles == nil || r.Embeddings == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	query := seed.Vector
	if len(query) == 0 {
		if seed.Text == "" {
			return nil, nil
		}
		var err error
		query, err = r.Embeddings.Embed(ctx, seed.Text)
		if err != nil {
			return nil, err
		}
	}
	if len(query) == 0 {
		return nil, nil
	}

	candidateLimit := r.CandidateLimit
	if candidateLimit <= 0 {
		candidateLimit = 200
	}
	pool, err := r.Articles.ListRecent(ctx, candidateLimit, "")
	if err != nil {
		return nil, err
	}

	type scored struct {
		article *core.Article
		score   float64
	}
	scores := make([]scored, 0, len(pool))
	for _, a := range pool {
		if a == nil || exclude[a.ID] {
			continue
		}
		vec, err := r.Embeddings.GetStored(ctx, a.ID)
		if err != nil || len(vec) == 0 {
			continue // 无向量则跳过
		}
		sim := Cosine(query, vec)
		if sim <= 0 {
			continue
		}
		scores = append(scores, scored{article: a, score: sim})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].article.ID < scores[j].article.ID
	})
	if len(scores) > limit {
		scores = scores[:limit]
	}

	out := make([]*core.Item, 0, len(scores))
	for _, s := range scores {
		it := s.article.ToItem(core.SourceContent)
		it.Score = s.score
		it.PutLabel("recall_source", utils.Label{Value: "content", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

// Cosine 计算两个向量的余弦相似度；维度不一致或零向量时返回 0。
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
