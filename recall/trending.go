package recall

import (
	"context"
	"sort"
	"time"

	"github.com/rushteam/newsrec/core"
	"github.com/rushteam/newsrec/pkg/utils"
)

// Trending 是热度召回源，作为温用户路径的最后兜底池。
//
// 热度分数 = 0.4 × 新近度(7 天衰减) + 0.4 × min(1, 交互数/10) + 0.2 × 可信度。
type Trending struct {
	Articles     core.ArticleSource
	Interactions core.InteractionSource

	// TopK 返回 TopK 篇，<= 0 时取 20。
	TopK int

	// PoolLimit 参与打分的最新文章池大小，<= 0 时取 100。
	PoolLimit int

	// Now 用于测试注入当前时间。
	Now func() time.Time
}

func (r *Trending) Name() string { return "recall.trending" }

func (r *Trending) Recall(
	ctx context.Context,
	_ *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Articles == nil {
		return nil, nil
	}

	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}
	poolLimit := r.PoolLimit
	if poolLimit <= 0 {
		poolLimit = 100
	}

	pool, err := r.Articles.ListRecent(ctx, poolLimit, "")
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, nil
	}

	// 一次性取出窗口内交互，按文章聚合计数；失败按零计数继续（热度退化为纯新近度）
	counts := make(map[string]int)
	if r.Interactions != nil {
		if interactions, err := r.Interactions.Query(ctx, now.AddDate(0, 0, -7)); err == nil {
			for _, it := range interactions {
				counts[it.ItemID]++
			}
		}
	}

	type scored struct {
		article *core.Article
		score   float64
	}
	scores := make([]scored, 0, len(pool))
	for _, a := range pool {
		if a == nil {
			continue
		}
		daysOld := now.Sub(a.PublishedAt).Hours() / 24
		recency := (7 - daysOld) / 7
		if recency < 0 {
			recency = 0
		}
		engagement := float64(counts[a.ID]) / 10
		if engagement > 1 {
			engagement = 1
		}
		trust := a.TrustScore
		scores = append(scores, scored{
			article: a,
			score:   0.4*recency + 0.4*engagement + 0.2*trust,
		})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].article.ID < scores[j].article.ID
	})

	topK := r.TopK
	if topK <= 0 {
		topK = 20
	}
	if len(scores) > topK {
		scores = scores[:topK]
	}

	out := make([]*core.Item, 0, len(scores))
	for _, s := range scores {
		it := s.article.ToItem(core.SourceColdStart)
		it.Score = s.score
		it.PutLabel("recall_source", utils.Label{Value: "trending", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
