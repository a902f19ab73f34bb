package recall

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/rushteam/newsrec/core"
	"github.com/rushteam/newsrec/pkg/utils"
)

// ColdStart 是冷启动召回源：用户交互太少无法支撑协同过滤时，
// 用 近期热门 + 最新 + 按类别配额 三个池子组装一份类别均衡的候选集。
//
// 优先类别列表与每类配额是注入的配置表，而不是写死的业务分类——
// 内容分类体系会独立于算法演进。
//
// 无状态纯选择过程：同样的文章库 + 同样的随机源 → 同样的输出。
type ColdStart struct {
	Articles core.ArticleSource

	// PriorityCategories 优先类别的固定顺序表，每轮每个类别分配一个席位。
	PriorityCategories []string

	// PerCategoryQuota 每个类别池最多取多少篇最新文章，<= 0 时取 3。
	PerCategoryQuota int

	// PopularWindowDays 热门池的发布时间窗口（天），<= 0 时取 3。
	PopularWindowDays int

	// Limit 作为召回源使用时的默认候选数，<= 0 时取 20。
	Limit int

	// Rand 兜底填充时的随机源，注入以便测试；为 nil 时按构建时间播种。
	Rand *rand.Rand

	// Now 用于测试注入当前时间。
	Now func() time.Time
}

func (r *ColdStart) Name() string { return "recall.coldstart" }

// Recall 实现 Source 接口。
func (r *ColdStart) Recall(
	ctx context.Context,
	_ *core.RecommendContext,
) ([]*core.Item, error) {
	limit := r.Limit
	if limit <= 0 {
		limit = 20
	}
	return r.Select(ctx, limit)
}

// Select 组装冷启动候选：
//  1. 三个池子：近期热门、总体最新、每个已知类别的最新若干篇
//  2. 按 ID 去重（先出现者保留）
//  3. 按主类别分组，组内按发布时间降序
//  4. 按优先类别顺序逐轮分配席位，直到填满或类别耗尽
//  5. 席位未满时从剩余候选中随机补齐，避免重复请求返回一成不变的尾部
//
// 文章库完全为空时返回空结果——这是合法的终态，不是错误。
func (r *ColdStart) Select(ctx context.Context, limit int) ([]*core.Item, error) {
	if r.Articles == nil || limit <= 0 {
		return nil, nil
	}

	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}
	popularDays := r.PopularWindowDays
	if popularDays <= 0 {
		popularDays = 3
	}
	quota := r.PerCategoryQuota
	if quota <= 0 {
		quota = 3
	}

	// 1. 三个候选池；单个池子失败按空池处理，不中断整体
	var union []*core.Article
	if popular, err := r.Articles.ListPopular(ctx, now.AddDate(0, 0, -popularDays), limit*2); err == nil {
		union = append(union, popular...)
	}
	if recent, err := r.Articles.ListRecent(ctx, limit*2, ""); err == nil {
		union = append(union, recent...)
	}
	for _, cat := range r.PriorityCategories {
		if catRecent, err := r.Articles.ListRecent(ctx, quota, cat); err == nil {
			union = append(union, catRecent...)
		}
	}

	// 2. 去重，先出现者保留
	seen := make(map[string]bool, len(union))
	deduped := make([]*core.Article, 0, len(union))
	for _, a := range union {
		if a == nil || seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		deduped = append(deduped, a)
	}
	if len(deduped) == 0 {
		return nil, nil
	}

	// 3. 按主类别分组，组内最新优先
	groups := make(map[string][]*core.Article)
	for _, a := range deduped {
		cat := a.PrimaryCategory()
		groups[cat] = append(groups[cat], a)
	}
	for _, queue := range groups {
		sort.SliceStable(queue, func(i, j int) bool {
			if !queue[i].PublishedAt.Equal(queue[j].PublishedAt) {
				return queue[i].PublishedAt.After(queue[j].PublishedAt)
			}
			return queue[i].ID < queue[j].ID
		})
	}

	// 4. 优先类别逐轮分配
	selected := make([]*core.Article, 0, limit)
	chosen := make(map[string]bool, limit)
	for len(selected) < limit {
		progressed := false
		for _, cat := range r.PriorityCategories {
			if len(selected) >= limit {
				break
			}
			queue := groups[cat]
			if len(queue) == 0 {
				continue
			}
			groups[cat] = queue[1:]
			selected = append(selected, queue[0])
			chosen[queue[0].ID] = true
			progressed = true
		}
		if !progressed {
			break
		}
	}

	// 5. 随机补齐剩余席位
	if len(selected) < limit {
		remaining := make([]*core.Article, 0, len(deduped))
		for _, a := range deduped {
			if !chosen[a.ID] {
				remaining = append(remaining, a)
			}
		}
		rng := r.Rand
		if rng == nil {
			rng = rand.New(rand.NewSource(now.UnixNano()))
		}
		rng.Shuffle(len(remaining), func(i, j int) {
			remaining[i], remaining[j] = remaining[j], remaining[i]
		})
		for _, a := range remaining {
			if len(selected) >= limit {
				break
			}
			selected = append(selected, a)
			chosen[a.ID] = true
		}
	}

	// 分数按席位顺序线性递减，保证最终排序保持冷启动的均衡顺序
	out := make([]*core.Item, 0, len(selected))
	total := len(selected)
	for i, a := range selected {
		it := a.ToItem(core.SourceColdStart)
		it.Score = float64(total-i) / float64(total)
		it.PutLabel("recall_source", utils.Label{Value: "coldstart", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
