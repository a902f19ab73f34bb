package rerank

import (
	"context"
	"sort"

	"github.com/rushteam/newsrec/core"
	"github.com/rushteam/newsrec/pipeline"
	"github.com/rushteam/newsrec/pkg/utils"
)

// Blend 是混合 Node：把协同过滤 / 内容相似 / 冷启动三路候选按固定配额合并。
//
// 温用户配额：limit 的 50% 给协同过滤，30% 给内容相似，剩余席位留给
// 多样性重排从全部剩余候选中补齐。某一路候选不足时，缺口先滚动给另一路，
// 再滚到按热度/新近度排序的兜底池。
//
// 冷用户：100% 来自冷启动候选，有声明兴趣时按兴趣权重调分重排。
//
// 去重规则：同一文章出现在多路候选中时保留最高分，且只占用一个配额桶——
// 归属按 协同 > 内容 > 冷启动 的优先级判定。
//
// 分数契约：三路候选的原始分数量纲不同（预测评分 / 余弦相似度 / 席位序），
// 合并前各自按池内最大值归一化到 [0,1]。
type Blend struct {
	// Limit 最终结果的目标条数。
	Limit int

	// CollaborativeRatio / ContentRatio 温用户配额比例，默认 0.5 / 0.3。
	// 比例保留为可调配置而非算法必然。
	CollaborativeRatio float64
	ContentRatio       float64

	// Cold 为 true 时走冷用户路径。
	Cold bool
}

func (n *Blend) Name() string        { return "blend.hybrid" }
func (n *Blend) Kind() pipeline.Kind { return pipeline.KindBlend }

// bucketPriority 去重归属优先级，值越小越优先。
var bucketPriority = map[core.CandidateSource]int{
	core.SourceCollaborative: 0,
	core.SourceContent:       1,
	core.SourceColdStart:     2,
}

func (n *Blend) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return nil, nil
	}
	limit := n.Limit
	if limit <= 0 {
		limit = 10
	}

	normalizePerSource(items)
	merged := dedupByBucket(items)

	if n.Cold {
		return n.blendCold(rctx, merged), nil
	}
	return n.blendWarm(merged, limit), nil
}

// blendCold 冷用户路径：只消费冷启动候选，按声明兴趣调分。
func (n *Blend) blendCold(rctx *core.RecommendContext, merged []*core.Item) []*core.Item {
	out := make([]*core.Item, 0, len(merged))
	interests := rctx.Interests()
	for _, it := range merged {
		if it.Source != core.SourceColdStart {
			continue
		}
		if w := interests[it.Category]; w > 0 {
			it.Score *= 1 + w
			it.PutLabel("interest_boost", utils.Label{Value: it.Category, Source: "blend"})
		}
		out = append(out, it)
	}
	sortByScore(out)
	return out
}

// blendWarm 温用户路径：配额分配 + 缺口滚动 + 兜底补齐。
// 返回值的前段是配额选中的候选，后段是留给多样性重排回填的剩余候选。
func (n *Blend) blendWarm(merged []*core.Item, limit int) []*core.Item {
	buckets := make(map[core.CandidateSource][]*core.Item)
	for _, it := range merged {
		buckets[it.Source] = append(buckets[it.Source], it)
	}
	for _, pool := range buckets {
		sortByScore(pool)
	}

	collabRatio := n.CollaborativeRatio
	if collabRatio <= 0 {
		collabRatio = 0.5
	}
	contentRatio := n.ContentRatio
	if contentRatio <= 0 {
		contentRatio = 0.3
	}

	nCollab := int(float64(limit) * collabRatio)
	nContent := int(float64(limit) * contentRatio)

	selected := make([]*core.Item, 0, limit)
	taken := make(map[string]bool, limit)

	take := func(pool []*core.Item, want int) int {
		got := 0
		for _, it := range pool {
			if got >= want {
				break
			}
			if taken[it.ID] {
				continue
			}
			taken[it.ID] = true
			selected = append(selected, it)
			got++
		}
		return got
	}

	// 协同过滤配额；缺口滚动给内容相似
	got := take(buckets[core.SourceCollaborative], nCollab)
	shortfall := nCollab - got

	// 内容相似配额（含协同过滤滚过来的缺口）；缺口再滚回协同过滤的剩余候选
	got = take(buckets[core.SourceContent], nContent+shortfall)
	shortfall = nContent + shortfall - got
	if shortfall > 0 {
		take(buckets[core.SourceCollaborative], shortfall)
	}

	// 剩余席位：从全部剩余候选（含冷启动/热度兜底）按分数补齐
	leftovers := make([]*core.Item, 0, len(merged))
	for _, it := range merged {
		if !taken[it.ID] {
			leftovers = append(leftovers, it)
		}
	}
	sortByScore(leftovers)
	take(leftovers, limit-len(selected))

	// 选中的候选按分数排序；未选中的附在尾部，供多样性重排回填
	sortByScore(selected)
	tail := make([]*core.Item, 0, len(merged)-len(selected))
	for _, it := range merged {
		if !taken[it.ID] {
			tail = append(tail, it)
		}
	}
	sortByScore(tail)
	return append(selected, tail...)
}

// normalizePerSource 把每一路候选的分数按池内最大值归一化到 [0,1]。
func normalizePerSource(items []*core.Item) {
	maxBySource := make(map[core.CandidateSource]float64)
	for _, it := range items {
		if it != nil && it.Score > maxBySource[it.Source] {
			maxBySource[it.Source] = it.Score
		}
	}
	for _, it := range items {
		if it == nil {
			continue
		}
		if max := maxBySource[it.Source]; max > 0 {
			it.Score /= max
		}
	}
}

// dedupByBucket 按桶优先级去重：保留优先级最高来源的条目，分数取各来源最大值。
func dedupByBucket(items []*core.Item) []*core.Item {
	best := make(map[string]*core.Item, len(items))
	order := make([]string, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		old, exists := best[it.ID]
		if !exists {
			best[it.ID] = it
			order = append(order, it.ID)
			continue
		}
		keep, drop := old, it
		if bucketPriority[it.Source] < bucketPriority[old.Source] {
			keep, drop = it, old
			best[it.ID] = it
		}
		if drop.Score > keep.Score {
			keep.Score = drop.Score
		}
		for k, v := range drop.Labels {
			keep.PutLabel(k, v)
		}
	}
	out := make([]*core.Item, 0, len(best))
	for _, id := range order {
		out = append(out, best[id])
	}
	return out
}

// sortByScore 按 (分数降序, 发布时间降序, ID 升序) 排序——对相同输入完全确定。
func sortByScore(items []*core.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.PublishedAt.Equal(b.PublishedAt) {
			return a.PublishedAt.After(b.PublishedAt)
		}
		return a.ID < b.ID
	})
}
