package rerank

import (
	"context"

	"github.com/rushteam/newsrec/core"
	"github.com/rushteam/newsrec/pipeline"
	"github.com/rushteam/newsrec/pkg/utils"
)

// Diversity 是多样性重排 Node：限制单一类别在结果中的占比。
//
// 规则：类别上限 = max(2, Limit/3)。超出上限的候选不丢弃，而是降权
// （分数 × DemoteFactor）移到尾部；空出的席位由顺位靠后的其他类别候选
// 自然回填。保留降权候选是为了池子枯竭时仍有东西可用。
//
// Level <= 0 时为透传，不做任何调整。
type Diversity struct {
	// Limit 结果的目标条数，类别上限据此计算；<= 0 时取 10。
	Limit int

	// Level 多样性水平 (0.0 ~ 1.0)，0 关闭。
	Level float64

	// DemoteFactor 超限候选的降权系数，<= 0 时取 0.7。
	DemoteFactor float64
}

func (n *Diversity) Name() string        { return "rerank.diversity" }
func (n *Diversity) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 || n.Level <= 0 {
		return items, nil
	}

	limit := n.Limit
	if limit <= 0 {
		limit = 10
	}
	maxPerCat := limit / 3
	if maxPerCat < 2 {
		maxPerCat = 2
	}
	demote := n.DemoteFactor
	if demote <= 0 {
		demote = 0.7
	}

	counts := make(map[string]int, 16)
	kept := make([]*core.Item, 0, len(items))
	overflow := make([]*core.Item, 0)

	// 输入已按调整前分数排序；超限候选降权后移到尾部，后续类别自动回填
	for _, it := range items {
		if it == nil {
			continue
		}
		cat := it.Category
		if cat == "" {
			kept = append(kept, it)
			continue
		}
		if counts[cat] < maxPerCat {
			counts[cat]++
			kept = append(kept, it)
			continue
		}
		it.Score *= demote
		it.PutLabel("demoted", utils.Label{Value: cat, Source: "rerank"})
		overflow = append(overflow, it)
	}

	sortByScore(overflow)
	return append(kept, overflow...), nil
}
