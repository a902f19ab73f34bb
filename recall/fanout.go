package recall

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/newsrec/core"
	"github.com/rushteam/newsrec/pipeline"
	"github.com/rushteam/newsrec/pkg/utils"
)

// Fanout 是一个 Recall Node：并发执行多个召回源，并合并结果。
// 支持超时、限流、优先级合并策略。
//
// 外部依赖（向量服务、文档存储）只允许在召回源内部产生 I/O，
// 单个召回源超时或出错时按空结果处理，绝不拖垮整个推荐请求。
type Fanout struct {
	Sources       []Source
	Dedup         bool
	Timeout       time.Duration // 每个召回源的超时时间
	MaxConcurrent int           // 最大并发数（0 表示无限制）
	MergeStrategy string        // 合并策略：first / union / priority（优先级按 Sources 顺序）
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

// sourced 记录候选与产出它的召回源优先级（Sources 中的索引，越小优先级越高）。
type sourced struct {
	item *core.Item
	prio int
}

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}

	var (
		mu    sync.Mutex
		all   []sourced
		eg, _ = errgroup.WithContext(ctx)
	)

	// 限流：使用 semaphore 控制并发数
	var sem chan struct{}
	if n.MaxConcurrent > 0 {
		sem = make(chan struct{}, n.MaxConcurrent)
	}

	for i, src := range n.Sources {
		s := src
		prio := i

		eg.Go(func() error {
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}

			recallCtx := ctx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(ctx, n.Timeout)
				defer cancel()
			}

			items, err := s.Recall(recallCtx, rctx)
			if err != nil {
				// 超时或错误时返回空结果，不中断其他召回源
				return nil
			}

			// 补记召回来源 label，方便 explain / 观测；召回源自带的 label 优先
			for _, it := range items {
				if it == nil {
					continue
				}
				if _, ok := it.GetLabel("recall_source"); !ok {
					it.PutLabel("recall_source", utils.Label{Value: s.Name(), Source: "recall"})
				}
			}

			mu.Lock()
			for _, it := range items {
				if it != nil {
					all = append(all, sourced{item: it, prio: prio})
				}
			}
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	// 并发收集的顺序不确定，先按来源优先级稳定排序，保证合并结果可复现
	sortSourced(all)

	switch n.MergeStrategy {
	case "priority":
		return n.mergeByPriority(all), nil
	case "union":
		return flatten(all), nil
	default: // "first" 或默认
		return n.mergeFirst(all), nil
	}
}

// sortSourced 按 (prio, itemID) 稳定排序。
func sortSourced(all []sourced) {
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].prio != all[j].prio {
			return all[i].prio < all[j].prio
		}
		return all[i].item.ID < all[j].item.ID
	})
}

func flatten(all []sourced) []*core.Item {
	out := make([]*core.Item, 0, len(all))
	for _, s := range all {
		out = append(out, s.item)
	}
	return out
}

// mergeFirst 按 ID 去重，保留第一个出现的（默认策略）。
func (n *Fanout) mergeFirst(all []sourced) []*core.Item {
	if !n.Dedup {
		return flatten(all)
	}
	seen := make(map[string]*core.Item, len(all))
	out := make([]*core.Item, 0, len(all))
	for _, s := range all {
		it := s.item
		if old, ok := seen[it.ID]; ok {
			for k, v := range it.Labels {
				old.PutLabel(k, v)
			}
			continue
		}
		seen[it.ID] = it
		out = append(out, it)
	}
	return out
}

// mergeByPriority 相同 ID 时保留优先级更高来源的条目，分数取较大值，labels 合并。
func (n *Fanout) mergeByPriority(all []sourced) []*core.Item {
	if !n.Dedup {
		return flatten(all)
	}
	// all 已按优先级排序，first-wins 即 priority-wins；落选条目只回填分数与 labels
	best := make(map[string]*core.Item, len(all))
	out := make([]*core.Item, 0, len(all))
	for _, s := range all {
		it := s.item
		old, exists := best[it.ID]
		if !exists {
			best[it.ID] = it
			out = append(out, it)
			continue
		}
		if it.Score > old.Score {
			old.Score = it.Score
		}
		for k, v := range it.Labels {
			old.PutLabel(k, v)
		}
	}
	return out
}
