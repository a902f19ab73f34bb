package engine

import (
	"context"
	"sort"
	"time"

	"github.com/rushteam/newsrec/core"
	"github.com/rushteam/newsrec/matrix"
	"github.com/rushteam/newsrec/model"
)

// maxRecentReads 每用户保留的最近阅读条数上限。
const maxRecentReads = 10

// Snapshot 是一次模型刷新产出的只读状态：交互矩阵、SVD 因子、
// 文章发布时间索引、各用户窗口内已读集合。
//
// 快照语义：
//   - 构建后只读，并发推荐请求共享同一个快照
//   - 引擎通过 atomic.Pointer 原地切换，请求路径无锁
//   - Factors 可以为 nil（交互不足时协同过滤通路整体不可用）
type Snapshot struct {
	Matrix  *matrix.Matrix
	Factors *model.LatentFactors

	// Recency 是文章 ID 到发布时间的索引，用于协同过滤的新近度平手规则。
	Recency map[string]time.Time

	// Seen 是各用户在交互窗口内读过的文章 ID 集合。
	Seen map[string]map[string]struct{}

	// Reads 是各用户窗口内最近交互的文章 ID，时间降序、去重、截断。
	// 没有外部画像时，内容召回用它构建种子文本。
	Reads map[string][]string

	BuiltAt time.Time
}

// SeenItems 实现 filter.SeenStore。
func (s *Snapshot) SeenItems(_ context.Context, userID string) (map[string]struct{}, error) {
	if s == nil {
		return nil, nil
	}
	return s.Seen[userID], nil
}

// RecentReads 返回用户窗口内最近交互的文章 ID（时间降序）。
func (s *Snapshot) RecentReads(userID string) []string {
	if s == nil {
		return nil
	}
	return s.Reads[userID]
}

// HasUser 判断用户是否在当前矩阵中（决定走温启动还是冷启动）。
func (s *Snapshot) HasUser(userID string) bool {
	if s == nil || s.Matrix == nil {
		return false
	}
	_, ok := s.Matrix.UserRow(userID)
	return ok
}

// snapshotBuilder 把一次刷新涉及的数据读取与模型训练收拢在一起。
type snapshotBuilder struct {
	interactions core.InteractionSource
	articles     core.ArticleSource

	windowDays          int
	minUserInteractions int
	maxFactors          int
	recencyPoolLimit    int

	now func() time.Time
}

// cachedInteractions 把一次查询的结果包装成 core.InteractionSource，
// 避免矩阵构建与已读集合各自回源。
type cachedInteractions struct {
	items []core.Interaction
}

func (c *cachedInteractions) Query(_ context.Context, since time.Time) ([]core.Interaction, error) {
	out := make([]core.Interaction, 0, len(c.items))
	for _, it := range c.items {
		if it.Timestamp.Before(since) {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

// build 执行一次完整的快照构建。
// 交互不足导致模型不可训练不是错误：返回 Factors 为 nil 的快照，
// 协同过滤通路降级，冷启动与内容召回照常工作。
func (b *snapshotBuilder) build(ctx context.Context) (*Snapshot, error) {
	now := time.Now()
	if b.now != nil {
		now = b.now()
	}

	since := now.AddDate(0, 0, -b.windowDays)
	raw, err := b.interactions.Query(ctx, since)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeDataUnavailable, "snapshot: query interactions: "+err.Error())
	}

	seen := make(map[string]map[string]struct{})
	for _, it := range raw {
		set, ok := seen[it.UserID]
		if !ok {
			set = make(map[string]struct{})
			seen[it.UserID] = set
		}
		set[it.ItemID] = struct{}{}
	}

	// 最近阅读列表：时间降序去重，每用户截断
	ordered := make([]core.Interaction, len(raw))
	copy(ordered, raw)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.After(ordered[j].Timestamp)
	})
	reads := make(map[string][]string)
	for _, it := range ordered {
		ids := reads[it.UserID]
		if len(ids) >= maxRecentReads {
			continue
		}
		dup := false
		for _, id := range ids {
			if id == it.ItemID {
				dup = true
				break
			}
		}
		if !dup {
			reads[it.UserID] = append(ids, it.ItemID)
		}
	}

	builder := &matrix.Builder{
		Interactions: &cachedInteractions{items: raw},
		Now:          func() time.Time { return now },
	}
	im, err := builder.Build(ctx, b.windowDays, b.minUserInteractions)
	if err != nil {
		return nil, err
	}

	var factors *model.LatentFactors
	if !im.IsEmpty() {
		svd := &model.SVDModel{MaxFactors: b.maxFactors}
		factors, err = svd.Fit(im)
		if err != nil {
			if !core.IsDataUnavailable(err) {
				return nil, err
			}
			// 矩阵过小或分解失败：协同过滤通路按不可用处理
			factors = nil
		}
	}

	recency := make(map[string]time.Time)
	poolLimit := b.recencyPoolLimit
	if poolLimit <= 0 {
		poolLimit = 1000
	}
	if articles, err := b.articles.ListRecent(ctx, poolLimit, ""); err == nil {
		for _, a := range articles {
			recency[a.ID] = a.PublishedAt
		}
	}

	return &Snapshot{
		Matrix:  im,
		Factors: factors,
		Recency: recency,
		Seen:    seen,
		Reads:   reads,
		BuiltAt: now,
	}, nil
}
