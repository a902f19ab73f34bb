package core

import (
	"time"

	"github.com/rushteam/newsrec/pkg/utils"
)

// CandidateSource 标记候选来自哪条召回通路。
// Blend 阶段依赖该字段做配额分配与去重归属，所以必须是显式枚举而不是字符串约定。
type CandidateSource string

const (
	SourceCollaborative CandidateSource = "collaborative" // 协同过滤（矩阵分解）
	SourceContent       CandidateSource = "content"       // 内容向量相似
	SourceColdStart     CandidateSource = "coldstart"     // 冷启动兜底
)

// Item 是推荐链路中的统一承载结构：候选文章 + 分数 + 来源 + 元信息。
// Labels 用于解释与策略驱动；Score 用于排序决策。
// Item 只在一次推荐请求内部存活，不做持久化。
type Item struct {
	ID          string
	Score       float64
	Source      CandidateSource
	Category    string    // 主类别，多样性重排使用
	PublishedAt time.Time // 发布时间，用于确定性的 recency 决胜
	Labels      map[string]utils.Label
	Meta        map[string]any
}

func NewItem(id string) *Item {
	return &Item{
		ID:     id,
		Score:  0,
		Labels: make(map[string]utils.Label),
		Meta:   make(map[string]any),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// GetLabel 读取 Label。
func (it *Item) GetLabel(key string) (utils.Label, bool) {
	if it.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := it.Labels[key]
	return lbl, ok
}
