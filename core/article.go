package core

import "time"

// Article 是文章元数据。正文、抽取、摘要等由上游内容管线负责，
// 引擎只消费这里列出的字段。
type Article struct {
	ID          string
	Title       string
	Summary     string
	Source      string // 媒体来源，例如 RSS 订阅源名称
	Categories  []string
	PublishedAt time.Time
	ViewCount   int64
	TrustScore  float64 // 0-1，上游可信度评估，缺省 0.5
}

// PrimaryCategory 返回文章的主类别（第一个类别）。
// 没有类别时返回 "uncategorized"，保证分组逻辑不需要处理空串。
func (a *Article) PrimaryCategory() string {
	if len(a.Categories) == 0 {
		return "uncategorized"
	}
	return a.Categories[0]
}

// ToItem 把文章包装成候选 Item。
func (a *Article) ToItem(source CandidateSource) *Item {
	it := NewItem(a.ID)
	it.Source = source
	it.Category = a.PrimaryCategory()
	it.PublishedAt = a.PublishedAt
	return it
}
