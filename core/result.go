package core

import "time"

// Recommendation 是最终结果中的一条推荐，带可解释的来源信息。
type Recommendation struct {
	ItemID string          `json:"item_id"`
	Score  float64         `json:"score"`
	Source CandidateSource `json:"source"`
	Reason string          `json:"reason,omitempty"`
}

// RecommendationResult 是一次推荐请求的最终产物，按调整后分数降序排列。
// 引擎自身不缓存结果；缓存（如有）是 API 层的职责。
type RecommendationResult struct {
	UserID      string           `json:"user_id"`
	Items       []Recommendation `json:"items"`
	ColdStart   bool             `json:"cold_start"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// ItemIDs 返回结果中的文章 ID 列表，保持排序。
func (r *RecommendationResult) ItemIDs() []string {
	ids := make([]string, 0, len(r.Items))
	for _, it := range r.Items {
		ids = append(ids, it.ItemID)
	}
	return ids
}
