package core

import "github.com/rushteam/newsrec/pkg/utils"

// RecommendContext 承载用户/场景/请求参数，贯穿整条召回-过滤-重排链路透传。
type RecommendContext struct {
	UserID string
	Scene  string // 请求场景，例如 "feed" / "similar"

	// User 是用户画像，可以为 nil（未知用户走冷启动）。
	User *UserProfile

	// Labels 是用户级标签，可驱动整条链路的行为，
	// 例如：新用户、重度用户。
	Labels map[string]utils.Label

	// Params 请求级上下文参数。
	Params map[string]any
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}

// Interests 返回声明的兴趣，画像缺失时返回 nil。
func (rctx *RecommendContext) Interests() map[string]float64 {
	if rctx == nil || rctx.User == nil {
		return nil
	}
	return rctx.User.Interests
}
