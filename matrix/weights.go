package matrix

import "github.com/rushteam/newsrec/core"

// 行为类型的基础权重。阅读深度信号（停留时长、滚动深度）在此基础上做乘法放大。
var baseWeights = map[core.InteractionKind]float64{
	core.KindView:     0.5,
	core.KindClick:    1.0,
	core.KindRead:     2.0,
	core.KindLike:     3.0,
	core.KindShare:    4.0,
	core.KindComment:  3.0,
	core.KindBookmark: 2.5,
}

// defaultWeight 未知行为类型按 click 处理。
const defaultWeight = 1.0

func baseWeight(kind core.InteractionKind) float64 {
	if w, ok := baseWeights[kind]; ok {
		return w
	}
	return defaultWeight
}

// dwellMultiplier 停留时长放大系数：越长说明兴趣越强。
func dwellMultiplier(seconds int) float64 {
	switch {
	case seconds > 300:
		return 2.0
	case seconds > 120:
		return 1.5
	case seconds > 60:
		return 1.2
	default:
		return 1.0
	}
}

// scrollMultiplier 滚动深度放大系数。
func scrollMultiplier(percent int) float64 {
	switch {
	case percent > 80:
		return 1.5
	case percent > 50:
		return 1.2
	default:
		return 1.0
	}
}

// InteractionWeight 计算单条交互的加权分数：基础权重 × 停留系数 × 滚动系数。
// 同一 (用户, 文章) 的多条交互取 max 而不是求和，避免反复刷行为把分数无限抬高。
func InteractionWeight(it core.Interaction) float64 {
	return baseWeight(it.Kind) * dwellMultiplier(it.DwellSeconds) * scrollMultiplier(it.ScrollPercent)
}
