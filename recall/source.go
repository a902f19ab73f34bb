package recall

import (
	"context"

	"github.com/rushteam/newsrec/core"
)

// Source 表示一个可复用的召回源（协同过滤/内容相似/冷启动/热门）。
// 你可以把它理解为“可并发 fan-out 的策略单元”。
//
// 约定：召回源失败时返回 error，由 Fanout / 引擎把失败转换为空候选池；
// 召回源自己绝不 panic、绝不阻塞超过调用方给定的 ctx 期限。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}
