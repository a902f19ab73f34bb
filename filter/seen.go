package filter

import (
	"context"

	"github.com/rushteam/newsrec/core"
)

// SeenFilter 是已读过滤器，过滤掉用户在交互窗口内已经读过的文章。
// 已读集合由快照层维护，随模型刷新一起更新。
type SeenFilter struct {
	// Store 用于读取用户已读文章 ID 集合
	Store SeenStore
}

// SeenStore 是已读历史存储接口。
type SeenStore interface {
	// SeenItems 获取用户在交互窗口内读过的文章 ID 集合
	SeenItems(ctx context.Context, userID string) (map[string]struct{}, error)
}

// NewSeenFilter 创建一个已读过滤器。
func NewSeenFilter(store SeenStore) *SeenFilter {
	return &SeenFilter{Store: store}
}

func (f *SeenFilter) Name() string {
	return "filter.seen"
}

func (f *SeenFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || rctx == nil || rctx.UserID == "" {
		return false, nil
	}

	if f.Store == nil {
		return false, nil
	}

	seen, err := f.Store.SeenItems(ctx, rctx.UserID)
	if err != nil {
		return false, nil
	}

	_, ok := seen[item.ID]
	return ok, nil
}
