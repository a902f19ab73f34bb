package matrix

import (
	"context"
	"sort"
	"time"

	"github.com/rushteam/newsrec/core"
)

// Builder 把时间窗口内的交互日志转换成用户×文章分数矩阵。
//
// 行只包含窗口内交互次数达到门槛的用户；没有任何用户达标时返回空矩阵，
// 调用方必须把空矩阵理解为“协同过滤通路不可用”，而不是错误。
type Builder struct {
	Interactions core.InteractionSource

	// Now 用于测试注入当前时间，为空时使用 time.Now。
	Now func() time.Time
}

// Build 读取 timestamp >= now - windowDays 的交互并构建矩阵快照。
//
// 失败策略：交互日志读取失败时返回 DATA_UNAVAILABLE，调用方据此降级到
// 内容召回 / 冷启动，不中断整个推荐请求。
func (b *Builder) Build(ctx context.Context, windowDays, minUserInteractions int) (*Matrix, error) {
	if b.Interactions == nil {
		return nil, core.NewDomainError(core.ModuleMatrix, core.ErrorCodeDataUnavailable, "matrix: interaction source not configured")
	}
	if windowDays <= 0 {
		windowDays = 90
	}
	if minUserInteractions <= 0 {
		minUserInteractions = 3
	}

	now := time.Now()
	if b.Now != nil {
		now = b.Now()
	}
	since := now.AddDate(0, 0, -windowDays)

	interactions, err := b.Interactions.Query(ctx, since)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleMatrix, core.ErrorCodeDataUnavailable, "matrix: interaction query failed: "+err.Error())
	}

	m := &Matrix{WindowDays: windowDays, BuiltAt: now}
	if len(interactions) == 0 {
		return m, nil
	}

	// 统计每个用户的交互次数，过滤不达标用户
	userCounts := make(map[string]int)
	for _, it := range interactions {
		userCounts[it.UserID]++
	}
	activeUsers := make([]string, 0, len(userCounts))
	for userID, count := range userCounts {
		if count >= minUserInteractions {
			activeUsers = append(activeUsers, userID)
		}
	}
	if len(activeUsers) == 0 {
		return m, nil
	}
	sort.Strings(activeUsers)

	// 收集窗口内出现过的全部文章 ID（列排序保证矩阵可复现）
	itemSet := make(map[string]bool)
	for _, it := range interactions {
		itemSet[it.ItemID] = true
	}
	itemIDs := make([]string, 0, len(itemSet))
	for itemID := range itemSet {
		itemIDs = append(itemIDs, itemID)
	}
	sort.Strings(itemIDs)

	userIndex := make(map[string]int, len(activeUsers))
	for i, userID := range activeUsers {
		userIndex[userID] = i
	}
	itemIndex := make(map[string]int, len(itemIDs))
	for i, itemID := range itemIDs {
		itemIndex[itemID] = i
	}

	values := make([][]float64, len(activeUsers))
	for i := range values {
		values[i] = make([]float64, len(itemIDs))
	}

	// 单元格取该 (用户, 文章) 所有交互加权分数的 max
	for _, it := range interactions {
		row, ok := userIndex[it.UserID]
		if !ok {
			continue
		}
		col, ok := itemIndex[it.ItemID]
		if !ok {
			continue
		}
		if w := InteractionWeight(it); w > values[row][col] {
			values[row][col] = w
		}
	}

	m.UserIDs = activeUsers
	m.ItemIDs = itemIDs
	m.Values = values
	m.userIndex = userIndex
	m.itemIndex = itemIndex
	return m, nil
}
