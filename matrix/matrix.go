package matrix

import "time"

// Matrix 是一次构建产出的用户×文章交互矩阵快照。
//
// 快照语义：
//   - 行/列索引映射与数值一起生成、一起版本化，绝不与其他快照混用
//   - 构建后只读；并发推荐请求可以共享同一个快照
//   - 不持久化，按刷新周期重建
type Matrix struct {
	UserIDs []string // 行顺序
	ItemIDs []string // 列顺序
	Values  [][]float64

	userIndex map[string]int
	itemIndex map[string]int

	WindowDays int
	BuiltAt    time.Time
}

// Rows 返回行数（用户数）。
func (m *Matrix) Rows() int {
	if m == nil {
		return 0
	}
	return len(m.UserIDs)
}

// Cols 返回列数（文章数）。
func (m *Matrix) Cols() int {
	if m == nil {
		return 0
	}
	return len(m.ItemIDs)
}

// IsEmpty 判断矩阵是否为空。空矩阵意味着协同过滤通路不可用。
func (m *Matrix) IsEmpty() bool {
	return m.Rows() == 0 || m.Cols() == 0
}

// UserRow 返回用户对应的行号。
func (m *Matrix) UserRow(userID string) (int, bool) {
	if m == nil || m.userIndex == nil {
		return 0, false
	}
	row, ok := m.userIndex[userID]
	return row, ok
}

// ItemCol 返回文章对应的列号。
func (m *Matrix) ItemCol(itemID string) (int, bool) {
	if m == nil || m.itemIndex == nil {
		return 0, false
	}
	col, ok := m.itemIndex[itemID]
	return col, ok
}

// ItemAt 返回列号对应的文章 ID。
func (m *Matrix) ItemAt(col int) string {
	return m.ItemIDs[col]
}

// Row 返回用户行的原始数值（只读视图，调用方不得修改）。
func (m *Matrix) Row(row int) []float64 {
	return m.Values[row]
}
