package core

import "time"

// InteractionKind 是用户行为类型。不同行为在构建交互矩阵时有不同的基础权重。
type InteractionKind string

const (
	KindView     InteractionKind = "view"
	KindClick    InteractionKind = "click"
	KindRead     InteractionKind = "read"
	KindLike     InteractionKind = "like"
	KindShare    InteractionKind = "share"
	KindComment  InteractionKind = "comment"
	KindBookmark InteractionKind = "bookmark"
)

// Interaction 是一条用户-文章交互记录。
// 由外部的交互日志系统写入，本引擎只读；写入后不可变。
//
// DwellSeconds / ScrollPercent 是可选的行为深度信号，0 表示未采集。
type Interaction struct {
	UserID        string
	ItemID        string
	Kind          InteractionKind
	Timestamp     time.Time
	DwellSeconds  int
	ScrollPercent int
}
