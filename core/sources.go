package core

import (
	"context"
	"time"
)

// 本文件定义引擎对外部协作方的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store / feast）实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
//   - 引擎在构造时注入实现，不持有任何全局可变状态

// InteractionSource 是交互日志的只读访问接口。
type InteractionSource interface {
	// Query 返回 timestamp >= since 的全部交互记录。
	Query(ctx context.Context, since time.Time) ([]Interaction, error)
}

// ArticleSource 是文章元数据的只读访问接口（通用文档存储的抽象）。
type ArticleSource interface {
	// Get 按 ID 获取文章；不存在时返回 ErrArticleNotFound。
	Get(ctx context.Context, itemID string) (*Article, error)

	// ListRecent 按发布时间降序返回最多 limit 篇文章。
	// category 非空时只返回该类别的文章。
	ListRecent(ctx context.Context, limit int, category string) ([]*Article, error)

	// ListPopular 返回 since 之后发布、按浏览量降序的最多 limit 篇文章。
	ListPopular(ctx context.Context, since time.Time, limit int) ([]*Article, error)
}

// EmbeddingProvider 是向量生成与查询能力。
// 向量的生成（模型推理）完全是外部能力，引擎只消费结果。
type EmbeddingProvider interface {
	// Embed 为一段文本生成向量。
	Embed(ctx context.Context, text string) ([]float64, error)

	// GetStored 获取文章的预计算向量；不存在时返回 ErrEmbeddingNotFound。
	// 调用方必须把“没有向量”处理为跳过，而不是按零分参与排序。
	GetStored(ctx context.Context, itemID string) ([]float64, error)
}

// ProfileLoader 按用户 ID 加载用户画像（声明的兴趣类别等）。
// 典型实现：feast 特征服务、内存画像表。加载失败时返回 nil 画像即可，
// 引擎会按无画像路径继续。
type ProfileLoader interface {
	Load(ctx context.Context, userID string) (*UserProfile, error)
}
