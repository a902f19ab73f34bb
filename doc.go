// Package newsrec 是一个混合新闻推荐引擎（Hybrid News Recommendation Engine）。
//
// 设计要点：
// - 三路混合: SVD 协同过滤 + 向量内容相似 + 冷启动选择，按配比席位混合
// - Snapshot-first: 交互矩阵与隐因子按刷新周期整体重建，请求路径无锁共享
// - Pipeline 可扩展: 召回/过滤/混合/重排均为 Node，可插拔组合
// - 降级优先: 任何单一通路失败都收敛为空候选池，而不是失败整个请求
package newsrec

import "github.com/rushteam/newsrec/pipeline"

// 轻量 facade：便于用户直接 import "newsrec" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindBlend       = pipeline.KindBlend
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
