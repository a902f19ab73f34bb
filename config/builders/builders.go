// Package builders 提供内置 Node 的配置构建器。
// import 此包（通常以 _ 方式）即可完成 init 注册。
package builders

import (
	"github.com/rushteam/newsrec/config"
	"github.com/rushteam/newsrec/filter"
	"github.com/rushteam/newsrec/pipeline"
	"github.com/rushteam/newsrec/pkg/conv"
	"github.com/rushteam/newsrec/rerank"
)

func init() {
	config.Register("filter", BuildFilterNode)
	config.Register("blend.hybrid", BuildBlendNode)
	config.Register("rerank.diversity", BuildDiversityNode)
	config.Register("rerank.topn", BuildTopNNode)
}

// BuildFilterNode 构建过滤 Node。配置：
//
//	rules: CEL 过滤表达式列表
//
// 已读过滤依赖运行时快照，不从配置构建，由引擎注入。
func BuildFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	rules := conv.SliceAnyToString(cfg["rules"])
	filters := make([]filter.Filter, 0, len(rules))
	for _, rule := range rules {
		if rule == "" {
			continue
		}
		filters = append(filters, filter.NewRuleFilter(rule))
	}
	return &filter.FilterNode{Filters: filters}, nil
}

// BuildBlendNode 构建混合 Node。配置：
//
//	limit: 目标条数
//	collaborative_ratio / content_ratio: 温启动配比
//	cold: 是否冷启动模式
func BuildBlendNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.Blend{
		Limit:              conv.ConfigGet(cfg, "limit", 0),
		CollaborativeRatio: conv.ConfigGet(cfg, "collaborative_ratio", 0.0),
		ContentRatio:       conv.ConfigGet(cfg, "content_ratio", 0.0),
		Cold:               conv.ConfigGet(cfg, "cold", false),
	}, nil
}

// BuildDiversityNode 构建多样性重排 Node。配置：
//
//	limit: 目标条数
//	level: 多样性水平 (0.0 ~ 1.0)
//	demote_factor: 超限候选降权系数
func BuildDiversityNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.Diversity{
		Limit:        conv.ConfigGet(cfg, "limit", 0),
		Level:        conv.ConfigGet(cfg, "level", 0.0),
		DemoteFactor: conv.ConfigGet(cfg, "demote_factor", 0.0),
	}, nil
}

// BuildTopNNode 构建截断 Node。配置：
//
//	n: 保留条数
func BuildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.TopN{
		N: conv.ConfigGet(cfg, "n", 0),
	}, nil
}
