package filter

import (
	"context"

	"github.com/rushteam/newsrec/core"
	"github.com/rushteam/newsrec/pkg/dsl"
)

// RuleFilter 是规则过滤器，使用 CEL 表达式判断物品是否应该被过滤。
// 表达式求值为 true 时过滤该物品，例如：
//
//	item.score < 0.1
//	item.category == "sports" && label.recall_source == "cf"
//
// 表达式可以访问 item、label、rctx 三个变量，语义见 pkg/dsl。
type RuleFilter struct {
	// Expr 是 CEL 过滤表达式
	Expr string
}

// NewRuleFilter 创建一个规则过滤器。
func NewRuleFilter(expr string) *RuleFilter {
	return &RuleFilter{Expr: expr}
}

func (f *RuleFilter) Name() string {
	return "filter.rule"
}

func (f *RuleFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || f.Expr == "" {
		return false, nil
	}

	eval := dsl.NewEval(item, rctx)
	ok, err := eval.Evaluate(f.Expr)
	if err != nil {
		// 表达式错误时保留物品，交由上层决定是否观测
		return false, err
	}
	return ok, nil
}
