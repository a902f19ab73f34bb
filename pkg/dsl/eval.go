package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/newsrec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

func initCELEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
	return env, err
}

func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = initCELEnv()
	})
	return celEnv, err
}

// Eval 是规则 DSL 解释器，使用 CEL (Common Expression Language) 实现。
// 用于运营侧的候选过滤规则，例如屏蔽某个类别或来源。
//
// 表达式语法（CEL 标准语法）：
//   - 基础：item.category == "opinion" / label.recall_source == "coldstart"
//   - 数值：item.score > 0.7
//   - 逻辑：item.category == "politics" && item.score < 0.2
//   - 存在性：label.recall_source != null
//
// 示例：
//   - `item.category == "ads"` → 屏蔽广告类别
//   - `item.source == "coldstart" && item.score < 0.1` → 去掉低分兜底候选
type Eval struct {
	item *core.Item
	rctx *core.RecommendContext
	env  *cel.Env
}

// NewEval 创建一个新的 DSL 解释器。
func NewEval(item *core.Item, rctx *core.RecommendContext) *Eval {
	env, _ := getCELEnv()
	return &Eval{
		item: item,
		rctx: rctx,
		env:  env,
	}
}

// Evaluate 解析并执行 DSL 表达式，返回布尔结果。
// 空表达式视为 true。
func (e *Eval) Evaluate(expr string) (bool, error) {
	if expr == "" {
		return true, nil
	}
	if e.env == nil {
		return false, fmt.Errorf("cel env not initialized")
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("compile error: %v", issues.Err())
	}

	prg, err := e.env.Program(ast)
	if err != nil {
		return false, fmt.Errorf("program error: %v", err)
	}

	out, _, err := prg.Eval(e.buildInput())
	if err != nil {
		// 对于不存在的 key，CEL 会返回错误。
		// 用户应该使用 label.key != null 来检查存在性，而不是直接访问。
		return false, fmt.Errorf("eval error: %v", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据。
func (e *Eval) buildInput() map[string]any {
	labels := make(map[string]any)
	if e.item != nil {
		for k, v := range e.item.Labels {
			labels[k] = v.Value
		}
	}

	item := map[string]any{}
	if e.item != nil {
		item = map[string]any{
			"id":       e.item.ID,
			"score":    e.item.Score,
			"source":   string(e.item.Source),
			"category": e.item.Category,
			"meta":     e.item.Meta,
		}
	}

	rctx := map[string]any{}
	if e.rctx != nil {
		rctx = map[string]any{
			"user_id": e.rctx.UserID,
			"scene":   e.rctx.Scene,
			"params":  e.rctx.Params,
		}
	}

	return map[string]any{
		"item":  item,
		"label": labels,
		"rctx":  rctx,
	}
}
