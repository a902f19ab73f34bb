package recall

import (
	"context"
	"sort"
	"time"

	"github.com/rushteam/newsrec/core"
	"github.com/rushteam/newsrec/matrix"
	"github.com/rushteam/newsrec/model"
	"github.com/rushteam/newsrec/pkg/utils"
)

// Collaborative 是基于矩阵分解的协同过滤召回源。
//
// 核心思想："行为相似的用户，会对相似的文章产生兴趣"。
// 离线（快照刷新时）对交互矩阵做截断 SVD，在线只查当前快照做向量乘法。
//
// 快照语义：Matrix 与 Factors 必须来自同一次构建；引擎在刷新时
// 整体替换 Collaborative 实例，而不是替换其中一个字段。
type Collaborative struct {
	Matrix  *matrix.Matrix
	Factors *model.LatentFactors

	// Recency 文章发布时间查询，用于同分时的确定性决胜（新文章优先）。
	// 缺失的文章按零值时间处理。
	Recency map[string]time.Time

	// TopK 返回 TopK 个候选，<= 0 时取 50。
	TopK int
}

func (r *Collaborative) Name() string { return "recall.cf" }

// Recall 为矩阵内的用户产出候选：
//   - 排除原始矩阵中已有非零交互的文章（已读不复推）
//   - 按预测分数降序排列，同分按发布时间降序、再按 ID 升序决胜
//
// 用户不在矩阵中（交互不足或窗口外）时返回空结果，由引擎转入冷启动。
func (r *Collaborative) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Matrix == nil || r.Factors == nil || rctx == nil || rctx.UserID == "" {
		return nil, nil
	}

	row, ok := r.Matrix.UserRow(rctx.UserID)
	if !ok {
		return nil, core.ErrUserNotFound
	}

	pred := r.Factors.Predict(row)
	if pred == nil {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeDataUnavailable, "model: no factors for user row")
	}

	original := r.Matrix.Row(row)
	type scored struct {
		col   int
		score float64
	}
	candidates := make([]scored, 0, len(pred))
	for col, score := range pred {
		// 非零原始条目 = 窗口内已交互，排除
		if original[col] > 0 {
			continue
		}
		candidates = append(candidates, scored{col: col, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			return a.score > b.score
		}
		ta := r.publishedAt(r.Matrix.ItemAt(a.col))
		tb := r.publishedAt(r.Matrix.ItemAt(b.col))
		if !ta.Equal(tb) {
			return ta.After(tb)
		}
		return r.Matrix.ItemAt(a.col) < r.Matrix.ItemAt(b.col)
	})

	topK := r.TopK
	if topK <= 0 {
		topK = 50
	}
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	out := make([]*core.Item, 0, len(candidates))
	for _, c := range candidates {
		itemID := r.Matrix.ItemAt(c.col)
		it := core.NewItem(itemID)
		it.Score = c.score
		it.Source = core.SourceCollaborative
		it.PublishedAt = r.publishedAt(itemID)
		it.PutLabel("recall_source", utils.Label{Value: "cf", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

func (r *Collaborative) publishedAt(itemID string) time.Time {
	if r.Recency == nil {
		return time.Time{}
	}
	return r.Recency[itemID]
}
