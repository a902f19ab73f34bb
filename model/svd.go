package model

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/newsrec/core"
	"github.com/rushteam/newsrec/matrix"
)

// SVDModel 是基于截断奇异值分解的隐因子模型。
//
// 核心思想：将用户-文章交互矩阵分解为用户隐向量和文章隐向量，
// 预测分数 = U · diag(Σ) · Vᵀ + 行均值。
//
// 工程特征：
//   - 离线拟合（快照刷新时），在线只做向量乘法
//   - 拟合产物与矩阵快照一起版本化，绝不原地修改
//   - 任何拟合失败（矩阵过小、不收敛）都表达为 DATA_UNAVAILABLE，
//     由引擎降级到内容召回 / 冷启动，绝不向终端用户抛异常
type SVDModel struct {
	// MaxFactors 隐因子数上限，实际 k = min(MaxFactors, min(rows, cols) - 1)。
	// <= 0 时取默认值 20。
	MaxFactors int
}

// LatentFactors 是一次拟合的只读产物。
type LatentFactors struct {
	U        [][]float64 // users × k
	Sigma    []float64   // k，降序
	Vt       [][]float64 // k × items
	RowMeans []float64   // 每个用户的行均值（去中心化时减去，预测时加回）
	K        int
}

// Fit 对矩阵做行均值中心化后执行截断 SVD。
//
// 不变量：k 永远不超过 min(rows, cols) − 1；min(rows, cols) < 2 时拟合不可用。
func (m *SVDModel) Fit(im *matrix.Matrix) (f *LatentFactors, err error) {
	// SVD 库在极端输入下可能 panic，统一收敛为 DATA_UNAVAILABLE
	defer func() {
		if r := recover(); r != nil {
			f = nil
			err = core.NewDomainError(core.ModuleModel, core.ErrorCodeDataUnavailable, "model: svd panicked")
		}
	}()

	rows, cols := im.Rows(), im.Cols()
	if rows < 2 || cols < 2 {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeDataUnavailable, "model: matrix too small for svd")
	}

	maxK := m.MaxFactors
	if maxK <= 0 {
		maxK = 20
	}
	minDim := rows
	if cols < minDim {
		minDim = cols
	}
	k := maxK
	if k > minDim-1 {
		k = minDim - 1
	}

	// 行均值中心化
	rowMeans := make([]float64, rows)
	centered := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		row := im.Row(i)
		var sum float64
		for _, v := range row {
			sum += v
		}
		mean := sum / float64(cols)
		rowMeans[i] = mean
		for j, v := range row {
			centered.Set(i, j, v-mean)
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(centered, mat.SVDThin); !ok {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeDataUnavailable, "model: svd did not converge")
	}

	values := svd.Values(nil)
	var uDense, vDense mat.Dense
	svd.UTo(&uDense)
	svd.VTo(&vDense)

	// 按奇异值降序显式排序后再截断——不同 SVD 实现不保证顺序，这里不做假设
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return values[order[a]] > values[order[b]]
	})
	if k > len(order) {
		k = len(order)
	}

	u := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		u[i] = make([]float64, k)
		for f := 0; f < k; f++ {
			u[i][f] = uDense.At(i, order[f])
		}
	}
	sigma := make([]float64, k)
	vt := make([][]float64, k)
	for f := 0; f < k; f++ {
		sigma[f] = values[order[f]]
		vt[f] = make([]float64, cols)
		for j := 0; j < cols; j++ {
			// V 的列即 Vᵀ 的行
			vt[f][j] = vDense.At(j, order[f])
		}
	}

	return &LatentFactors{
		U:        u,
		Sigma:    sigma,
		Vt:       vt,
		RowMeans: rowMeans,
		K:        k,
	}, nil
}

// Predict 返回某个用户行对每篇文章的预测分数。
// pred = U · diag(Σ) · Vᵀ + 行均值；负值截断为 0（分数约定非负）。
func (f *LatentFactors) Predict(userRow int) []float64 {
	if f == nil || userRow < 0 || userRow >= len(f.U) {
		return nil
	}
	cols := 0
	if len(f.Vt) > 0 {
		cols = len(f.Vt[0])
	}
	pred := make([]float64, cols)
	for j := 0; j < cols; j++ {
		var sum float64
		for t := 0; t < f.K; t++ {
			sum += f.U[userRow][t] * f.Sigma[t] * f.Vt[t][j]
		}
		sum += f.RowMeans[userRow]
		if sum < 0 {
			sum = 0
		}
		pred[j] = sum
	}
	return pred
}
