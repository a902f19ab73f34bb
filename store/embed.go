package store

import (
	"hash/fnv"
	"math"
	"strings"
)

// embedDim 是内存实现的词袋哈希向量维度。
const embedDim = 64

// hashEmbed 把文本切词后按 FNV 哈希投影到固定维度并做 L2 归一化。
// 这不是语义向量，只用于开发与测试环境。
func hashEmbed(text string) []float64 {
	vec := make([]float64, embedDim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[h.Sum32()%embedDim]++
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}
