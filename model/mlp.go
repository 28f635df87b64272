package model

import (
	"math"
	"math/rand"
)

// mlp 是小型全连接网络，NCF / Wide&Deep 的 Deep 塔共用。
//
// 结构：
//   - 隐藏层 ReLU 激活，输出层线性（logit 由调用方决定是否过 sigmoid）
//   - 权重 Xavier 均匀初始化，固定种子则初始化确定
type mlp struct {
	// sizes 是各层神经元数，sizes[0] 为输入维度
	sizes []int

	// weights[l][j][k] 是第 l 层第 j 个神经元对上一层第 k 个输入的权重
	weights [][][]float64

	// biases[l][j] 是第 l 层第 j 个神经元的偏置
	biases [][]float64
}

// newMLP 创建并初始化网络；sizes 至少要有输入层和一个输出层。
func newMLP(sizes []int, seed int64) *mlp {
	rng := rand.New(rand.NewSource(seed))
	m := &mlp{
		sizes:   append([]int(nil), sizes...),
		weights: make([][][]float64, len(sizes)-1),
		biases:  make([][]float64, len(sizes)-1),
	}
	for l := 1; l < len(sizes); l++ {
		in, out := sizes[l-1], sizes[l]
		limit := math.Sqrt(6.0 / float64(in+out))
		m.weights[l-1] = make([][]float64, out)
		m.biases[l-1] = make([]float64, out)
		for j := 0; j < out; j++ {
			row := make([]float64, in)
			for k := range row {
				row[k] = (rng.Float64()*2 - 1) * limit
			}
			m.weights[l-1][j] = row
		}
	}
	return m
}

// forward 做一次前向传播，返回输出层向量。
func (m *mlp) forward(x []float64) []float64 {
	cur := append([]float64(nil), x...)
	for l := 0; l < len(m.weights); l++ {
		next := make([]float64, len(m.weights[l]))
		last := l == len(m.weights)-1
		for j, row := range m.weights[l] {
			sum := m.biases[l][j]
			for k := 0; k < len(row) && k < len(cur); k++ {
				sum += row[k] * cur[k]
			}
			if last {
				next[j] = sum
			} else {
				next[j] = relu(sum)
			}
		}
		cur = next
	}
	return cur
}

func relu(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}
