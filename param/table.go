// Package param 提供模型的参数存储：命名的稠密嵌入表。
//
// 表是显式持有、按引用传入训练/推理调用的可变状态，不做任何全局共享；
// 推理期严格只读，训练期的梯度更新由外部训练循环驱动，表自身不加锁。
package param

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Table 是一张 (rows, dim) 的嵌入表。
// 按惯例最后一行留给 OOV 实体（见 core.DataInfo 的哨兵约定），
// 由调用方以 rows = N+1 分配。
type Table struct {
	name string
	data *mat.Dense
	rows int
	dim  int
}

// NewTable 创建一张嵌入表，按 Glorot 均匀分布初始化，种子固定则结果确定。
func NewTable(name string, rows, dim int, seed int64) *Table {
	rng := rand.New(rand.NewSource(seed))
	limit := math.Sqrt(6.0 / float64(dim))
	data := make([]float64, rows*dim)
	for i := range data {
		data[i] = (rng.Float64()*2 - 1) * limit
	}
	return &Table{
		name: name,
		data: mat.NewDense(rows, dim, data),
		rows: rows,
		dim:  dim,
	}
}

// NewZeros 创建一张全零表，供图传播等派生表使用。
func NewZeros(name string, rows, dim int) *Table {
	return &Table{
		name: name,
		data: mat.NewDense(rows, dim, nil),
		rows: rows,
		dim:  dim,
	}
}

func (t *Table) Name() string { return t.name }
func (t *Table) Rows() int    { return t.rows }
func (t *Table) Dim() int     { return t.dim }

// Row 返回第 i 行的切片视图；调用方不应在推理路径上修改它。
func (t *Table) Row(i int) []float64 {
	return t.data.RawRowView(i)
}

// Batch 把 indices 对应的行收集为一个新的 (len(indices), dim) 批次矩阵。
// 返回的是拷贝：批次是单次前向的临时量，不与表共享底层存储。
func (t *Table) Batch(indices []int) *mat.Dense {
	out := mat.NewDense(len(indices), t.dim, nil)
	for i, idx := range indices {
		out.SetRow(i, t.data.RawRowView(idx))
	}
	return out
}

// SetRow 覆盖第 i 行，供加载预训练权重与派生表填充使用。
func (t *Table) SetRow(i int, vals []float64) {
	t.data.SetRow(i, vals)
}

// AddToRow 对第 i 行执行 row += scale * delta，供 SGD 更新使用。
func (t *Table) AddToRow(i int, scale float64, delta []float64) {
	floats.AddScaled(t.data.RawRowView(i), scale, delta)
}

// ScaleRow 对第 i 行乘以 scale，供 L2 正则的权重衰减使用。
func (t *Table) ScaleRow(i int, scale float64) {
	floats.Scale(scale, t.data.RawRowView(i))
}

// Dense 返回底层矩阵，供整表导出（如写入 VectorStore）使用。
func (t *Table) Dense() *mat.Dense { return t.data }
