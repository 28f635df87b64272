package loss

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/recforge/core"
)

// PairScores 是成对打分组装器（Pairwise Score Composer）：
// 给定锚点（通常是用户）、正样本、负样本三个嵌入批次，产出逐项对齐的正/负分数向量。
//
// 对齐规则：
//   - 等长快路径：三个批次行数相同时，第 i 个分数 = 第 i 行的内积，无需展开
//   - 展开路径：负样本行数是正样本行数的整数倍 m（每个正样本配 m 个负样本）时，
//     负样本按每个锚点行分成 m 组；repeatPositives 为 true 时，正分数逐项重复 m 次，
//     使两个输出向量逐项对齐（BPR / max_margin 需要）；为 false 时正分数不展开，
//     正负两池分别按 1/0 标签独立计损（pairwise_bce / pairwise_focal 使用）
//
// 错误都是致命的配置错误（采样器与模型不匹配），调用方必须修复而不是重试。
// 纯函数，不修改输入。
func PairScores(targets, itemsPos, itemsNeg *mat.Dense, repeatPositives bool) ([]float64, []float64, error) {
	tRows, tCols := targets.Dims()
	pRows, pCols := itemsPos.Dims()
	nRows, nCols := itemsNeg.Dims()

	if tCols != pCols || tCols != nCols {
		return nil, nil, core.NewDomainError(core.ModuleLoss, core.ErrorCodeShapeMismatch,
			fmt.Sprintf("embedding dims don't match, got %d, %d and %d", tCols, pCols, nCols))
	}

	// 等长快路径
	if tRows == pRows && tRows == nRows {
		pos := make([]float64, tRows)
		neg := make([]float64, tRows)
		for i := 0; i < tRows; i++ {
			row := targets.RawRowView(i)
			pos[i] = floats.Dot(row, itemsPos.RawRowView(i))
			neg[i] = floats.Dot(row, itemsNeg.RawRowView(i))
		}
		return pos, neg, nil
	}

	if tRows != pRows {
		return nil, nil, core.NewDomainError(core.ModuleLoss, core.ErrorCodeShapeMismatch,
			fmt.Sprintf("targets and positives length mismatch, got %d and %d", tRows, pRows))
	}
	if nRows%pRows != 0 {
		return nil, nil, core.NewDomainError(core.ModuleLoss, core.ErrorCodeShapeMismatch,
			fmt.Sprintf("negatives length is not a multiple of positives length, got %d and %d", nRows, pRows))
	}

	// 展开路径：每个锚点行对应 m 个连续负样本行
	factor := nRows / pRows

	base := make([]float64, pRows)
	for i := 0; i < pRows; i++ {
		base[i] = floats.Dot(targets.RawRowView(i), itemsPos.RawRowView(i))
	}

	pos := base
	if repeatPositives {
		pos = make([]float64, nRows)
		for i := 0; i < pRows; i++ {
			for k := 0; k < factor; k++ {
				pos[i*factor+k] = base[i]
			}
		}
	}

	neg := make([]float64, nRows)
	for i := 0; i < pRows; i++ {
		row := targets.RawRowView(i)
		for k := 0; k < factor; k++ {
			neg[i*factor+k] = floats.Dot(row, itemsNeg.RawRowView(i*factor+k))
		}
	}
	return pos, neg, nil
}
