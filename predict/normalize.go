// Package predict 提供预测归一化：把模型的原始分数映射为面向用户的最终分数。
//
// 职责边界：
//   - 未知实体（OOV）已由 core.DataInfo.CheckUnknown 在上游识别，
//     本包只负责用冷启动策略兜底，不做 ID 解析
//   - 不修改输入切片，总是返回新切片
package predict

import (
	"fmt"

	"github.com/rushteam/recforge/core"
)

// Model 是归一化所需的最小模型视图。
// 各模型变体实现该接口即可复用统一的后处理逻辑。
type Model interface {
	// Task 返回任务类型（rating / ranking）
	Task() core.Task

	// Bounds 返回 rating 任务的评分上下界（ranking 任务忽略）
	Bounds() (lower, upper float64)

	// DefaultPred 返回 average 冷启动的兜底分：模型的全局平均响应，
	// 给定训练后的模型状态是确定性的
	DefaultPred() float64

	// PopularPred 返回 popular 冷启动的兜底分：一个固定的高热度参考分。
	// 推荐链路中热门物品的具体采样由 recommend 包负责，直接预测退化为该参考分
	PopularPred() float64
}

// Normalize 对一批 (user, item) 查询的原始分数做后处理：
//   - 先校验冷启动策略，非法策略在产出任何分数前报错
//   - rating 任务截断到评分上下界，ranking 任务透传
//   - unknownNum > 0 时，unknownIndex 标记的位置全部用冷启动兜底分覆盖
//
// preds 不会被原地修改。
func Normalize(preds []float64, m Model, coldStart core.ColdStart, unknownNum int, unknownIndex []int) ([]float64, error) {
	if !coldStart.Valid() {
		return nil, core.NewDomainError(core.ModulePredict, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("unknown cold start strategy %q, must be average or popular", coldStart))
	}

	task := m.Task()
	if !task.Valid() {
		// 上游构造已校验任务类型，走到这里属于编程错误
		panic(fmt.Sprintf("predict: task %q outside closed set", task))
	}

	out := make([]float64, len(preds))
	copy(out, preds)

	if task == core.TaskRating {
		lower, upper := m.Bounds()
		for i, v := range out {
			if v < lower {
				out[i] = lower
			} else if v > upper {
				out[i] = upper
			}
		}
	}

	if unknownNum > 0 {
		fallback := m.DefaultPred()
		if coldStart == core.ColdStartPopular {
			fallback = m.PopularPred()
		}
		for _, idx := range unknownIndex {
			out[idx] = fallback
		}
	}
	return out, nil
}
