package core

import "fmt"

// Task 是模型的任务类型：评分预测（rating）或隐式反馈排序（ranking）。
// 任务类型决定了损失族的合法集合以及预测结果的后处理方式（截断 vs 透传）。
type Task string

const (
	TaskRating  Task = "rating"  // 显式评分：预测值会被截断到评分上下界
	TaskRanking Task = "ranking" // 隐式排序：预测值为相对分数，原样透传
)

// ParseTask 解析任务类型；非法值在构造期立刻报错，不延迟到训练期。
func ParseTask(s string) (Task, error) {
	switch Task(s) {
	case TaskRating, TaskRanking:
		return Task(s), nil
	default:
		return "", NewDomainError(ModuleModel, ErrorCodeInvalidConfig,
			fmt.Sprintf("unknown task %q, must be rating or ranking", s))
	}
}

// Valid 判断 Task 是否在封闭集合内。
// 上游构造已经校验过，运行期出现非法值属于编程错误而非用户错误。
func (t Task) Valid() bool {
	return t == TaskRating || t == TaskRanking
}
