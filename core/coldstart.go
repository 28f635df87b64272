package core

import "fmt"

// ColdStart 是冷启动策略：当查询的用户/物品未出现在训练数据中时如何兜底。
//
// 策略语义：
//   - average: 用模型的全局平均响应兜底（给定模型状态是确定性的）
//   - popular: 按"高热度物品"的基准分兜底；推荐场景下由调用方采样热门物品，
//     直接预测场景退化为一个固定的高频参考分
type ColdStart string

const (
	ColdStartAverage ColdStart = "average"
	ColdStartPopular ColdStart = "popular"
)

// ParseColdStart 解析冷启动策略；非法值立刻报错，绝不静默忽略。
func ParseColdStart(s string) (ColdStart, error) {
	switch ColdStart(s) {
	case ColdStartAverage, ColdStartPopular:
		return ColdStart(s), nil
	default:
		return "", NewDomainError(ModulePredict, ErrorCodeInvalidConfig,
			fmt.Sprintf("unknown cold start strategy %q, must be average or popular", s))
	}
}

// Valid 判断 ColdStart 是否在封闭集合内。
func (c ColdStart) Valid() bool {
	return c == ColdStartAverage || c == ColdStartPopular
}
