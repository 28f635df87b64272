// Package sampler 提供隐式反馈训练所需的负采样。
//
// 采样器的产出约定（与 loss.PairScores 的展开规则对齐）：
//   - Users / Positives 等长，长度 = 批大小
//   - Negatives 长度 = 批大小 * NumNeg，第 i 个正样本对应的负样本
//     位于 [i*NumNeg, (i+1)*NumNeg)
package sampler

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/rushteam/recforge/core"
)

// Strategy 是负采样策略的封闭枚举。
type Strategy string

const (
	StrategyRandom     Strategy = "random"     // 全物品均匀采样
	StrategyPopular    Strategy = "popular"    // 按热度比例采样（热门物品更可能成为负例）
	StrategyUnconsumed Strategy = "unconsumed" // 均匀采样但排除用户消费过的物品
)

// ParseStrategy 解析采样策略；非法值在构造期立刻报错。
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyRandom, StrategyPopular, StrategyUnconsumed:
		return Strategy(s), nil
	default:
		return "", core.NewDomainError(core.ModuleSampler, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("unknown sampler strategy %q, supported: random, popular, unconsumed", s))
	}
}

// Batch 是一个 (锚点, 正样本, 负样本) 索引批次。
type Batch struct {
	Users     []int
	Positives []int
	Negatives []int
}

// Sampler 对固定的 DataInfo 做负采样；持有独立的随机源，种子固定则结果可复现。
type Sampler struct {
	info     *core.DataInfo
	strategy Strategy
	numNeg   int
	rng      *rand.Rand

	// cumPop 是热度的累积分布，仅 popular 策略使用
	cumPop []float64
}

// New 创建采样器。numNeg 必须 >= 1：配了负采样却不采负样本是配置错误。
func New(info *core.DataInfo, strategy Strategy, numNeg int, seed int64) (*Sampler, error) {
	if _, err := ParseStrategy(string(strategy)); err != nil {
		return nil, err
	}
	if numNeg < 1 {
		return nil, core.NewDomainError(core.ModuleSampler, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("num_neg must be >= 1 when sampling, got %d", numNeg))
	}
	if info.NItems() == 0 {
		return nil, core.NewDomainError(core.ModuleSampler, core.ErrorCodeInvalidConfig,
			"cannot sample negatives from empty item set")
	}

	s := &Sampler{
		info:     info,
		strategy: strategy,
		numNeg:   numNeg,
		rng:      rand.New(rand.NewSource(seed)),
	}
	if strategy == StrategyPopular {
		s.cumPop = make([]float64, info.NItems())
		var acc float64
		for i := 0; i < info.NItems(); i++ {
			acc += float64(info.ItemPopularity[i])
			s.cumPop[i] = acc
		}
	}
	return s, nil
}

// NumNeg 返回每个正样本配的负样本个数（倍数因子 m）。
func (s *Sampler) NumNeg() int { return s.numNeg }

// Sample 为一批 (user, positive) 观测生成负样本。
func (s *Sampler) Sample(users, positives []int) (*Batch, error) {
	if len(users) != len(positives) {
		return nil, core.NewDomainError(core.ModuleSampler, core.ErrorCodeShapeMismatch,
			fmt.Sprintf("users and positives length mismatch, got %d and %d", len(users), len(positives)))
	}

	negatives := make([]int, 0, len(users)*s.numNeg)
	for i := range users {
		for k := 0; k < s.numNeg; k++ {
			negatives = append(negatives, s.sampleOne(users[i]))
		}
	}
	return &Batch{
		Users:     users,
		Positives: positives,
		Negatives: negatives,
	}, nil
}

func (s *Sampler) sampleOne(user int) int {
	switch s.strategy {
	case StrategyPopular:
		total := s.cumPop[len(s.cumPop)-1]
		r := s.rng.Float64() * total
		return sort.SearchFloat64s(s.cumPop, r)
	case StrategyUnconsumed:
		consumed := s.info.ConsumedSet(user)
		// 有界重试：消费集覆盖过大时退化为均匀采样，避免死循环
		for try := 0; try < 10; try++ {
			item := s.rng.Intn(s.info.NItems())
			if _, ok := consumed[item]; !ok {
				return item
			}
		}
		return s.rng.Intn(s.info.NItems())
	default:
		return s.rng.Intn(s.info.NItems())
	}
}
