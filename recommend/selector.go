// Package recommend 提供推荐结果选择器：Top-K 截取、已消费过滤、规则过滤与热门兜底。
//
// 选择器只消费"已经归一化的全量物品分数"，不做模型前向；
// 冷启动用户在 popular 策略下由 Popular 兜底，不经过打分链路。
package recommend

import (
	"sort"

	"github.com/rushteam/recforge/core"
	"github.com/rushteam/recforge/pkg/utils"
)

// Result 是一条推荐结果，Labels 标注来源供 explain 使用。
type Result struct {
	ItemID string
	Score  float64
	Labels map[string]utils.Label
}

// Options 是一次推荐调用的选项。
type Options struct {
	// ColdStart 是冷启动策略（average / popular）
	ColdStart core.ColdStart

	// FilterConsumed 为 true 时过滤用户已消费过的物品
	FilterConsumed bool

	// Rule 是可选的 CEL 过滤表达式，空串不过滤
	Rule string
}

// Selector 在全量物品分数上做候选选择。无内部状态，可并发复用。
type Selector struct {
	Info *core.DataInfo
}

// TopK 从 scores（下标 = 物品内部索引，长度 = NItems）中选出分数最高的 n 个物品。
// user 传内部索引，用于已消费过滤；传 UnknownUser() 则不过滤。
func (s *Selector) TopK(user int, scores []float64, n int, opts Options) ([]Result, error) {
	var rule *Rule
	if opts.Rule != "" {
		var err error
		rule, err = NewRule(opts.Rule)
		if err != nil {
			return nil, err
		}
	}

	var consumed map[int]struct{}
	if opts.FilterConsumed && user != s.Info.UnknownUser() {
		consumed = s.Info.ConsumedSet(user)
	}

	userID := s.Info.RawUserID(user)
	type candidate struct {
		item  int
		score float64
	}
	candidates := make([]candidate, 0, len(scores))
	for item, score := range scores {
		if _, ok := consumed[item]; ok {
			continue
		}
		if rule != nil {
			keep, err := rule.Keep(userID, s.Info.RawItemID(item), score, s.Info.ItemPopularity[item])
			if err != nil {
				return nil, err
			}
			if !keep {
				continue
			}
		}
		candidates = append(candidates, candidate{item: item, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if n > 0 && len(candidates) > n {
		candidates = candidates[:n]
	}

	out := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		source := utils.Label{Value: "model", Source: "rank"}
		if rule != nil {
			// 经过规则过滤的结果在标签里留痕，便于下游 explain
			source = utils.MergeLabel(source, utils.Label{Value: "rule", Source: "filter"})
		}
		out = append(out, Result{
			ItemID: s.Info.RawItemID(c.item),
			Score:  c.score,
			Labels: map[string]utils.Label{"rec_source": source},
		})
	}
	return out, nil
}

// Popular 返回热度最高的 n 个物品作为兜底推荐（冷启动用户 + popular 策略）。
// 分数为训练期交互次数，仅用于排序展示，与模型分数不可比。
func (s *Selector) Popular(n int) []Result {
	items := s.Info.PopularItems(n)
	out := make([]Result, 0, len(items))
	for _, item := range items {
		out = append(out, Result{
			ItemID: s.Info.RawItemID(item),
			Score:  float64(s.Info.ItemPopularity[item]),
			Labels: map[string]utils.Label{
				"rec_source": {Value: "popular", Source: "cold_start"},
			},
		})
	}
	return out
}
