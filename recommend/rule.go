package recommend

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("user", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Rule 是候选过滤规则，使用 CEL (Common Expression Language) 表达式描述。
// 表达式编译一次，之后对每个候选物品求值，返回 true 表示保留。
//
// 可用变量：
//   - item.id         物品外部 ID（string）
//   - item.score      模型分数（double）
//   - item.popularity 训练期交互次数（int）
//   - user.id         用户外部 ID（string）
//
// 示例：
//   - `item.score > 0.5`                       → 只保留高分候选
//   - `item.popularity > 10 || item.score > 2.0` → 长尾物品需要更高的分数
//   - `item.id != "blocked_item"`              → 黑名单
type Rule struct {
	expr string
	prg  cel.Program
}

// NewRule 编译一条过滤规则；表达式非法在构造期报错，不延迟到求值期。
func NewRule(expr string) (*Rule, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile rule %q: %w", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program rule %q: %w", expr, err)
	}
	return &Rule{expr: expr, prg: prg}, nil
}

// Keep 对单个候选求值；表达式必须返回布尔。
func (r *Rule) Keep(userID, itemID string, score float64, popularity int) (bool, error) {
	out, _, err := r.prg.Eval(map[string]any{
		"item": map[string]any{
			"id":         itemID,
			"score":      score,
			"popularity": popularity,
		},
		"user": map[string]any{
			"id": userID,
		},
	})
	if err != nil {
		return false, fmt.Errorf("eval rule %q: %w", r.expr, err)
	}
	keep, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rule %q must return boolean, got %T", r.expr, out.Value())
	}
	return keep, nil
}
