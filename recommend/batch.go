package recommend

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Recommender 是单用户推荐能力的最小抽象，由各模型变体实现。
type Recommender interface {
	Recommend(user string, n int, opts Options) ([]Result, error)
}

// Batch 并发地为多个用户生成推荐。
// 模型参数在推理期只读，单用户推荐天然可重入，直接并发即可。
// maxConcurrent <= 0 表示不限并发。
func Batch(ctx context.Context, r Recommender, users []string, n int, opts Options, maxConcurrent int) (map[string][]Result, error) {
	var (
		mu      sync.Mutex
		results = make(map[string][]Result, len(users))
	)
	eg, ctx := errgroup.WithContext(ctx)
	if maxConcurrent > 0 {
		eg.SetLimit(maxConcurrent)
	}

	for _, user := range users {
		u := user
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			recs, err := r.Recommend(u, n, opts)
			if err != nil {
				return err
			}
			mu.Lock()
			results[u] = recs
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
