package trainer

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/rushteam/recforge/core"
	"github.com/rushteam/recforge/loss"
	"github.com/rushteam/recforge/model"
	"github.com/rushteam/recforge/sampler"
)

// Trainer 以小批量 SGD 训练 model.Trainable。
//
// 约定：
//   - 前向分数从 ForwardTables 取，梯度施加在 BaseTables 上
//   - 每个 epoch 的参数更新后调用 Refresh 重建前向缓存
//     （LightGCN 的传播表在 epoch 内是近似固定的）
//   - 训练结束调用 Finalize 固化冷启动兜底分
//   - ranking 任务配采样器做隐式反馈；rating 任务按平方误差回归
type Trainer struct {
	cfg Config
	m   model.Trainable
	smp *sampler.Sampler
	rng *rand.Rand
}

// New 创建训练器。成对损失没配采样器是配置错误，在此 fail fast。
func New(m model.Trainable, cfg Config) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	lossCfg := m.LossConfig()
	if lossCfg.Pairwise() && cfg.Sampler == "" {
		return nil, core.NewDomainError(core.ModuleTrainer, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("loss type %q requires negative sampling, configure a sampler", lossCfg.Type))
	}
	if m.Task() == core.TaskRating && cfg.Sampler != "" {
		return nil, core.NewDomainError(core.ModuleTrainer, core.ErrorCodeInvalidConfig,
			"negative sampling is not used for rating task")
	}

	t := &Trainer{
		cfg: cfg,
		m:   m,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
	if cfg.Sampler != "" {
		strategy, err := sampler.ParseStrategy(cfg.Sampler)
		if err != nil {
			return nil, err
		}
		smp, err := sampler.New(m.Info(), strategy, cfg.NumNeg, cfg.Seed)
		if err != nil {
			return nil, err
		}
		t.smp = smp
	}
	if t.cfg.EvalWorkers <= 0 {
		t.cfg.EvalWorkers = 4
	}
	return t, nil
}

// Fit 在交互数据上训练，返回逐 epoch 的损失值。
// 交互中的原始 ID 必须都在模型的 DataInfo 里。
func (t *Trainer) Fit(ctx context.Context, data []core.Interaction) ([]float64, error) {
	info := t.m.Info()
	users := make([]int, len(data))
	items := make([]int, len(data))
	labels := make([]float64, len(data))
	for i, it := range data {
		u := info.InnerUserID(it.User)
		if u == info.UnknownUser() {
			return nil, core.NewDomainError(core.ModuleTrainer, core.ErrorCodeNotFound,
				fmt.Sprintf("unknown user %q in training data", it.User))
		}
		v := info.InnerItemID(it.Item)
		if v == info.UnknownItem() {
			return nil, core.NewDomainError(core.ModuleTrainer, core.ErrorCodeNotFound,
				fmt.Sprintf("unknown item %q in training data", it.Item))
		}
		users[i], items[i], labels[i] = u, v, it.Label
	}
	if len(users) == 0 {
		return nil, core.NewDomainError(core.ModuleTrainer, core.ErrorCodeInvalidConfig,
			"training data is empty")
	}

	losses := make([]float64, 0, t.cfg.Epochs)
	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return losses, err
		}
		perm := t.rng.Perm(len(users))
		for start := 0; start < len(perm); start += t.cfg.BatchSize {
			end := start + t.cfg.BatchSize
			if end > len(perm) {
				end = len(perm)
			}
			if err := t.trainBatch(perm[start:end], users, items, labels); err != nil {
				return losses, err
			}
		}
		if err := t.m.Refresh(); err != nil {
			return losses, err
		}

		epochLoss, err := t.evaluate(ctx, users, items, labels)
		if err != nil {
			return losses, err
		}
		losses = append(losses, epochLoss)
		if t.cfg.Verbose {
			log.Printf("[trainer] model=%s epoch=%d loss=%.6f", t.m.Name(), epoch, epochLoss)
		}
	}

	if err := t.m.Finalize(); err != nil {
		return losses, err
	}
	return losses, nil
}

// trainBatch 对一个打散后的批次做一次参数更新。
func (t *Trainer) trainBatch(batch []int, users, items []int, labels []float64) error {
	lossCfg := t.m.LossConfig()
	switch {
	case t.m.Task() == core.TaskRating:
		for _, idx := range batch {
			s := t.score(users[idx], items[idx]) + t.m.Info().GlobalMean
			t.applyPoint(users[idx], items[idx], s-labels[idx])
		}
	case lossCfg.Pairwise():
		bUsers := make([]int, 0, len(batch))
		bPos := make([]int, 0, len(batch))
		for _, idx := range batch {
			bUsers = append(bUsers, users[idx])
			bPos = append(bPos, items[idx])
		}
		sampled, err := t.smp.Sample(bUsers, bPos)
		if err != nil {
			return err
		}
		t.applyPairBatch(lossCfg, sampled)
	default:
		// 逐点 ranking：正样本标 1，采样到的负样本标 0
		for _, idx := range batch {
			u, pos := users[idx], items[idx]
			t.applyPoint(u, pos, pointGrad(lossCfg, t.score(u, pos), 1))
			if t.smp == nil {
				continue
			}
			sampled, err := t.smp.Sample([]int{u}, []int{pos})
			if err != nil {
				return err
			}
			for _, neg := range sampled.Negatives {
				t.applyPoint(u, neg, pointGrad(lossCfg, t.score(u, neg), 0))
			}
		}
	}
	return nil
}

// applyPairBatch 对一个采样批次施加成对梯度。
// 负样本布局与采样器约定一致：第 i 个正样本的负样本在 [i*m, (i+1)*m)。
func (t *Trainer) applyPairBatch(lossCfg loss.Config, b *sampler.Batch) {
	m := t.smp.NumNeg()
	for i, u := range b.Users {
		pos := b.Positives[i]
		for k := 0; k < m; k++ {
			neg := b.Negatives[i*m+k]
			switch lossCfg.Type {
			case loss.TypeBPR, loss.TypeMaxMargin:
				d := t.score(u, pos) - t.score(u, neg)
				var gd float64
				if lossCfg.Type == loss.TypeBPR {
					gd = -sigmoid(-d)
				} else if lossCfg.Margin-d > 0 {
					gd = -1
				}
				if gd != 0 {
					t.applyPair(u, pos, neg, gd)
				}
			default:
				// pairwise_bce / pairwise_focal：正负各按独立标签走逐点梯度
				t.applyPoint(u, pos, pointGrad(lossCfg, t.score(u, pos), 1))
				t.applyPoint(u, neg, pointGrad(lossCfg, t.score(u, neg), 0))
			}
		}
	}
}

// score 用前向表计算内积分数。
func (t *Trainer) score(u, i int) float64 {
	fu, fi := t.m.ForwardTables()
	return floats.Dot(fu.Row(u), fi.Row(i))
}

// applyPoint 施加逐点梯度 g = dL/ds，更新方向取前向向量，更新落在底层表。
func (t *Trainer) applyPoint(u, i int, g float64) {
	fu, fi := t.m.ForwardTables()
	bu, bi := t.m.BaseTables()
	lr := t.cfg.LearningRate

	uDir := append([]float64(nil), fu.Row(u)...)
	iDir := append([]float64(nil), fi.Row(i)...)

	bu.AddToRow(u, -lr*g, iDir)
	bi.AddToRow(i, -lr*g, uDir)
	if t.cfg.Reg > 0 {
		bu.ScaleRow(u, 1-lr*t.cfg.Reg)
		bi.ScaleRow(i, 1-lr*t.cfg.Reg)
	}
}

// applyPair 施加成对梯度 gd = dL/dd，d = s_pos - s_neg。
func (t *Trainer) applyPair(u, pos, neg int, gd float64) {
	fu, fi := t.m.ForwardTables()
	bu, bi := t.m.BaseTables()
	lr := t.cfg.LearningRate

	uDir := append([]float64(nil), fu.Row(u)...)
	diff := append([]float64(nil), fi.Row(pos)...)
	floats.Sub(diff, fi.Row(neg))

	bu.AddToRow(u, -lr*gd, diff)
	bi.AddToRow(pos, -lr*gd, uDir)
	bi.AddToRow(neg, lr*gd, uDir)
	if t.cfg.Reg > 0 {
		bu.ScaleRow(u, 1-lr*t.cfg.Reg)
		bi.ScaleRow(pos, 1-lr*t.cfg.Reg)
		bi.ScaleRow(neg, 1-lr*t.cfg.Reg)
	}
}

// evaluate 在全量训练数据上计算当前 epoch 的损失。
// 打分按 EvalWorkers 并发分块，损失归约单线程完成。
func (t *Trainer) evaluate(ctx context.Context, users, items []int, labels []float64) (float64, error) {
	scores := make([]float64, len(users))
	g, _ := errgroup.WithContext(ctx)
	chunk := (len(users) + t.cfg.EvalWorkers - 1) / t.cfg.EvalWorkers
	for start := 0; start < len(users); start += chunk {
		start := start
		end := start + chunk
		if end > len(users) {
			end = len(users)
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				scores[i] = t.score(users[i], items[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	lossCfg := t.m.LossConfig()
	switch {
	case t.m.Task() == core.TaskRating:
		mean := t.m.Info().GlobalMean
		var sum float64
		for i, s := range scores {
			d := s + mean - labels[i]
			sum += d * d
		}
		return sum / float64(len(scores)), nil
	case lossCfg.Pairwise():
		return t.evaluatePairwise(users, items, lossCfg)
	default:
		ones := make([]float64, len(scores))
		for i := range ones {
			ones[i] = 1
		}
		return lossCfg.PointLoss(scores, ones)
	}
}

// evaluatePairwise 采一批负样本，用嵌入批次走成对损失。
// 评估批上限 1024 对，对大数据集做均匀抽样。
func (t *Trainer) evaluatePairwise(users, items []int, lossCfg loss.Config) (float64, error) {
	const maxEval = 1024
	step := 1
	if len(users) > maxEval {
		step = len(users) / maxEval
	}
	evalUsers := make([]int, 0, maxEval)
	evalPos := make([]int, 0, maxEval)
	for i := 0; i < len(users); i += step {
		evalUsers = append(evalUsers, users[i])
		evalPos = append(evalPos, items[i])
	}
	sampled, err := t.smp.Sample(evalUsers, evalPos)
	if err != nil {
		return 0, err
	}

	fu, fi := t.m.ForwardTables()
	targets := fu.Batch(sampled.Users)
	itemsPos := fi.Batch(sampled.Positives)
	itemsNeg := fi.Batch(sampled.Negatives)
	return lossCfg.PairLoss(targets, itemsPos, itemsNeg)
}

// pointGrad 计算逐点损失对 logit 的导数。
func pointGrad(c loss.Config, logit, label float64) float64 {
	switch c.Type {
	case loss.TypeFocal, loss.TypePairwiseFocal:
		return focalGrad(logit, label, c.Alpha, c.Gamma)
	default:
		return sigmoid(logit) - label
	}
}

// focalGrad 是 focal loss 的解析梯度。
// L = -alpha_t (1-p_t)^gamma log(p_t)，p_t 为命中真实标签的概率。
func focalGrad(logit, label, alpha, gamma float64) float64 {
	p := sigmoid(logit)
	pt := p
	at := alpha
	sign := 1.0
	if label < 0.5 {
		pt = 1 - p
		at = 1 - alpha
		sign = -1
	}
	if pt < 1e-12 {
		pt = 1e-12
	}
	oneMinus := 1 - pt
	// dL/dpt = alpha_t [ gamma (1-pt)^{gamma-1} log(pt) - (1-pt)^gamma / pt ]
	dldpt := at * (gamma*math.Pow(oneMinus, gamma-1)*math.Log(pt) - math.Pow(oneMinus, gamma)/pt)
	// dpt/ds = ±p(1-p)
	return dldpt * sign * p * (1 - p)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
