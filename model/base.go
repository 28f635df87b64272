package model

import (
	"fmt"

	"github.com/rushteam/recforge/core"
	"github.com/rushteam/recforge/loss"
	"github.com/rushteam/recforge/predict"
	"github.com/rushteam/recforge/recommend"
)

// baseModel 是各模型变体共享的预测/推荐脚手架。
//
// 变体只需在 Build 中装配 scoreFn（内部索引 -> 原始分数），
// ID 解析、OOV 识别、归一化、Top-K 选择全部走统一路径。
// baseModel 同时实现 predict.Model，归一化所需的模型视图不另外定义。
type baseModel struct {
	name    string
	task    core.Task
	info    *core.DataInfo
	lossCfg loss.Config

	// scoreFn 计算一对 (user, item) 内部索引的原始分数，由具体变体装配
	scoreFn func(u, i int) (float64, error)

	defaultPred float64
	popularPred float64
	built       bool
}

func newBaseModel(name string, task core.Task, info *core.DataInfo, lossCfg loss.Config) baseModel {
	return baseModel{
		name:    name,
		task:    task,
		info:    info,
		lossCfg: lossCfg,
		// 训练前的兜底分：全局标签均值，保证 Predict 随时可用且确定
		defaultPred: info.GlobalMean,
		popularPred: info.GlobalMean,
	}
}

func (b *baseModel) Name() string            { return b.name }
func (b *baseModel) Task() core.Task         { return b.task }
func (b *baseModel) Info() *core.DataInfo    { return b.info }
func (b *baseModel) LossConfig() loss.Config { return b.lossCfg }

// Bounds / DefaultPred / PopularPred 实现 predict.Model。
func (b *baseModel) Bounds() (float64, float64) { return b.info.MinLabel, b.info.MaxLabel }
func (b *baseModel) DefaultPred() float64       { return b.defaultPred }
func (b *baseModel) PopularPred() float64       { return b.popularPred }

func (b *baseModel) ensureBuilt() error {
	if !b.built || b.scoreFn == nil {
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeNotSupported,
			fmt.Sprintf("model %q is not built, call Build first", b.name))
	}
	return nil
}

// Predict 是统一的批量预测路径：ID 解析 → OOV 识别 → 前向 → 归一化。
func (b *baseModel) Predict(users, items []string, coldStart core.ColdStart) ([]float64, error) {
	if err := b.ensureBuilt(); err != nil {
		return nil, err
	}
	if len(users) != len(items) {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeShapeMismatch,
			fmt.Sprintf("users and items length mismatch, got %d and %d", len(users), len(items)))
	}

	innerUsers := make([]int, len(users))
	innerItems := make([]int, len(items))
	for i := range users {
		innerUsers[i] = b.info.InnerUserID(users[i])
		innerItems[i] = b.info.InnerItemID(items[i])
	}
	unknownNum, unknownIndex := b.info.CheckUnknown(innerUsers, innerItems)

	raw := make([]float64, len(users))
	for i := range innerUsers {
		// OOV 哨兵行有合法的初始化参数，前向产出有限分数；
		// 被标记的位置随后由 Normalize 统一用冷启动兜底分覆盖
		s, err := b.scoreFn(innerUsers[i], innerItems[i])
		if err != nil {
			return nil, err
		}
		raw[i] = s
	}
	return predict.Normalize(raw, b, coldStart, unknownNum, unknownIndex)
}

// rankAll 计算某用户对全量物品的原始分数。
func (b *baseModel) rankAll(user int) ([]float64, error) {
	scores := make([]float64, b.info.NItems())
	for item := 0; item < b.info.NItems(); item++ {
		s, err := b.scoreFn(user, item)
		if err != nil {
			return nil, err
		}
		scores[item] = s
	}
	return scores, nil
}

// Recommend 是统一的单用户推荐路径。
// 未知用户在 popular 策略下直接走热门兜底，不经过打分。
func (b *baseModel) Recommend(user string, n int, opts recommend.Options) ([]recommend.Result, error) {
	if err := b.ensureBuilt(); err != nil {
		return nil, err
	}
	coldStart := opts.ColdStart
	if coldStart == "" {
		coldStart = core.ColdStartAverage
	}
	if !coldStart.Valid() {
		return nil, core.NewDomainError(core.ModulePredict, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("unknown cold start strategy %q, must be average or popular", coldStart))
	}

	sel := &recommend.Selector{Info: b.info}
	inner := b.info.InnerUserID(user)
	if inner == b.info.UnknownUser() && coldStart == core.ColdStartPopular {
		results := sel.Popular(n)
		return results, nil
	}

	// average 策略下未知用户使用 OOV 行的嵌入打分，结果确定且全体物品可比
	raw, err := b.rankAll(inner)
	if err != nil {
		return nil, err
	}
	scores, err := predict.Normalize(raw, b, coldStart, 0, nil)
	if err != nil {
		return nil, err
	}
	return sel.TopK(inner, scores, n, opts)
}

// finalizePreds 在训练结束后计算冷启动兜底分，对固定模型状态是确定性的：
//   - defaultPred: rating 用全局标签均值；ranking 用确定性网格上分数的均值
//   - popularPred: 最热物品对采样用户的平均分
func (b *baseModel) finalizePreds() error {
	if b.task == core.TaskRating {
		b.defaultPred = b.info.GlobalMean
	} else {
		mean, err := b.gridMean()
		if err != nil {
			return err
		}
		b.defaultPred = mean
	}

	popular := b.info.PopularItems(1)
	if len(popular) == 0 {
		b.popularPred = b.defaultPred
		return nil
	}
	var sum float64
	count := 0
	for _, u := range sampleIndices(b.info.NUsers(), 256) {
		s, err := b.scoreFn(u, popular[0])
		if err != nil {
			return err
		}
		sum += s
		count++
	}
	if count > 0 {
		b.popularPred = sum / float64(count)
	}
	return nil
}

func (b *baseModel) gridMean() (float64, error) {
	users := sampleIndices(b.info.NUsers(), 128)
	items := sampleIndices(b.info.NItems(), 128)
	var sum float64
	count := 0
	for _, u := range users {
		for _, i := range items {
			s, err := b.scoreFn(u, i)
			if err != nil {
				return 0, err
			}
			sum += s
			count++
		}
	}
	if count == 0 {
		return 0, nil
	}
	return sum / float64(count), nil
}

// sampleIndices 以等间隔步长确定性地从 [0, n) 取至多 max 个索引。
func sampleIndices(n, max int) []int {
	if n <= 0 {
		return nil
	}
	step := 1
	if n > max {
		step = n / max
	}
	out := make([]int, 0, max)
	for i := 0; i < n; i += step {
		out = append(out, i)
	}
	return out
}

// validateLoss 做构造期的损失族校验：先按任务校验，再按模型变体的白名单校验。
func validateLoss(modelName string, task core.Task, cfg loss.Config, allowed ...loss.Type) error {
	if err := cfg.Validate(task); err != nil {
		return err
	}
	if len(allowed) == 0 {
		return nil
	}
	for _, t := range allowed {
		if cfg.Type == t {
			return nil
		}
	}
	return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidConfig,
		fmt.Sprintf("model %q does not support loss type %q (supported: %v)", modelName, cfg.Type, allowed))
}
