package model

import (
	"gonum.org/v1/gonum/floats"

	"github.com/rushteam/recforge/core"
	"github.com/rushteam/recforge/loss"
	"github.com/rushteam/recforge/param"
	"github.com/rushteam/recforge/pkg/conv"
)

// MF 是矩阵分解模型（Matrix Factorization）。
//
// 核心思想：
//   - 用户、物品各一张嵌入表，预测分数 = 用户向量 · 物品向量
//   - rating 任务在内积上叠加全局均值，学习的是对均值的残差
//   - ranking 任务配合负采样与成对损失（BPR / max_margin / pairwise_*）训练
//
// 工程特征：
//   - 实时性：好（在线打分只有一次内积）
//   - 计算复杂度：低
//   - 冷启动：依赖 OOV 行 + 冷启动兜底策略
type MF struct {
	baseModel

	// EmbedSize 是嵌入维度，默认 16
	EmbedSize int

	// Seed 是参数初始化种子，固定则初始化确定
	Seed int64

	userTable *param.Table
	itemTable *param.Table
}

// NewMF 创建 MF 模型；任务与损失族在构造期校验（fail fast）。
// MF 支持全部六种损失族。
func NewMF(task core.Task, info *core.DataInfo, lossCfg loss.Config, embedSize int, seed int64) (*MF, error) {
	if !task.Valid() {
		if _, err := core.ParseTask(string(task)); err != nil {
			return nil, err
		}
	}
	if err := validateLoss("mf", task, lossCfg); err != nil {
		return nil, err
	}
	if embedSize <= 0 {
		embedSize = 16
	}
	return &MF{
		baseModel: newBaseModel("mf", task, info, lossCfg),
		EmbedSize: embedSize,
		Seed:      seed,
	}, nil
}

// Build 分配 (N+1, dim) 的嵌入表，最后一行是 OOV 行。
func (m *MF) Build() error {
	m.userTable = param.NewTable("user_embed", m.info.NUsers()+1, m.EmbedSize, m.Seed)
	m.itemTable = param.NewTable("item_embed", m.info.NItems()+1, m.EmbedSize, m.Seed+1)
	m.scoreFn = func(u, i int) (float64, error) {
		s := floats.Dot(m.userTable.Row(u), m.itemTable.Row(i))
		if m.task == core.TaskRating {
			s += m.info.GlobalMean
		}
		return s, nil
	}
	m.built = true
	return nil
}

// BaseTables / ForwardTables / Refresh / Finalize 实现 Trainable。
// MF 的前向表就是底层表，Refresh 无缓存可刷。
func (m *MF) BaseTables() (*param.Table, *param.Table)    { return m.userTable, m.itemTable }
func (m *MF) ForwardTables() (*param.Table, *param.Table) { return m.userTable, m.itemTable }
func (m *MF) Refresh() error                              { return nil }
func (m *MF) Finalize() error                             { return m.finalizePreds() }

func init() {
	Register("mf", func(task core.Task, info *core.DataInfo, cfg map[string]any) (Model, error) {
		lossType, err := loss.ParseType(conv.ConfigGet(cfg, "loss_type", "cross_entropy"))
		if err != nil {
			return nil, err
		}
		lossCfg := loss.DefaultConfig(lossType)
		lossCfg.Alpha = conv.ConfigGetFloat64(cfg, "alpha", lossCfg.Alpha)
		lossCfg.Gamma = conv.ConfigGetFloat64(cfg, "gamma", lossCfg.Gamma)
		lossCfg.Margin = conv.ConfigGetFloat64(cfg, "margin", lossCfg.Margin)
		return NewMF(task, info,
			lossCfg,
			conv.ConfigGetInt(cfg, "embed_size", 16),
			int64(conv.ConfigGetInt(cfg, "seed", 42)),
		)
	})
}
