package model

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/rushteam/recforge/core"
	"github.com/rushteam/recforge/loss"
	"github.com/rushteam/recforge/param"
	"github.com/rushteam/recforge/pkg/conv"
)

// LightGCN 是图卷积推荐模型。
//
// 核心思想：
//   - 在用户-物品二部图上做线性嵌入传播（无特征变换、无非线性）
//   - 边权为对称归一化 1/sqrt(d_u * d_i)
//   - 最终表示 = 各层传播结果的平均（含第 0 层的底层嵌入）
//   - 打分仍是用户向量 · 物品向量，与 MF 共享全部脚手架
//
// 约束：
//   - 仅支持 ranking 任务；rating 在构造期直接拒绝
//
// 参考: He et al. "LightGCN: Simplifying and Powering Graph Convolution
// Network for Recommendation" (https://arxiv.org/pdf/2002.02126.pdf)
type LightGCN struct {
	baseModel

	// EmbedSize 是嵌入维度，默认 16
	EmbedSize int

	// NumLayers 是传播层数，默认 3；0 层时退化为 MF
	NumLayers int

	// Seed 是参数初始化种子
	Seed int64

	userBase *param.Table
	itemBase *param.Table
	userFwd  *param.Table
	itemFwd  *param.Table

	edges []gcnEdge
}

type gcnEdge struct {
	user   int
	item   int
	weight float64
}

// NewLightGCN 创建 LightGCN；rating 任务与非法损失族在构造期报错。
func NewLightGCN(task core.Task, info *core.DataInfo, lossCfg loss.Config, embedSize, numLayers int, seed int64) (*LightGCN, error) {
	if !task.Valid() {
		if _, err := core.ParseTask(string(task)); err != nil {
			return nil, err
		}
	}
	if task == core.TaskRating {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidConfig,
			"lightgcn only supports ranking task")
	}
	if err := validateLoss("lightgcn", task, lossCfg); err != nil {
		return nil, err
	}
	if embedSize <= 0 {
		embedSize = 16
	}
	if numLayers < 0 {
		numLayers = 3
	}
	return &LightGCN{
		baseModel: newBaseModel("lightgcn", task, info, lossCfg),
		EmbedSize: embedSize,
		NumLayers: numLayers,
		Seed:      seed,
	}, nil
}

// Build 分配底层嵌入表、构建归一化边表并完成首次传播。
func (m *LightGCN) Build() error {
	m.userBase = param.NewTable("user_embed", m.info.NUsers()+1, m.EmbedSize, m.Seed)
	m.itemBase = param.NewTable("item_embed", m.info.NItems()+1, m.EmbedSize, m.Seed+1)

	m.edges = m.edges[:0]
	for u := 0; u < m.info.NUsers(); u++ {
		consumed := m.info.UserConsumed[u]
		du := float64(len(consumed))
		if du == 0 {
			continue
		}
		for _, i := range consumed {
			di := float64(m.info.ItemPopularity[i])
			m.edges = append(m.edges, gcnEdge{
				user:   u,
				item:   i,
				weight: 1 / math.Sqrt(du*di),
			})
		}
	}

	if err := m.propagate(); err != nil {
		return err
	}
	m.scoreFn = func(u, i int) (float64, error) {
		return floats.Dot(m.userFwd.Row(u), m.itemFwd.Row(i)), nil
	}
	m.built = true
	return nil
}

// propagate 重建前向表：逐层沿边传播，再对各层取平均。
func (m *LightGCN) propagate() error {
	nU, nI, dim := m.info.NUsers(), m.info.NItems(), m.EmbedSize

	curU := make([][]float64, nU)
	accU := make([][]float64, nU)
	for u := 0; u < nU; u++ {
		curU[u] = append([]float64(nil), m.userBase.Row(u)...)
		accU[u] = append([]float64(nil), m.userBase.Row(u)...)
	}
	curI := make([][]float64, nI)
	accI := make([][]float64, nI)
	for i := 0; i < nI; i++ {
		curI[i] = append([]float64(nil), m.itemBase.Row(i)...)
		accI[i] = append([]float64(nil), m.itemBase.Row(i)...)
	}

	for layer := 0; layer < m.NumLayers; layer++ {
		nextU := make([][]float64, nU)
		for u := range nextU {
			nextU[u] = make([]float64, dim)
		}
		nextI := make([][]float64, nI)
		for i := range nextI {
			nextI[i] = make([]float64, dim)
		}
		for _, e := range m.edges {
			floats.AddScaled(nextU[e.user], e.weight, curI[e.item])
			floats.AddScaled(nextI[e.item], e.weight, curU[e.user])
		}
		for u := 0; u < nU; u++ {
			floats.Add(accU[u], nextU[u])
		}
		for i := 0; i < nI; i++ {
			floats.Add(accI[i], nextI[i])
		}
		curU, curI = nextU, nextI
	}

	scale := 1 / float64(m.NumLayers+1)
	m.userFwd = param.NewZeros("user_embed_final", nU+1, dim)
	for u := 0; u < nU; u++ {
		floats.Scale(scale, accU[u])
		m.userFwd.SetRow(u, accU[u])
	}
	// OOV 行不参与传播，直接沿用底层表的 OOV 行
	m.userFwd.SetRow(nU, m.userBase.Row(nU))

	m.itemFwd = param.NewZeros("item_embed_final", nI+1, dim)
	for i := 0; i < nI; i++ {
		floats.Scale(scale, accI[i])
		m.itemFwd.SetRow(i, accI[i])
	}
	m.itemFwd.SetRow(nI, m.itemBase.Row(nI))
	return nil
}

// BaseTables / ForwardTables / Refresh / Finalize 实现 Trainable。
// 梯度施加在底层表上，Refresh 在每个 epoch 后重新传播。
func (m *LightGCN) BaseTables() (*param.Table, *param.Table)    { return m.userBase, m.itemBase }
func (m *LightGCN) ForwardTables() (*param.Table, *param.Table) { return m.userFwd, m.itemFwd }
func (m *LightGCN) Refresh() error                              { return m.propagate() }
func (m *LightGCN) Finalize() error                             { return m.finalizePreds() }

func init() {
	Register("lightgcn", func(task core.Task, info *core.DataInfo, cfg map[string]any) (Model, error) {
		lossType, err := loss.ParseType(conv.ConfigGet(cfg, "loss_type", "bpr"))
		if err != nil {
			return nil, err
		}
		lossCfg := loss.DefaultConfig(lossType)
		lossCfg.Alpha = conv.ConfigGetFloat64(cfg, "alpha", lossCfg.Alpha)
		lossCfg.Gamma = conv.ConfigGetFloat64(cfg, "gamma", lossCfg.Gamma)
		lossCfg.Margin = conv.ConfigGetFloat64(cfg, "margin", lossCfg.Margin)
		return NewLightGCN(task, info,
			lossCfg,
			conv.ConfigGetInt(cfg, "embed_size", 16),
			conv.ConfigGetInt(cfg, "num_layers", 3),
			int64(conv.ConfigGetInt(cfg, "seed", 42)),
		)
	})
}
