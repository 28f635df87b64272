package model

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rushteam/recforge/core"
	"github.com/rushteam/recforge/loss"
	"github.com/rushteam/recforge/param"
	"github.com/rushteam/recforge/pkg/conv"
)

// NCF 是神经协同过滤模型（Neural Collaborative Filtering）。
//
// 核心思想：
//   - GMF 塔：用户/物品嵌入逐元素相乘，保留 MF 的记忆能力
//   - MLP 塔：另一组嵌入拼接后过全连接网络，学习非线性交互
//   - 输出层：对 [GMF 输出; MLP 输出] 做线性组合得到 logit
//
// 工程特征：
//   - 实时性：好（本地推理，单次前向）
//   - 可解释性：弱
//
// 约束：
//   - 仅支持 cross_entropy / focal 损失；成对损失在构造期拒绝
//   - 权重由 LoadWeights 从离线训练导出的 JSON 加载
//
// 参考: He et al. "Neural Collaborative Filtering"
// (https://arxiv.org/pdf/1708.05031.pdf)
type NCF struct {
	baseModel

	// EmbedSize 是两座塔各自的嵌入维度，默认 16
	EmbedSize int

	// HiddenSizes 是 MLP 塔的隐藏层结构，默认 [64, 32]
	HiddenSizes []int

	// Seed 是参数初始化种子
	Seed int64

	userGMF *param.Table
	itemGMF *param.Table
	userMLP *param.Table
	itemMLP *param.Table

	tower      *mlp
	outWeights []float64
	outBias    float64
}

// NewNCF 创建 NCF 模型；损失族限定 cross_entropy / focal。
func NewNCF(task core.Task, info *core.DataInfo, lossCfg loss.Config, embedSize int, hiddenSizes []int, seed int64) (*NCF, error) {
	if !task.Valid() {
		if _, err := core.ParseTask(string(task)); err != nil {
			return nil, err
		}
	}
	if err := validateLoss("ncf", task, lossCfg, loss.TypeCrossEntropy, loss.TypeFocal); err != nil {
		return nil, err
	}
	if embedSize <= 0 {
		embedSize = 16
	}
	if len(hiddenSizes) == 0 {
		hiddenSizes = []int{64, 32}
	}
	return &NCF{
		baseModel:   newBaseModel("ncf", task, info, lossCfg),
		EmbedSize:   embedSize,
		HiddenSizes: append([]int(nil), hiddenSizes...),
		Seed:        seed,
	}, nil
}

// Build 分配嵌入表与塔参数。未经 LoadWeights 时参数为随机初始化，
// 前向仍可用（例如离线评估脚手架），线上应先加载训练好的权重。
func (m *NCF) Build() error {
	nU, nI := m.info.NUsers()+1, m.info.NItems()+1
	m.userGMF = param.NewTable("user_gmf", nU, m.EmbedSize, m.Seed)
	m.itemGMF = param.NewTable("item_gmf", nI, m.EmbedSize, m.Seed+1)
	m.userMLP = param.NewTable("user_mlp", nU, m.EmbedSize, m.Seed+2)
	m.itemMLP = param.NewTable("item_mlp", nI, m.EmbedSize, m.Seed+3)

	sizes := append([]int{2 * m.EmbedSize}, m.HiddenSizes...)
	m.tower = newMLP(sizes, m.Seed+4)

	outDim := m.EmbedSize + m.HiddenSizes[len(m.HiddenSizes)-1]
	m.outWeights = make([]float64, outDim)
	for i := range m.outWeights {
		m.outWeights[i] = 1 / float64(outDim)
	}
	m.outBias = 0

	m.scoreFn = func(u, i int) (float64, error) {
		return m.logit(u, i), nil
	}
	m.built = true
	return nil
}

// logit 计算一对内部索引的输出层 logit。
func (m *NCF) logit(u, i int) float64 {
	ug, ig := m.userGMF.Row(u), m.itemGMF.Row(i)
	gmf := make([]float64, m.EmbedSize)
	for k := range gmf {
		gmf[k] = ug[k] * ig[k]
	}

	mlpIn := make([]float64, 0, 2*m.EmbedSize)
	mlpIn = append(mlpIn, m.userMLP.Row(u)...)
	mlpIn = append(mlpIn, m.itemMLP.Row(i)...)
	mlpOut := m.tower.forward(mlpIn)

	score := m.outBias
	for k, v := range gmf {
		score += m.outWeights[k] * v
	}
	for k, v := range mlpOut {
		score += m.outWeights[m.EmbedSize+k] * v
	}
	if m.task == core.TaskRating {
		score += m.info.GlobalMean
	}
	return score
}

// ncfWeights 是离线导出的权重 JSON 格式。
type ncfWeights struct {
	UserGMF [][]float64 `json:"user_gmf"`
	ItemGMF [][]float64 `json:"item_gmf"`
	UserMLP [][]float64 `json:"user_mlp"`
	ItemMLP [][]float64 `json:"item_mlp"`

	Tower []struct {
		Weights [][]float64 `json:"weights"`
		Biases  []float64   `json:"biases"`
	} `json:"tower"`

	OutWeights []float64 `json:"out_weights"`
	OutBias    float64   `json:"out_bias"`
}

// LoadWeights 从 JSON 文件加载离线训练好的全部参数，覆盖 Build 的初始化。
// 嵌入表行数必须为 N+1（含 OOV 行）。
func (m *NCF) LoadWeights(path string) error {
	if err := m.ensureBuilt(); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var w ncfWeights
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("parse ncf weights: %w", err)
	}

	if err := loadTable(m.userGMF, w.UserGMF, "user_gmf"); err != nil {
		return err
	}
	if err := loadTable(m.itemGMF, w.ItemGMF, "item_gmf"); err != nil {
		return err
	}
	if err := loadTable(m.userMLP, w.UserMLP, "user_mlp"); err != nil {
		return err
	}
	if err := loadTable(m.itemMLP, w.ItemMLP, "item_mlp"); err != nil {
		return err
	}

	if len(w.Tower) != len(m.tower.weights) {
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeShapeMismatch,
			fmt.Sprintf("tower layer count mismatch, expected %d, got %d", len(m.tower.weights), len(w.Tower)))
	}
	for l, layer := range w.Tower {
		if len(layer.Weights) != len(m.tower.weights[l]) || len(layer.Biases) != len(m.tower.biases[l]) {
			return core.NewDomainError(core.ModuleModel, core.ErrorCodeShapeMismatch,
				fmt.Sprintf("tower layer %d shape mismatch", l))
		}
		for j, row := range layer.Weights {
			copy(m.tower.weights[l][j], row)
		}
		copy(m.tower.biases[l], layer.Biases)
	}

	if len(w.OutWeights) != len(m.outWeights) {
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeShapeMismatch,
			fmt.Sprintf("out_weights length mismatch, expected %d, got %d", len(m.outWeights), len(w.OutWeights)))
	}
	copy(m.outWeights, w.OutWeights)
	m.outBias = w.OutBias
	return m.finalizePreds()
}

func loadTable(t *param.Table, rows [][]float64, name string) error {
	if len(rows) != t.Rows() {
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeShapeMismatch,
			fmt.Sprintf("%s row count mismatch, expected %d, got %d", name, t.Rows(), len(rows)))
	}
	for i, row := range rows {
		if len(row) != t.Dim() {
			return core.NewDomainError(core.ModuleModel, core.ErrorCodeShapeMismatch,
				fmt.Sprintf("%s row %d dim mismatch, expected %d, got %d", name, i, t.Dim(), len(row)))
		}
		t.SetRow(i, row)
	}
	return nil
}

func init() {
	Register("ncf", func(task core.Task, info *core.DataInfo, cfg map[string]any) (Model, error) {
		lossType, err := loss.ParseType(conv.ConfigGet(cfg, "loss_type", "cross_entropy"))
		if err != nil {
			return nil, err
		}
		lossCfg := loss.DefaultConfig(lossType)
		lossCfg.Alpha = conv.ConfigGetFloat64(cfg, "alpha", lossCfg.Alpha)
		lossCfg.Gamma = conv.ConfigGetFloat64(cfg, "gamma", lossCfg.Gamma)
		return NewNCF(task, info,
			lossCfg,
			conv.ConfigGetInt(cfg, "embed_size", 16),
			nil,
			int64(conv.ConfigGetInt(cfg, "seed", 42)),
		)
	})
}
