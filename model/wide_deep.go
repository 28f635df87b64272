package model

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rushteam/recforge/core"
	"github.com/rushteam/recforge/feature"
	"github.com/rushteam/recforge/loss"
	"github.com/rushteam/recforge/pkg/conv"
)

// WideDeep 是 Wide&Deep 特征模型。
//
// 核心思想：
//   - Wide 部分：线性模型，对交叉特征做记忆（memorization）
//   - Deep 部分：MLP，对原始特征做泛化（generalization）
//   - 输出 logit = wide + deep，联合打分
//
// 特征通过 feature.Provider 取数：内存 Map 或 Feast 在线特征。
// 交叉特征以 "a_x_b" 命名，取数后按两侧特征值相乘现算。
//
// 约束：
//   - 仅支持 cross_entropy / focal 损失
//   - 权重由 LoadWeights 从离线训练导出的 JSON 加载
type WideDeep struct {
	baseModel

	// WideFeatures 是 Wide 部分的特征名（通常是 "_x_" 交叉特征）
	WideFeatures []string

	// DeepFeatures 是 Deep 部分的原始特征名，顺序即输入向量顺序
	DeepFeatures []string

	// HiddenSizes 是 Deep 塔隐藏层结构，默认 [64, 32, 1]
	HiddenSizes []int

	// Seed 是 Deep 塔初始化种子
	Seed int64

	provider feature.Provider

	wideWeights map[string]float64
	wideBias    float64
	deep        *mlp

	// 特征缓存按内部索引记，Provider 的取数结果在会话内视为静态
	mu        sync.RWMutex
	userCache map[int]map[string]float64
	itemCache map[int]map[string]float64
}

// NewWideDeep 创建 Wide&Deep 模型；损失族限定 cross_entropy / focal。
func NewWideDeep(task core.Task, info *core.DataInfo, lossCfg loss.Config, provider feature.Provider,
	wideFeatures, deepFeatures []string, hiddenSizes []int, seed int64) (*WideDeep, error) {
	if !task.Valid() {
		if _, err := core.ParseTask(string(task)); err != nil {
			return nil, err
		}
	}
	if err := validateLoss("wide_deep", task, lossCfg, loss.TypeCrossEntropy, loss.TypeFocal); err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidConfig,
			"wide_deep requires a feature provider")
	}
	if len(deepFeatures) == 0 {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidConfig,
			"wide_deep requires at least one deep feature")
	}
	if len(hiddenSizes) == 0 {
		hiddenSizes = []int{64, 32, 1}
	}
	if hiddenSizes[len(hiddenSizes)-1] != 1 {
		hiddenSizes = append(append([]int(nil), hiddenSizes...), 1)
	}
	return &WideDeep{
		baseModel:    newBaseModel("wide_deep", task, info, lossCfg),
		WideFeatures: append([]string(nil), wideFeatures...),
		DeepFeatures: append([]string(nil), deepFeatures...),
		HiddenSizes:  append([]int(nil), hiddenSizes...),
		Seed:         seed,
		provider:     provider,
	}, nil
}

// Build 初始化 Wide 权重与 Deep 塔。线上应随后 LoadWeights。
func (m *WideDeep) Build() error {
	m.wideWeights = make(map[string]float64, len(m.WideFeatures))
	m.wideBias = 0
	m.deep = newMLP(append([]int{len(m.DeepFeatures)}, m.HiddenSizes...), m.Seed)
	m.userCache = make(map[int]map[string]float64)
	m.itemCache = make(map[int]map[string]float64)

	m.scoreFn = func(u, i int) (float64, error) {
		// OOV 索引没有可取数的原始 ID，返回 0 占位，随后由归一化覆盖
		if u == m.info.UnknownUser() || i == m.info.UnknownItem() {
			return 0, nil
		}
		return m.logit(u, i)
	}
	m.built = true
	return nil
}

func (m *WideDeep) logit(u, i int) (float64, error) {
	uf, err := m.cachedFeatures(u, true)
	if err != nil {
		return 0, err
	}
	itf, err := m.cachedFeatures(i, false)
	if err != nil {
		return 0, err
	}

	merged := make(map[string]float64, len(uf)+len(itf))
	for k, v := range uf {
		merged[k] = v
	}
	for k, v := range itf {
		merged[k] = v
	}

	// Wide 部分：交叉特征现算（两侧相乘），其余直接查表
	score := m.wideBias
	for _, name := range m.WideFeatures {
		v, ok := crossValue(merged, name)
		if !ok {
			continue
		}
		score += m.wideWeights[name] * v
	}

	// Deep 部分：按声明顺序组装输入向量，缺失特征取 0
	x := make([]float64, len(m.DeepFeatures))
	for j, name := range m.DeepFeatures {
		x[j] = merged[name]
	}
	out := m.deep.forward(x)
	if len(out) > 0 {
		score += out[0]
	}
	return score, nil
}

// crossValue 解析特征值："a_x_b" 取 a、b 两侧值的乘积，普通名直接查表。
func crossValue(features map[string]float64, name string) (float64, bool) {
	if left, right, ok := strings.Cut(name, "_x_"); ok {
		lv, lok := features[left]
		rv, rok := features[right]
		if !lok || !rok {
			return 0, false
		}
		return lv * rv, true
	}
	v, ok := features[name]
	return v, ok
}

func (m *WideDeep) cachedFeatures(inner int, isUser bool) (map[string]float64, error) {
	cache := m.itemCache
	if isUser {
		cache = m.userCache
	}
	m.mu.RLock()
	feats, ok := cache[inner]
	m.mu.RUnlock()
	if ok {
		return feats, nil
	}

	var err error
	if isUser {
		feats, err = m.provider.UserFeatures(m.info.RawUserID(inner))
	} else {
		feats, err = m.provider.ItemFeatures(m.info.RawItemID(inner))
	}
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	cache[inner] = feats
	m.mu.Unlock()
	return feats, nil
}

// wideDeepWeights 是离线导出的权重 JSON 格式。
type wideDeepWeights struct {
	WideBias    float64            `json:"wide_bias"`
	WideWeights map[string]float64 `json:"wide_weights"`

	Deep []struct {
		Weights [][]float64 `json:"weights"`
		Biases  []float64   `json:"biases"`
	} `json:"deep"`
}

// LoadWeights 从 JSON 文件加载离线训练好的参数，覆盖 Build 的初始化。
func (m *WideDeep) LoadWeights(path string) error {
	if err := m.ensureBuilt(); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var w wideDeepWeights
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("parse wide_deep weights: %w", err)
	}

	if w.WideWeights != nil {
		m.wideWeights = w.WideWeights
	}
	m.wideBias = w.WideBias

	if len(w.Deep) > 0 {
		if len(w.Deep) != len(m.deep.weights) {
			return core.NewDomainError(core.ModuleModel, core.ErrorCodeShapeMismatch,
				fmt.Sprintf("deep layer count mismatch, expected %d, got %d", len(m.deep.weights), len(w.Deep)))
		}
		for l, layer := range w.Deep {
			if len(layer.Weights) != len(m.deep.weights[l]) || len(layer.Biases) != len(m.deep.biases[l]) {
				return core.NewDomainError(core.ModuleModel, core.ErrorCodeShapeMismatch,
					fmt.Sprintf("deep layer %d shape mismatch", l))
			}
			for j, row := range layer.Weights {
				copy(m.deep.weights[l][j], row)
			}
			copy(m.deep.biases[l], layer.Biases)
		}
	}
	return m.finalizePreds()
}

func init() {
	Register("wide_deep", func(task core.Task, info *core.DataInfo, cfg map[string]any) (Model, error) {
		lossType, err := loss.ParseType(conv.ConfigGet(cfg, "loss_type", "cross_entropy"))
		if err != nil {
			return nil, err
		}
		lossCfg := loss.DefaultConfig(lossType)
		lossCfg.Alpha = conv.ConfigGetFloat64(cfg, "alpha", lossCfg.Alpha)
		lossCfg.Gamma = conv.ConfigGetFloat64(cfg, "gamma", lossCfg.Gamma)

		provider, _ := cfg["feature_provider"].(feature.Provider)
		wide, _ := cfg["wide_features"].([]string)
		deep, _ := cfg["deep_features"].([]string)
		return NewWideDeep(task, info, lossCfg, provider, wide, deep, nil,
			int64(conv.ConfigGetInt(cfg, "seed", 42)))
	})
}
