// Package model 提供推荐模型变体：矩阵分解（MF）、神经协同过滤（NCF）、
// Wide&Deep、图卷积（LightGCN），共享统一的预测与推荐脚手架。
//
// 所有变体通过显式的 Model 接口接入（Build / Predict / Recommend），
// 不做任何运行期方法注入；变体通过 Register 注册后可由配置驱动构建。
package model

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/recforge/core"
	"github.com/rushteam/recforge/recommend"
)

// Model 是所有模型变体的统一接口。
type Model interface {
	Name() string
	Task() core.Task

	// Build 分配参数表并准备前向所需的缓存；必须在 Predict/Recommend 之前调用
	Build() error

	// Predict 预测一批 (user, item) 外部 ID 的分数。
	// 未知实体由 DataInfo 识别，按 coldStart 策略兜底；rating 任务截断到评分界
	Predict(users, items []string, coldStart core.ColdStart) ([]float64, error)

	// Recommend 为单个用户生成 top-n 推荐
	Recommend(user string, n int, opts recommend.Options) ([]recommend.Result, error)
}

// Builder 根据 task / DataInfo / 配置构建 Model。
// 各变体在 init 中调用 Register(name, builder) 即可被配置驱动。
type Builder func(task core.Task, info *core.DataInfo, cfg map[string]any) (Model, error)

var (
	defaultBuilders   = make(map[string]Builder)
	defaultBuildersMu sync.RWMutex
)

// Register 注册一种模型的构建逻辑。
func Register(name string, builder Builder) {
	if name == "" || builder == nil {
		return
	}
	defaultBuildersMu.Lock()
	defer defaultBuildersMu.Unlock()
	defaultBuilders[name] = builder
}

// SupportedModels 返回当前已注册的模型名列表（排序），用于错误提示与校验。
func SupportedModels() []string {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	names := make([]string, 0, len(defaultBuilders))
	for n := range defaultBuilders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Build 按名字构建模型；未注册的名字返回包含已支持列表的错误。
func Build(name string, task core.Task, info *core.DataInfo, cfg map[string]any) (Model, error) {
	defaultBuildersMu.RLock()
	builder, ok := defaultBuilders[name]
	defaultBuildersMu.RUnlock()
	if !ok {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("unsupported model %q (supported: %v)", name, SupportedModels()))
	}
	return builder(task, info, cfg)
}
