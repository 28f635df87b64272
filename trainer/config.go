// Package trainer 提供嵌入内积模型（MF / LightGCN）的小批量 SGD 训练。
package trainer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/recforge/core"
)

// Config 是训练配置（支持 YAML 加载）。
type Config struct {
	Epochs       int     `yaml:"epochs"`
	LearningRate float64 `yaml:"learning_rate"`
	Reg          float64 `yaml:"reg"`
	BatchSize    int     `yaml:"batch_size"`

	// Sampler 是负采样策略（random / popular / unconsumed），空串表示不采样。
	// 成对损失必须配采样器。
	Sampler string `yaml:"sampler"`
	NumNeg  int    `yaml:"num_neg"`

	// Seed 控制打散与采样的随机源
	Seed int64 `yaml:"seed"`

	// Verbose 为 true 时逐 epoch 打印损失
	Verbose bool `yaml:"verbose"`

	// EvalWorkers 是 epoch 损失评估的并发度，默认 4
	EvalWorkers int `yaml:"eval_workers"`
}

// DefaultConfig 返回一份可直接训练的默认配置。
func DefaultConfig() Config {
	return Config{
		Epochs:       10,
		LearningRate: 0.01,
		Reg:          1e-5,
		BatchSize:    256,
		Sampler:      "random",
		NumNeg:       1,
		Seed:         42,
		Verbose:      true,
		EvalWorkers:  4,
	}
}

// LoadFromYAML 从 YAML 文件加载训练配置，未出现的字段取默认值。
func LoadFromYAML(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	return cfg, nil
}

// Validate 做 fail-fast 校验。
func (c Config) Validate() error {
	if c.Epochs <= 0 {
		return core.NewDomainError(core.ModuleTrainer, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("epochs must be positive, got %d", c.Epochs))
	}
	if c.LearningRate <= 0 {
		return core.NewDomainError(core.ModuleTrainer, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("learning_rate must be positive, got %v", c.LearningRate))
	}
	if c.BatchSize <= 0 {
		return core.NewDomainError(core.ModuleTrainer, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("batch_size must be positive, got %d", c.BatchSize))
	}
	if c.Reg < 0 {
		return core.NewDomainError(core.ModuleTrainer, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("reg must be non-negative, got %v", c.Reg))
	}
	return nil
}
