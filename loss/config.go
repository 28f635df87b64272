package loss

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/recforge/core"
)

// Type 是损失族的封闭枚举。
type Type string

const (
	TypeCrossEntropy  Type = "cross_entropy"  // 逐点 sigmoid 交叉熵
	TypeFocal         Type = "focal"          // 逐点 focal loss
	TypeBPR           Type = "bpr"            // 成对 BPR
	TypeMaxMargin     Type = "max_margin"     // 成对 hinge
	TypePairwiseBCE   Type = "pairwise_bce"   // 成对独立标签 BCE
	TypePairwiseFocal Type = "pairwise_focal" // 成对独立标签 focal
)

// ParseType 解析损失类型；未知类型在构造期立刻报错。
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeCrossEntropy, TypeFocal, TypeBPR, TypeMaxMargin, TypePairwiseBCE, TypePairwiseFocal:
		return Type(s), nil
	default:
		return "", core.NewDomainError(core.ModuleLoss, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("unknown loss type %q, supported: cross_entropy, focal, bpr, "+
				"max_margin, pairwise_bce, pairwise_focal", s))
	}
}

// Config 是损失配置：封闭的 tagged variant，参数随 Type 一起携带，
// 而不是散落在各模型的实例字段上。
type Config struct {
	Type Type `yaml:"type"`

	// Alpha / Gamma 仅 focal 族使用
	Alpha float64 `yaml:"alpha"`
	Gamma float64 `yaml:"gamma"`

	// Margin 仅 max_margin 使用
	Margin float64 `yaml:"margin"`

	// Mean 为 true 按均值归约，false 按求和归约
	Mean bool `yaml:"mean"`
}

// DefaultConfig 返回某损失族的默认参数配置。
func DefaultConfig(t Type) Config {
	return Config{
		Type:   t,
		Alpha:  0.25,
		Gamma:  2.0,
		Margin: 1.0,
		Mean:   true,
	}
}

// Pairwise 判断该损失族是否需要成对（正/负）样本，即是否依赖负采样。
func (c Config) Pairwise() bool {
	switch c.Type {
	case TypeBPR, TypeMaxMargin, TypePairwiseBCE, TypePairwiseFocal:
		return true
	}
	return false
}

// Validate 在模型构造期做 fail-fast 校验：
//   - 损失类型必须在封闭集合内
//   - rating 任务只允许逐点损失（cross_entropy / focal），成对损失只对排序有意义
func (c Config) Validate(task core.Task) error {
	if _, err := ParseType(string(c.Type)); err != nil {
		return err
	}
	if task == core.TaskRating && c.Pairwise() {
		return core.NewDomainError(core.ModuleLoss, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("loss type %q requires ranking task, got rating", c.Type))
	}
	return nil
}

// PointLoss 对逐点损失族（cross_entropy / focal）做统一分发。
func (c Config) PointLoss(logits, labels []float64) (float64, error) {
	switch c.Type {
	case TypeCrossEntropy:
		return BCE(logits, labels)
	case TypeFocal:
		return Focal(logits, labels, c.Alpha, c.Gamma)
	default:
		return 0, core.NewDomainError(core.ModuleLoss, core.ErrorCodeNotSupported,
			fmt.Sprintf("loss type %q is not a pointwise loss", c.Type))
	}
}

// PairLoss 对成对损失族做统一分发，输入为三个嵌入批次。
func (c Config) PairLoss(targets, itemsPos, itemsNeg *mat.Dense) (float64, error) {
	switch c.Type {
	case TypeBPR:
		return BPR(targets, itemsPos, itemsNeg)
	case TypeMaxMargin:
		return MaxMargin(targets, itemsPos, itemsNeg, c.Margin, c.Mean)
	case TypePairwiseBCE:
		return PairwiseBCE(targets, itemsPos, itemsNeg, c.Mean)
	case TypePairwiseFocal:
		return PairwiseFocal(targets, itemsPos, itemsNeg, c.Alpha, c.Gamma, c.Mean)
	default:
		return 0, core.NewDomainError(core.ModuleLoss, core.ErrorCodeNotSupported,
			fmt.Sprintf("loss type %q is not a pairwise loss", c.Type))
	}
}
