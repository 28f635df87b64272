package loss

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/recforge/core"
)

// 本文件实现排序损失库（Ranking Loss Library）。
//
// 数值语义：
//   - 所有基于 logit 的损失都作用在未压缩的实数分数上（pre-sigmoid），
//     调用方不得预先做 sigmoid
//   - 损失函数不截断输入；数值稳定性由 bceWithLogits / logSigmoid 的
//     log1p+exp 形式保证，而不是朴素的 log(sigmoid(x))

// logSigmoid 计算 log(sigmoid(x))，分段展开保证大负数不下溢成 -Inf(log 0)。
func logSigmoid(x float64) float64 {
	if x >= 0 {
		return -math.Log1p(math.Exp(-x))
	}
	return x - math.Log1p(math.Exp(x))
}

// sigmoid 计算 1/(1+exp(-x))。
func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// bceWithLogits 是单点的 sigmoid 交叉熵：max(x,0) - x*y + log(1+exp(-|x|))。
func bceWithLogits(logit, label float64) float64 {
	return math.Max(logit, 0) - logit*label + math.Log1p(math.Exp(-math.Abs(logit)))
}

func checkSameLen(logits, labels []float64) error {
	if len(logits) != len(labels) {
		return core.NewDomainError(core.ModuleLoss, core.ErrorCodeShapeMismatch,
			fmt.Sprintf("logits and labels length mismatch, got %d and %d", len(logits), len(labels)))
	}
	return nil
}

// BCEVec 返回逐样本的 sigmoid 交叉熵（不归约）。
func BCEVec(logits, labels []float64) ([]float64, error) {
	if err := checkSameLen(logits, labels); err != nil {
		return nil, err
	}
	out := make([]float64, len(logits))
	for i := range logits {
		out[i] = bceWithLogits(logits[i], labels[i])
	}
	return out, nil
}

// BCE 返回批均值的 sigmoid 交叉熵。
func BCE(logits, labels []float64) (float64, error) {
	vec, err := BCEVec(logits, labels)
	if err != nil {
		return 0, err
	}
	return floats.Sum(vec) / float64(len(vec)), nil
}

// FocalVec 返回逐样本的 focal loss（不归约）。
//
// 公式（Lin et al., 2018, https://arxiv.org/pdf/1708.02002.pdf）：
//
//	weighting_factor  = y*alpha + (1-y)*(1-alpha)
//	p_t               = y*sigmoid(x) + (1-y)*(1-sigmoid(x))
//	modulating_factor = (1-p_t)^gamma
//	focal             = weighting_factor * modulating_factor * bce(x, y)
//
// gamma=0 时退化为 alpha 加权的 BCE。
func FocalVec(logits, labels []float64, alpha, gamma float64) ([]float64, error) {
	if err := checkSameLen(logits, labels); err != nil {
		return nil, err
	}
	out := make([]float64, len(logits))
	for i := range logits {
		y := labels[i]
		p := sigmoid(logits[i])
		weighting := y*alpha + (1-y)*(1-alpha)
		pt := y*p + (1-y)*(1-p)
		modulating := math.Pow(1-pt, gamma)
		out[i] = weighting * modulating * bceWithLogits(logits[i], y)
	}
	return out, nil
}

// Focal 返回批均值的 focal loss。
func Focal(logits, labels []float64, alpha, gamma float64) (float64, error) {
	vec, err := FocalVec(logits, labels, alpha, gamma)
	if err != nil {
		return 0, err
	}
	return floats.Sum(vec) / float64(len(vec)), nil
}

// BPR 是 Bayesian Personalized Ranking 损失：-mean(logSigmoid(pos - neg))。
// 正负分数由 PairScores 以 repeatPositives=true 组装，保证逐项对齐。
func BPR(targets, itemsPos, itemsNeg *mat.Dense) (float64, error) {
	pos, neg, err := PairScores(targets, itemsPos, itemsNeg, true)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i := range pos {
		sum += logSigmoid(pos[i] - neg[i])
	}
	return -sum / float64(len(pos)), nil
}

// MaxMargin 是带目标间隔的 hinge 排序损失：mean/sum of max(0, margin - (pos - neg))。
func MaxMargin(targets, itemsPos, itemsNeg *mat.Dense, margin float64, mean bool) (float64, error) {
	pos, neg, err := PairScores(targets, itemsPos, itemsNeg, true)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i := range pos {
		sum += math.Max(0, margin-(pos[i]-neg[i]))
	}
	if mean {
		return sum / float64(len(pos)), nil
	}
	return sum, nil
}

// PairwiseBCE 把正分数按全 1 标签、负分数按全 0 标签分别计 BCE，
// 拼接后按 mean/sum 归约。组装时不展开正分数（repeatPositives=false）。
func PairwiseBCE(targets, itemsPos, itemsNeg *mat.Dense, mean bool) (float64, error) {
	pos, neg, err := PairScores(targets, itemsPos, itemsNeg, false)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, s := range pos {
		sum += bceWithLogits(s, 1)
	}
	for _, s := range neg {
		sum += bceWithLogits(s, 0)
	}
	if mean {
		return sum / float64(len(pos)+len(neg)), nil
	}
	return sum, nil
}

// PairwiseFocal 与 PairwiseBCE 同构，把逐样本 BCE 换成逐样本 focal。
func PairwiseFocal(targets, itemsPos, itemsNeg *mat.Dense, alpha, gamma float64, mean bool) (float64, error) {
	pos, neg, err := PairScores(targets, itemsPos, itemsNeg, false)
	if err != nil {
		return 0, err
	}
	posLabels := make([]float64, len(pos))
	for i := range posLabels {
		posLabels[i] = 1
	}
	posFocal, err := FocalVec(pos, posLabels, alpha, gamma)
	if err != nil {
		return 0, err
	}
	negFocal, err := FocalVec(neg, make([]float64, len(neg)), alpha, gamma)
	if err != nil {
		return 0, err
	}
	sum := floats.Sum(posFocal) + floats.Sum(negFocal)
	if mean {
		return sum / float64(len(posFocal)+len(negFocal)), nil
	}
	return sum, nil
}
