package model

import (
	"github.com/rushteam/recforge/core"
	"github.com/rushteam/recforge/loss"
	"github.com/rushteam/recforge/param"
)

// Trainable 是可被 trainer 以 SGD 训练的嵌入内积模型视图。
//
// 约定：
//   - BaseTables 是接受梯度更新的底层参数表
//   - ForwardTables 是前向打分使用的表（MF 两者相同；LightGCN 前向用传播后的表）
//   - Refresh 在每个 epoch 的更新后重建前向缓存
//   - Finalize 在训练结束后计算冷启动兜底分
type Trainable interface {
	Model

	Info() *core.DataInfo
	LossConfig() loss.Config

	BaseTables() (user, item *param.Table)
	ForwardTables() (user, item *param.Table)

	Refresh() error
	Finalize() error
}
