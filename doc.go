// Package recforge 是一个推荐模型训练工具包（Recommender Forge）。
//
// 设计要点：
// - Loss-first: 负采样 + 成对打分（Pairwise Score）+ 排序损失是所有模型共享的训练核心
// - Model 可扩展: 实现 Build / Predict / Recommend 接口即可接入统一的训练与推荐链路
// - 冷启动显式化: 未知用户/物品通过 DataInfo 的 OOV 约定识别，由 predict.Normalize 统一兜底
package recforge

import (
	"github.com/rushteam/recforge/core"
	"github.com/rushteam/recforge/loss"
)

// 轻量 facade：便于用户直接 import "recforge" 使用核心抽象。
type Task = core.Task
type ColdStart = core.ColdStart
type DataInfo = core.DataInfo
type LossConfig = loss.Config

const (
	TaskRating  = core.TaskRating
	TaskRanking = core.TaskRanking

	ColdStartAverage = core.ColdStartAverage
	ColdStartPopular = core.ColdStartPopular
)
