// Package store 提供训练产出（嵌入向量）的落盘/落库能力。
//
// 训练侧把模型的前向嵌入导出到 VectorStore，在线服务侧（召回、近邻检索）
// 按原始 ID 读回。接口定义与实现同包，内存与 Redis 两种实现可互换。
package store

import "context"

// VectorStore 是嵌入向量的键值存储抽象。
// namespace 区分向量空间（如 "user" / "item"），id 是原始 ID。
type VectorStore interface {
	// SaveVector 写入单条向量
	SaveVector(ctx context.Context, namespace, id string, vec []float64) error

	// BatchSave 批量写入向量
	BatchSave(ctx context.Context, namespace string, vecs map[string][]float64) error

	// LoadVector 读取单条向量；不存在返回 core.ErrStoreNotFound
	LoadVector(ctx context.Context, namespace, id string) ([]float64, error)

	// Close 释放底层资源
	Close() error
}
