package store

import (
	"context"

	"github.com/rushteam/recforge/model"
)

// ExportEmbeddings 把训练好的模型前向嵌入导出到 VectorStore。
// 用户向量写入 "user" 空间、物品向量写入 "item" 空间，key 为原始 ID；
// OOV 行不导出。
func ExportEmbeddings(ctx context.Context, vs VectorStore, m model.Trainable) error {
	info := m.Info()
	userT, itemT := m.ForwardTables()

	users := make(map[string][]float64, info.NUsers())
	for u := 0; u < info.NUsers(); u++ {
		users[info.RawUserID(u)] = append([]float64(nil), userT.Row(u)...)
	}
	if err := vs.BatchSave(ctx, "user", users); err != nil {
		return err
	}

	items := make(map[string][]float64, info.NItems())
	for i := 0; i < info.NItems(); i++ {
		items[info.RawItemID(i)] = append([]float64(nil), itemT.Row(i)...)
	}
	return vs.BatchSave(ctx, "item", items)
}
