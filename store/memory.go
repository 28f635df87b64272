package store

import (
	"context"
	"sync"

	"github.com/rushteam/recforge/core"
)

// MemoryStore 是内存实现的 VectorStore，用于测试/开发/原型。
//
// 特点：
//   - 纯内存实现，进程重启后数据丢失
//   - 线程安全
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string][]float64 // namespace -> id -> vector
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]map[string][]float64),
	}
}

func (m *MemoryStore) SaveVector(ctx context.Context, namespace, id string, vec []float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(namespace, id, vec)
	return nil
}

func (m *MemoryStore) BatchSave(ctx context.Context, namespace string, vecs map[string][]float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, vec := range vecs {
		m.put(namespace, id, vec)
	}
	return nil
}

func (m *MemoryStore) put(namespace, id string, vec []float64) {
	ns, ok := m.data[namespace]
	if !ok {
		ns = make(map[string][]float64)
		m.data[namespace] = ns
	}
	// 存副本，调用方后续修改原切片不影响存储内容
	ns[id] = append([]float64(nil), vec...)
}

func (m *MemoryStore) LoadVector(ctx context.Context, namespace, id string) ([]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if ns, ok := m.data[namespace]; ok {
		if vec, ok := ns[id]; ok {
			return append([]float64(nil), vec...), nil
		}
	}
	return nil, core.ErrStoreNotFound
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]map[string][]float64)
	return nil
}

var _ VectorStore = (*MemoryStore)(nil)
