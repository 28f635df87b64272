package store

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/rushteam/recforge/core"
)

// RedisStore 是 Redis 实现的 VectorStore。
// 每个 namespace 对应一个 Hash：field 为原始 ID，value 为 JSON 编码的向量。
// 生产环境常用，支持持久化、集群、哨兵等。
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(addr string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &RedisStore{client: client, prefix: "recforge:vec:"}, nil
}

func (r *RedisStore) key(namespace string) string {
	return r.prefix + namespace
}

func (r *RedisStore) SaveVector(ctx context.Context, namespace, id string, vec []float64) error {
	data, err := json.Marshal(vec)
	if err != nil {
		return err
	}
	return r.client.HSet(ctx, r.key(namespace), id, data).Err()
}

func (r *RedisStore) BatchSave(ctx context.Context, namespace string, vecs map[string][]float64) error {
	pipe := r.client.Pipeline()
	key := r.key(namespace)
	for id, vec := range vecs {
		data, err := json.Marshal(vec)
		if err != nil {
			return err
		}
		pipe.HSet(ctx, key, id, data)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisStore) LoadVector(ctx context.Context, namespace, id string) ([]float64, error) {
	data, err := r.client.HGet(ctx, r.key(namespace), id).Bytes()
	if err == redis.Nil {
		return nil, core.ErrStoreNotFound
	}
	if err != nil {
		return nil, err
	}
	var vec []float64
	if err := json.Unmarshal(data, &vec); err != nil {
		return nil, err
	}
	return vec, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

var _ VectorStore = (*RedisStore)(nil)
