package feature

import (
	"context"
	"fmt"
	"time"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	feasttypes "github.com/feast-dev/feast/sdk/go/protos/feast/types"

	"github.com/rushteam/recforge/core"
)

// Feast 是基于官方 Feast Go SDK 的在线特征 Provider。
//
// 使用官方 SDK (github.com/feast-dev/feast/sdk/go) 的 gRPC 客户端。
//
// 工程特征：
//   - 实时性：优秀（gRPC 低延迟、连接复用）
//   - 一致性：训练/在线同一套特征定义
//
// 使用场景：
//   - Wide&Deep 等特征模型的在线打分取数
type Feast struct {
	client  *feastsdk.GrpcClient
	project string
	timeout time.Duration

	// userEntity / itemEntity 是 Feast 实体键名，例如 "user_id" / "item_id"
	userEntity string
	itemEntity string

	// userFeatures / itemFeatures 是要获取的特征全名列表
	userFeatures []string
	itemFeatures []string
}

// FeastConfig 是 Feast Provider 的连接与取数配置。
type FeastConfig struct {
	Host    string        `yaml:"host"`
	Port    int           `yaml:"port"`
	Project string        `yaml:"project"`
	Timeout time.Duration `yaml:"timeout"`

	UserEntity   string   `yaml:"user_entity"`
	ItemEntity   string   `yaml:"item_entity"`
	UserFeatures []string `yaml:"user_features"`
	ItemFeatures []string `yaml:"item_features"`
}

// NewFeast 创建 Feast Provider。
func NewFeast(cfg FeastConfig) (*Feast, error) {
	if cfg.Host == "" {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidConfig,
			"feast host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 6565
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserEntity == "" {
		cfg.UserEntity = "user_id"
	}
	if cfg.ItemEntity == "" {
		cfg.ItemEntity = "item_id"
	}

	client, err := feastsdk.NewGrpcClient(cfg.Host, cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("create feast grpc client: %w", err)
	}
	return &Feast{
		client:       client,
		project:      cfg.Project,
		timeout:      cfg.Timeout,
		userEntity:   cfg.UserEntity,
		itemEntity:   cfg.ItemEntity,
		userFeatures: cfg.UserFeatures,
		itemFeatures: cfg.ItemFeatures,
	}, nil
}

func (f *Feast) UserFeatures(userID string) (map[string]float64, error) {
	return f.fetch(f.userEntity, userID, f.userFeatures)
}

func (f *Feast) ItemFeatures(itemID string) (map[string]float64, error) {
	return f.fetch(f.itemEntity, itemID, f.itemFeatures)
}

func (f *Feast) fetch(entity, id string, features []string) (map[string]float64, error) {
	if len(features) == 0 {
		return map[string]float64{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	row := feastsdk.Row{entity: feastsdk.StrVal(id)}
	resp, err := f.client.GetOnlineFeatures(ctx, &feastsdk.OnlineFeaturesRequest{
		Features: features,
		Entities: []feastsdk.Row{row},
		Project:  f.project,
	})
	if err != nil {
		return nil, fmt.Errorf("feast get online features: %w", err)
	}

	rows := resp.Rows()
	if len(rows) != 1 {
		return nil, fmt.Errorf("feast response row count mismatch: expected 1, got %d", len(rows))
	}

	out := make(map[string]float64, len(features))
	for _, name := range features {
		if val, ok := rows[0][name]; ok {
			if num, ok := valueToFloat64(val); ok {
				out[name] = num
			}
		}
	}
	return out, nil
}

// valueToFloat64 把 SDK 的 protobuf Value 转为 float64 特征值。
// 布尔按 1/0 处理；非数值类型（字符串、字节）不作为数值特征返回。
func valueToFloat64(v *feasttypes.Value) (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch val := v.Val.(type) {
	case *feasttypes.Value_DoubleVal:
		return val.DoubleVal, true
	case *feasttypes.Value_FloatVal:
		return float64(val.FloatVal), true
	case *feasttypes.Value_Int64Val:
		return float64(val.Int64Val), true
	case *feasttypes.Value_Int32Val:
		return float64(val.Int32Val), true
	case *feasttypes.Value_BoolVal:
		if val.BoolVal {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

var _ Provider = (*Feast)(nil)
var _ Provider = (*Map)(nil)
