// Package feature 提供特征获取抽象，供 Wide&Deep 等特征模型在打分时取数。
package feature

// Provider 是特征来源的领域接口。
// 返回的 map 以特征名为 key；实体不存在时返回空 map 而不是错误，
// 缺失特征按 0 处理由模型侧决定。
type Provider interface {
	// UserFeatures 获取用户侧特征
	UserFeatures(userID string) (map[string]float64, error)

	// ItemFeatures 获取物品侧特征
	ItemFeatures(itemID string) (map[string]float64, error)
}

// Map 是内存实现的 Provider，用于测试/开发/原型。
type Map struct {
	Users map[string]map[string]float64
	Items map[string]map[string]float64
}

func (m *Map) UserFeatures(userID string) (map[string]float64, error) {
	if feats, ok := m.Users[userID]; ok {
		return feats, nil
	}
	return map[string]float64{}, nil
}

func (m *Map) ItemFeatures(itemID string) (map[string]float64, error) {
	if feats, ok := m.Items[itemID]; ok {
		return feats, nil
	}
	return map[string]float64{}, nil
}
