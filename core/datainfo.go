package core

import "sort"

// Interaction 是一条用户-物品交互记录（显式评分或隐式反馈）。
// Label 在 rating 任务下是评分值，在 ranking 任务下是 0/1 反馈。
type Interaction struct {
	User  string
	Item  string
	Label float64
}

// DataInfo 是训练数据的统一画像：ID 映射、热度统计、消费历史、全局均值。
//
// OOV 约定：
//   - 内部索引 [0, NUsers) / [0, NItems) 对应训练期出现过的实体
//   - UnknownUser() == NUsers、UnknownItem() == NItems 是 OOV 哨兵行，
//     嵌入表按 (N+1, dim) 分配，最后一行留给未知实体
//   - 哨兵只存在于 ID 解析阶段；进入损失/归一化链路前必须被兜底分数替换
//
// DataInfo 在模型构建后只读，可被多个模型并发共享。
type DataInfo struct {
	userIndex map[string]int
	itemIndex map[string]int
	userIDs   []string
	itemIDs   []string

	// ItemPopularity 是每个物品（内部索引）的交互次数
	ItemPopularity []int
	// popularOrder 是按热度降序排列的物品内部索引
	popularOrder []int

	// UserConsumed 是每个用户（内部索引）消费过的物品内部索引列表
	UserConsumed map[int][]int

	// GlobalMean 是训练标签的全局均值（rating 任务的冷启动兜底基准）
	GlobalMean float64
	// MinLabel / MaxLabel 是训练标签的上下界（rating 任务的截断界）
	MinLabel float64
	MaxLabel float64
}

// NewDataInfo 扫描交互数据，建立 ID 映射与统计信息。
// 物品与用户的内部索引按首次出现顺序分配。
func NewDataInfo(data []Interaction) *DataInfo {
	info := &DataInfo{
		userIndex:    make(map[string]int),
		itemIndex:    make(map[string]int),
		UserConsumed: make(map[int][]int),
	}

	var labelSum float64
	for i, row := range data {
		uid, ok := info.userIndex[row.User]
		if !ok {
			uid = len(info.userIDs)
			info.userIndex[row.User] = uid
			info.userIDs = append(info.userIDs, row.User)
		}
		iid, ok := info.itemIndex[row.Item]
		if !ok {
			iid = len(info.itemIDs)
			info.itemIndex[row.Item] = iid
			info.itemIDs = append(info.itemIDs, row.Item)
			info.ItemPopularity = append(info.ItemPopularity, 0)
		}

		info.ItemPopularity[iid]++
		info.UserConsumed[uid] = append(info.UserConsumed[uid], iid)

		labelSum += row.Label
		if i == 0 {
			info.MinLabel = row.Label
			info.MaxLabel = row.Label
		} else {
			if row.Label < info.MinLabel {
				info.MinLabel = row.Label
			}
			if row.Label > info.MaxLabel {
				info.MaxLabel = row.Label
			}
		}
	}
	if len(data) > 0 {
		info.GlobalMean = labelSum / float64(len(data))
	}

	info.popularOrder = make([]int, len(info.itemIDs))
	for i := range info.popularOrder {
		info.popularOrder[i] = i
	}
	sort.SliceStable(info.popularOrder, func(a, b int) bool {
		return info.ItemPopularity[info.popularOrder[a]] > info.ItemPopularity[info.popularOrder[b]]
	})

	return info
}

// NUsers 返回训练期出现过的用户数。
func (d *DataInfo) NUsers() int { return len(d.userIDs) }

// NItems 返回训练期出现过的物品数。
func (d *DataInfo) NItems() int { return len(d.itemIDs) }

// UnknownUser 返回未知用户的 OOV 哨兵索引（等于 NUsers）。
func (d *DataInfo) UnknownUser() int { return len(d.userIDs) }

// UnknownItem 返回未知物品的 OOV 哨兵索引（等于 NItems）。
func (d *DataInfo) UnknownItem() int { return len(d.itemIDs) }

// InnerUserID 把外部用户 ID 解析为内部索引；未知用户返回 UnknownUser()。
func (d *DataInfo) InnerUserID(raw string) int {
	if idx, ok := d.userIndex[raw]; ok {
		return idx
	}
	return d.UnknownUser()
}

// InnerItemID 把外部物品 ID 解析为内部索引；未知物品返回 UnknownItem()。
func (d *DataInfo) InnerItemID(raw string) int {
	if idx, ok := d.itemIndex[raw]; ok {
		return idx
	}
	return d.UnknownItem()
}

// RawUserID 把内部索引还原为外部用户 ID；哨兵/越界返回空串。
func (d *DataInfo) RawUserID(inner int) string {
	if inner < 0 || inner >= len(d.userIDs) {
		return ""
	}
	return d.userIDs[inner]
}

// RawItemID 把内部索引还原为外部物品 ID；哨兵/越界返回空串。
func (d *DataInfo) RawItemID(inner int) string {
	if inner < 0 || inner >= len(d.itemIDs) {
		return ""
	}
	return d.itemIDs[inner]
}

// CheckUnknown 找出一批 (user, item) 查询中含有 OOV 哨兵的位置。
// 返回未知数量与未知位置列表，供 predict.Normalize 做冷启动兜底。
func (d *DataInfo) CheckUnknown(users, items []int) (int, []int) {
	var index []int
	for i := range users {
		if users[i] == d.UnknownUser() || (i < len(items) && items[i] == d.UnknownItem()) {
			index = append(index, i)
		}
	}
	return len(index), index
}

// PopularItems 返回热度最高的 n 个物品的内部索引（热度降序）。
// n <= 0 或超过物品总数时返回全部。
func (d *DataInfo) PopularItems(n int) []int {
	if n <= 0 || n > len(d.popularOrder) {
		n = len(d.popularOrder)
	}
	out := make([]int, n)
	copy(out, d.popularOrder[:n])
	return out
}

// ConsumedSet 返回用户消费过的物品集合，用于负采样与推荐过滤。
func (d *DataInfo) ConsumedSet(user int) map[int]struct{} {
	consumed := d.UserConsumed[user]
	set := make(map[int]struct{}, len(consumed))
	for _, it := range consumed {
		set[it] = struct{}{}
	}
	return set
}
