package filter

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ljyh223/foodieconnect-recommend/core"
)

// BlockFilter 过滤掉用户拉黑的候选。
//
// 拉黑列表来自两个来源，任一命中即过滤：
//   - IDs: 进程内静态名单（运营配置的全局屏蔽）
//   - Store: 按用户维度的动态名单，key 为 {KeyPrefix}:{userID}，
//     value 为 JSON 编码的 int64 数组，由业务侧在拉黑时写入
type BlockFilter struct {
	// IDs 是全局屏蔽的用户 ID 列表
	IDs []int64

	// Store 用于按用户读取拉黑名单（可选）
	Store core.Store

	// KeyPrefix 是 Store 中的 key 前缀，默认 "block"
	KeyPrefix string

	mu     sync.Mutex
	loaded map[int64]map[int64]struct{}
}

// NewBlockFilter 创建一个拉黑过滤器。
func NewBlockFilter(ids []int64, store core.Store, keyPrefix string) *BlockFilter {
	if keyPrefix == "" {
		keyPrefix = "block"
	}
	return &BlockFilter{IDs: ids, Store: store, KeyPrefix: keyPrefix}
}

func (f *BlockFilter) Name() string {
	return "filter.block"
}

func (f *BlockFilter) ShouldFilter(
	ctx context.Context,
	userID int64,
	score *core.RecommendationScore,
) (bool, error) {
	if score == nil {
		return true, nil
	}
	for _, id := range f.IDs {
		if id == score.UserID {
			return true, nil
		}
	}
	if f.Store == nil {
		return false, nil
	}
	blocked, err := f.blockedSet(ctx, userID)
	if err != nil {
		return false, err
	}
	_, ok := blocked[score.UserID]
	return ok, nil
}

// blockedSet 懒加载并缓存单个用户的拉黑集合，同一次请求内只读一次存储。
func (f *BlockFilter) blockedSet(ctx context.Context, userID int64) (map[int64]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if set, ok := f.loaded[userID]; ok {
		return set, nil
	}

	set := make(map[int64]struct{})
	data, err := f.Store.Get(ctx, fmt.Sprintf("%s:%d", f.KeyPrefix, userID))
	if err != nil {
		if core.IsStoreNotFound(err) {
			f.cacheLocked(userID, set)
			return set, nil
		}
		return nil, err
	}
	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		// 名单损坏按空处理，不阻断推荐
		f.cacheLocked(userID, set)
		return set, nil
	}
	for _, id := range ids {
		set[id] = struct{}{}
	}
	f.cacheLocked(userID, set)
	return set, nil
}

func (f *BlockFilter) cacheLocked(userID int64, set map[int64]struct{}) {
	if f.loaded == nil {
		f.loaded = make(map[int64]map[int64]struct{})
	}
	f.loaded[userID] = set
}

// Reset 清空已加载的拉黑集合，下次过滤时重新读取存储。
func (f *BlockFilter) Reset() {
	f.mu.Lock()
	f.loaded = nil
	f.mu.Unlock()
}

var _ Filter = (*BlockFilter)(nil)
