package filter

import (
	"context"
	"sync"

	"github.com/ljyh223/foodieconnect-recommend/core"
)

// ExposedFilter 过滤掉已经推荐过的用户，避免同一批候选反复出现。
// 已推荐集合在一次 Process 内按目标用户懒加载一次。
type ExposedFilter struct {
	Records core.RecommendationRepository

	mu     sync.Mutex
	loaded map[int64]map[int64]struct{} // userID -> 已推荐过的候选集合
}

func NewExposedFilter(records core.RecommendationRepository) *ExposedFilter {
	return &ExposedFilter{
		Records: records,
		loaded:  make(map[int64]map[int64]struct{}),
	}
}

func (f *ExposedFilter) Name() string {
	return "filter.exposed"
}

func (f *ExposedFilter) ShouldFilter(
	ctx context.Context,
	userID int64,
	score *core.RecommendationScore,
) (bool, error) {
	if score == nil {
		return true, nil
	}
	if f.Records == nil {
		return false, nil
	}

	exposed, err := f.exposedSet(ctx, userID)
	if err != nil {
		return false, err
	}
	_, seen := exposed[score.UserID]
	return seen, nil
}

func (f *ExposedFilter) exposedSet(ctx context.Context, userID int64) (map[int64]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if set, ok := f.loaded[userID]; ok {
		return set, nil
	}
	ids, err := f.Records.GetRecommendedUserIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	f.loaded[userID] = set
	return set, nil
}

// Reset 清空懒加载的已推荐集合，复用同一个过滤器实例时调用。
func (f *ExposedFilter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loaded = make(map[int64]map[int64]struct{})
}
