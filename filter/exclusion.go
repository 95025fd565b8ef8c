package filter

import (
	"context"

	"github.com/ljyh223/foodieconnect-recommend/core"
)

// ExclusionFilter 过滤掉自己与已关注的用户。
// 各引擎在召回阶段已做过一次同等排除；这里是后处理链上的兜底，
// 防止融合/缓存路径把不该出现的候选重新带回来。
type ExclusionFilter struct {
	Follows core.FollowRepository
}

func NewExclusionFilter(follows core.FollowRepository) *ExclusionFilter {
	return &ExclusionFilter{Follows: follows}
}

func (f *ExclusionFilter) Name() string {
	return "filter.exclusion"
}

func (f *ExclusionFilter) ShouldFilter(
	ctx context.Context,
	userID int64,
	score *core.RecommendationScore,
) (bool, error) {
	if score == nil {
		return true, nil
	}
	if score.UserID == userID {
		return true, nil
	}
	if f.Follows == nil {
		return false, nil
	}
	following, err := f.Follows.IsFollowing(ctx, userID, score.UserID)
	if err != nil {
		return false, err
	}
	return following, nil
}
