package core

import (
	"context"
	"time"
)

// VisitRepository 是访问记录的只读仓储接口。
// 访问记录由上游的评论/收藏/签到动作产生，推荐引擎只读取。
type VisitRepository interface {
	// FindByUserID 返回某用户的全部访问记录
	FindByUserID(ctx context.Context, userID int64) ([]*Visit, error)

	// FindByRestaurantIDs 返回访问过任一给定餐厅的全部记录（候选生成）
	FindByRestaurantIDs(ctx context.Context, restaurantIDs []int64) ([]*Visit, error)

	// FindCommonVisitedRestaurants 返回两用户共同访问过的餐厅 ID
	FindCommonVisitedRestaurants(ctx context.Context, user1ID, user2ID int64) ([]int64, error)

	// GetVisitedRestaurantsCount 返回某用户去重后的餐厅数
	GetVisitedRestaurantsCount(ctx context.Context, userID int64) (int, error)

	// GetVisitCount 返回某用户的访问记录总数
	GetVisitCount(ctx context.Context, userID int64) (int, error)

	// GetActiveUserIDs 返回自 since 起有过访问的用户 ID（兜底候选）
	GetActiveUserIDs(ctx context.Context, since time.Time) ([]int64, error)

	// FindByUserIDAndDateRange 返回某用户在时间窗口内的访问记录（活跃度/质量评估）
	FindByUserIDAndDateRange(ctx context.Context, userID int64, from, to time.Time) ([]*Visit, error)
}

// FollowRepository 是关注关系图的只读仓储接口。
type FollowRepository interface {
	// IsFollowing 判断 follower 是否关注了 following
	IsFollowing(ctx context.Context, followerID, followingID int64) (bool, error)

	// GetFollowingIDs 返回某用户关注的全部用户 ID
	GetFollowingIDs(ctx context.Context, userID int64) ([]int64, error)

	// GetFollowersCount 返回粉丝数
	GetFollowersCount(ctx context.Context, userID int64) (int, error)

	// GetFollowingCount 返回关注数
	GetFollowingCount(ctx context.Context, userID int64) (int, error)

	// GetMutualFollowIDs 返回两用户共同关注的用户 ID
	GetMutualFollowIDs(ctx context.Context, user1ID, user2ID int64) ([]int64, error)
}

// SimilarityRepository 是相似度对缓存的仓储接口。
// 条目按无序对落库（User1ID < User2ID），查询方必须兼容两种顺序。
type SimilarityRepository interface {
	// FindByPair 按 (无序对, 方法) 查找；不存在时返回 (nil, nil)
	FindByPair(ctx context.Context, user1ID, user2ID int64, method Method) (*SimilarityEntry, error)

	// Upsert 插入或更新一条相似度条目
	Upsert(ctx context.Context, entry *SimilarityEntry) error

	// BatchUpsert 批量插入或更新（定时刷新）
	BatchUpsert(ctx context.Context, entries []*SimilarityEntry) error

	// DeleteOlderThan 删除计算时间早于 cutoff 的条目，返回删除数
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// CountByUser 返回涉及某用户的条目数
	CountByUser(ctx context.Context, userID int64) (int, error)
}

// RecommendationRepository 是推荐记录的仓储接口。
// 记录由融合引擎落库，由反馈动作修改，由保留期清理销毁。
type RecommendationRepository interface {
	// FindByID 按主键查找；不存在时返回 (nil, nil)
	FindByID(ctx context.Context, id int64) (*RecommendationRecord, error)

	// FindByUserAndTarget 按 (userId, recommendedUserId, algorithmType) 查找；
	// 不存在时返回 (nil, nil)
	FindByUserAndTarget(ctx context.Context, userID, recommendedUserID int64, algorithmType string) (*RecommendationRecord, error)

	// Insert 插入新记录并回填 ID
	Insert(ctx context.Context, rec *RecommendationRecord) error

	// Update 更新已有记录
	Update(ctx context.Context, rec *RecommendationRecord) error

	// DeleteByID 删除单条记录
	DeleteByID(ctx context.Context, id int64) error

	// DeleteByUserID 删除某用户的全部记录，返回删除数
	DeleteByUserID(ctx context.Context, userID int64) (int64, error)

	// DeleteOlderThan 删除创建时间早于 cutoff 的记录，返回删除数
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// CountByUserID 返回某用户的记录总数
	CountByUserID(ctx context.Context, userID int64) (int, error)

	// CountByUserIDAndViewed 返回某用户已读/未读的记录数
	CountByUserIDAndViewed(ctx context.Context, userID int64, viewed bool) (int, error)

	// CountByUserIDAndInterested 返回某用户标记感兴趣/不感兴趣的记录数
	CountByUserIDAndInterested(ctx context.Context, userID int64, interested bool) (int, error)

	// FindByUserIDPaginated 按创建时间降序分页返回某用户的记录
	FindByUserIDPaginated(ctx context.Context, userID int64, offset, limit int) ([]*RecommendationRecord, error)

	// FindUnviewedByUserID 返回某用户未读的记录
	FindUnviewedByUserID(ctx context.Context, userID int64, limit int) ([]*RecommendationRecord, error)

	// BatchMarkViewed 批量标记已读，返回受影响行数
	BatchMarkViewed(ctx context.Context, userID int64, ids []int64) (int64, error)

	// GetAlgorithmStatsByUser 返回某用户按算法类型聚合的统计
	GetAlgorithmStatsByUser(ctx context.Context, userID int64) ([]*AlgorithmStats, error)

	// GetGlobalAlgorithmStats 返回全局按算法类型聚合的统计
	GetGlobalAlgorithmStats(ctx context.Context) ([]*AlgorithmStats, error)

	// GetRecommendedUserIDs 返回某用户已被推荐过的目标用户 ID（去重）
	GetRecommendedUserIDs(ctx context.Context, userID int64) ([]int64, error)
}

// UserDirectory 提供候选用户的展示信息（昵称、头像）。
// 推荐引擎对用户档案是只读的，因此单独收敛成一个窄接口。
type UserDirectory interface {
	// GetUser 返回用户展示信息；不存在时返回 (nil, nil)
	GetUser(ctx context.Context, userID int64) (*UserInfo, error)

	// GetUsers 批量返回用户展示信息，缺失的 ID 不在结果中
	GetUsers(ctx context.Context, userIDs []int64) (map[int64]*UserInfo, error)
}

// FillUserInfo 批量填充候选的昵称与头像；directory 为 nil 时跳过。
// 查不到档案的候选昵称置为「未知用户」。
func FillUserInfo(ctx context.Context, users UserDirectory, scores []*RecommendationScore) error {
	if users == nil || len(scores) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(scores))
	for _, s := range scores {
		ids = append(ids, s.UserID)
	}
	infos, err := users.GetUsers(ctx, ids)
	if err != nil {
		return err
	}
	for _, s := range scores {
		if info, ok := infos[s.UserID]; ok && info != nil {
			s.UserName = info.Name
			s.UserAvatar = info.AvatarURL
		} else if s.UserName == "" {
			s.UserName = "未知用户"
		}
	}
	return nil
}
