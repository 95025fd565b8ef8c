package core

import (
	"fmt"
	"strconv"
)

// 结果缓存键按「算法:用户:limit」的冒号分隔文法构造，
// 同一用户不同 limit 各自成键，互不命中。
//
// 键索引（Hash）按用户维度登记该用户名下的全部结果键，
// 反馈动作据此做精确失效，避免模式删除。

// CollaborativeCacheKey 协同过滤结果缓存键
func CollaborativeCacheKey(userID int64, limit int) string {
	return fmt.Sprintf("collaborative:%d:%d", userID, limit)
}

// SocialCacheKey 社交推荐结果缓存键
func SocialCacheKey(userID int64, limit int) string {
	return fmt.Sprintf("social:%d:%d", userID, limit)
}

// HybridCacheKey 混合推荐结果缓存键（含策略维度）
func HybridCacheKey(strategy Strategy, userID int64, limit int) string {
	return fmt.Sprintf("hybrid:%s:%d:%d", strategy, userID, limit)
}

// UserCacheIndexKey 某用户结果键索引的 Hash 键
func UserCacheIndexKey(userID int64) string {
	return "rec:index:" + strconv.FormatInt(userID, 10)
}

// PopularUsersKey 热门用户榜的有序集合键
const PopularUsersKey = "popular:users"
