package memrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/ljyh223/foodieconnect-recommend/core"
)

// FollowRepo 是 core.FollowRepository 的内存实现。
// 同时维护正向（关注）与反向（粉丝）两份邻接表，粉丝数查询不需要全量扫描。
type FollowRepo struct {
	mu        sync.RWMutex
	following map[int64]map[int64]struct{} // follower -> followings
	followers map[int64]map[int64]struct{} // following -> followers
}

var _ core.FollowRepository = (*FollowRepo)(nil)

// NewFollowRepo 创建空的内存关注仓储。
func NewFollowRepo() *FollowRepo {
	return &FollowRepo{
		following: make(map[int64]map[int64]struct{}),
		followers: make(map[int64]map[int64]struct{}),
	}
}

// Follow 建立 follower -> following 的关注边。自环与重复边会被忽略。
func (r *FollowRepo) Follow(followerID, followingID int64) {
	if followerID == followingID {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.following[followerID] == nil {
		r.following[followerID] = make(map[int64]struct{})
	}
	r.following[followerID][followingID] = struct{}{}

	if r.followers[followingID] == nil {
		r.followers[followingID] = make(map[int64]struct{})
	}
	r.followers[followingID][followerID] = struct{}{}
}

// Unfollow 删除关注边，不存在时为空操作。
func (r *FollowRepo) Unfollow(followerID, followingID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.following[followerID], followingID)
	delete(r.followers[followingID], followerID)
}

func (r *FollowRepo) IsFollowing(_ context.Context, followerID, followingID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.following[followerID][followingID]
	return ok, nil
}

func (r *FollowRepo) GetFollowingIDs(_ context.Context, userID int64) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.following[userID]
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (r *FollowRepo) GetFollowersCount(_ context.Context, userID int64) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.followers[userID]), nil
}

func (r *FollowRepo) GetFollowingCount(_ context.Context, userID int64) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.following[userID]), nil
}

func (r *FollowRepo) GetMutualFollowIDs(_ context.Context, user1ID, user2ID int64) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	first := r.following[user1ID]
	second := r.following[user2ID]
	if len(first) > len(second) {
		first, second = second, first
	}
	var out []int64
	for id := range first {
		if _, ok := second[id]; ok {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
