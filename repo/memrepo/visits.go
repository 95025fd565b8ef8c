// Package memrepo 提供全部仓储接口的内存实现。
// 用于单元测试、示例和小规模单机部署；数据不持久化，进程退出即丢失。
// 所有实现都是并发安全的。
package memrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ljyh223/foodieconnect-recommend/core"
)

// VisitRepo 是 core.VisitRepository 的内存实现。
type VisitRepo struct {
	mu     sync.RWMutex
	visits []*core.Visit
}

var _ core.VisitRepository = (*VisitRepo)(nil)

// NewVisitRepo 创建空的内存访问仓储。
func NewVisitRepo() *VisitRepo {
	return &VisitRepo{}
}

// Add 追加访问记录（测试与示例用）。
func (r *VisitRepo) Add(visits ...*core.Visit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visits = append(r.visits, visits...)
}

func (r *VisitRepo) FindByUserID(_ context.Context, userID int64) ([]*core.Visit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*core.Visit
	for _, v := range r.visits {
		if v.UserID == userID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *VisitRepo) FindByRestaurantIDs(_ context.Context, restaurantIDs []int64) ([]*core.Visit, error) {
	if len(restaurantIDs) == 0 {
		return nil, nil
	}
	want := make(map[int64]struct{}, len(restaurantIDs))
	for _, id := range restaurantIDs {
		want[id] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*core.Visit
	for _, v := range r.visits {
		if _, ok := want[v.RestaurantID]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *VisitRepo) FindCommonVisitedRestaurants(_ context.Context, user1ID, user2ID int64) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	first := make(map[int64]struct{})
	for _, v := range r.visits {
		if v.UserID == user1ID {
			first[v.RestaurantID] = struct{}{}
		}
	}

	seen := make(map[int64]struct{})
	var out []int64
	for _, v := range r.visits {
		if v.UserID != user2ID {
			continue
		}
		if _, ok := first[v.RestaurantID]; !ok {
			continue
		}
		if _, dup := seen[v.RestaurantID]; dup {
			continue
		}
		seen[v.RestaurantID] = struct{}{}
		out = append(out, v.RestaurantID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (r *VisitRepo) GetVisitedRestaurantsCount(_ context.Context, userID int64) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[int64]struct{})
	for _, v := range r.visits {
		if v.UserID == userID {
			seen[v.RestaurantID] = struct{}{}
		}
	}
	return len(seen), nil
}

func (r *VisitRepo) GetVisitCount(_ context.Context, userID int64) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, v := range r.visits {
		if v.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (r *VisitRepo) GetActiveUserIDs(_ context.Context, since time.Time) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[int64]struct{})
	var out []int64
	for _, v := range r.visits {
		if v.LastVisitTime.Before(since) {
			continue
		}
		if _, dup := seen[v.UserID]; dup {
			continue
		}
		seen[v.UserID] = struct{}{}
		out = append(out, v.UserID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (r *VisitRepo) FindByUserIDAndDateRange(_ context.Context, userID int64, from, to time.Time) ([]*core.Visit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*core.Visit
	for _, v := range r.visits {
		if v.UserID != userID {
			continue
		}
		if v.LastVisitTime.Before(from) || v.LastVisitTime.After(to) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}
