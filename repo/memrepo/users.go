package memrepo

import (
	"context"
	"sync"

	"github.com/ljyh223/foodieconnect-recommend/core"
)

// UserDirectory 是 core.UserDirectory 的内存实现。
type UserDirectory struct {
	mu    sync.RWMutex
	users map[int64]*core.UserInfo
}

var _ core.UserDirectory = (*UserDirectory)(nil)

// NewUserDirectory 创建空的内存用户目录。
func NewUserDirectory() *UserDirectory {
	return &UserDirectory{users: make(map[int64]*core.UserInfo)}
}

// Put 写入或覆盖用户展示信息。
func (d *UserDirectory) Put(infos ...*core.UserInfo) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, info := range infos {
		c := *info
		d.users[info.ID] = &c
	}
}

func (d *UserDirectory) GetUser(_ context.Context, userID int64) (*core.UserInfo, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	info, ok := d.users[userID]
	if !ok {
		return nil, nil
	}
	c := *info
	return &c, nil
}

func (d *UserDirectory) GetUsers(_ context.Context, userIDs []int64) (map[int64]*core.UserInfo, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(map[int64]*core.UserInfo, len(userIDs))
	for _, id := range userIDs {
		if info, ok := d.users[id]; ok {
			c := *info
			out[id] = &c
		}
	}
	return out, nil
}
