package store

import (
	"context"
	"encoding/json"

	"github.com/ljyh223/foodieconnect-recommend/core"
)

// ResultCache 封装推荐结果列表的缓存读写。
//
// 写入时同时把结果键登记进该用户的键索引（Hash），
// 反馈动作触发的失效按索引逐键删除，不依赖模式匹配。
type ResultCache struct {
	kv core.KeyValueStore
}

func NewResultCache(kv core.KeyValueStore) *ResultCache {
	return &ResultCache{kv: kv}
}

// Get 读取缓存的结果列表；未命中返回 (nil, nil)。
func (c *ResultCache) Get(ctx context.Context, key string) ([]*core.RecommendationScore, error) {
	data, err := c.kv.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var scores []*core.RecommendationScore
	if err := json.Unmarshal(data, &scores); err != nil {
		// 缓存内容损坏按未命中处理，重算会覆盖
		return nil, nil
	}
	return scores, nil
}

// Set 写入结果列表并登记键索引。ttl 单位为秒。
func (c *ResultCache) Set(ctx context.Context, userID int64, key string, scores []*core.RecommendationScore, ttl int) error {
	data, err := json.Marshal(scores)
	if err != nil {
		return err
	}
	if err := c.kv.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	return c.kv.HSet(ctx, core.UserCacheIndexKey(userID), key, []byte("1"))
}

// InvalidateUser 删除某用户名下登记过的全部结果键与索引本身。
func (c *ResultCache) InvalidateUser(ctx context.Context, userID int64) error {
	indexKey := core.UserCacheIndexKey(userID)
	fields, err := c.kv.HGetAll(ctx, indexKey)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil
		}
		return err
	}
	for key := range fields {
		if err := c.kv.Delete(ctx, key); err != nil {
			return err
		}
	}
	return c.kv.Delete(ctx, indexKey)
}
