package store

// 集成测试：需要一个可写的 Redis 实例。
// 设置 TEST_REDIS_ADDR（如 localhost:6379），可选 TEST_REDIS_PASSWORD。

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/ljyh223/foodieconnect-recommend/core"
)

func testRedis(t *testing.T) (*RedisStore, string) {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR 未设置，跳过集成测试")
	}

	rs, err := NewRedisStore(addr, os.Getenv("TEST_REDIS_PASSWORD"), 0)
	if err != nil {
		t.Fatalf("NewRedisStore 失败: %v", err)
	}
	t.Cleanup(func() { _ = rs.Close() })

	prefix := fmt.Sprintf("rectest:%d", time.Now().UnixNano())
	return rs, prefix
}

func TestRedisStore_GetSetDelete(t *testing.T) {
	rs, prefix := testRedis(t)
	ctx := context.Background()
	key := prefix + ":kv"
	t.Cleanup(func() { _ = rs.Delete(ctx, key) })

	if err := rs.Set(ctx, key, []byte("v1"), 60); err != nil {
		t.Fatalf("Set 失败: %v", err)
	}
	got, err := rs.Get(ctx, key)
	if err != nil || string(got) != "v1" {
		t.Errorf("Get = (%q, %v), 期望 v1", got, err)
	}

	if err := rs.Delete(ctx, key); err != nil {
		t.Fatalf("Delete 失败: %v", err)
	}
	if _, err := rs.Get(ctx, key); !core.IsStoreNotFound(err) {
		t.Errorf("删除后应返回 NOT_FOUND, 实际 %v", err)
	}
}

func TestRedisStore_BatchOps(t *testing.T) {
	rs, prefix := testRedis(t)
	ctx := context.Background()
	k1, k2, missing := prefix+":b1", prefix+":b2", prefix+":b3"
	t.Cleanup(func() {
		_ = rs.Delete(ctx, k1)
		_ = rs.Delete(ctx, k2)
	})

	err := rs.BatchSet(ctx, map[string][]byte{k1: []byte("1"), k2: []byte("2")}, 60)
	if err != nil {
		t.Fatalf("BatchSet 失败: %v", err)
	}
	got, err := rs.BatchGet(ctx, []string{k1, k2, missing})
	if err != nil {
		t.Fatalf("BatchGet 失败: %v", err)
	}
	if len(got) != 2 || string(got[k1]) != "1" || string(got[k2]) != "2" {
		t.Errorf("BatchGet = %v, 缺失 key 不应出现在结果中", got)
	}
}

func TestRedisStore_ZSet(t *testing.T) {
	rs, prefix := testRedis(t)
	ctx := context.Background()
	key := prefix + ":zset"
	t.Cleanup(func() { _ = rs.Delete(ctx, key) })

	for member, score := range map[string]float64{"1": 0.3, "2": 0.9, "3": 0.6} {
		if err := rs.ZAdd(ctx, key, score, member); err != nil {
			t.Fatalf("ZAdd 失败: %v", err)
		}
	}

	// 分数降序
	members, err := rs.ZRange(ctx, key, 0, -1)
	if err != nil {
		t.Fatalf("ZRange 失败: %v", err)
	}
	if len(members) != 3 || members[0] != "2" || members[1] != "3" || members[2] != "1" {
		t.Errorf("ZRange = %v, 期望 [2 3 1]", members)
	}

	top, _ := rs.ZRange(ctx, key, 0, 0)
	if len(top) != 1 || top[0] != "2" {
		t.Errorf("榜首 = %v, 期望 [2]", top)
	}

	score, err := rs.ZScore(ctx, key, "3")
	if err != nil || score != 0.6 {
		t.Errorf("ZScore = (%v, %v), 期望 0.6", score, err)
	}
	if _, err := rs.ZScore(ctx, key, "nobody"); !core.IsStoreNotFound(err) {
		t.Errorf("不存在的成员应返回 NOT_FOUND, 实际 %v", err)
	}
}

func TestRedisStore_Hash(t *testing.T) {
	rs, prefix := testRedis(t)
	ctx := context.Background()
	key := prefix + ":hash"
	t.Cleanup(func() { _ = rs.Delete(ctx, key) })

	if err := rs.HSet(ctx, key, "f1", []byte("a")); err != nil {
		t.Fatalf("HSet 失败: %v", err)
	}
	if err := rs.HSet(ctx, key, "f2", []byte("b")); err != nil {
		t.Fatalf("HSet 失败: %v", err)
	}

	got, err := rs.HGet(ctx, key, "f1")
	if err != nil || string(got) != "a" {
		t.Errorf("HGet = (%q, %v), 期望 a", got, err)
	}
	if _, err := rs.HGet(ctx, key, "missing"); !core.IsStoreNotFound(err) {
		t.Errorf("不存在的字段应返回 NOT_FOUND, 实际 %v", err)
	}

	all, err := rs.HGetAll(ctx, key)
	if err != nil || len(all) != 2 || string(all["f2"]) != "b" {
		t.Errorf("HGetAll = (%v, %v), 期望两个字段", all, err)
	}
}

// 结果缓存走 Redis 后端的完整读写与按用户失效链路。
func TestResultCache_Redis(t *testing.T) {
	rs, _ := testRedis(t)
	ctx := context.Background()
	cache := NewResultCache(rs)

	userID := time.Now().UnixNano()
	key := core.CollaborativeCacheKey(userID, 10)
	t.Cleanup(func() {
		_ = rs.Delete(ctx, key)
		_ = rs.Delete(ctx, core.UserCacheIndexKey(userID))
	})

	scores := []*core.RecommendationScore{
		{UserID: 2, Score: 0.8, AlgorithmType: core.AlgorithmCollaborative},
	}
	if err := cache.Set(ctx, userID, key, scores, 60); err != nil {
		t.Fatalf("Set 失败: %v", err)
	}
	got, err := cache.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get 失败: %v", err)
	}
	if len(got) != 1 || got[0].UserID != 2 {
		t.Errorf("缓存回读 = %+v", got)
	}

	if err := cache.InvalidateUser(ctx, userID); err != nil {
		t.Fatalf("InvalidateUser 失败: %v", err)
	}
	got, err = cache.Get(ctx, key)
	if err != nil || got != nil {
		t.Errorf("失效后应未命中, 实际 (%+v, %v)", got, err)
	}
}
