package store

import (
	"context"
	"testing"
	"time"

	"github.com/ljyh223/foodieconnect-recommend/core"
)

func TestMemoryStore_SetGet(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	if err := ms.Set(ctx, "k1", []byte("v1")); err != nil {
		t.Fatalf("Set 失败: %v", err)
	}
	val, err := ms.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get 失败: %v", err)
	}
	if string(val) != "v1" {
		t.Errorf("Get = %q, 期望 v1", val)
	}

	_, err = ms.Get(ctx, "missing")
	if !core.IsStoreNotFound(err) {
		t.Errorf("不存在的 key 应返回 NOT_FOUND, 实际 %v", err)
	}
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	if err := ms.Set(ctx, "ephemeral", []byte("v"), 1); err != nil {
		t.Fatalf("Set 失败: %v", err)
	}
	if _, err := ms.Get(ctx, "ephemeral"); err != nil {
		t.Fatalf("TTL 内应可读: %v", err)
	}

	time.Sleep(1100 * time.Millisecond)
	if _, err := ms.Get(ctx, "ephemeral"); !core.IsStoreNotFound(err) {
		t.Errorf("过期后应返回 NOT_FOUND, 实际 %v", err)
	}
}

func TestMemoryStore_ZSet(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	_ = ms.ZAdd(ctx, "board", 0.5, "b")
	_ = ms.ZAdd(ctx, "board", 0.9, "a")
	_ = ms.ZAdd(ctx, "board", 0.5, "c")

	members, err := ms.ZRange(ctx, "board", 0, -1)
	if err != nil {
		t.Fatalf("ZRange 失败: %v", err)
	}
	// score 降序，同分按 member 升序
	want := []string{"a", "b", "c"}
	if len(members) != len(want) {
		t.Fatalf("ZRange = %v, 期望 %v", members, want)
	}
	for i := range want {
		if members[i] != want[i] {
			t.Errorf("ZRange[%d] = %q, 期望 %q", i, members[i], want[i])
		}
	}

	top, err := ms.ZRange(ctx, "board", 0, 0)
	if err != nil || len(top) != 1 || top[0] != "a" {
		t.Errorf("ZRange(0,0) = %v, %v", top, err)
	}

	score, err := ms.ZScore(ctx, "board", "a")
	if err != nil || score != 0.9 {
		t.Errorf("ZScore(a) = %v, %v", score, err)
	}
	if _, err := ms.ZScore(ctx, "board", "missing"); !core.IsStoreNotFound(err) {
		t.Errorf("不存在的成员应返回 NOT_FOUND, 实际 %v", err)
	}
}

func TestMemoryStore_Hash(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()

	_ = ms.HSet(ctx, "h", "f1", []byte("v1"))
	_ = ms.HSet(ctx, "h", "f2", []byte("v2"))

	val, err := ms.HGet(ctx, "h", "f1")
	if err != nil || string(val) != "v1" {
		t.Errorf("HGet = %q, %v", val, err)
	}

	all, err := ms.HGetAll(ctx, "h")
	if err != nil || len(all) != 2 {
		t.Errorf("HGetAll = %v, %v", all, err)
	}

	// Delete 应同时清掉同名 Hash
	_ = ms.Delete(ctx, "h")
	all, _ = ms.HGetAll(ctx, "h")
	if len(all) != 0 {
		t.Errorf("Delete 后 Hash 应为空: %v", all)
	}
}

func TestResultCache_RoundTripAndInvalidate(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	cache := NewResultCache(ms)
	ctx := context.Background()

	key := core.CollaborativeCacheKey(1, 10)
	scores := []*core.RecommendationScore{
		{UserID: 2, Score: 0.8, AlgorithmType: core.AlgorithmCollaborative, Reason: "测试"},
		{UserID: 3, Score: 0.6, AlgorithmType: core.AlgorithmCollaborative},
	}

	if err := cache.Set(ctx, 1, key, scores, 60); err != nil {
		t.Fatalf("Set 失败: %v", err)
	}

	got, err := cache.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get 失败: %v", err)
	}
	if len(got) != 2 || got[0].UserID != 2 || got[0].Score != 0.8 {
		t.Errorf("缓存往返不一致: %+v", got)
	}

	// 未命中返回 (nil, nil)
	miss, err := cache.Get(ctx, core.SocialCacheKey(1, 10))
	if err != nil || miss != nil {
		t.Errorf("未命中应返回 (nil, nil): %v, %v", miss, err)
	}

	// 失效后原键不可再命中
	if err := cache.InvalidateUser(ctx, 1); err != nil {
		t.Fatalf("InvalidateUser 失败: %v", err)
	}
	got, err = cache.Get(ctx, key)
	if err != nil || got != nil {
		t.Errorf("失效后应未命中: %v, %v", got, err)
	}
}

func TestResultCache_CorruptEntryTreatedAsMiss(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	cache := NewResultCache(ms)
	ctx := context.Background()

	_ = ms.Set(ctx, "bad", []byte("{not json"))
	got, err := cache.Get(ctx, "bad")
	if err != nil || got != nil {
		t.Errorf("损坏条目应按未命中处理: %v, %v", got, err)
	}
}
