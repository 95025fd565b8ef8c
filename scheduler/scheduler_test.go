package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/ljyh223/foodieconnect-recommend/config"
	"github.com/ljyh223/foodieconnect-recommend/core"
	"github.com/ljyh223/foodieconnect-recommend/popular"
	"github.com/ljyh223/foodieconnect-recommend/repo/memrepo"
	"github.com/ljyh223/foodieconnect-recommend/similarity"
	"github.com/ljyh223/foodieconnect-recommend/store"
	"github.com/ljyh223/foodieconnect-recommend/visit"
)

func rating(v float64) *float64 { return &v }

func newFixture(t *testing.T) (*Scheduler, *memrepo.SimilarityRepo, *memrepo.RecordRepo, *store.MemoryStore) {
	t.Helper()
	now := time.Now()

	visits := memrepo.NewVisitRepo()
	visits.Add(
		&core.Visit{UserID: 1, RestaurantID: 10, VisitType: core.VisitTypeReview, Rating: rating(5.0), VisitCount: 1, LastVisitTime: now},
		&core.Visit{UserID: 1, RestaurantID: 20, VisitType: core.VisitTypeReview, Rating: rating(4.0), VisitCount: 1, LastVisitTime: now},
		&core.Visit{UserID: 2, RestaurantID: 10, VisitType: core.VisitTypeReview, Rating: rating(4.5), VisitCount: 1, LastVisitTime: now},
		&core.Visit{UserID: 2, RestaurantID: 20, VisitType: core.VisitTypeReview, Rating: rating(4.0), VisitCount: 1, LastVisitTime: now},
	)
	follows := memrepo.NewFollowRepo()
	pairs := memrepo.NewSimilarityRepo()
	records := memrepo.NewRecordRepo()

	cfg := config.Default()
	kv := store.NewMemoryStore()
	t.Cleanup(func() { _ = kv.Close() })

	agg := visit.NewAggregator(visits, nil)
	collab := similarity.NewEngine(agg, visits, follows, pairs, nil, nil, cfg, nil)
	popularEngine := popular.NewEngine(visits, follows, nil, nil, cfg, nil)

	s := New(collab, popularEngine, visits, pairs, records, kv, cfg, nil)
	return s, pairs, records, kv
}

func TestScheduler_RefreshSimilarities(t *testing.T) {
	s, pairs, _, _ := newFixture(t)

	s.RefreshSimilarities(context.Background())

	// 用户 1、2 互为高相似，应各刷出同一条（无序对去重）
	n, err := pairs.CountByUser(context.Background(), 1)
	if err != nil {
		t.Fatalf("CountByUser 失败: %v", err)
	}
	if n != 1 {
		t.Errorf("用户 1 的相似度条目数 = %d, 期望 1", n)
	}
}

func TestScheduler_Cleanup(t *testing.T) {
	s, pairs, records, _ := newFixture(t)
	ctx := context.Background()

	old := time.Now().AddDate(0, 0, -60)
	_ = pairs.Upsert(ctx, &core.SimilarityEntry{
		User1ID: 8, User2ID: 9, AlgorithmType: core.MethodCosine,
		SimilarityScore: 0.5, LastCalculated: old,
	})
	_ = records.Insert(ctx, &core.RecommendationRecord{
		UserID: 8, RecommendedUserID: 9, AlgorithmType: core.AlgorithmSocial, CreatedAt: old,
	})
	_ = records.Insert(ctx, &core.RecommendationRecord{
		UserID: 8, RecommendedUserID: 10, AlgorithmType: core.AlgorithmSocial, CreatedAt: time.Now(),
	})

	s.Cleanup(ctx)

	if n, _ := pairs.CountByUser(ctx, 8); n != 0 {
		t.Errorf("过期相似度条目应被清理, 剩余 %d", n)
	}
	if n, _ := records.CountByUserID(ctx, 8); n != 1 {
		t.Errorf("保留期内的记录应幸存, 剩余 %d", n)
	}
}

func TestScheduler_RefreshPopularLeaderboard(t *testing.T) {
	s, _, _, kv := newFixture(t)
	ctx := context.Background()

	s.RefreshPopularLeaderboard(ctx)

	members, err := kv.ZRange(ctx, core.PopularUsersKey, 0, -1)
	if err != nil {
		t.Fatalf("ZRange 失败: %v", err)
	}
	if len(members) != 2 {
		t.Errorf("热门榜成员数 = %d, 期望 2", len(members))
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s, _, _, _ := newFixture(t)

	s.Start(context.Background())
	// 重复 Start 幂等
	s.Start(context.Background())
	s.Stop()
	// 重复 Stop 幂等
	s.Stop()
}

func TestScheduler_StopBeforeRunStarts(t *testing.T) {
	s, _, _, _ := newFixture(t)

	// Stop 紧跟 Start：run 协程可能尚未被调度，
	// 退出通知不能依赖再次读取会被 Stop 清零的字段
	for i := 0; i < 50; i++ {
		s.Start(context.Background())
		s.Stop()
	}
}

func TestScheduler_DisabledByConfig(t *testing.T) {
	s, _, _, _ := newFixture(t)
	s.cfg.Performance.EnableScheduledTasks = false

	s.Start(context.Background())
	s.Stop()
}
