package similarity

import (
	"context"
	"testing"

	"github.com/ljyh223/foodieconnect-recommend/config"
	"github.com/ljyh223/foodieconnect-recommend/core"
	"github.com/ljyh223/foodieconnect-recommend/repo/memrepo"
	"github.com/ljyh223/foodieconnect-recommend/store"
	"github.com/ljyh223/foodieconnect-recommend/visit"
)

func rating(v float64) *float64 { return &v }

// newFixture 构造一个三用户场景：
//
//	用户 1（目标）：餐厅 10 评 5.0、餐厅 20 评 4.0
//	用户 2：同样去过 10、20，口味几乎一致（高相似候选）
//	用户 3：只去过无关餐厅 99（不在候选矩阵中）
//	用户 4：去过餐厅 10，但被用户 1 关注（应被排除）
func newFixture(t *testing.T) (*Engine, *memrepo.VisitRepo, *memrepo.FollowRepo) {
	t.Helper()

	visits := memrepo.NewVisitRepo()
	visits.Add(
		&core.Visit{UserID: 1, RestaurantID: 10, VisitType: core.VisitTypeReview, Rating: rating(5.0), VisitCount: 1},
		&core.Visit{UserID: 1, RestaurantID: 20, VisitType: core.VisitTypeReview, Rating: rating(4.0), VisitCount: 1},
		&core.Visit{UserID: 2, RestaurantID: 10, VisitType: core.VisitTypeReview, Rating: rating(4.5), VisitCount: 1},
		&core.Visit{UserID: 2, RestaurantID: 20, VisitType: core.VisitTypeReview, Rating: rating(4.0), VisitCount: 1},
		&core.Visit{UserID: 3, RestaurantID: 99, VisitType: core.VisitTypeReview, Rating: rating(5.0), VisitCount: 1},
		&core.Visit{UserID: 4, RestaurantID: 10, VisitType: core.VisitTypeReview, Rating: rating(5.0), VisitCount: 1},
	)

	follows := memrepo.NewFollowRepo()
	follows.Follow(1, 4)

	users := memrepo.NewUserDirectory()
	users.Put(
		&core.UserInfo{ID: 2, Name: "小吃货", AvatarURL: "http://img/2.png"},
	)

	cfg := config.Default()
	agg := visit.NewAggregator(visits, nil)
	cache := store.NewResultCache(store.NewMemoryStore())
	engine := NewEngine(agg, visits, follows, memrepo.NewSimilarityRepo(), users, cache, cfg, nil)
	return engine, visits, follows
}

func TestEngine_Recommend(t *testing.T) {
	engine, _, _ := newFixture(t)
	ctx := context.Background()

	scores, err := engine.Recommend(ctx, 1, 10)
	if err != nil {
		t.Fatalf("Recommend() 失败: %v", err)
	}
	if len(scores) != 1 {
		t.Fatalf("期望 1 个候选，实际 %d", len(scores))
	}

	got := scores[0]
	if got.UserID != 2 {
		t.Errorf("候选应为用户 2，实际 %d", got.UserID)
	}
	if got.AlgorithmType != core.AlgorithmCollaborative {
		t.Errorf("算法标签 = %q", got.AlgorithmType)
	}
	if got.Similarity < 0.3 {
		t.Errorf("相似度 %v 不应低于阈值", got.Similarity)
	}
	if got.CommonRestaurants != 2 {
		t.Errorf("共同餐厅数 = %d, 期望 2", got.CommonRestaurants)
	}
	if got.Score < 0 || got.Score > 1 {
		t.Errorf("分数 %v 越界", got.Score)
	}
	if got.UserName != "小吃货" {
		t.Errorf("昵称未填充: %q", got.UserName)
	}
	if got.Reason == "" {
		t.Error("推荐理由不应为空")
	}
}

func TestEngine_Recommend_ExcludesFollowed(t *testing.T) {
	engine, _, _ := newFixture(t)

	scores, err := engine.Recommend(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("Recommend() 失败: %v", err)
	}
	for _, s := range scores {
		if s.UserID == 4 {
			t.Error("已关注的用户 4 不应出现在结果中")
		}
		if s.UserID == 1 {
			t.Error("目标用户自己不应出现在结果中")
		}
	}
}

func TestEngine_Recommend_NoData(t *testing.T) {
	visits := memrepo.NewVisitRepo()
	engine := NewEngine(
		visit.NewAggregator(visits, nil), visits, memrepo.NewFollowRepo(),
		nil, nil, nil, config.Default(), nil)

	scores, err := engine.Recommend(context.Background(), 42, 10)
	if err != nil {
		t.Fatalf("数据不足不应是错误: %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("无数据时应返回空列表，实际 %d 条", len(scores))
	}
}

func TestEngine_Recommend_CacheShortCircuit(t *testing.T) {
	engine, visits, _ := newFixture(t)
	ctx := context.Background()

	first, err := engine.Recommend(ctx, 1, 10)
	if err != nil {
		t.Fatalf("第一次 Recommend() 失败: %v", err)
	}

	// 第一次调用后写入新数据；TTL 内第二次调用应命中缓存，结果不变
	visits.Add(
		&core.Visit{UserID: 5, RestaurantID: 10, VisitType: core.VisitTypeReview, Rating: rating(5.0), VisitCount: 1},
		&core.Visit{UserID: 5, RestaurantID: 20, VisitType: core.VisitTypeReview, Rating: rating(4.0), VisitCount: 1},
	)

	second, err := engine.Recommend(ctx, 1, 10)
	if err != nil {
		t.Fatalf("第二次 Recommend() 失败: %v", err)
	}
	if len(second) != len(first) {
		t.Errorf("缓存命中时结果应不变: 第一次 %d 条, 第二次 %d 条", len(first), len(second))
	}
}

func TestEngine_PairSimilarity_UsesCachedEntry(t *testing.T) {
	engine, _, _ := newFixture(t)
	ctx := context.Background()

	sim1, common1, err := engine.PairSimilarity(ctx, 1, 2, core.MethodCosine)
	if err != nil {
		t.Fatalf("PairSimilarity() 失败: %v", err)
	}
	// 第二次走相似度对缓存，顺序颠倒也应命中（无序对归一化）
	sim2, common2, err := engine.PairSimilarity(ctx, 2, 1, core.MethodCosine)
	if err != nil {
		t.Fatalf("反向 PairSimilarity() 失败: %v", err)
	}
	if sim1 != sim2 || common1 != common2 {
		t.Errorf("无序对缓存未命中: (%v,%d) vs (%v,%d)", sim1, common1, sim2, common2)
	}
}

func TestEngine_RefreshUserSimilarities(t *testing.T) {
	engine, _, _ := newFixture(t)

	n, err := engine.RefreshUserSimilarities(context.Background(), 1)
	if err != nil {
		t.Fatalf("RefreshUserSimilarities() 失败: %v", err)
	}
	// 用户 2 与用户 4 都和目标高度相似（刷新不做关注排除）
	if n != 2 {
		t.Errorf("期望刷新 2 条，实际 %d", n)
	}
}
