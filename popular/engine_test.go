package popular

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/ljyh223/foodieconnect-recommend/config"
	"github.com/ljyh223/foodieconnect-recommend/core"
	"github.com/ljyh223/foodieconnect-recommend/repo/memrepo"
	"github.com/ljyh223/foodieconnect-recommend/store"
)

func rating(v float64) *float64 { return &v }

// newFixture 构造兜底场景：
//
//	用户 1（目标）：有一条访问，关注了用户 2
//	用户 2：活跃但已被关注（应被排除）
//	用户 3：高人气候选（50 粉丝，大量访问）
//	用户 4：低人气候选
func newFixture(t *testing.T, kv core.KeyValueStore) *Engine {
	t.Helper()

	now := time.Now()
	visits := memrepo.NewVisitRepo()
	visits.Add(
		&core.Visit{UserID: 1, RestaurantID: 10, VisitType: core.VisitTypeReview, Rating: rating(5.0), VisitCount: 1, LastVisitTime: now},
		&core.Visit{UserID: 2, RestaurantID: 10, VisitType: core.VisitTypeReview, Rating: rating(4.0), VisitCount: 1, LastVisitTime: now},
		&core.Visit{UserID: 4, RestaurantID: 20, VisitType: core.VisitTypeCheckIn, VisitCount: 1, LastVisitTime: now},
	)
	// 用户 3：25 条访问、10 家餐厅
	for i := 0; i < 25; i++ {
		visits.Add(&core.Visit{
			UserID: 3, RestaurantID: int64(100 + i%10),
			VisitType: core.VisitTypeReview, Rating: rating(4.5), VisitCount: 1, LastVisitTime: now,
		})
	}

	follows := memrepo.NewFollowRepo()
	follows.Follow(1, 2)
	for i := int64(0); i < 50; i++ {
		follows.Follow(1000+i, 3)
	}

	users := memrepo.NewUserDirectory()
	users.Put(&core.UserInfo{ID: 3, Name: "美食达人"})

	return NewEngine(visits, follows, users, kv, config.Default(), nil)
}

func TestEngine_Recommend(t *testing.T) {
	engine := newFixture(t, nil)

	scores, err := engine.Recommend(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("Recommend() 失败: %v", err)
	}
	if len(scores) == 0 {
		t.Fatal("期望非空结果")
	}

	// 高人气的用户 3 应排第一
	if scores[0].UserID != 3 {
		t.Errorf("第一名 = %d, 期望 3", scores[0].UserID)
	}
	for _, s := range scores {
		if s.UserID == 1 {
			t.Error("目标用户自己不应出现在结果中")
		}
		if s.UserID == 2 {
			t.Error("已关注的用户 2 不应出现在结果中")
		}
		if s.AlgorithmType != core.AlgorithmPopularFallback {
			t.Errorf("算法标签 = %q", s.AlgorithmType)
		}
		if s.Score < 0 || s.Score > 1 {
			t.Errorf("分数 %v 越界", s.Score)
		}
		if s.Reason == "" {
			t.Error("推荐理由不应为空")
		}
	}

	// 理由应带上已填充的昵称
	if !strings.HasPrefix(scores[0].Reason, "美食达人") {
		t.Errorf("理由应以昵称开头: %q", scores[0].Reason)
	}
}

func TestEngine_Popularity(t *testing.T) {
	engine := newFixture(t, nil)

	got, err := engine.Popularity(context.Background(), 3)
	if err != nil {
		t.Fatalf("Popularity() 失败: %v", err)
	}
	// 50 粉丝、25 访问、10 餐厅：
	// 0.5×0.5 + 0.5×0.3 + 0.5×0.2 = 0.5
	if math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Popularity = %v, 期望 0.5", got)
	}
}

func TestEngine_Recommend_LeaderboardFastPath(t *testing.T) {
	kv := store.NewMemoryStore()
	defer kv.Close()

	// 热门榜只登记用户 4：快路径应只考虑榜上的候选
	if err := kv.ZAdd(context.Background(), core.PopularUsersKey, 0.3, "4"); err != nil {
		t.Fatalf("ZAdd 失败: %v", err)
	}

	engine := newFixture(t, kv)
	scores, err := engine.Recommend(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("Recommend() 失败: %v", err)
	}
	if len(scores) != 1 || scores[0].UserID != 4 {
		t.Errorf("快路径应只返回榜上用户 4, 实际 %+v", scores)
	}
}

func TestPopularReason_Tiers(t *testing.T) {
	tests := []struct {
		popularity float64
		want       string
	}{
		{0.9, "小明是平台活跃用户，有很多餐厅体验分享"},
		{0.7, "小明经常分享餐厅体验，值得关注"},
		{0.3, "小明在社区中比较活跃"},
	}
	for _, tt := range tests {
		if got := popularReason("小明", tt.popularity); got != tt.want {
			t.Errorf("popularReason(%v) = %q, 期望 %q", tt.popularity, got, tt.want)
		}
	}
	if got := popularReason("", 0.3); got != "TA在社区中比较活跃" {
		t.Errorf("空昵称应使用 TA: %q", got)
	}
}
