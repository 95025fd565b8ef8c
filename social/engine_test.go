package social

import (
	"context"
	"math"
	"testing"

	"github.com/ljyh223/foodieconnect-recommend/config"
	"github.com/ljyh223/foodieconnect-recommend/core"
	"github.com/ljyh223/foodieconnect-recommend/repo/memrepo"
	"github.com/ljyh223/foodieconnect-recommend/visit"
)

func rating(v float64) *float64 { return &v }

// newFixture 构造一个两跳网络：
//
//	1 → 2 → 3（3 是 1 的二度关注）
//	1 → 4, 4 → 3（3 经由 2 和 4 都可达，共同关注数 2）
//	5 与 1 无任何社交关系
func newFixture(t *testing.T) *Engine {
	t.Helper()

	follows := memrepo.NewFollowRepo()
	follows.Follow(1, 2)
	follows.Follow(1, 4)
	follows.Follow(2, 3)
	follows.Follow(4, 3)

	visits := memrepo.NewVisitRepo()
	visits.Add(
		&core.Visit{UserID: 1, RestaurantID: 10, VisitType: core.VisitTypeReview, Rating: rating(5.0), VisitCount: 1},
		&core.Visit{UserID: 1, RestaurantID: 20, VisitType: core.VisitTypeReview, Rating: rating(4.0), VisitCount: 1},
		&core.Visit{UserID: 3, RestaurantID: 10, VisitType: core.VisitTypeReview, Rating: rating(4.5), VisitCount: 1},
		&core.Visit{UserID: 3, RestaurantID: 20, VisitType: core.VisitTypeReview, Rating: rating(4.0), VisitCount: 1},
		&core.Visit{UserID: 5, RestaurantID: 10, VisitType: core.VisitTypeReview, Rating: rating(5.0), VisitCount: 1},
	)

	agg := visit.NewAggregator(visits, nil)
	return NewEngine(agg, follows, nil, nil, config.Default(), nil)
}

func TestEngine_BuildNetwork(t *testing.T) {
	engine := newFixture(t)

	network, err := engine.BuildNetwork(context.Background(), 1)
	if err != nil {
		t.Fatalf("BuildNetwork() 失败: %v", err)
	}

	if len(network.FirstDegree) != 2 {
		t.Errorf("一度关注 = %v, 期望 [2 4]", network.FirstDegree)
	}
	if len(network.SecondDegree) != 1 || network.SecondDegree[0] != 3 {
		t.Errorf("二度关注 = %v, 期望 [3]", network.SecondDegree)
	}
	if got := len(network.MutualFollows[3]); got != 2 {
		t.Errorf("用户 3 的可达路径数 = %d, 期望 2", got)
	}
}

func TestEngine_Recommend_SecondDegreeOnly(t *testing.T) {
	engine := newFixture(t)

	scores, err := engine.Recommend(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("Recommend() 失败: %v", err)
	}
	if len(scores) != 1 {
		t.Fatalf("期望 1 个候选，实际 %d", len(scores))
	}

	got := scores[0]
	if got.UserID != 3 {
		t.Errorf("候选应为二度用户 3，实际 %d", got.UserID)
	}
	if got.SocialDistance != 2 {
		t.Errorf("社交距离 = %d, 期望 2", got.SocialDistance)
	}
	if got.MutualFollowCount != 2 {
		t.Errorf("共同关注数 = %d, 期望 2", got.MutualFollowCount)
	}
	if got.AlgorithmType != core.AlgorithmSocial {
		t.Errorf("算法标签 = %q", got.AlgorithmType)
	}
	if got.Score < 0 || got.Score > 1 {
		t.Errorf("分数 %v 越界", got.Score)
	}
	// 理由应提及共同关注
	if got.Reason != "你们有 2 个共同关注，且餐厅品味相似" {
		t.Errorf("推荐理由 = %q", got.Reason)
	}
}

func TestEngine_Recommend_ExcludesDirectFollows(t *testing.T) {
	engine := newFixture(t)

	scores, err := engine.Recommend(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("Recommend() 失败: %v", err)
	}
	for _, s := range scores {
		if s.UserID == 2 || s.UserID == 4 {
			t.Errorf("已关注的用户 %d 不应出现在结果中", s.UserID)
		}
		if s.UserID == 1 {
			t.Error("目标用户自己不应出现在结果中")
		}
		if s.UserID == 5 {
			t.Error("网络外的用户 5 不应出现在结果中")
		}
	}
}

func TestEngine_Recommend_NoSocialGraph(t *testing.T) {
	engine := newFixture(t)

	scores, err := engine.Recommend(context.Background(), 5, 10)
	if err != nil {
		t.Fatalf("无社交关系不应是错误: %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("无社交关系时应返回空列表，实际 %d 条", len(scores))
	}
}

func TestEngine_ProximityScore(t *testing.T) {
	engine := newFixture(t)

	tests := []struct {
		name        string
		distance    int
		mutualCount int
		expected    float64
	}{
		{"一度无共同关注", 1, 0, 1.0},
		{"一度叠加奖励后封顶", 1, 3, 1.0},
		{"二度无共同关注", 2, 0, 0.5},
		{"二度两个共同关注", 2, 2, 0.9},
		{"二度奖励封顶", 2, 100, 1.0},
		{"网络外兜底权重", 3, 0, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.proximityScore(tt.distance, tt.mutualCount)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("proximityScore(%d, %d) = %v, 期望 %v", tt.distance, tt.mutualCount, got, tt.expected)
			}
		})
	}
}

func TestEngine_Score(t *testing.T) {
	engine := newFixture(t)
	ctx := context.Background()

	// 自己
	if got, _ := engine.Score(ctx, 1, 1); got != 0 {
		t.Errorf("自己的社交分应为 0, 实际 %v", got)
	}
	// 直接关注：一度
	got, err := engine.Score(ctx, 1, 2)
	if err != nil {
		t.Fatalf("Score() 失败: %v", err)
	}
	if got != 1.0 {
		t.Errorf("一度社交分 = %v, 期望 1.0", got)
	}
	// 二度：0.5 + 2×0.2
	got, err = engine.Score(ctx, 1, 3)
	if err != nil {
		t.Fatalf("Score() 失败: %v", err)
	}
	if math.Abs(got-0.9) > 1e-9 {
		t.Errorf("二度社交分 = %v, 期望 0.9", got)
	}
	// 网络外
	if got, _ := engine.Score(ctx, 1, 5); got != 0 {
		t.Errorf("网络外社交分应为 0, 实际 %v", got)
	}
}
