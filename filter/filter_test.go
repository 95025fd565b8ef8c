package filter

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ljyh223/foodieconnect-recommend/core"
	"github.com/ljyh223/foodieconnect-recommend/repo/memrepo"
	"github.com/ljyh223/foodieconnect-recommend/store"
)

func score(userID int64) *core.RecommendationScore {
	return &core.RecommendationScore{UserID: userID, Score: 0.5, AlgorithmType: core.AlgorithmCollaborative}
}

func TestExclusionFilter(t *testing.T) {
	follows := memrepo.NewFollowRepo()
	follows.Follow(1, 2)

	f := NewExclusionFilter(follows)
	ctx := context.Background()

	tests := []struct {
		name      string
		candidate *core.RecommendationScore
		want      bool
	}{
		{"过滤自己", score(1), true},
		{"过滤已关注", score(2), true},
		{"保留陌生人", score(3), false},
		{"过滤空候选", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.ShouldFilter(ctx, 1, tt.candidate)
			if err != nil {
				t.Fatalf("ShouldFilter 失败: %v", err)
			}
			if got != tt.want {
				t.Errorf("ShouldFilter = %v, 期望 %v", got, tt.want)
			}
		})
	}
}

func TestExposedFilter(t *testing.T) {
	records := memrepo.NewRecordRepo()
	ctx := context.Background()
	_ = records.Insert(ctx, &core.RecommendationRecord{
		UserID: 1, RecommendedUserID: 2, AlgorithmType: core.AlgorithmCollaborative, Score: 0.8,
	})

	f := NewExposedFilter(records)

	got, err := f.ShouldFilter(ctx, 1, score(2))
	if err != nil {
		t.Fatalf("ShouldFilter 失败: %v", err)
	}
	if !got {
		t.Error("推荐过的用户 2 应被过滤")
	}

	got, _ = f.ShouldFilter(ctx, 1, score(3))
	if got {
		t.Error("未推荐过的用户 3 应保留")
	}

	// 懒加载集合在 Reset 前不会看到新写入的记录
	_ = records.Insert(ctx, &core.RecommendationRecord{
		UserID: 1, RecommendedUserID: 3, AlgorithmType: core.AlgorithmSocial, Score: 0.5,
	})
	got, _ = f.ShouldFilter(ctx, 1, score(3))
	if got {
		t.Error("Reset 前应继续使用已加载的集合")
	}
	f.Reset()
	got, _ = f.ShouldFilter(ctx, 1, score(3))
	if !got {
		t.Error("Reset 后应看到新记录")
	}
}

func TestBlockFilter(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	t.Cleanup(func() { _ = kv.Close() })

	blocked, _ := json.Marshal([]int64{7})
	_ = kv.Set(ctx, "block:1", blocked)

	f := NewBlockFilter([]int64{99}, kv, "")

	if got, _ := f.ShouldFilter(ctx, 1, score(99)); !got {
		t.Error("全局屏蔽名单中的用户应被过滤")
	}
	if got, _ := f.ShouldFilter(ctx, 1, score(7)); !got {
		t.Error("用户拉黑名单中的候选应被过滤")
	}
	if got, _ := f.ShouldFilter(ctx, 1, score(8)); got {
		t.Error("未拉黑的候选应保留")
	}
	// 其他用户不受用户 1 的拉黑名单影响
	if got, _ := f.ShouldFilter(ctx, 2, score(7)); got {
		t.Error("拉黑名单按用户隔离")
	}

	// 名单更新后 Reset 生效
	blocked, _ = json.Marshal([]int64{7, 8})
	_ = kv.Set(ctx, "block:1", blocked)
	if got, _ := f.ShouldFilter(ctx, 1, score(8)); got {
		t.Error("Reset 前应继续使用已加载的集合")
	}
	f.Reset()
	if got, _ := f.ShouldFilter(ctx, 1, score(8)); !got {
		t.Error("Reset 后应看到新名单")
	}
}

func TestRuleFilter(t *testing.T) {
	ctx := context.Background()

	t.Run("按分数过滤", func(t *testing.T) {
		f, err := NewRuleFilter(`candidate.score < 0.3`)
		if err != nil {
			t.Fatalf("NewRuleFilter 失败: %v", err)
		}

		low := &core.RecommendationScore{UserID: 2, Score: 0.1}
		high := &core.RecommendationScore{UserID: 3, Score: 0.9}

		if got, _ := f.ShouldFilter(ctx, 1, low); !got {
			t.Error("低分候选应被过滤")
		}
		if got, _ := f.ShouldFilter(ctx, 1, high); got {
			t.Error("高分候选应保留")
		}
	})

	t.Run("按算法与社交字段组合过滤", func(t *testing.T) {
		f, err := NewRuleFilter(`candidate.algorithm_type == "popular_fallback" && candidate.mutual_follow_count == 0`)
		if err != nil {
			t.Fatalf("NewRuleFilter 失败: %v", err)
		}

		fallback := &core.RecommendationScore{UserID: 2, AlgorithmType: core.AlgorithmPopularFallback}
		if got, _ := f.ShouldFilter(ctx, 1, fallback); !got {
			t.Error("无社交关联的兜底候选应被过滤")
		}

		social := &core.RecommendationScore{UserID: 3, AlgorithmType: core.AlgorithmPopularFallback, MutualFollowCount: 2}
		if got, _ := f.ShouldFilter(ctx, 1, social); got {
			t.Error("有共同关注的候选应保留")
		}
	})

	t.Run("空表达式不过滤", func(t *testing.T) {
		f, err := NewRuleFilter("")
		if err != nil {
			t.Fatalf("NewRuleFilter 失败: %v", err)
		}
		if got, _ := f.ShouldFilter(ctx, 1, score(2)); got {
			t.Error("空表达式不应过滤任何候选")
		}
	})

	t.Run("非法表达式编译失败", func(t *testing.T) {
		if _, err := NewRuleFilter(`candidate.score <`); err == nil {
			t.Error("非法表达式应在构造时报错")
		}
	})
}

func TestFilterNode_Process(t *testing.T) {
	follows := memrepo.NewFollowRepo()
	follows.Follow(1, 2)

	node := &FilterNode{Filters: []Filter{NewExclusionFilter(follows)}}
	in := []*core.RecommendationScore{score(2), score(3), nil, score(1)}

	out, err := node.Process(context.Background(), 1, in)
	if err != nil {
		t.Fatalf("Process 失败: %v", err)
	}
	if len(out) != 1 || out[0].UserID != 3 {
		t.Errorf("期望只保留用户 3, 实际 %+v", out)
	}
}
