package graphrepo

// 集成测试：需要一个可写的 Neo4j 实例。
// 设置 TEST_NEO4J_URI（如 bolt://localhost:7687），可选 TEST_NEO4J_USER / TEST_NEO4J_PASSWORD。

import (
	"context"
	"os"
	"testing"
	"time"
)

func testClient(t *testing.T) Client {
	t.Helper()
	uri := os.Getenv("TEST_NEO4J_URI")
	if uri == "" {
		t.Skip("TEST_NEO4J_URI 未设置，跳过集成测试")
	}

	ctx := context.Background()
	client, err := NewNeo4jClient(ctx, Options{
		URI:      uri,
		Username: os.Getenv("TEST_NEO4J_USER"),
		Password: os.Getenv("TEST_NEO4J_PASSWORD"),
	})
	if err != nil {
		t.Fatalf("NewNeo4jClient 失败: %v", err)
	}
	t.Cleanup(func() { _ = client.Close(ctx) })
	return client
}

func TestFollowRepo_Neo4j(t *testing.T) {
	client := testClient(t)
	repo := NewFollowRepo(client)
	ctx := context.Background()

	// 每次运行使用独立的 ID 段，结束后整段删除
	base := time.Now().UnixNano()
	a, b, c := base+1, base+2, base+3
	t.Cleanup(func() {
		_, _ = client.ExecuteWrite(ctx,
			`MATCH (u:User) WHERE u.id >= $base DETACH DELETE u`,
			map[string]any{"base": base})
	})

	// a→b, a→c, b→c：b 与 c 无共同关注，a 视角下 b/c 均有
	for _, edge := range [][2]int64{{a, b}, {a, c}, {b, c}} {
		if err := repo.Follow(ctx, edge[0], edge[1]); err != nil {
			t.Fatalf("Follow(%d→%d) 失败: %v", edge[0], edge[1], err)
		}
	}

	following, err := repo.IsFollowing(ctx, a, b)
	if err != nil {
		t.Fatalf("IsFollowing 失败: %v", err)
	}
	if !following {
		t.Error("a 应关注 b")
	}
	if following, _ = repo.IsFollowing(ctx, b, a); following {
		t.Error("b 不应关注 a")
	}

	ids, err := repo.GetFollowingIDs(ctx, a)
	if err != nil {
		t.Fatalf("GetFollowingIDs 失败: %v", err)
	}
	if len(ids) != 2 || ids[0] != b || ids[1] != c {
		t.Errorf("a 的关注列表 = %v, 期望 [%d %d]（按 id 升序）", ids, b, c)
	}

	if n, _ := repo.GetFollowersCount(ctx, c); n != 2 {
		t.Errorf("c 的粉丝数 = %d, 期望 2", n)
	}
	if n, _ := repo.GetFollowingCount(ctx, a); n != 2 {
		t.Errorf("a 的关注数 = %d, 期望 2", n)
	}

	// a 与 b 的共同关注只有 c
	mutual, err := repo.GetMutualFollowIDs(ctx, a, b)
	if err != nil {
		t.Fatalf("GetMutualFollowIDs 失败: %v", err)
	}
	if len(mutual) != 1 || mutual[0] != c {
		t.Errorf("共同关注 = %v, 期望 [%d]", mutual, c)
	}

	// Follow 幂等（MERGE 不产生重复边）
	if err := repo.Follow(ctx, a, b); err != nil {
		t.Fatalf("重复 Follow 失败: %v", err)
	}
	if n, _ := repo.GetFollowingCount(ctx, a); n != 2 {
		t.Errorf("重复 Follow 后关注数 = %d, 期望仍为 2", n)
	}

	if err := repo.Unfollow(ctx, a, b); err != nil {
		t.Fatalf("Unfollow 失败: %v", err)
	}
	if following, _ = repo.IsFollowing(ctx, a, b); following {
		t.Error("Unfollow 后 a 不应再关注 b")
	}
}
