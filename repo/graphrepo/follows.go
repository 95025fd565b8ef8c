package graphrepo

import (
	"context"
	"fmt"

	"github.com/ljyh223/foodieconnect-recommend/core"
)

// FollowRepo 基于关注图实现 core.FollowRepository。
//
// 图模型：(:User {id}) -[:FOLLOWS]-> (:User {id})，无自环、边唯一。
type FollowRepo struct {
	client Client
}

var _ core.FollowRepository = (*FollowRepo)(nil)

// NewFollowRepo 创建关注仓储。
func NewFollowRepo(client Client) *FollowRepo {
	return &FollowRepo{client: client}
}

func (r *FollowRepo) IsFollowing(ctx context.Context, followerID, followingID int64) (bool, error) {
	res, err := r.client.ExecuteRead(ctx,
		`MATCH (a:User {id: $follower})
		 RETURN EXISTS((a)-[:FOLLOWS]->(:User {id: $following})) AS following`,
		map[string]any{"follower": followerID, "following": followingID})
	if err != nil {
		return false, err
	}
	if len(res.Records) == 0 {
		return false, nil
	}
	ok, _ := res.Records[0].Bool("following")
	return ok, nil
}

func (r *FollowRepo) GetFollowingIDs(ctx context.Context, userID int64) ([]int64, error) {
	res, err := r.client.ExecuteRead(ctx,
		`MATCH (:User {id: $id})-[:FOLLOWS]->(f:User)
		 RETURN f.id AS id ORDER BY id`,
		map[string]any{"id": userID})
	if err != nil {
		return nil, err
	}
	return collectIDs(res, "id")
}

func (r *FollowRepo) GetFollowersCount(ctx context.Context, userID int64) (int, error) {
	return r.count(ctx,
		`MATCH (:User)-[:FOLLOWS]->(:User {id: $id}) RETURN count(*) AS n`, userID)
}

func (r *FollowRepo) GetFollowingCount(ctx context.Context, userID int64) (int, error) {
	return r.count(ctx,
		`MATCH (:User {id: $id})-[:FOLLOWS]->(:User) RETURN count(*) AS n`, userID)
}

func (r *FollowRepo) GetMutualFollowIDs(ctx context.Context, user1ID, user2ID int64) ([]int64, error) {
	res, err := r.client.ExecuteRead(ctx,
		`MATCH (:User {id: $u1})-[:FOLLOWS]->(m:User)<-[:FOLLOWS]-(:User {id: $u2})
		 RETURN m.id AS id ORDER BY id`,
		map[string]any{"u1": user1ID, "u2": user2ID})
	if err != nil {
		return nil, err
	}
	return collectIDs(res, "id")
}

// Follow 建立关注边，边与端点都按需创建（上游同步关注动作时使用）。
func (r *FollowRepo) Follow(ctx context.Context, followerID, followingID int64) error {
	if followerID == followingID {
		return nil
	}
	_, err := r.client.ExecuteWrite(ctx,
		`MERGE (a:User {id: $follower})
		 MERGE (b:User {id: $following})
		 MERGE (a)-[:FOLLOWS]->(b)`,
		map[string]any{"follower": followerID, "following": followingID})
	return err
}

// Unfollow 删除关注边，不存在时为空操作。
func (r *FollowRepo) Unfollow(ctx context.Context, followerID, followingID int64) error {
	_, err := r.client.ExecuteWrite(ctx,
		`MATCH (:User {id: $follower})-[e:FOLLOWS]->(:User {id: $following}) DELETE e`,
		map[string]any{"follower": followerID, "following": followingID})
	return err
}

func (r *FollowRepo) count(ctx context.Context, cypher string, userID int64) (int, error) {
	res, err := r.client.ExecuteRead(ctx, cypher, map[string]any{"id": userID})
	if err != nil {
		return 0, err
	}
	if len(res.Records) == 0 {
		return 0, nil
	}
	n, ok := res.Records[0].Int64("n")
	if !ok {
		return 0, fmt.Errorf("unexpected count result: %v", res.Records[0]["n"])
	}
	return int(n), nil
}

func collectIDs(res Result, key string) ([]int64, error) {
	out := make([]int64, 0, len(res.Records))
	for _, rec := range res.Records {
		id, ok := rec.Int64(key)
		if !ok {
			return nil, fmt.Errorf("unexpected id value: %v", rec[key])
		}
		out = append(out, id)
	}
	return out, nil
}
