// Package social 实现社交推荐引擎：
// 基于关注关系图的两跳网络，推荐社交上邻近且口味相似的用户。
//
// 距离约定：一度 = 直接关注（权重 1.0，但已关注用户会被排除出结果），
// 二度 = 关注的人关注的人（权重 0.5，叠加共同关注奖励）。
package social

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/ljyh223/foodieconnect-recommend/config"
	"github.com/ljyh223/foodieconnect-recommend/core"
	"github.com/ljyh223/foodieconnect-recommend/pkg/utils"
	"github.com/ljyh223/foodieconnect-recommend/similarity"
	"github.com/ljyh223/foodieconnect-recommend/store"
	"github.com/ljyh223/foodieconnect-recommend/visit"
)

// Network 是以目标用户为中心的两跳社交网络。
type Network struct {
	FirstDegree   []int64           // 一度关注（直接关注的人）
	SecondDegree  []int64           // 二度关注（去重，不含自己与一度）
	MutualFollows map[int64][]int64 // 二度候选 -> 经由哪些一度关注可达
}

// Engine 是社交推荐引擎。
type Engine struct {
	agg     *visit.Aggregator
	follows core.FollowRepository
	users   core.UserDirectory
	cache   *store.ResultCache
	cfg     *config.Config
	log     *zap.Logger

	sf singleflight.Group
}

// NewEngine 创建社交推荐引擎。users / cache 允许为 nil。
func NewEngine(
	agg *visit.Aggregator,
	follows core.FollowRepository,
	users core.UserDirectory,
	cache *store.ResultCache,
	cfg *config.Config,
	logger *zap.Logger,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		agg:     agg,
		follows: follows,
		users:   users,
		cache:   cache,
		cfg:     cfg,
		log:     logger,
	}
}

// Recommend 为目标用户生成社交推荐。
// 没有社交关系或没有餐厅偏好数据时返回空列表，不是错误。
func (e *Engine) Recommend(ctx context.Context, userID int64, limit int) ([]*core.RecommendationScore, error) {
	if limit <= 0 {
		limit = e.cfg.Collaborative.DefaultRecommendationCount
	}

	cacheKey := core.SocialCacheKey(userID, limit)
	if e.cacheEnabled() {
		cached, err := e.cache.Get(ctx, cacheKey)
		if err != nil {
			return nil, err
		}
		if cached != nil {
			e.log.Debug("社交推荐命中结果缓存", zap.Int64("user_id", userID), zap.String("key", cacheKey))
			return cached, nil
		}
	}

	v, err, _ := e.sf.Do(cacheKey, func() (any, error) {
		return e.compute(ctx, userID, limit, cacheKey)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*core.RecommendationScore), nil
}

func (e *Engine) cacheEnabled() bool {
	return e.cache != nil && e.cfg.Cache.Enabled
}

func (e *Engine) compute(ctx context.Context, userID int64, limit int, cacheKey string) ([]*core.RecommendationScore, error) {
	e.log.Info("开始生成社交推荐", zap.Int64("user_id", userID), zap.Int("limit", limit))

	network, err := e.BuildNetwork(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(network.FirstDegree) == 0 && len(network.SecondDegree) == 0 {
		e.log.Warn("用户没有社交关系，无法生成社交推荐", zap.Int64("user_id", userID))
		return []*core.RecommendationScore{}, nil
	}

	targetVector, err := e.agg.Vector(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(targetVector) == 0 {
		e.log.Warn("用户没有餐厅偏好数据", zap.Int64("user_id", userID))
		return []*core.RecommendationScore{}, nil
	}

	excluded := map[int64]struct{}{userID: {}}
	for _, id := range network.FirstDegree {
		excluded[id] = struct{}{}
	}

	firstPool, err := e.scorePool(ctx, network.FirstDegree, 1, network, targetVector, excluded)
	if err != nil {
		return nil, err
	}
	if len(firstPool) > e.cfg.Social.MaxFirstDegree {
		firstPool = firstPool[:e.cfg.Social.MaxFirstDegree]
	}

	secondPool, err := e.scorePool(ctx, network.SecondDegree, 2, network, targetVector, excluded)
	if err != nil {
		return nil, err
	}
	if len(secondPool) > e.cfg.Social.MaxSecondDegree {
		secondPool = secondPool[:e.cfg.Social.MaxSecondDegree]
	}

	results := append(firstPool, secondPool...)
	core.SortScores(results)
	if len(results) > limit {
		results = results[:limit]
	}
	if err := core.FillUserInfo(ctx, e.users, results); err != nil {
		return nil, err
	}

	if e.cacheEnabled() {
		if err := e.cache.Set(ctx, userID, cacheKey, results, e.cfg.Cache.SocialTTL); err != nil {
			e.log.Warn("写入结果缓存失败", zap.String("key", cacheKey), zap.Error(err))
		}
	}

	e.log.Info("社交推荐生成完成", zap.Int64("user_id", userID), zap.Int("count", len(results)))
	return results, nil
}

// BuildNetwork 构建目标用户的两跳社交网络。
func (e *Engine) BuildNetwork(ctx context.Context, userID int64) (*Network, error) {
	firstDegree, err := e.follows.GetFollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	firstSet := make(map[int64]struct{}, len(firstDegree))
	for _, id := range firstDegree {
		firstSet[id] = struct{}{}
	}

	secondSet := make(map[int64]struct{})
	mutual := make(map[int64][]int64)
	for _, followeeID := range firstDegree {
		followsOfFollow, err := e.follows.GetFollowingIDs(ctx, followeeID)
		if err != nil {
			return nil, err
		}
		for _, candID := range followsOfFollow {
			if candID == userID {
				continue
			}
			if _, direct := firstSet[candID]; direct {
				continue
			}
			secondSet[candID] = struct{}{}
			mutual[candID] = append(mutual[candID], followeeID)
		}
	}

	secondDegree := make([]int64, 0, len(secondSet))
	for id := range secondSet {
		secondDegree = append(secondDegree, id)
	}
	sort.Slice(secondDegree, func(i, j int) bool { return secondDegree[i] < secondDegree[j] })

	e.log.Debug("社交网络构建完成",
		zap.Int64("user_id", userID),
		zap.Int("first_degree", len(firstDegree)),
		zap.Int("second_degree", len(secondDegree)))
	return &Network{
		FirstDegree:   firstDegree,
		SecondDegree:  secondDegree,
		MutualFollows: mutual,
	}, nil
}

func (e *Engine) scorePool(
	ctx context.Context,
	pool []int64,
	distance int,
	network *Network,
	targetVector map[int64]float64,
	excluded map[int64]struct{},
) ([]*core.RecommendationScore, error) {
	results := make([]*core.RecommendationScore, 0, len(pool))
	for _, candID := range pool {
		if _, skip := excluded[candID]; skip {
			continue
		}

		candVector, err := e.agg.Vector(ctx, candID)
		if err != nil {
			return nil, err
		}
		sim := similarity.Cosine(targetVector, candVector)

		mutualCount := len(network.MutualFollows[candID])
		proximity := e.proximityScore(distance, mutualCount)

		s := e.cfg.Social
		score := core.Clamp01(sim*s.SimilarityWeight + proximity*s.SocialDistanceWeight)

		rs := &core.RecommendationScore{
			UserID:            candID,
			Score:             score,
			AlgorithmType:     core.AlgorithmSocial,
			Similarity:        sim,
			SocialDistance:    distance,
			MutualFollowCount: mutualCount,
			CommonRestaurants: similarity.CommonCount(targetVector, candVector),
			Reason:            socialReason(distance, mutualCount),
		}
		rs.PutLabel("recall", utils.Label{Value: core.AlgorithmSocial, Source: "social"})
		results = append(results, rs)
	}
	core.SortScores(results)
	return results, nil
}

// proximityScore 计算社交邻近度：距离权重叠加共同关注奖励，收敛到 [0,1]。
func (e *Engine) proximityScore(distance, mutualCount int) float64 {
	s := e.cfg.Social
	var base float64
	switch distance {
	case 1:
		base = s.FirstDegreeWeight
	case 2:
		base = s.SecondDegreeWeight
	default:
		base = 0.1
	}
	bonusCount := mutualCount
	if bonusCount > s.MaxMutualFollowBonus {
		bonusCount = s.MaxMutualFollowBonus
	}
	return core.Clamp01(base + float64(bonusCount)*s.MutualFollowBonus)
}

// Score 计算目标与单个候选的社交分：不在两跳网络内返回 0。
// 热门兜底在混合分支里用它做轻量社交校验。
func (e *Engine) Score(ctx context.Context, targetID, candidateID int64) (float64, error) {
	if targetID == candidateID {
		return 0, nil
	}
	direct, err := e.follows.IsFollowing(ctx, targetID, candidateID)
	if err != nil {
		return 0, err
	}
	if direct {
		mutualIDs, err := e.follows.GetMutualFollowIDs(ctx, targetID, candidateID)
		if err != nil {
			return 0, err
		}
		return e.proximityScore(1, len(mutualIDs)), nil
	}

	network, err := e.BuildNetwork(ctx, targetID)
	if err != nil {
		return 0, err
	}
	if via, ok := network.MutualFollows[candidateID]; ok {
		return e.proximityScore(2, len(via)), nil
	}
	return 0, nil
}

func socialReason(distance, mutualCount int) string {
	switch distance {
	case 1:
		return "你关注了TA，且你们的餐厅品味相似"
	case 2:
		if mutualCount > 0 {
			return fmt.Sprintf("你们有 %d 个共同关注，且餐厅品味相似", mutualCount)
		}
		return "你关注的人也关注了TA，且你们的餐厅品味相似"
	default:
		return "TA在你的社交网络中，且餐厅品味相似"
	}
}
