package similarity

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ljyh223/foodieconnect-recommend/config"
	"github.com/ljyh223/foodieconnect-recommend/core"
	"github.com/ljyh223/foodieconnect-recommend/pkg/utils"
	"github.com/ljyh223/foodieconnect-recommend/store"
	"github.com/ljyh223/foodieconnect-recommend/visit"
)

// Engine 是协同过滤相似度引擎。
//
// 两级缓存：
//   - 相似度对缓存（SimilarityRepository）：无序对 + 方法，保留窗口内复用；
//   - 结果缓存（ResultCache）：(userId, limit) 维度的完整排序结果，TTL 内短路。
//
// 同一结果键的并发计算由 singleflight 合并成一次。
type Engine struct {
	agg     *visit.Aggregator
	visits  core.VisitRepository
	follows core.FollowRepository
	pairs   core.SimilarityRepository
	users   core.UserDirectory
	cache   *store.ResultCache
	cfg     *config.Config
	log     *zap.Logger

	sf  singleflight.Group
	now func() time.Time
}

// NewEngine 创建相似度引擎。pairs / users / cache 允许为 nil（对应能力关闭）。
func NewEngine(
	agg *visit.Aggregator,
	visits core.VisitRepository,
	follows core.FollowRepository,
	pairs core.SimilarityRepository,
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
		visits:  visits,
		follows: follows,
		pairs:   pairs,
		users:   users,
		cache:   cache,
		cfg:     cfg,
		log:     logger,
		now:     time.Now,
	}
}

// Recommend 为目标用户生成协同过滤推荐。
// 数据不足（无访问记录 / 无相似用户）返回空列表，不是错误。
func (e *Engine) Recommend(ctx context.Context, userID int64, limit int) ([]*core.RecommendationScore, error) {
	if limit <= 0 {
		limit = e.cfg.Collaborative.DefaultRecommendationCount
	}
	if limit > e.cfg.Collaborative.MaxRecommendationsPerUser {
		limit = e.cfg.Collaborative.MaxRecommendationsPerUser
	}

	cacheKey := core.CollaborativeCacheKey(userID, limit)
	if e.cacheEnabled() {
		cached, err := e.cache.Get(ctx, cacheKey)
		if err != nil {
			return nil, err
		}
		if cached != nil {
			e.log.Debug("协同过滤命中结果缓存", zap.Int64("user_id", userID), zap.String("key", cacheKey))
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
	e.log.Info("开始生成协同过滤推荐", zap.Int64("user_id", userID), zap.Int("limit", limit))

	matrix, err := e.agg.Matrix(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(matrix) <= 1 {
		e.log.Warn("用户数据不足，无法生成协同过滤推荐", zap.Int64("user_id", userID))
		return []*core.RecommendationScore{}, nil
	}
	target, ok := matrix[userID]
	if !ok {
		return []*core.RecommendationScore{}, nil
	}

	excluded, err := e.excludedUserIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	candidateIDs := make([]int64, 0, len(matrix))
	for id := range matrix {
		if id == userID {
			continue
		}
		if _, skip := excluded[id]; skip {
			continue
		}
		candidateIDs = append(candidateIDs, id)
	}
	sort.Slice(candidateIDs, func(i, j int) bool { return candidateIDs[i] < candidateIDs[j] })

	method := core.ParseMethod(e.cfg.Collaborative.DefaultMethod)
	threshold := e.cfg.Collaborative.SimilarityThreshold
	minCommon := e.cfg.Collaborative.MinCommonRestaurants

	// 候选打分只读共享数据，可以安全并行；排序在收集后统一做，结果保持确定性
	scored := make([]*core.RecommendationScore, len(candidateIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Performance.MaxConcurrentScoring)
	for i, candID := range candidateIDs {
		i, candID := i, candID
		g.Go(func() error {
			sim, common, err := e.pairSimilarity(gctx, userID, candID, method, target, matrix[candID])
			if err != nil {
				return err
			}
			if sim < threshold || common < minCommon {
				return nil
			}
			score, err := e.compositeScore(gctx, candID, sim, common)
			if err != nil {
				return err
			}
			rs := &core.RecommendationScore{
				UserID:            candID,
				Score:             core.Clamp01(score),
				AlgorithmType:     core.AlgorithmCollaborative,
				Similarity:        sim,
				CommonRestaurants: common,
				Reason:            collaborativeReason(common),
			}
			rs.PutLabel("recall", utils.Label{Value: core.AlgorithmCollaborative, Source: "collaborative"})
			scored[i] = rs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]*core.RecommendationScore, 0, len(scored))
	for _, rs := range scored {
		if rs != nil {
			results = append(results, rs)
		}
	}
	if len(results) == 0 {
		e.log.Warn("没有找到相似用户", zap.Int64("user_id", userID))
		return []*core.RecommendationScore{}, nil
	}

	core.SortScores(results)
	if len(results) > limit {
		results = results[:limit]
	}
	if err := core.FillUserInfo(ctx, e.users, results); err != nil {
		return nil, err
	}

	if e.cacheEnabled() {
		if err := e.cache.Set(ctx, userID, cacheKey, results, e.cfg.Cache.CollaborativeTTL); err != nil {
			e.log.Warn("写入结果缓存失败", zap.String("key", cacheKey), zap.Error(err))
		}
	}

	e.log.Info("协同过滤推荐生成完成", zap.Int64("user_id", userID), zap.Int("count", len(results)))
	return results, nil
}

// PairSimilarity 计算两用户的相似度与共同餐厅数，带相似度对缓存。
func (e *Engine) PairSimilarity(ctx context.Context, user1ID, user2ID int64, method core.Method) (float64, int, error) {
	v1, err := e.agg.Vector(ctx, user1ID)
	if err != nil {
		return 0, 0, err
	}
	v2, err := e.agg.Vector(ctx, user2ID)
	if err != nil {
		return 0, 0, err
	}
	return e.pairSimilarity(ctx, user1ID, user2ID, method, v1, v2)
}

func (e *Engine) pairSimilarity(ctx context.Context, user1ID, user2ID int64, method core.Method, v1, v2 map[int64]float64) (float64, int, error) {
	if e.pairCacheEnabled() {
		entry, err := e.pairs.FindByPair(ctx, user1ID, user2ID, method)
		if err != nil {
			return 0, 0, err
		}
		if entry != nil && !entry.Expired(e.cfg.SimilarityRetention(), e.now()) {
			return entry.SimilarityScore, entry.CommonRestaurantCount, nil
		}
	}

	sim := Compute(v1, v2, method)
	common := CommonCount(v1, v2)

	if e.pairCacheEnabled() {
		entry := &core.SimilarityEntry{
			User1ID:               user1ID,
			User2ID:               user2ID,
			AlgorithmType:         method,
			SimilarityScore:       sim,
			CommonRestaurantCount: common,
			LastCalculated:        e.now(),
		}
		entry.NormalizePair()
		if err := e.pairs.Upsert(ctx, entry); err != nil {
			e.log.Warn("写入相似度对缓存失败",
				zap.Int64("user1_id", entry.User1ID),
				zap.Int64("user2_id", entry.User2ID),
				zap.Error(err))
		}
	}
	return sim, common, nil
}

func (e *Engine) pairCacheEnabled() bool {
	return e.pairs != nil && e.cfg.Cache.EnableSimilarityCache
}

// compositeScore 按配置权重融合相似度、餐厅重合度和社交活跃度。
func (e *Engine) compositeScore(ctx context.Context, candidateID int64, sim float64, common int) (float64, error) {
	restaurantWeight := float64(common) / 5.0
	if restaurantWeight > 1.0 {
		restaurantWeight = 1.0
	}
	social, err := e.socialActivity(ctx, candidateID)
	if err != nil {
		return 0, err
	}
	c := e.cfg.Collaborative
	return sim*c.SimilarityWeight + restaurantWeight*c.RestaurantWeight + social*c.SocialWeight, nil
}

// socialActivity 评估候选人的社交与探店活跃度，作为综合分中的小额加成。
func (e *Engine) socialActivity(ctx context.Context, userID int64) (float64, error) {
	following, err := e.follows.GetFollowingCount(ctx, userID)
	if err != nil {
		return 0, err
	}
	followers, err := e.follows.GetFollowersCount(ctx, userID)
	if err != nil {
		return 0, err
	}
	visited, err := e.visits.GetVisitedRestaurantsCount(ctx, userID)
	if err != nil {
		return 0, err
	}
	activity := math.Log1p(float64(following+followers))/10.0 + math.Log1p(float64(visited))/10.0
	if activity > 1.0 {
		activity = 1.0
	}
	return activity, nil
}

func (e *Engine) excludedUserIDs(ctx context.Context, userID int64) (map[int64]struct{}, error) {
	excluded := map[int64]struct{}{userID: {}}
	followingIDs, err := e.follows.GetFollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, id := range followingIDs {
		excluded[id] = struct{}{}
	}
	return excluded, nil
}

// RefreshUserSimilarities 重算某用户与其候选集的相似度并批量落库，
// 供后台定时任务调用。返回刷新的条目数。
func (e *Engine) RefreshUserSimilarities(ctx context.Context, userID int64) (int, error) {
	if e.pairs == nil {
		return 0, nil
	}
	matrix, err := e.agg.Matrix(ctx, userID)
	if err != nil {
		return 0, err
	}
	target, ok := matrix[userID]
	if !ok {
		return 0, nil
	}

	method := core.ParseMethod(e.cfg.Collaborative.DefaultMethod)
	now := e.now()
	entries := make([]*core.SimilarityEntry, 0, len(matrix)-1)
	for otherID, vec := range matrix {
		if otherID == userID {
			continue
		}
		sim := Compute(target, vec, method)
		if sim < e.cfg.Collaborative.SimilarityThreshold {
			continue
		}
		entry := &core.SimilarityEntry{
			User1ID:               userID,
			User2ID:               otherID,
			AlgorithmType:         method,
			SimilarityScore:       sim,
			CommonRestaurantCount: CommonCount(target, vec),
			LastCalculated:        now,
		}
		entry.NormalizePair()
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return 0, nil
	}
	if err := e.pairs.BatchUpsert(ctx, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}

func collaborativeReason(common int) string {
	if common <= 0 {
		return "系统推荐"
	}
	return fmt.Sprintf("你们都去过 %d 家相同的餐厅，可能有相似的口味偏好", common)
}
