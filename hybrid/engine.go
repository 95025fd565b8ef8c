// Package hybrid 实现混合融合引擎：
// 在 WEIGHTED / SWITCHING / CASCADING 三种策略下融合协同过滤与社交推荐，
// 数据稀疏时降级到热门兜底。每个策略分支都是对两路引擎输出的纯函数，
// 缓存优先、写透、singleflight 合并并发计算。
package hybrid

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ljyh223/foodieconnect-recommend/config"
	"github.com/ljyh223/foodieconnect-recommend/core"
	"github.com/ljyh223/foodieconnect-recommend/popular"
	"github.com/ljyh223/foodieconnect-recommend/richness"
	"github.com/ljyh223/foodieconnect-recommend/similarity"
	"github.com/ljyh223/foodieconnect-recommend/social"
	"github.com/ljyh223/foodieconnect-recommend/store"
)

// Engine 是混合融合引擎。
type Engine struct {
	collab   *similarity.Engine
	social   *social.Engine
	popular  *popular.Engine
	richness *richness.Evaluator
	cache    *store.ResultCache
	cfg      *config.Config
	log      *zap.Logger

	sf singleflight.Group
}

// NewEngine 创建混合融合引擎。cache 允许为 nil。
func NewEngine(
	collab *similarity.Engine,
	socialEngine *social.Engine,
	popularEngine *popular.Engine,
	evaluator *richness.Evaluator,
	cache *store.ResultCache,
	cfg *config.Config,
	logger *zap.Logger,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		collab:   collab,
		social:   socialEngine,
		popular:  popularEngine,
		richness: evaluator,
		cache:    cache,
		cfg:      cfg,
		log:      logger,
	}
}

// Recommend 为目标用户生成混合推荐。
// 缓存命中时原样返回缓存列表；未命中时按策略计算并写透缓存。
func (e *Engine) Recommend(ctx context.Context, userID int64, limit int, strategy core.Strategy) ([]*core.RecommendationScore, error) {
	if limit <= 0 {
		limit = e.cfg.Collaborative.DefaultRecommendationCount
	}

	cacheKey := core.HybridCacheKey(strategy, userID, limit)
	if e.cacheEnabled() {
		cached, err := e.cache.Get(ctx, cacheKey)
		if err != nil {
			return nil, err
		}
		if cached != nil {
			e.log.Debug("混合推荐命中结果缓存",
				zap.Int64("user_id", userID), zap.String("key", cacheKey))
			return cached, nil
		}
	}

	v, err, _ := e.sf.Do(cacheKey, func() (any, error) {
		return e.compute(ctx, userID, limit, strategy, cacheKey)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*core.RecommendationScore), nil
}

func (e *Engine) cacheEnabled() bool {
	return e.cache != nil && e.cfg.Cache.Enabled
}

func (e *Engine) compute(ctx context.Context, userID int64, limit int, strategy core.Strategy, cacheKey string) ([]*core.RecommendationScore, error) {
	e.log.Info("开始生成混合推荐",
		zap.Int64("user_id", userID),
		zap.String("strategy", string(strategy)),
		zap.Int("limit", limit))

	var (
		result []*core.RecommendationScore
		err    error
	)
	switch strategy {
	case core.StrategySwitching:
		result, err = e.switching(ctx, userID, limit)
	case core.StrategyCascading:
		result, err = e.cascading(ctx, userID, limit)
	default:
		result, err = e.weighted(ctx, userID, limit)
	}
	if err != nil {
		return nil, err
	}

	if e.cacheEnabled() {
		if cerr := e.cache.Set(ctx, userID, cacheKey, result, e.cfg.Cache.HybridTTL); cerr != nil {
			e.log.Warn("写入结果缓存失败", zap.String("key", cacheKey), zap.Error(cerr))
		}
	}

	e.log.Info("混合推荐生成完成",
		zap.Int64("user_id", userID),
		zap.String("strategy", string(strategy)),
		zap.Int("count", len(result)))
	return result, nil
}

// weighted 加权混合：两路各取 2×limit 的候选，按动态权重加权后合并。
// 两路引擎只读共享数据，可以并行拉取。
func (e *Engine) weighted(ctx context.Context, userID int64, limit int) ([]*core.RecommendationScore, error) {
	var (
		collabScores []*core.RecommendationScore
		socialScores []*core.RecommendationScore
		rich         *core.Richness
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		collabScores, err = e.collab.Recommend(gctx, userID, limit*2)
		return err
	})
	g.Go(func() error {
		var err error
		socialScores, err = e.social.Recommend(gctx, userID, limit*2)
		return err
	})
	g.Go(func() error {
		var err error
		rich, err = e.richness.Evaluate(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	collabWeight, socialWeight := e.DynamicWeights(rich)
	e.log.Debug("动态权重计算完成",
		zap.Int64("user_id", userID),
		zap.Float64("collaborative", collabWeight),
		zap.Float64("social", socialWeight))

	// 调权前先 Clone，避免改写缓存/并发调用共享的条目
	merged := make(map[int64]*core.RecommendationScore, len(collabScores)+len(socialScores))
	for _, s := range collabScores {
		c := s.Clone()
		c.Score = c.Score * collabWeight
		c.AlgorithmType = core.AlgorithmHybridWeighted
		merged[c.UserID] = c
	}
	for _, s := range socialScores {
		weighted := s.Score * socialWeight
		if exist, ok := merged[s.UserID]; ok {
			exist.Score += weighted
			if len(s.Reason) > len(exist.Reason) {
				exist.Reason = s.Reason
			}
			if s.SocialDistance > 0 {
				exist.SocialDistance = s.SocialDistance
				exist.MutualFollowCount = s.MutualFollowCount
			}
			continue
		}
		c := s.Clone()
		c.Score = weighted
		c.AlgorithmType = core.AlgorithmHybridWeighted
		merged[c.UserID] = c
	}

	result := make([]*core.RecommendationScore, 0, len(merged))
	for _, s := range merged {
		s.Score = core.Clamp01(s.Score)
		result = append(result, s)
	}
	core.SortScores(result)
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// DynamicWeights 按数据丰富度返回 (协同权重, 社交权重)。
func (e *Engine) DynamicWeights(r *core.Richness) (float64, float64) {
	switch {
	case r.VisitCount >= 20 && r.DistinctRestaurantCount >= 10:
		// 餐厅数据丰富，协同过滤权重更高
		return 0.7, 0.3
	case r.FollowingCount >= 20 && r.FollowersCount >= 10:
		// 社交数据丰富，社交推荐权重更高
		return 0.4, 0.6
	default:
		return e.cfg.Hybrid.CollaborativeWeight, e.cfg.Hybrid.SocialWeight
	}
}

// switching 切换混合：按数据丰富度选择单一算法链路。
func (e *Engine) switching(ctx context.Context, userID int64, limit int) ([]*core.RecommendationScore, error) {
	rich, err := e.richness.Evaluate(ctx, userID)
	if err != nil {
		return nil, err
	}

	h := e.cfg.Hybrid
	switch {
	case rich.VisitCount >= h.MinVisitsForWeighted && rich.FollowingCount >= h.MinFollowingForWeighted:
		e.log.Debug("数据充足，使用加权混合策略", zap.Int64("user_id", userID))
		return e.weighted(ctx, userID, limit)

	case rich.VisitCount >= h.MinVisitsForCollaborative:
		e.log.Debug("餐厅数据较多，主要使用协同过滤", zap.Int64("user_id", userID))
		scores, err := e.collab.Recommend(ctx, userID, limit)
		if err != nil {
			return nil, err
		}
		return retag(scores, core.AlgorithmHybridSwitchingCollab), nil

	case rich.FollowingCount >= h.MinFollowingForSocial:
		e.log.Debug("社交数据较多，主要使用社交推荐", zap.Int64("user_id", userID))
		scores, err := e.social.Recommend(ctx, userID, limit)
		if err != nil {
			return nil, err
		}
		return retag(scores, core.AlgorithmHybridSwitchingSocial), nil

	default:
		e.log.Debug("数据不足，降级到热门兜底", zap.Int64("user_id", userID))
		return e.popular.Recommend(ctx, userID, limit)
	}
}

// cascading 分层混合：社交优先占 SocialRatio，协同补位，热门兜底，
// 三层互不重复，全部标记为 hybrid_cascading。
func (e *Engine) cascading(ctx context.Context, userID int64, limit int) ([]*core.RecommendationScore, error) {
	result := make([]*core.RecommendationScore, 0, limit)
	chosen := make(map[int64]struct{}, limit)

	socialScores, err := e.social.Recommend(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	socialLimit := int(float64(limit) * e.cfg.Hybrid.SocialRatio)
	for _, s := range socialScores {
		if len(result) >= socialLimit {
			break
		}
		result = append(result, s.Clone())
		chosen[s.UserID] = struct{}{}
	}

	if len(result) < limit {
		collabScores, err := e.collab.Recommend(ctx, userID, limit*2)
		if err != nil {
			return nil, err
		}
		for _, s := range collabScores {
			if len(result) >= limit {
				break
			}
			if _, dup := chosen[s.UserID]; dup {
				continue
			}
			result = append(result, s.Clone())
			chosen[s.UserID] = struct{}{}
		}
	}

	if len(result) < limit {
		popularScores, err := e.popular.Recommend(ctx, userID, limit)
		if err != nil {
			return nil, err
		}
		for _, s := range popularScores {
			if len(result) >= limit {
				break
			}
			if _, dup := chosen[s.UserID]; dup {
				continue
			}
			result = append(result, s.Clone())
			chosen[s.UserID] = struct{}{}
		}
	}

	for _, s := range result {
		s.AlgorithmType = core.AlgorithmHybridCascading
	}
	return result, nil
}

func retag(scores []*core.RecommendationScore, algorithmType string) []*core.RecommendationScore {
	out := make([]*core.RecommendationScore, 0, len(scores))
	for _, s := range scores {
		c := s.Clone()
		c.AlgorithmType = algorithmType
		out = append(out, c)
	}
	return out
}
