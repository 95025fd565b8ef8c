// Package popular 实现热门用户兜底：
// 个性化信号不足时，按全局活跃度与粉丝规模推荐活跃用户。
//
// 这里的相似度是一个轻量的临时余弦（原始评分求和的偏好向量），
// 刻意独立于 similarity 包的缓存链路：兜底必须保持廉价、无缓存依赖。
package popular

import (
	"context"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ljyh223/foodieconnect-recommend/config"
	"github.com/ljyh223/foodieconnect-recommend/core"
	"github.com/ljyh223/foodieconnect-recommend/pkg/utils"
)

// Engine 是热门兜底引擎。
type Engine struct {
	visits  core.VisitRepository
	follows core.FollowRepository
	users   core.UserDirectory
	kv      core.KeyValueStore
	cfg     *config.Config
	log     *zap.Logger
	now     func() time.Time
}

// NewEngine 创建热门兜底引擎。users / kv 允许为 nil；
// kv 存在时优先从热门榜（定时任务刷新的有序集合）取候选。
func NewEngine(
	visits core.VisitRepository,
	follows core.FollowRepository,
	users core.UserDirectory,
	kv core.KeyValueStore,
	cfg *config.Config,
	logger *zap.Logger,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{visits: visits, follows: follows, users: users, kv: kv, cfg: cfg, log: logger, now: time.Now}
}

// Recommend 为目标用户生成热门兜底推荐。结果不做缓存。
func (e *Engine) Recommend(ctx context.Context, userID int64, limit int) ([]*core.RecommendationScore, error) {
	if limit <= 0 {
		limit = e.cfg.Collaborative.DefaultRecommendationCount
	}
	e.log.Debug("执行热门用户兜底策略", zap.Int64("user_id", userID), zap.Int("limit", limit))

	candidateIDs, err := e.candidateIDs(ctx)
	if err != nil {
		return nil, err
	}
	if len(candidateIDs) == 0 {
		return []*core.RecommendationScore{}, nil
	}

	excluded := map[int64]struct{}{userID: {}}
	followingIDs, err := e.follows.GetFollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, id := range followingIDs {
		excluded[id] = struct{}{}
	}

	targetPrefs, err := e.preferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	results := make([]*core.RecommendationScore, 0, len(candidateIDs))
	for _, candID := range candidateIDs {
		if _, skip := excluded[candID]; skip {
			continue
		}
		popularity, err := e.Popularity(ctx, candID)
		if err != nil {
			return nil, err
		}
		sim, err := e.adHocSimilarity(ctx, targetPrefs, candID)
		if err != nil {
			return nil, err
		}
		f := e.cfg.Fallback
		final := popularity*f.PopularityWeight + sim*f.SimilarityWeight

		rs := &core.RecommendationScore{
			UserID:        candID,
			Score:         core.Clamp01(final),
			AlgorithmType: core.AlgorithmPopularFallback,
			Similarity:    sim,
			ActivityScore: popularity,
		}
		rs.PutLabel("recall", utils.Label{Value: core.AlgorithmPopularFallback, Source: "fallback"})
		results = append(results, rs)
	}

	core.SortScores(results)
	if len(results) > limit {
		results = results[:limit]
	}
	if err := core.FillUserInfo(ctx, e.users, results); err != nil {
		return nil, err
	}
	for _, rs := range results {
		rs.Reason = popularReason(rs.UserName, rs.ActivityScore)
	}
	return results, nil
}

// candidateIDs 优先读热门榜，榜不可用或为空时回退到活跃用户查询。
func (e *Engine) candidateIDs(ctx context.Context) ([]int64, error) {
	if e.kv != nil {
		members, err := e.kv.ZRange(ctx, core.PopularUsersKey, 0, 199)
		if err == nil && len(members) > 0 {
			ids := make([]int64, 0, len(members))
			for _, m := range members {
				id, perr := strconv.ParseInt(m, 10, 64)
				if perr != nil {
					continue
				}
				ids = append(ids, id)
			}
			if len(ids) > 0 {
				return ids, nil
			}
		}
		if err != nil && !core.IsStoreNotSupported(err) {
			e.log.Warn("读取热门榜失败，回退到活跃用户查询", zap.Error(err))
		}
	}
	return e.visits.GetActiveUserIDs(ctx, e.now().Add(-e.cfg.ActivityWindow()))
}

// Popularity 计算用户热度分：
// min(粉丝/100,1)×w1 + min(访问/50,1)×w2 + min(餐厅/20,1)×w3。
func (e *Engine) Popularity(ctx context.Context, userID int64) (float64, error) {
	followers, err := e.follows.GetFollowersCount(ctx, userID)
	if err != nil {
		return 0, err
	}
	visitCount, err := e.visits.GetVisitCount(ctx, userID)
	if err != nil {
		return 0, err
	}
	restaurantCount, err := e.visits.GetVisitedRestaurantsCount(ctx, userID)
	if err != nil {
		return 0, err
	}

	cap1 := func(v float64) float64 {
		if v > 1.0 {
			return 1.0
		}
		return v
	}
	f := e.cfg.Fallback
	return cap1(float64(followers)/100.0)*f.FollowersWeight +
		cap1(float64(visitCount)/50.0)*f.VisitsWeight +
		cap1(float64(restaurantCount)/20.0)*f.DistinctWeight, nil
}

// preferences 构建兜底专用的轻量偏好向量：原始评分按餐厅求和，
// 未评分记 3.0，不做类型加权。
func (e *Engine) preferences(ctx context.Context, userID int64) (map[int64]float64, error) {
	visits, err := e.visits.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	prefs := make(map[int64]float64, len(visits))
	for _, v := range visits {
		prefs[v.RestaurantID] += v.BaseRating()
	}
	return prefs, nil
}

func (e *Engine) adHocSimilarity(ctx context.Context, targetPrefs map[int64]float64, candID int64) (float64, error) {
	if len(targetPrefs) == 0 {
		return 0, nil
	}
	candPrefs, err := e.preferences(ctx, candID)
	if err != nil {
		return 0, err
	}
	if len(candPrefs) == 0 {
		return 0, nil
	}

	var dot float64
	for id, r1 := range targetPrefs {
		if r2, ok := candPrefs[id]; ok {
			dot += r1 * r2
		}
	}
	if dot == 0 {
		return 0, nil
	}
	var norm1, norm2 float64
	for _, r := range targetPrefs {
		norm1 += r * r
	}
	for _, r := range candPrefs {
		norm2 += r * r
	}
	norm1 = math.Sqrt(norm1)
	norm2 = math.Sqrt(norm2)
	if norm1 == 0 || norm2 == 0 {
		return 0, nil
	}
	return dot / (norm1 * norm2), nil
}

func popularReason(userName string, popularity float64) string {
	if userName == "" {
		userName = "TA"
	}
	switch {
	case popularity >= 0.8:
		return userName + "是平台活跃用户，有很多餐厅体验分享"
	case popularity >= 0.6:
		return userName + "经常分享餐厅体验，值得关注"
	default:
		return userName + "在社区中比较活跃"
	}
}
