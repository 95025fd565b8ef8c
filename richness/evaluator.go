// Package richness 实现数据丰富度评估器：
// 量化一个用户拥有多少可用信号（访问量、关注量、评分覆盖率、活跃近因），
// 为动态权重和切换策略提供决策依据。
package richness

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ljyh223/foodieconnect-recommend/core"
)

// Evaluator 是数据丰富度评估器。
type Evaluator struct {
	visits  core.VisitRepository
	follows core.FollowRepository
	log     *zap.Logger
	now     func() time.Time
}

// NewEvaluator 创建评估器。
func NewEvaluator(visits core.VisitRepository, follows core.FollowRepository, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{visits: visits, follows: follows, log: logger, now: time.Now}
}

// Evaluate 计算某用户的数据丰富度画像。
func (e *Evaluator) Evaluate(ctx context.Context, userID int64) (*core.Richness, error) {
	visitCount, err := e.visits.GetVisitCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	distinctCount, err := e.visits.GetVisitedRestaurantsCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	followingCount, err := e.follows.GetFollowingCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	followersCount, err := e.follows.GetFollowersCount(ctx, userID)
	if err != nil {
		return nil, err
	}

	quality, err := e.dataQuality(ctx, userID)
	if err != nil {
		return nil, err
	}
	activity, err := e.activityScore(ctx, userID)
	if err != nil {
		return nil, err
	}

	r := &core.Richness{
		UserID:                  userID,
		VisitCount:              visitCount,
		DistinctRestaurantCount: distinctCount,
		FollowingCount:          followingCount,
		FollowersCount:          followersCount,
		DataQuality:             quality,
		ActivityScore:           activity,
	}
	e.log.Debug("数据丰富度评估完成",
		zap.Int64("user_id", userID),
		zap.Int("visits", visitCount),
		zap.Int("distinct", distinctCount),
		zap.Float64("quality", quality),
		zap.Float64("activity", activity))
	return r, nil
}

// dataQuality = 近 30 天评分覆盖率 × 0.6 + 访问类型多样性(/4) × 0.4。
func (e *Evaluator) dataQuality(ctx context.Context, userID int64) (float64, error) {
	now := e.now()
	recent, err := e.visits.FindByUserIDAndDateRange(ctx, userID, now.AddDate(0, 0, -30), now)
	if err != nil {
		return 0, err
	}
	if len(recent) == 0 {
		return 0, nil
	}

	rated := 0
	types := make(map[core.VisitType]struct{})
	for _, v := range recent {
		if v.Rating != nil {
			rated++
		}
		types[v.VisitType] = struct{}{}
	}
	ratedRatio := float64(rated) / float64(len(recent))
	typeDiversity := float64(len(types)) / 4.0
	if typeDiversity > 1.0 {
		typeDiversity = 1.0
	}
	return ratedRatio*0.6 + typeDiversity*0.4, nil
}

// activityScore 用 7/30/90 天三个近因桶加权：
// min(7d/10,1)×0.5 + min(30d/30,1)×0.3 + min(90d/60,1)×0.2。
func (e *Evaluator) activityScore(ctx context.Context, userID int64) (float64, error) {
	now := e.now()
	bucket := func(days int, norm float64) (float64, error) {
		visits, err := e.visits.FindByUserIDAndDateRange(ctx, userID, now.AddDate(0, 0, -days), now)
		if err != nil {
			return 0, err
		}
		v := float64(len(visits)) / norm
		if v > 1.0 {
			v = 1.0
		}
		return v, nil
	}

	week, err := bucket(7, 10)
	if err != nil {
		return 0, err
	}
	month, err := bucket(30, 30)
	if err != nil {
		return 0, err
	}
	quarter, err := bucket(90, 60)
	if err != nil {
		return 0, err
	}
	return week*0.5 + month*0.3 + quarter*0.2, nil
}
