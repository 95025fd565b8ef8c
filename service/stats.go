package service

import (
	"context"

	"github.com/ljyh223/foodieconnect-recommend/core"
)

// Stats 返回某用户的推荐效果统计。
//
// CTR = 已读 / 总数；转化率 = 感兴趣 / 已读。分母为零时对应比率为 0。
func (s *Recommendation) Stats(ctx context.Context, userID int64) (*core.RecommendationStats, error) {
	total, err := s.records.CountByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	viewed, err := s.records.CountByUserIDAndViewed(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	interested, err := s.records.CountByUserIDAndInterested(ctx, userID, true)
	if err != nil {
		return nil, err
	}

	stats := &core.RecommendationStats{
		TotalRecommendations: total,
		ViewedCount:          viewed,
		InterestedCount:      interested,
	}
	if total > 0 {
		stats.ClickThroughRate = float64(viewed) / float64(total)
	}
	if viewed > 0 {
		stats.ConversionRate = float64(interested) / float64(viewed)
	}
	return stats, nil
}

// AlgorithmStats 返回某用户按算法类型聚合的统计。
func (s *Recommendation) AlgorithmStats(ctx context.Context, userID int64) ([]*core.AlgorithmStats, error) {
	return s.records.GetAlgorithmStatsByUser(ctx, userID)
}

// GlobalAlgorithmStats 返回全局按算法类型聚合的统计，用于对比各链路的效果。
func (s *Recommendation) GlobalAlgorithmStats(ctx context.Context) ([]*core.AlgorithmStats, error) {
	return s.records.GetGlobalAlgorithmStats(ctx)
}
