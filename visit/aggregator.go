// Package visit 实现访问聚合器：把原始的用户-餐厅交互记录
// 聚合成每用户的综合评分向量（restaurantId → compositeRating）。
//
// 综合评分 = 基础评分(未评分默认 3.0) × 类型权重 × (1 + min(次数/5,1) × 0.2)。
// 同一餐厅出现多条记录时评分求和而非取平均：重复的正向交互应当叠加。
package visit

import (
	"context"

	"go.uber.org/zap"

	"github.com/ljyh223/foodieconnect-recommend/core"
)

// CompositeRating 计算单条访问记录的综合评分。
func CompositeRating(v *core.Visit) float64 {
	count := v.VisitCount
	if count <= 0 {
		count = 1
	}
	countWeight := float64(count) / 5.0
	if countWeight > 1.0 {
		countWeight = 1.0
	}
	return v.BaseRating() * v.VisitType.Weight() * (1.0 + countWeight*0.2)
}

// Aggregator 是访问聚合器。
type Aggregator struct {
	visits core.VisitRepository
	log    *zap.Logger
}

// NewAggregator 创建访问聚合器。logger 为 nil 时使用 zap.NewNop()。
func NewAggregator(visits core.VisitRepository, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{visits: visits, log: logger}
}

// Vector 返回某用户的综合评分向量。
// 没有访问记录时返回空向量，不视为错误（调用方按「数据不足」处理）。
func (a *Aggregator) Vector(ctx context.Context, userID int64) (map[int64]float64, error) {
	visits, err := a.visits.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Aggregate(visits), nil
}

// Matrix 构建以目标用户为中心的用户-餐厅交互矩阵：
// 先取目标用户访问过的餐厅，再取访问过这些餐厅的所有用户的记录。
// 目标用户没有访问记录时返回空矩阵。
func (a *Aggregator) Matrix(ctx context.Context, userID int64) (map[int64]map[int64]float64, error) {
	targetVisits, err := a.visits.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(targetVisits) == 0 {
		a.log.Debug("用户没有访问记录", zap.Int64("user_id", userID))
		return map[int64]map[int64]float64{}, nil
	}

	seen := make(map[int64]struct{}, len(targetVisits))
	restaurantIDs := make([]int64, 0, len(targetVisits))
	for _, v := range targetVisits {
		if _, ok := seen[v.RestaurantID]; ok {
			continue
		}
		seen[v.RestaurantID] = struct{}{}
		restaurantIDs = append(restaurantIDs, v.RestaurantID)
	}

	related, err := a.visits.FindByRestaurantIDs(ctx, restaurantIDs)
	if err != nil {
		return nil, err
	}

	matrix := make(map[int64]map[int64]float64)
	for _, v := range related {
		row, ok := matrix[v.UserID]
		if !ok {
			row = make(map[int64]float64)
			matrix[v.UserID] = row
		}
		row[v.RestaurantID] += CompositeRating(v)
	}

	a.log.Debug("交互矩阵构建完成",
		zap.Int64("user_id", userID),
		zap.Int("user_count", len(matrix)),
		zap.Int("restaurant_count", len(restaurantIDs)))
	return matrix, nil
}

// Aggregate 把一组访问记录聚合成评分向量；同一餐厅的多条记录求和。
func Aggregate(visits []*core.Visit) map[int64]float64 {
	vector := make(map[int64]float64, len(visits))
	for _, v := range visits {
		vector[v.RestaurantID] += CompositeRating(v)
	}
	return vector
}
