// Package service 是推荐引擎的应用服务层：
// 校验请求、选择策略、控制生成超时并降级、落库推荐记录、
// 驱动后处理管线，并处理用户反馈与效果统计。
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ljyh223/foodieconnect-recommend/config"
	"github.com/ljyh223/foodieconnect-recommend/core"
	"github.com/ljyh223/foodieconnect-recommend/hybrid"
	"github.com/ljyh223/foodieconnect-recommend/pipeline"
	"github.com/ljyh223/foodieconnect-recommend/popular"
	"github.com/ljyh223/foodieconnect-recommend/rerank"
	"github.com/ljyh223/foodieconnect-recommend/richness"
	"github.com/ljyh223/foodieconnect-recommend/similarity"
	"github.com/ljyh223/foodieconnect-recommend/social"
	"github.com/ljyh223/foodieconnect-recommend/store"
)

// 单次请求可取的推荐数量区间。
const (
	MinRecommendLimit = 1
	MaxRecommendLimit = 50
)

// Request 是一次推荐请求。
type Request struct {
	UserID int64
	// Limit 期望的推荐数量，0 取配置默认值
	Limit int
	// Strategy 融合策略字符串，空串取配置默认值；未知值回退 WEIGHTED
	Strategy string
	// Persist 是否把结果落库为推荐记录
	Persist bool
}

// Recommendation 是推荐服务的统一门面。
type Recommendation struct {
	hybrid   *hybrid.Engine
	collab   *similarity.Engine
	social   *social.Engine
	popular  *popular.Engine
	richness *richness.Evaluator
	records  core.RecommendationRepository
	cache    *store.ResultCache
	post     *pipeline.Pipeline
	cfg      *config.Config
	log      *zap.Logger
}

// NewRecommendation 创建推荐服务。records / cache / post 允许为 nil。
func NewRecommendation(
	hybridEngine *hybrid.Engine,
	collab *similarity.Engine,
	socialEngine *social.Engine,
	popularEngine *popular.Engine,
	evaluator *richness.Evaluator,
	records core.RecommendationRepository,
	cache *store.ResultCache,
	post *pipeline.Pipeline,
	cfg *config.Config,
	logger *zap.Logger,
) *Recommendation {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recommendation{
		hybrid:   hybridEngine,
		collab:   collab,
		social:   socialEngine,
		popular:  popularEngine,
		richness: evaluator,
		records:  records,
		cache:    cache,
		post:     post,
		cfg:      cfg,
		log:      logger,
	}
}

func (s *Recommendation) validate(req Request) (int, core.Strategy, error) {
	if req.UserID <= 0 {
		return 0, "", core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput,
			fmt.Sprintf("invalid user id: %d", req.UserID))
	}
	limit := req.Limit
	if limit == 0 {
		limit = s.cfg.Collaborative.DefaultRecommendationCount
	}
	if limit < MinRecommendLimit || limit > MaxRecommendLimit {
		return 0, "", core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput,
			fmt.Sprintf("limit must be in [%d, %d], got %d", MinRecommendLimit, MaxRecommendLimit, req.Limit))
	}

	raw := req.Strategy
	if raw == "" {
		raw = s.cfg.Hybrid.DefaultStrategy
	}
	strategy, known := core.ParseStrategy(raw)
	if !known {
		s.log.Warn("未知的融合策略，回退到 WEIGHTED", zap.String("strategy", raw))
	}
	return limit, strategy, nil
}

// Recommend 生成混合推荐。
//
// 生成受配置的超时约束；超时视为可恢复错误，直接降级到热门兜底，
// 保证推荐面始终可用。Persist 打开时最终列表会落库为推荐记录。
func (s *Recommendation) Recommend(ctx context.Context, req Request) ([]*core.RecommendationScore, error) {
	limit, strategy, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	log := s.log.With(
		zap.String("request_id", requestID),
		zap.Int64("user_id", req.UserID),
		zap.String("strategy", string(strategy)),
		zap.Int("limit", limit))

	genCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout())
	defer cancel()

	scores, err := s.hybrid.Recommend(genCtx, req.UserID, limit, strategy)
	if err != nil {
		if !isGenerationTimeout(ctx, genCtx, err) {
			return nil, err
		}
		log.Warn("推荐生成超时，降级到热门兜底",
			zap.Duration("timeout", s.cfg.GenerationTimeout()))
		scores, err = s.popular.Recommend(ctx, req.UserID, limit)
		if err != nil {
			return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeTimeout,
				fmt.Sprintf("recommendation generation timed out and fallback failed: %v", err))
		}
	}

	if s.post != nil {
		scores, err = s.post.Run(ctx, req.UserID, scores)
		if err != nil {
			return nil, err
		}
	}

	if req.Persist && s.records != nil {
		if perr := s.persist(ctx, req.UserID, scores); perr != nil {
			log.Warn("推荐记录落库失败", zap.Error(perr))
		}
	}

	log.Info("推荐生成完成", zap.Int("count", len(scores)))
	return scores, nil
}

// isGenerationTimeout 判断错误是否由生成超时引起：
// 外层 ctx 已取消时按调用方取消处理，不降级。
func isGenerationTimeout(parent, gen context.Context, err error) bool {
	if parent.Err() != nil {
		return false
	}
	return errors.Is(err, context.DeadlineExceeded) || gen.Err() == context.DeadlineExceeded
}

// persist 把最终列表落库：同 (用户, 候选, 算法) 已有记录时更新分数与理由。
func (s *Recommendation) persist(ctx context.Context, userID int64, scores []*core.RecommendationScore) error {
	for _, sc := range scores {
		existing, err := s.records.FindByUserAndTarget(ctx, userID, sc.UserID, sc.AlgorithmType)
		if err != nil {
			return err
		}
		if existing != nil {
			existing.Score = sc.Score
			existing.Reason = sc.Reason
			if err := s.records.Update(ctx, existing); err != nil {
				return err
			}
			continue
		}
		rec := &core.RecommendationRecord{
			UserID:            userID,
			RecommendedUserID: sc.UserID,
			AlgorithmType:     sc.AlgorithmType,
			Score:             sc.Score,
			Reason:            sc.Reason,
		}
		if err := s.records.Insert(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// Collaborative 单独走协同过滤链路。
func (s *Recommendation) Collaborative(ctx context.Context, userID int64, limit int) ([]*core.RecommendationScore, error) {
	if err := s.checkUserAndLimit(userID, limit); err != nil {
		return nil, err
	}
	return s.collab.Recommend(ctx, userID, limit)
}

// Social 单独走社交推荐链路。
func (s *Recommendation) Social(ctx context.Context, userID int64, limit int) ([]*core.RecommendationScore, error) {
	if err := s.checkUserAndLimit(userID, limit); err != nil {
		return nil, err
	}
	return s.social.Recommend(ctx, userID, limit)
}

// Popular 单独走热门兜底链路。
func (s *Recommendation) Popular(ctx context.Context, userID int64, limit int) ([]*core.RecommendationScore, error) {
	if err := s.checkUserAndLimit(userID, limit); err != nil {
		return nil, err
	}
	return s.popular.Recommend(ctx, userID, limit)
}

// Diversify 对已排序的结果做算法来源多样性重排。
func (s *Recommendation) Diversify(ctx context.Context, userID int64, scores []*core.RecommendationScore, maxResults int) ([]*core.RecommendationScore, error) {
	node := &rerank.DiversityNode{MaxResults: maxResults}
	return node.Process(ctx, userID, scores)
}

// Richness 返回用户的数据丰富度画像。
func (s *Recommendation) Richness(ctx context.Context, userID int64) (*core.Richness, error) {
	if userID <= 0 {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput,
			fmt.Sprintf("invalid user id: %d", userID))
	}
	return s.richness.Evaluate(ctx, userID)
}

// WarmupCache 为一批用户预生成各链路结果，填充结果缓存。
// 单个用户失败只记日志，不中断整批预热。
func (s *Recommendation) WarmupCache(ctx context.Context, userIDs []int64) {
	limit := s.cfg.Collaborative.DefaultRecommendationCount
	strategy, _ := core.ParseStrategy(s.cfg.Hybrid.DefaultStrategy)
	for _, userID := range userIDs {
		if _, err := s.collab.Recommend(ctx, userID, limit); err != nil {
			s.log.Warn("协同链路预热失败", zap.Int64("user_id", userID), zap.Error(err))
		}
		if _, err := s.social.Recommend(ctx, userID, limit); err != nil {
			s.log.Warn("社交链路预热失败", zap.Int64("user_id", userID), zap.Error(err))
		}
		if _, err := s.hybrid.Recommend(ctx, userID, limit, strategy); err != nil {
			s.log.Warn("混合链路预热失败", zap.Int64("user_id", userID), zap.Error(err))
		}
	}
	s.log.Info("缓存预热完成", zap.Int("users", len(userIDs)))
}

// InvalidateUserCache 清空某用户名下的全部结果缓存。
func (s *Recommendation) InvalidateUserCache(ctx context.Context, userID int64) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.InvalidateUser(ctx, userID)
}

func (s *Recommendation) checkUserAndLimit(userID int64, limit int) error {
	if userID <= 0 {
		return core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput,
			fmt.Sprintf("invalid user id: %d", userID))
	}
	if limit != 0 && (limit < MinRecommendLimit || limit > MaxRecommendLimit) {
		return core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput,
			fmt.Sprintf("limit must be in [%d, %d], got %d", MinRecommendLimit, MaxRecommendLimit, limit))
	}
	return nil
}
