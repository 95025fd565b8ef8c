package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ljyh223/foodieconnect-recommend/core"
)

// 反馈动作只允许操作自己名下的推荐记录：
// 记录不存在返回 NOT_FOUND，记录属于他人返回 PERMISSION_DENIED。

// loadOwned 取出记录并校验归属。
func (s *Recommendation) loadOwned(ctx context.Context, userID, recordID int64) (*core.RecommendationRecord, error) {
	rec, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeNotFound,
			fmt.Sprintf("recommendation record %d not found", recordID))
	}
	if rec.UserID != userID {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodePermissionDenied,
			fmt.Sprintf("recommendation record %d does not belong to user %d", recordID, userID))
	}
	return rec, nil
}

// MarkViewed 标记单条推荐为已读。已读记录重复标记是幂等的。
func (s *Recommendation) MarkViewed(ctx context.Context, userID, recordID int64) error {
	rec, err := s.loadOwned(ctx, userID, recordID)
	if err != nil {
		return err
	}
	if rec.IsViewed {
		return nil
	}
	rec.IsViewed = true
	return s.records.Update(ctx, rec)
}

// MarkInterested 标记感兴趣/不感兴趣，可附带文字反馈。
// 标记会顺带置为已读，并使该用户的结果缓存失效（反馈应尽快影响下一次推荐）。
func (s *Recommendation) MarkInterested(ctx context.Context, userID, recordID int64, interested bool, feedback string) error {
	rec, err := s.loadOwned(ctx, userID, recordID)
	if err != nil {
		return err
	}
	rec.IsInterested = &interested
	rec.IsViewed = true
	if feedback != "" {
		rec.Feedback = feedback
	}
	if err := s.records.Update(ctx, rec); err != nil {
		return err
	}

	if s.cache != nil {
		if cerr := s.cache.InvalidateUser(ctx, userID); cerr != nil {
			s.log.Warn("反馈后失效缓存失败", zap.Int64("user_id", userID), zap.Error(cerr))
		}
	}
	return nil
}

// BatchMarkViewed 批量标记已读，返回实际更新的条数。
// 不属于该用户或已是已读的 ID 会被静默跳过。
func (s *Recommendation) BatchMarkViewed(ctx context.Context, userID int64, recordIDs []int64) (int64, error) {
	if len(recordIDs) == 0 {
		return 0, nil
	}
	return s.records.BatchMarkViewed(ctx, userID, recordIDs)
}

// DeleteRecommendation 删除单条推荐记录。
func (s *Recommendation) DeleteRecommendation(ctx context.Context, userID, recordID int64) error {
	if _, err := s.loadOwned(ctx, userID, recordID); err != nil {
		return err
	}
	return s.records.DeleteByID(ctx, recordID)
}

// ClearRecommendations 删除某用户的全部推荐记录并失效其结果缓存，返回删除数。
func (s *Recommendation) ClearRecommendations(ctx context.Context, userID int64) (int64, error) {
	deleted, err := s.records.DeleteByUserID(ctx, userID)
	if err != nil {
		return 0, err
	}
	if s.cache != nil {
		if cerr := s.cache.InvalidateUser(ctx, userID); cerr != nil {
			s.log.Warn("清空记录后失效缓存失败", zap.Int64("user_id", userID), zap.Error(cerr))
		}
	}
	s.log.Info("已清空用户推荐记录", zap.Int64("user_id", userID), zap.Int64("deleted", deleted))
	return deleted, nil
}

// History 分页返回某用户的推荐记录，按创建时间降序。
func (s *Recommendation) History(ctx context.Context, userID int64, offset, limit int) ([]*core.RecommendationRecord, error) {
	if limit <= 0 {
		limit = s.cfg.Collaborative.DefaultRecommendationCount
	}
	return s.records.FindByUserIDPaginated(ctx, userID, offset, limit)
}

// Unviewed 返回某用户未读的推荐记录。
func (s *Recommendation) Unviewed(ctx context.Context, userID int64, limit int) ([]*core.RecommendationRecord, error) {
	if limit <= 0 {
		limit = s.cfg.Collaborative.DefaultRecommendationCount
	}
	return s.records.FindUnviewedByUserID(ctx, userID, limit)
}
