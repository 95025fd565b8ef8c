// Package scheduler 承载推荐引擎的后台任务：
// 相似度定时刷新、过期数据清理、热门用户榜刷新。
// 任务全部幂等，单次执行失败只记日志，下个周期重试。
package scheduler

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ljyh223/foodieconnect-recommend/config"
	"github.com/ljyh223/foodieconnect-recommend/core"
	"github.com/ljyh223/foodieconnect-recommend/popular"
	"github.com/ljyh223/foodieconnect-recommend/similarity"
)

// Scheduler 管理全部后台任务的生命周期。
type Scheduler struct {
	collab  *similarity.Engine
	popular *popular.Engine
	visits  core.VisitRepository
	pairs   core.SimilarityRepository
	records core.RecommendationRepository
	kv      core.KeyValueStore
	cfg     *config.Config
	log     *zap.Logger
	now     func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New 创建调度器。pairs / records / kv 允许为 nil，对应任务自动跳过。
func New(
	collab *similarity.Engine,
	popularEngine *popular.Engine,
	visits core.VisitRepository,
	pairs core.SimilarityRepository,
	records core.RecommendationRepository,
	kv core.KeyValueStore,
	cfg *config.Config,
	logger *zap.Logger,
) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		collab:  collab,
		popular: popularEngine,
		visits:  visits,
		pairs:   pairs,
		records: records,
		kv:      kv,
		cfg:     cfg,
		log:     logger,
		now:     time.Now,
	}
}

// Start 启动后台任务。配置关闭定时任务时为空操作。
// 重复 Start 是幂等的，重复调用只保留第一次启动的任务。
func (s *Scheduler) Start(ctx context.Context) {
	if !s.cfg.Performance.EnableScheduledTasks {
		s.log.Info("定时任务已禁用")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	// done 以参数传入：Stop 会把字段清零，run 不能再读 s.done
	go s.run(runCtx, done)
	s.log.Info("后台任务已启动",
		zap.Int("similarity_refresh_hours", s.cfg.Performance.SimilarityRefreshHours),
		zap.Int("cleanup_interval_hours", s.cfg.Performance.CleanupIntervalHours))
}

// Stop 停止全部后台任务并等待退出。
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.log.Info("后台任务已停止")
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	refreshEvery := time.Duration(s.cfg.Performance.SimilarityRefreshHours) * time.Hour
	cleanupEvery := time.Duration(s.cfg.Performance.CleanupIntervalHours) * time.Hour
	popularEvery := time.Duration(s.cfg.Cache.PopularUsersTTL) * time.Second

	refreshTicker := time.NewTicker(refreshEvery)
	cleanupTicker := time.NewTicker(cleanupEvery)
	popularTicker := time.NewTicker(popularEvery)
	defer refreshTicker.Stop()
	defer cleanupTicker.Stop()
	defer popularTicker.Stop()

	// 启动时先刷一次热门榜，兜底链路才有快路径可走
	s.RefreshPopularLeaderboard(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-refreshTicker.C:
			s.RefreshSimilarities(ctx)
		case <-cleanupTicker.C:
			s.Cleanup(ctx)
		case <-popularTicker.C:
			s.RefreshPopularLeaderboard(ctx)
		}
	}
}

// RefreshSimilarities 为活跃用户重算两两相似度并批量落库。
func (s *Scheduler) RefreshSimilarities(ctx context.Context) {
	if s.pairs == nil {
		return
	}
	start := s.now()
	userIDs, err := s.visits.GetActiveUserIDs(ctx, start.Add(-s.cfg.ActivityWindow()))
	if err != nil {
		s.log.Error("获取活跃用户失败", zap.Error(err))
		return
	}

	total := 0
	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return
		}
		n, err := s.collab.RefreshUserSimilarities(ctx, userID)
		if err != nil {
			s.log.Warn("刷新用户相似度失败", zap.Int64("user_id", userID), zap.Error(err))
			continue
		}
		total += n
	}
	s.log.Info("相似度刷新完成",
		zap.Int("users", len(userIDs)),
		zap.Int("pairs", total),
		zap.Duration("elapsed", s.now().Sub(start)))
}

// Cleanup 按保留期清理过期的相似度条目与推荐记录。
func (s *Scheduler) Cleanup(ctx context.Context) {
	now := s.now()
	if s.pairs != nil {
		deleted, err := s.pairs.DeleteOlderThan(ctx, now.Add(-s.cfg.SimilarityRetention()))
		if err != nil {
			s.log.Error("清理相似度条目失败", zap.Error(err))
		} else if deleted > 0 {
			s.log.Info("已清理过期相似度条目", zap.Int64("deleted", deleted))
		}
	}
	if s.records != nil {
		deleted, err := s.records.DeleteOlderThan(ctx, now.Add(-s.cfg.RecordRetention()))
		if err != nil {
			s.log.Error("清理推荐记录失败", zap.Error(err))
		} else if deleted > 0 {
			s.log.Info("已清理过期推荐记录", zap.Int64("deleted", deleted))
		}
	}
}

// RefreshPopularLeaderboard 重算活跃用户的流行度并写入热门榜。
func (s *Scheduler) RefreshPopularLeaderboard(ctx context.Context) {
	if s.kv == nil {
		return
	}
	userIDs, err := s.visits.GetActiveUserIDs(ctx, s.now().Add(-s.cfg.ActivityWindow()))
	if err != nil {
		s.log.Error("获取活跃用户失败", zap.Error(err))
		return
	}

	updated := 0
	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return
		}
		score, err := s.popular.Popularity(ctx, userID)
		if err != nil {
			s.log.Warn("计算流行度失败", zap.Int64("user_id", userID), zap.Error(err))
			continue
		}
		member := strconv.FormatInt(userID, 10)
		if err := s.kv.ZAdd(ctx, core.PopularUsersKey, score, member); err != nil {
			if core.IsStoreNotSupported(err) {
				s.log.Info("存储不支持有序集合，跳过热门榜刷新")
				return
			}
			s.log.Warn("写入热门榜失败", zap.Int64("user_id", userID), zap.Error(err))
			continue
		}
		updated++
	}
	s.log.Info("热门榜刷新完成", zap.Int("updated", updated))
}
