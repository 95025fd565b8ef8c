// Package config 提供推荐引擎的 YAML 配置加载与校验。
//
// 配置分为六段：collaborative / social / hybrid / fallback / cache / performance。
// 所有字段都有内置默认值，Load 之后立即 Validate；非法配置直接报错，
// 引擎不会带着坏权重启动。
package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ljyh223/foodieconnect-recommend/core"
)

// Config 是推荐引擎的全量配置。
type Config struct {
	Collaborative Collaborative `yaml:"collaborative"`
	Social        Social        `yaml:"social"`
	Hybrid        Hybrid        `yaml:"hybrid"`
	Fallback      Fallback      `yaml:"fallback"`
	Cache         Cache         `yaml:"cache"`
	Performance   Performance   `yaml:"performance"`
}

// Collaborative 协同过滤配置。
type Collaborative struct {
	// SimilarityThreshold 相似度阈值，低于此值的候选被丢弃
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	// DefaultMethod 默认相似度方法：cosine / pearson / adjusted_cosine
	DefaultMethod string `yaml:"default_method"`
	// 综合评分三元权重，和为 1.0
	SimilarityWeight float64 `yaml:"similarity_weight"`
	RestaurantWeight float64 `yaml:"restaurant_weight"`
	SocialWeight     float64 `yaml:"social_weight"`
	// 推荐数量限制
	MaxRecommendationsPerUser  int `yaml:"max_recommendations_per_user"`
	DefaultRecommendationCount int `yaml:"default_recommendation_count"`
	// 数据过滤
	MinCommonRestaurants int `yaml:"min_common_restaurants"`
	MinUserVisits        int `yaml:"min_user_visits"`
}

// Social 社交推荐配置。
type Social struct {
	// 社交距离权重：一度 / 二度
	FirstDegreeWeight  float64 `yaml:"first_degree_weight"`
	SecondDegreeWeight float64 `yaml:"second_degree_weight"`
	// 融合二元权重，和为 1.0
	SimilarityWeight     float64 `yaml:"similarity_weight"`
	SocialDistanceWeight float64 `yaml:"social_distance_weight"`
	// 共同关注奖励：每个共同关注 +bonus，最多计 maxBonus 个
	MutualFollowBonus    float64 `yaml:"mutual_follow_bonus"`
	MaxMutualFollowBonus int     `yaml:"max_mutual_follow_bonus"`
	// 候选池上限：一度 / 二度
	MaxFirstDegree  int `yaml:"max_first_degree"`
	MaxSecondDegree int `yaml:"max_second_degree"`
}

// Hybrid 混合推荐配置。
type Hybrid struct {
	// DefaultStrategy 默认策略：WEIGHTED / SWITCHING / CASCADING
	DefaultStrategy string `yaml:"default_strategy"`
	// 加权策略基准权重，和为 1.0（运行时按数据丰富度动态调整）
	CollaborativeWeight float64 `yaml:"collaborative_weight"`
	SocialWeight        float64 `yaml:"social_weight"`
	// 分层策略中社交位的占比
	SocialRatio float64 `yaml:"social_ratio"`
	// 切换策略阈值
	MinVisitsForCollaborative int `yaml:"min_visits_for_collaborative"`
	MinFollowingForSocial     int `yaml:"min_following_for_social"`
	MinVisitsForWeighted      int `yaml:"min_visits_for_weighted"`
	MinFollowingForWeighted   int `yaml:"min_following_for_weighted"`
	// 多样性重排：单算法来源的最大占位
	MaxPerAlgorithm int `yaml:"max_per_algorithm"`
}

// Fallback 热门兜底配置。
type Fallback struct {
	// ActivityWindowDays 活跃用户判定窗口（天）
	ActivityWindowDays int `yaml:"activity_window_days"`
	// 流行度三元权重，和为 1.0
	FollowersWeight float64 `yaml:"followers_weight"`
	VisitsWeight    float64 `yaml:"visits_weight"`
	DistinctWeight  float64 `yaml:"distinct_weight"`
	// 最终分二元权重，和为 1.0
	PopularityWeight float64 `yaml:"popularity_weight"`
	SimilarityWeight float64 `yaml:"similarity_weight"`
}

// Cache 缓存配置，TTL 单位为秒。
type Cache struct {
	Enabled               bool `yaml:"enabled"`
	CollaborativeTTL      int  `yaml:"collaborative_ttl"`
	SocialTTL             int  `yaml:"social_ttl"`
	HybridTTL             int  `yaml:"hybrid_ttl"`
	SimilarityEntryTTL    int  `yaml:"similarity_entry_ttl"`
	PopularUsersTTL       int  `yaml:"popular_users_ttl"`
	EnableSimilarityCache bool `yaml:"enable_similarity_cache"`
}

// Performance 性能与后台任务配置。
type Performance struct {
	// MaxConcurrentScoring 候选打分的并发上限
	MaxConcurrentScoring int `yaml:"max_concurrent_scoring"`
	// MaxGenerationTimeMs 单次推荐生成的最长耗时（毫秒），超时降级到兜底
	MaxGenerationTimeMs int `yaml:"max_generation_time_ms"`
	// 后台任务
	EnableScheduledTasks        bool `yaml:"enable_scheduled_tasks"`
	SimilarityRefreshHours      int  `yaml:"similarity_refresh_hours"`
	CleanupIntervalHours        int  `yaml:"cleanup_interval_hours"`
	SimilarityRetentionDays     int  `yaml:"similarity_retention_days"`
	RecommendationRetentionDays int  `yaml:"recommendation_retention_days"`
}

// Default 返回带内置默认值的配置。
func Default() *Config {
	return &Config{
		Collaborative: Collaborative{
			SimilarityThreshold:        0.3,
			DefaultMethod:              string(core.MethodCosine),
			SimilarityWeight:           0.6,
			RestaurantWeight:           0.3,
			SocialWeight:               0.1,
			MaxRecommendationsPerUser:  50,
			DefaultRecommendationCount: 10,
			MinCommonRestaurants:       1,
			MinUserVisits:              3,
		},
		Social: Social{
			FirstDegreeWeight:    1.0,
			SecondDegreeWeight:   0.5,
			SimilarityWeight:     0.7,
			SocialDistanceWeight: 0.3,
			MutualFollowBonus:    0.2,
			MaxMutualFollowBonus: 10,
			MaxFirstDegree:       20,
			MaxSecondDegree:      30,
		},
		Hybrid: Hybrid{
			DefaultStrategy:           string(core.StrategyWeighted),
			CollaborativeWeight:       0.6,
			SocialWeight:              0.4,
			SocialRatio:               0.6,
			MinVisitsForCollaborative: 5,
			MinFollowingForSocial:     3,
			MinVisitsForWeighted:      10,
			MinFollowingForWeighted:   5,
			MaxPerAlgorithm:           10,
		},
		Fallback: Fallback{
			ActivityWindowDays: 30,
			FollowersWeight:    0.5,
			VisitsWeight:       0.3,
			DistinctWeight:     0.2,
			PopularityWeight:   0.7,
			SimilarityWeight:   0.3,
		},
		Cache: Cache{
			Enabled:               true,
			CollaborativeTTL:      1800,
			SocialTTL:             1800,
			HybridTTL:             1800,
			SimilarityEntryTTL:    86400,
			PopularUsersTTL:       21600,
			EnableSimilarityCache: true,
		},
		Performance: Performance{
			MaxConcurrentScoring:        10,
			MaxGenerationTimeMs:         5000,
			EnableScheduledTasks:        true,
			SimilarityRefreshHours:      6,
			CleanupIntervalHours:        24,
			SimilarityRetentionDays:     7,
			RecommendationRetentionDays: 30,
		},
	}
}

// Load 从 YAML 文件加载配置：先取默认值，再用文件内容覆盖，最后校验。
// 校验失败视为致命错误。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("config: read %s: %v", path, err))
	}
	return Parse(data)
}

// Parse 从 YAML 内容解析配置。
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("config: parse yaml: %v", err))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

const weightEpsilon = 1e-9

func sumsToOne(weights ...float64) bool {
	var sum float64
	for _, w := range weights {
		if w < 0 {
			return false
		}
		sum += w
	}
	return math.Abs(sum-1.0) < weightEpsilon
}

// Validate 校验配置：权重组和为 1.0、阈值落在 [0,1]、数量为正。
// 任一违例返回 INVALID_CONFIG。
func (c *Config) Validate() error {
	invalid := func(msg string) error {
		return core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidConfig, "config: "+msg)
	}

	if !sumsToOne(c.Collaborative.SimilarityWeight, c.Collaborative.RestaurantWeight, c.Collaborative.SocialWeight) {
		return invalid("collaborative weights must sum to 1.0")
	}
	if c.Collaborative.SimilarityThreshold < 0 || c.Collaborative.SimilarityThreshold > 1 {
		return invalid("collaborative.similarity_threshold must be in [0,1]")
	}
	if c.Collaborative.MaxRecommendationsPerUser <= 0 || c.Collaborative.DefaultRecommendationCount <= 0 {
		return invalid("collaborative recommendation counts must be positive")
	}

	if !sumsToOne(c.Social.SimilarityWeight, c.Social.SocialDistanceWeight) {
		return invalid("social weights must sum to 1.0")
	}
	if c.Social.MaxFirstDegree <= 0 || c.Social.MaxSecondDegree <= 0 {
		return invalid("social pool caps must be positive")
	}

	if !sumsToOne(c.Hybrid.CollaborativeWeight, c.Hybrid.SocialWeight) {
		return invalid("hybrid weights must sum to 1.0")
	}
	if c.Hybrid.SocialRatio < 0 || c.Hybrid.SocialRatio > 1 {
		return invalid("hybrid.social_ratio must be in [0,1]")
	}
	if _, ok := core.ParseStrategy(c.Hybrid.DefaultStrategy); !ok {
		return invalid("hybrid.default_strategy must be WEIGHTED, SWITCHING or CASCADING")
	}

	if !sumsToOne(c.Fallback.FollowersWeight, c.Fallback.VisitsWeight, c.Fallback.DistinctWeight) {
		return invalid("fallback popularity weights must sum to 1.0")
	}
	if !sumsToOne(c.Fallback.PopularityWeight, c.Fallback.SimilarityWeight) {
		return invalid("fallback blend weights must sum to 1.0")
	}
	if c.Fallback.ActivityWindowDays <= 0 {
		return invalid("fallback.activity_window_days must be positive")
	}

	if c.Cache.CollaborativeTTL < 0 || c.Cache.SocialTTL < 0 || c.Cache.HybridTTL < 0 {
		return invalid("cache ttls must be non-negative")
	}
	if c.Performance.MaxConcurrentScoring <= 0 {
		return invalid("performance.max_concurrent_scoring must be positive")
	}
	if c.Performance.MaxGenerationTimeMs <= 0 {
		return invalid("performance.max_generation_time_ms must be positive")
	}
	return nil
}

// GenerationTimeout 返回单次推荐生成的超时时长。
func (c *Config) GenerationTimeout() time.Duration {
	return time.Duration(c.Performance.MaxGenerationTimeMs) * time.Millisecond
}

// ActivityWindow 返回兜底算法的活跃窗口时长。
func (c *Config) ActivityWindow() time.Duration {
	return time.Duration(c.Fallback.ActivityWindowDays) * 24 * time.Hour
}

// SimilarityRetention 返回相似度条目的保留窗口。
func (c *Config) SimilarityRetention() time.Duration {
	return time.Duration(c.Performance.SimilarityRetentionDays) * 24 * time.Hour
}

// RecordRetention 返回推荐记录的保留窗口。
func (c *Config) RecordRetention() time.Duration {
	return time.Duration(c.Performance.RecommendationRetentionDays) * 24 * time.Hour
}
