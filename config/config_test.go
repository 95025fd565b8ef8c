package config

import (
	"testing"

	"github.com/ljyh223/foodieconnect-recommend/core"
)

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("默认配置应通过校验: %v", err)
	}
}

func TestParse_OverridesDefaults(t *testing.T) {
	yaml := `
collaborative:
  similarity_threshold: 0.5
  default_method: pearson
hybrid:
  default_strategy: CASCADING
cache:
  enabled: false
performance:
  max_generation_time_ms: 2000
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() 失败: %v", err)
	}

	if cfg.Collaborative.SimilarityThreshold != 0.5 {
		t.Errorf("similarity_threshold = %v, 期望 0.5", cfg.Collaborative.SimilarityThreshold)
	}
	if got := core.ParseMethod(cfg.Collaborative.DefaultMethod); got != core.MethodPearson {
		t.Errorf("default_method = %v, 期望 pearson", got)
	}
	if cfg.Hybrid.DefaultStrategy != string(core.StrategyCascading) {
		t.Errorf("default_strategy = %v", cfg.Hybrid.DefaultStrategy)
	}
	if cfg.Cache.Enabled {
		t.Error("cache.enabled 应为 false")
	}
	// 未覆盖的字段保持默认值
	if cfg.Social.SecondDegreeWeight != 0.5 {
		t.Errorf("未覆盖字段被改写: %v", cfg.Social.SecondDegreeWeight)
	}
	if cfg.Performance.MaxGenerationTimeMs != 2000 {
		t.Errorf("max_generation_time_ms = %d", cfg.Performance.MaxGenerationTimeMs)
	}
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"协同权重和不为一", func(c *Config) { c.Collaborative.SimilarityWeight = 0.9 }},
		{"相似度阈值越界", func(c *Config) { c.Collaborative.SimilarityThreshold = 1.5 }},
		{"推荐数量非正", func(c *Config) { c.Collaborative.DefaultRecommendationCount = 0 }},
		{"社交权重和不为一", func(c *Config) { c.Social.SimilarityWeight = 0.5 }},
		{"社交候选池上限非正", func(c *Config) { c.Social.MaxSecondDegree = 0 }},
		{"混合权重和不为一", func(c *Config) { c.Hybrid.CollaborativeWeight = 0.9 }},
		{"社交占比越界", func(c *Config) { c.Hybrid.SocialRatio = 1.2 }},
		{"未知默认策略", func(c *Config) { c.Hybrid.DefaultStrategy = "RANDOM" }},
		{"兜底流行度权重和不为一", func(c *Config) { c.Fallback.FollowersWeight = 0.9 }},
		{"兜底融合权重和不为一", func(c *Config) { c.Fallback.PopularityWeight = 0.5 }},
		{"活跃窗口非正", func(c *Config) { c.Fallback.ActivityWindowDays = 0 }},
		{"负的缓存TTL", func(c *Config) { c.Cache.HybridTTL = -1 }},
		{"并发上限非正", func(c *Config) { c.Performance.MaxConcurrentScoring = 0 }},
		{"生成超时非正", func(c *Config) { c.Performance.MaxGenerationTimeMs = 0 }},
		{"负权重", func(c *Config) {
			c.Collaborative.SimilarityWeight = -0.2
			c.Collaborative.RestaurantWeight = 1.1
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("期望校验失败")
			}
			domainErr := core.GetDomainError(err)
			if domainErr == nil || domainErr.Code != core.ErrorCodeInvalidConfig {
				t.Errorf("期望 INVALID_CONFIG, 实际 %v", err)
			}
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("collaborative: ["))
	if err == nil {
		t.Fatal("坏 YAML 应返回错误")
	}
	domainErr := core.GetDomainError(err)
	if domainErr == nil || domainErr.Code != core.ErrorCodeInvalidConfig {
		t.Errorf("期望 INVALID_CONFIG, 实际 %v", err)
	}
}
