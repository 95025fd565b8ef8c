package config

import (
	"fmt"

	"github.com/ljyh223/foodieconnect-recommend/core"
	"github.com/ljyh223/foodieconnect-recommend/filter"
	"github.com/ljyh223/foodieconnect-recommend/pipeline"
	"github.com/ljyh223/foodieconnect-recommend/rerank"
)

// FactoryDeps 是配置驱动构建 Node 时需要注入的外部依赖。
// Node 配置（YAML/JSON）只承载参数，仓储与存储由调用方提供。
type FactoryDeps struct {
	Follows core.FollowRepository
	Records core.RecommendationRepository
	Store   core.Store
}

// DefaultFactory 返回注册了全部内置后处理 Node 的工厂。
//
// 支持的 Node 类型：
//   - filter.exclusion: 过滤自己与已关注用户
//   - filter.exposed:   过滤推荐过的用户
//   - filter.block:     过滤拉黑的用户（config: key_prefix）
//   - filter.rule:      CEL 表达式过滤（config: expr）
//   - rerank.topn:      截断（config: n）
//   - rerank.diversity: 算法多样性重排（config: threshold, max_results）
func DefaultFactory(deps FactoryDeps) *pipeline.NodeFactory {
	factory := pipeline.NewNodeFactory()

	factory.Register("filter.exclusion", func(_ map[string]interface{}) (pipeline.Node, error) {
		return &filter.FilterNode{Filters: []filter.Filter{filter.NewExclusionFilter(deps.Follows)}}, nil
	})

	factory.Register("filter.exposed", func(_ map[string]interface{}) (pipeline.Node, error) {
		if deps.Records == nil {
			return nil, fmt.Errorf("filter.exposed: records repository is required")
		}
		return &filter.FilterNode{Filters: []filter.Filter{filter.NewExposedFilter(deps.Records)}}, nil
	})

	factory.Register("filter.block", func(cfg map[string]interface{}) (pipeline.Node, error) {
		prefix := stringValue(cfg, "key_prefix")
		return &filter.FilterNode{Filters: []filter.Filter{filter.NewBlockFilter(nil, deps.Store, prefix)}}, nil
	})

	factory.Register("filter.rule", func(cfg map[string]interface{}) (pipeline.Node, error) {
		expr := stringValue(cfg, "expr")
		f, err := filter.NewRuleFilter(expr)
		if err != nil {
			return nil, fmt.Errorf("filter.rule: %w", err)
		}
		return &filter.FilterNode{Filters: []filter.Filter{f}}, nil
	})

	factory.Register("rerank.topn", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return &rerank.TopNNode{N: intValue(cfg, "n")}, nil
	})

	factory.Register("rerank.diversity", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return &rerank.DiversityNode{
			Threshold:  floatValue(cfg, "threshold"),
			MaxResults: intValue(cfg, "max_results"),
		}, nil
	})

	return factory
}

// YAML/JSON 解码后的数值类型不统一（int / float64 / json.Number 均可能出现），
// 这里做宽松取值，取不到返回零值。

func stringValue(cfg map[string]interface{}, key string) string {
	if cfg == nil {
		return ""
	}
	if s, ok := cfg[key].(string); ok {
		return s
	}
	return ""
}

func intValue(cfg map[string]interface{}, key string) int {
	if cfg == nil {
		return 0
	}
	switch v := cfg[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func floatValue(cfg map[string]interface{}, key string) float64 {
	if cfg == nil {
		return 0
	}
	switch v := cfg[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}
