package filter

import (
	"context"

	"github.com/ljyh223/foodieconnect-recommend/core"
	"github.com/ljyh223/foodieconnect-recommend/pipeline"
	"github.com/ljyh223/foodieconnect-recommend/pkg/utils"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该候选就会被过滤掉。
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	userID int64,
	scores []*core.RecommendationScore,
) ([]*core.RecommendationScore, error) {
	if len(n.Filters) == 0 || len(scores) == 0 {
		return scores, nil
	}

	out := make([]*core.RecommendationScore, 0, len(scores))
	for _, s := range scores {
		if s == nil {
			continue
		}

		shouldFilter := false
		filterReason := ""

		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, userID, s)
			if err != nil {
				// 过滤器错误时记录但不中断流程
				continue
			}
			if ok {
				shouldFilter = true
				filterReason = f.Name()
				break
			}
		}

		if shouldFilter {
			s.PutLabel("filtered", utils.Label{
				Value:  "true",
				Source: filterReason,
			})
			continue
		}

		out = append(out, s)
	}

	return out, nil
}
