package rerank

import (
	"context"

	"github.com/ljyh223/foodieconnect-recommend/core"
	"github.com/ljyh223/foodieconnect-recommend/pipeline"
)

// DiversityNode 是算法多样性重排节点：贪心保留算法来源多样的候选。
//
// 第一次出现的算法类型多样性记 1.0，重复出现记 0.5；
// 低于 Threshold 的候选被跳过，结果最多保留 MaxResults 条。
// 用于希望算法来源多样而非唯分数论的调用方，不默认启用。
type DiversityNode struct {
	// Threshold 多样性阈值，默认 0.3
	Threshold float64
	// MaxResults 保留上限，默认 10
	MaxResults int
}

func (n *DiversityNode) Name() string {
	return "rerank.diversity"
}

func (n *DiversityNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *DiversityNode) Process(
	_ context.Context,
	_ int64,
	scores []*core.RecommendationScore,
) ([]*core.RecommendationScore, error) {
	if len(scores) == 0 {
		return scores, nil
	}

	threshold := n.Threshold
	if threshold <= 0 {
		threshold = 0.3
	}
	maxResults := n.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}

	used := make(map[string]struct{}, 4)
	out := make([]*core.RecommendationScore, 0, maxResults)
	for _, s := range scores {
		if s == nil {
			continue
		}
		diversity := 1.0
		if len(used) > 0 {
			if _, seen := used[s.AlgorithmType]; seen {
				diversity = 0.5
			}
		}
		if diversity >= threshold || len(out) == 0 {
			out = append(out, s)
			used[s.AlgorithmType] = struct{}{}
			if len(out) >= maxResults {
				break
			}
		}
	}
	return out, nil
}
