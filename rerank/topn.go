// Package rerank 提供排序结果上的重排节点：Top-N 截断与算法多样性。
package rerank

import (
	"context"

	"github.com/ljyh223/foodieconnect-recommend/core"
	"github.com/ljyh223/foodieconnect-recommend/pipeline"
)

// TopNNode 是 Top-N 截断节点，在排序后截取前 N 个候选。
//
// 使用场景：
//   - 融合后只返回 Top 10/20 个结果
//   - 配合多样性重排使用
//
// 示例：
//
//	p := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &filter.FilterNode{...},       // 过滤
//	        &rerank.TopNNode{N: 20},       // 截取 Top 20
//	        &rerank.DiversityNode{...},    // 多样性重排
//	    },
//	}
type TopNNode struct {
	// N 要保留的候选数量（Top N）
	// 如果 N <= 0，则返回所有候选（不截断）
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	_ int64,
	scores []*core.RecommendationScore,
) ([]*core.RecommendationScore, error) {
	if n.N <= 0 {
		return scores, nil
	}
	if len(scores) <= n.N {
		return scores, nil
	}
	return scores[:n.N], nil
}
