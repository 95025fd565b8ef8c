// Package pipeline 把推荐结果的后处理拆成可组合的 Node 链：
// 过滤 → 截断 → 多样性重排，每个环节都可按配置替换。
package pipeline

import (
	"context"

	"github.com/ljyh223/foodieconnect-recommend/core"
)

// Pipeline 是后处理链：按顺序执行各 Node，任一环节出错立即终止。
type Pipeline struct {
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	userID int64,
	scores []*core.RecommendationScore,
) ([]*core.RecommendationScore, error) {
	cur := scores
	for _, node := range p.Nodes {
		next, err := node.Process(ctx, userID, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
