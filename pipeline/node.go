package pipeline

import (
	"context"

	"github.com/ljyh223/foodieconnect-recommend/core"
)

// Kind 用于标记 Node 类型，方便观测/治理/编排（例如按阶段打点）。
type Kind string

const (
	KindRecall      Kind = "recall"      // 召回阶段：生成候选集
	KindFilter      Kind = "filter"      // 过滤阶段：剔除不符合约束的候选
	KindReRank      Kind = "rerank"      // 重排阶段：在排序结果上做多样性/截断
	KindPostProcess Kind = "postprocess" // 后处理阶段：补充展示信息或最终修饰
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用「输入候选列表 -> 输出候选列表」的形态，
// 过滤、截断、多样性重排都是同一形态下的不同实现。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		userID int64,
		scores []*core.RecommendationScore,
	) ([]*core.RecommendationScore, error)
}
