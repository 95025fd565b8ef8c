// Package recommend 是觅食社区的用户推荐引擎（谁值得你关注）。
//
// 设计要点：
//   - 混合推荐: 协同过滤（基于餐厅评分向量）与社交图谱（二度关系）按
//     WEIGHTED / SWITCHING / CASCADING 三种策略融合，数据稀疏时回退热门用户
//   - 领域分层: core 定义实体与仓储接口，repo 提供内存 / PostgreSQL / Neo4j 实现，
//     store 提供内存 / Redis 缓存
//   - 后处理链: 过滤（排除、曝光、拉黑、CEL 规则）→ 截断 → 多样性重排，
//     各 Node 可经 pipeline.Config 配置驱动组装
package recommend

import "github.com/ljyh223/foodieconnect-recommend/pipeline"

// 轻量 facade：便于直接 import 根包使用后处理链的核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindFilter      = pipeline.KindFilter
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
