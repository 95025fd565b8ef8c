package core

import (
	"sort"
	"strings"

	"github.com/ljyh223/foodieconnect-recommend/pkg/utils"
)

// 算法类型标签：标记一条推荐由哪条链路产出，用于解释、统计与多样性重排。
const (
	AlgorithmCollaborative           = "collaborative"                  // 协同过滤
	AlgorithmSocial                  = "social"                         // 社交推荐
	AlgorithmHybridWeighted          = "hybrid_weighted"                // 加权混合
	AlgorithmHybridSwitchingCollab   = "hybrid_switching_collaborative" // 切换混合（协同分支）
	AlgorithmHybridSwitchingSocial   = "hybrid_switching_social"        // 切换混合（社交分支）
	AlgorithmHybridCascading         = "hybrid_cascading"               // 分层混合
	AlgorithmPopularFallback         = "popular_fallback"               // 热门兜底
)

// Strategy 是混合推荐的融合策略。
type Strategy string

const (
	StrategyWeighted  Strategy = "WEIGHTED"  // 加权混合：两路结果按动态权重融合
	StrategySwitching Strategy = "SWITCHING" // 切换混合：按数据丰富度选择单一算法
	StrategyCascading Strategy = "CASCADING" // 分层混合：社交优先，协同补位，热门兜底
)

// ParseStrategy 解析策略字符串。未知字符串回退到 WEIGHTED（保持推荐面可用），
// 第二个返回值指示输入是否为已知策略。
func ParseStrategy(s string) (Strategy, bool) {
	switch Strategy(strings.ToUpper(strings.TrimSpace(s))) {
	case StrategyWeighted:
		return StrategyWeighted, true
	case StrategySwitching:
		return StrategySwitching, true
	case StrategyCascading:
		return StrategyCascading, true
	case "":
		return StrategyWeighted, true
	default:
		return StrategyWeighted, false
	}
}

// Method 是用户相似度的计算方法。
type Method string

const (
	MethodCosine         Method = "cosine"          // 余弦相似度
	MethodPearson        Method = "pearson"         // 皮尔逊相关系数
	MethodAdjustedCosine Method = "adjusted_cosine" // 调整余弦相似度
)

// ParseMethod 解析相似度方法字符串，未知值回退到 cosine。
func ParseMethod(s string) Method {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case MethodPearson:
		return MethodPearson
	case MethodAdjustedCosine:
		return MethodAdjustedCosine
	default:
		return MethodCosine
	}
}

// RecommendationScore 是一次推荐调用中的瞬态结果条目，仅在内存中流转，
// 持久化时投影为 RecommendationRecord。
//
// 排序约束：列表整体按 Score 降序全序排列，同分时按共同餐厅数降序、
// 再按 UserID 升序稳定排序 —— Top-N 截断依赖这里的确定性。
type RecommendationScore struct {
	UserID            int64   `json:"user_id"`
	UserName          string  `json:"user_name"`
	UserAvatar        string  `json:"user_avatar"`
	Score             float64 `json:"score"`
	AlgorithmType     string  `json:"algorithm_type"`
	Similarity        float64 `json:"similarity"`
	SocialDistance    int     `json:"social_distance"`
	MutualFollowCount int     `json:"mutual_follow_count"`
	CommonRestaurants int     `json:"common_restaurants"`
	Reason            string  `json:"reason"`
	ActivityScore     float64 `json:"activity_score"`

	// Labels 全链路透传，用于 explain / 观测 / 策略驱动。
	Labels map[string]utils.Label `json:"labels,omitempty"`
}

// PutLabel 写入 Label；同名 key 按默认 Merge 规则累积。
func (s *RecommendationScore) PutLabel(key string, lbl utils.Label) {
	if s.Labels == nil {
		s.Labels = make(map[string]utils.Label)
	}
	if old, ok := s.Labels[key]; ok {
		s.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	s.Labels[key] = lbl
}

// Clone 返回条目的浅拷贝（Labels 重新建 map），
// 混合策略在调权改写前必须 Clone，避免污染缓存中的共享切片。
func (s *RecommendationScore) Clone() *RecommendationScore {
	dup := *s
	if s.Labels != nil {
		dup.Labels = make(map[string]utils.Label, len(s.Labels))
		for k, v := range s.Labels {
			dup.Labels[k] = v
		}
	}
	return &dup
}

// SortScores 就地稳定排序：Score 降序 → 共同餐厅数降序 → UserID 升序。
func SortScores(scores []*RecommendationScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		if scores[i].CommonRestaurants != scores[j].CommonRestaurants {
			return scores[i].CommonRestaurants > scores[j].CommonRestaurants
		}
		return scores[i].UserID < scores[j].UserID
	})
}

// Clamp01 把分数收敛到 [0, 1]，对外暴露或落库前必须经过这里。
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
