package core

import "time"

// SimilarityEntry 是一条用户相似度缓存：属于相似度引擎的可重算缓存，
// 不是 ground truth，超过保留窗口即视为过期。
//
// 约定：无序对以 User1ID < User2ID 的顺序落库；查询方必须兼容两种顺序
// （相似度对称：sim(a,b) == sim(b,a)）。
type SimilarityEntry struct {
	User1ID               int64
	User2ID               int64
	AlgorithmType         Method
	SimilarityScore       float64
	CommonRestaurantCount int
	LastCalculated        time.Time
}

// NormalizePair 按 User1ID < User2ID 归一化无序对。
func (e *SimilarityEntry) NormalizePair() {
	if e.User1ID > e.User2ID {
		e.User1ID, e.User2ID = e.User2ID, e.User1ID
	}
}

// Expired 判断条目是否超出保留窗口。
func (e *SimilarityEntry) Expired(retention time.Duration, now time.Time) bool {
	return now.Sub(e.LastCalculated) > retention
}

// RecommendationRecord 是一条已下发的推荐记录，由融合引擎在返回最终列表时落库，
// 之后由用户反馈动作修改，由保留期清理或用户显式删除销毁。
//
// IsInterested 为三态：nil 未反馈 / true 感兴趣 / false 不感兴趣。
type RecommendationRecord struct {
	ID                int64
	UserID            int64
	RecommendedUserID int64
	AlgorithmType     string
	Score             float64
	Reason            string
	IsViewed          bool
	IsInterested      *bool
	Feedback          string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// RecommendationStats 是单个用户的推荐效果统计。
type RecommendationStats struct {
	TotalRecommendations int     `json:"total_recommendations"`
	ViewedCount          int     `json:"viewed_count"`
	InterestedCount      int     `json:"interested_count"`
	ClickThroughRate     float64 `json:"click_through_rate"` // viewed / total
	ConversionRate       float64 `json:"conversion_rate"`    // interested / viewed
}

// AlgorithmStats 是按算法类型聚合的统计（全局或单用户维度）。
type AlgorithmStats struct {
	AlgorithmType   string  `json:"algorithm_type"`
	Total           int     `json:"total"`
	ViewedCount     int     `json:"viewed_count"`
	InterestedCount int     `json:"interested_count"`
	AvgScore        float64 `json:"avg_score"`
}

// Richness 是用户的数据丰富度画像：动态权重与切换策略的决策依据。
type Richness struct {
	UserID                  int64
	VisitCount              int     // 访问记录总数
	DistinctRestaurantCount int     // 去重餐厅数
	FollowingCount          int     // 关注数
	FollowersCount          int     // 粉丝数
	DataQuality             float64 // 数据质量分：近 30 天评分覆盖率与类型多样性
	ActivityScore           float64 // 活跃度分：7/30/90 天加权
}
