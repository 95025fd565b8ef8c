package core

import "time"

// VisitType 是用户与餐厅交互的类型。
// 不同交互类型在综合评分中携带不同权重：主动评论的信号最强，签到最弱。
type VisitType string

const (
	VisitTypeReview         VisitType = "REVIEW"         // 评论
	VisitTypeRecommendation VisitType = "RECOMMENDATION" // 推荐
	VisitTypeFavorite       VisitType = "FAVORITE"       // 收藏
	VisitTypeCheckIn        VisitType = "CHECK_IN"       // 签到
)

// Weight 返回访问类型权重。未知类型按 0.5 处理。
func (t VisitType) Weight() float64 {
	switch t {
	case VisitTypeReview:
		return 1.0
	case VisitTypeRecommendation:
		return 0.9
	case VisitTypeFavorite:
		return 0.8
	case VisitTypeCheckIn:
		return 0.6
	default:
		return 0.5
	}
}

// Visit 是一条用户-餐厅交互记录。
// 对推荐引擎而言是只读输入：由上游的评论/收藏/签到动作产生和维护。
//
// Rating 为可选评分（0-5），nil 表示未评分；
// VisitCount 表示同一 (用户, 餐厅, 类型) 的累计访问次数。
type Visit struct {
	UserID        int64
	RestaurantID  int64
	VisitType     VisitType
	Rating        *float64
	VisitCount    int
	LastVisitTime time.Time
}

// BaseRating 返回基础评分；未评分时使用默认值 3.0。
func (v *Visit) BaseRating() float64 {
	if v.Rating != nil {
		return *v.Rating
	}
	return 3.0
}

// FollowEdge 是关注关系图中的一条有向边：follower 关注 following。
// 无自环，(follower, following) 唯一。只读输入。
type FollowEdge struct {
	FollowerID  int64
	FollowingID int64
	CreatedAt   time.Time
}

// UserInfo 是候选用户的展示信息，用于填充推荐结果中的昵称与头像。
type UserInfo struct {
	ID        int64
	Name      string
	AvatarURL string
}
