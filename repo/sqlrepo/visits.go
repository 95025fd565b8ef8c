package sqlrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/ljyh223/foodieconnect-recommend/core"
)

// VisitRepo 基于 user_restaurant_visits 表实现 core.VisitRepository。
//
// 表结构（由上游业务系统维护）：
//
//	CREATE TABLE user_restaurant_visits (
//	    user_id         BIGINT           NOT NULL,
//	    restaurant_id   BIGINT           NOT NULL,
//	    visit_type      TEXT             NOT NULL,
//	    rating          DOUBLE PRECISION,
//	    visit_count     INT              NOT NULL DEFAULT 1,
//	    last_visit_time TIMESTAMPTZ      NOT NULL,
//	    PRIMARY KEY (user_id, restaurant_id, visit_type)
//	);
type VisitRepo struct {
	db *sql.DB
}

var _ core.VisitRepository = (*VisitRepo)(nil)

// NewVisitRepo 创建访问仓储。
func NewVisitRepo(db *sql.DB) *VisitRepo {
	return &VisitRepo{db: db}
}

const visitColumns = `user_id, restaurant_id, visit_type, rating, visit_count, last_visit_time`

func scanVisit(rows *sql.Rows) (*core.Visit, error) {
	var (
		v      core.Visit
		rating sql.NullFloat64
	)
	if err := rows.Scan(&v.UserID, &v.RestaurantID, &v.VisitType, &rating, &v.VisitCount, &v.LastVisitTime); err != nil {
		return nil, err
	}
	if rating.Valid {
		r := rating.Float64
		v.Rating = &r
	}
	return &v, nil
}

func (r *VisitRepo) FindByUserID(ctx context.Context, userID int64) ([]*core.Visit, error) {
	return queryAndScan(ctx, r.db,
		`SELECT `+visitColumns+` FROM user_restaurant_visits WHERE user_id = $1`,
		[]any{userID}, scanVisit)
}

func (r *VisitRepo) FindByRestaurantIDs(ctx context.Context, restaurantIDs []int64) ([]*core.Visit, error) {
	if len(restaurantIDs) == 0 {
		return nil, nil
	}
	return queryAndScan(ctx, r.db,
		`SELECT `+visitColumns+` FROM user_restaurant_visits WHERE restaurant_id = ANY($1)`,
		[]any{pq.Array(restaurantIDs)}, scanVisit)
}

func (r *VisitRepo) FindCommonVisitedRestaurants(ctx context.Context, user1ID, user2ID int64) ([]int64, error) {
	return queryAndScan(ctx, r.db,
		`SELECT DISTINCT a.restaurant_id
		   FROM user_restaurant_visits a
		   JOIN user_restaurant_visits b ON a.restaurant_id = b.restaurant_id
		  WHERE a.user_id = $1 AND b.user_id = $2
		  ORDER BY a.restaurant_id`,
		[]any{user1ID, user2ID},
		func(rows *sql.Rows) (int64, error) {
			var id int64
			err := rows.Scan(&id)
			return id, err
		})
}

func (r *VisitRepo) GetVisitedRestaurantsCount(ctx context.Context, userID int64) (int, error) {
	return queryInt(ctx, r.db,
		`SELECT COUNT(DISTINCT restaurant_id) FROM user_restaurant_visits WHERE user_id = $1`, userID)
}

func (r *VisitRepo) GetVisitCount(ctx context.Context, userID int64) (int, error) {
	return queryInt(ctx, r.db,
		`SELECT COUNT(*) FROM user_restaurant_visits WHERE user_id = $1`, userID)
}

func (r *VisitRepo) GetActiveUserIDs(ctx context.Context, since time.Time) ([]int64, error) {
	return queryAndScan(ctx, r.db,
		`SELECT DISTINCT user_id FROM user_restaurant_visits
		  WHERE last_visit_time >= $1 ORDER BY user_id`,
		[]any{since},
		func(rows *sql.Rows) (int64, error) {
			var id int64
			err := rows.Scan(&id)
			return id, err
		})
}

func (r *VisitRepo) FindByUserIDAndDateRange(ctx context.Context, userID int64, from, to time.Time) ([]*core.Visit, error) {
	return queryAndScan(ctx, r.db,
		`SELECT `+visitColumns+` FROM user_restaurant_visits
		  WHERE user_id = $1 AND last_visit_time BETWEEN $2 AND $3`,
		[]any{userID, from, to}, scanVisit)
}
