package sqlrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/ljyh223/foodieconnect-recommend/core"
)

// RecordRepo 基于 user_recommendations 表实现 core.RecommendationRepository。
//
//	CREATE TABLE user_recommendations (
//	    id                  BIGSERIAL PRIMARY KEY,
//	    user_id             BIGINT           NOT NULL,
//	    recommended_user_id BIGINT           NOT NULL,
//	    algorithm_type      TEXT             NOT NULL,
//	    score               DOUBLE PRECISION NOT NULL,
//	    reason              TEXT             NOT NULL DEFAULT '',
//	    is_viewed           BOOLEAN          NOT NULL DEFAULT FALSE,
//	    is_interested       BOOLEAN,
//	    feedback            TEXT             NOT NULL DEFAULT '',
//	    created_at          TIMESTAMPTZ      NOT NULL DEFAULT now(),
//	    updated_at          TIMESTAMPTZ      NOT NULL DEFAULT now(),
//	    UNIQUE (user_id, recommended_user_id, algorithm_type)
//	);
//	CREATE INDEX idx_user_recommendations_user_created
//	    ON user_recommendations (user_id, created_at DESC);
type RecordRepo struct {
	db *sql.DB
}

var _ core.RecommendationRepository = (*RecordRepo)(nil)

// NewRecordRepo 创建推荐记录仓储。
func NewRecordRepo(db *sql.DB) *RecordRepo {
	return &RecordRepo{db: db}
}

const recordColumns = `id, user_id, recommended_user_id, algorithm_type, score, reason,
	is_viewed, is_interested, feedback, created_at, updated_at`

func scanRecord(rows *sql.Rows) (*core.RecommendationRecord, error) {
	var (
		rec        core.RecommendationRecord
		interested sql.NullBool
	)
	if err := rows.Scan(&rec.ID, &rec.UserID, &rec.RecommendedUserID, &rec.AlgorithmType,
		&rec.Score, &rec.Reason, &rec.IsViewed, &interested, &rec.Feedback,
		&rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	if interested.Valid {
		v := interested.Bool
		rec.IsInterested = &v
	}
	return &rec, nil
}

func (r *RecordRepo) queryOne(ctx context.Context, query string, args ...any) (*core.RecommendationRecord, error) {
	recs, err := queryAndScan(ctx, r.db, query, args, scanRecord)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return recs[0], nil
}

func (r *RecordRepo) FindByID(ctx context.Context, id int64) (*core.RecommendationRecord, error) {
	return r.queryOne(ctx,
		`SELECT `+recordColumns+` FROM user_recommendations WHERE id = $1`, id)
}

func (r *RecordRepo) FindByUserAndTarget(ctx context.Context, userID, recommendedUserID int64, algorithmType string) (*core.RecommendationRecord, error) {
	return r.queryOne(ctx,
		`SELECT `+recordColumns+` FROM user_recommendations
		  WHERE user_id = $1 AND recommended_user_id = $2 AND algorithm_type = $3`,
		userID, recommendedUserID, algorithmType)
}

func (r *RecordRepo) Insert(ctx context.Context, rec *core.RecommendationRecord) error {
	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CreatedAt
	}
	var interested sql.NullBool
	if rec.IsInterested != nil {
		interested = sql.NullBool{Bool: *rec.IsInterested, Valid: true}
	}
	return r.db.QueryRowContext(ctx,
		`INSERT INTO user_recommendations
		    (user_id, recommended_user_id, algorithm_type, score, reason,
		     is_viewed, is_interested, feedback, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		rec.UserID, rec.RecommendedUserID, rec.AlgorithmType, rec.Score, rec.Reason,
		rec.IsViewed, interested, rec.Feedback, rec.CreatedAt, rec.UpdatedAt,
	).Scan(&rec.ID)
}

func (r *RecordRepo) Update(ctx context.Context, rec *core.RecommendationRecord) error {
	rec.UpdatedAt = time.Now()
	var interested sql.NullBool
	if rec.IsInterested != nil {
		interested = sql.NullBool{Bool: *rec.IsInterested, Valid: true}
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE user_recommendations SET
		    score = $1, reason = $2, is_viewed = $3, is_interested = $4,
		    feedback = $5, updated_at = $6
		  WHERE id = $7`,
		rec.Score, rec.Reason, rec.IsViewed, interested, rec.Feedback, rec.UpdatedAt, rec.ID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return core.NewDomainError(core.ModuleRepo, core.ErrorCodeNotFound, "recommendation record not found")
	}
	return nil
}

func (r *RecordRepo) DeleteByID(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_recommendations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return core.NewDomainError(core.ModuleRepo, core.ErrorCodeNotFound, "recommendation record not found")
	}
	return nil
}

func (r *RecordRepo) DeleteByUserID(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_recommendations WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *RecordRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_recommendations WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *RecordRepo) CountByUserID(ctx context.Context, userID int64) (int, error) {
	return queryInt(ctx, r.db,
		`SELECT COUNT(*) FROM user_recommendations WHERE user_id = $1`, userID)
}

func (r *RecordRepo) CountByUserIDAndViewed(ctx context.Context, userID int64, viewed bool) (int, error) {
	return queryInt(ctx, r.db,
		`SELECT COUNT(*) FROM user_recommendations WHERE user_id = $1 AND is_viewed = $2`,
		userID, viewed)
}

func (r *RecordRepo) CountByUserIDAndInterested(ctx context.Context, userID int64, interested bool) (int, error) {
	return queryInt(ctx, r.db,
		`SELECT COUNT(*) FROM user_recommendations WHERE user_id = $1 AND is_interested = $2`,
		userID, interested)
}

func (r *RecordRepo) FindByUserIDPaginated(ctx context.Context, userID int64, offset, limit int) ([]*core.RecommendationRecord, error) {
	if offset < 0 {
		offset = 0
	}
	return queryAndScan(ctx, r.db,
		`SELECT `+recordColumns+` FROM user_recommendations
		  WHERE user_id = $1
		  ORDER BY created_at DESC, id DESC
		  OFFSET $2 LIMIT $3`,
		[]any{userID, offset, limit}, scanRecord)
}

func (r *RecordRepo) FindUnviewedByUserID(ctx context.Context, userID int64, limit int) ([]*core.RecommendationRecord, error) {
	return queryAndScan(ctx, r.db,
		`SELECT `+recordColumns+` FROM user_recommendations
		  WHERE user_id = $1 AND is_viewed = FALSE
		  ORDER BY created_at DESC, id DESC
		  LIMIT $2`,
		[]any{userID, limit}, scanRecord)
}

func (r *RecordRepo) BatchMarkViewed(ctx context.Context, userID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE user_recommendations SET is_viewed = TRUE, updated_at = now()
		  WHERE user_id = $1 AND id = ANY($2) AND is_viewed = FALSE`,
		userID, pq.Array(ids))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const algorithmStatsSQL = `
SELECT algorithm_type,
       COUNT(*)                                            AS total,
       COUNT(*) FILTER (WHERE is_viewed)                   AS viewed_count,
       COUNT(*) FILTER (WHERE is_interested IS TRUE)       AS interested_count,
       COALESCE(AVG(score), 0)                             AS avg_score
  FROM user_recommendations`

func scanAlgorithmStats(rows *sql.Rows) (*core.AlgorithmStats, error) {
	var s core.AlgorithmStats
	if err := rows.Scan(&s.AlgorithmType, &s.Total, &s.ViewedCount, &s.InterestedCount, &s.AvgScore); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *RecordRepo) GetAlgorithmStatsByUser(ctx context.Context, userID int64) ([]*core.AlgorithmStats, error) {
	return queryAndScan(ctx, r.db,
		algorithmStatsSQL+` WHERE user_id = $1 GROUP BY algorithm_type ORDER BY algorithm_type`,
		[]any{userID}, scanAlgorithmStats)
}

func (r *RecordRepo) GetGlobalAlgorithmStats(ctx context.Context) ([]*core.AlgorithmStats, error) {
	return queryAndScan(ctx, r.db,
		algorithmStatsSQL+` GROUP BY algorithm_type ORDER BY algorithm_type`,
		nil, scanAlgorithmStats)
}

func (r *RecordRepo) GetRecommendedUserIDs(ctx context.Context, userID int64) ([]int64, error) {
	return queryAndScan(ctx, r.db,
		`SELECT DISTINCT recommended_user_id FROM user_recommendations
		  WHERE user_id = $1 ORDER BY recommended_user_id`,
		[]any{userID},
		func(rows *sql.Rows) (int64, error) {
			var id int64
			err := rows.Scan(&id)
			return id, err
		})
}
