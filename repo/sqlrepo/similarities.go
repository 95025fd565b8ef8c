package sqlrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/ljyh223/foodieconnect-recommend/core"
)

// SimilarityRepo 基于 user_similarities 表实现 core.SimilarityRepository。
//
//	CREATE TABLE user_similarities (
//	    user1_id                BIGINT           NOT NULL,
//	    user2_id                BIGINT           NOT NULL,
//	    algorithm_type          TEXT             NOT NULL,
//	    similarity_score        DOUBLE PRECISION NOT NULL,
//	    common_restaurant_count INT              NOT NULL DEFAULT 0,
//	    last_calculated         TIMESTAMPTZ      NOT NULL,
//	    PRIMARY KEY (user1_id, user2_id, algorithm_type),
//	    CHECK (user1_id < user2_id)
//	);
//
// 无序对以 user1_id < user2_id 落库，写入前统一归一化。
type SimilarityRepo struct {
	db *sql.DB
}

var _ core.SimilarityRepository = (*SimilarityRepo)(nil)

// NewSimilarityRepo 创建相似度仓储。
func NewSimilarityRepo(db *sql.DB) *SimilarityRepo {
	return &SimilarityRepo{db: db}
}

func (r *SimilarityRepo) FindByPair(ctx context.Context, user1ID, user2ID int64, method core.Method) (*core.SimilarityEntry, error) {
	if user1ID > user2ID {
		user1ID, user2ID = user2ID, user1ID
	}

	var entry core.SimilarityEntry
	err := r.db.QueryRowContext(ctx,
		`SELECT user1_id, user2_id, algorithm_type, similarity_score, common_restaurant_count, last_calculated
		   FROM user_similarities
		  WHERE user1_id = $1 AND user2_id = $2 AND algorithm_type = $3`,
		user1ID, user2ID, string(method),
	).Scan(&entry.User1ID, &entry.User2ID, &entry.AlgorithmType,
		&entry.SimilarityScore, &entry.CommonRestaurantCount, &entry.LastCalculated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

const upsertSimilaritySQL = `
INSERT INTO user_similarities
    (user1_id, user2_id, algorithm_type, similarity_score, common_restaurant_count, last_calculated)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user1_id, user2_id, algorithm_type) DO UPDATE SET
    similarity_score        = EXCLUDED.similarity_score,
    common_restaurant_count = EXCLUDED.common_restaurant_count,
    last_calculated         = EXCLUDED.last_calculated`

func (r *SimilarityRepo) Upsert(ctx context.Context, entry *core.SimilarityEntry) error {
	e := *entry
	e.NormalizePair()
	_, err := r.db.ExecContext(ctx, upsertSimilaritySQL,
		e.User1ID, e.User2ID, string(e.AlgorithmType),
		e.SimilarityScore, e.CommonRestaurantCount, e.LastCalculated)
	return err
}

func (r *SimilarityRepo) BatchUpsert(ctx context.Context, entries []*core.SimilarityEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertSimilaritySQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, entry := range entries {
		e := *entry
		e.NormalizePair()
		if _, err := stmt.ExecContext(ctx,
			e.User1ID, e.User2ID, string(e.AlgorithmType),
			e.SimilarityScore, e.CommonRestaurantCount, e.LastCalculated); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *SimilarityRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM user_similarities WHERE last_calculated < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *SimilarityRepo) CountByUser(ctx context.Context, userID int64) (int, error) {
	return queryInt(ctx, r.db,
		`SELECT COUNT(*) FROM user_similarities WHERE user1_id = $1 OR user2_id = $1`, userID)
}
