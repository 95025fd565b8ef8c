package memrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ljyh223/foodieconnect-recommend/core"
)

// RecordRepo 是 core.RecommendationRepository 的内存实现。
// ID 单调自增，返回的记录都是副本，调用方修改后必须通过 Update 写回。
type RecordRepo struct {
	mu      sync.RWMutex
	nextID  int64
	records map[int64]*core.RecommendationRecord
}

var _ core.RecommendationRepository = (*RecordRepo)(nil)

// NewRecordRepo 创建空的内存推荐记录仓储。
func NewRecordRepo() *RecordRepo {
	return &RecordRepo{
		nextID:  1,
		records: make(map[int64]*core.RecommendationRecord),
	}
}

func cloneRecord(rec *core.RecommendationRecord) *core.RecommendationRecord {
	c := *rec
	if rec.IsInterested != nil {
		v := *rec.IsInterested
		c.IsInterested = &v
	}
	return &c
}

func (r *RecordRepo) FindByID(_ context.Context, id int64) (*core.RecommendationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, nil
	}
	return cloneRecord(rec), nil
}

func (r *RecordRepo) FindByUserAndTarget(_ context.Context, userID, recommendedUserID int64, algorithmType string) (*core.RecommendationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.records {
		if rec.UserID == userID && rec.RecommendedUserID == recommendedUserID && rec.AlgorithmType == algorithmType {
			return cloneRecord(rec), nil
		}
	}
	return nil, nil
}

func (r *RecordRepo) Insert(_ context.Context, rec *core.RecommendationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec.ID = r.nextID
	r.nextID++
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CreatedAt
	}
	r.records[rec.ID] = cloneRecord(rec)
	return nil
}

func (r *RecordRepo) Update(_ context.Context, rec *core.RecommendationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[rec.ID]; !ok {
		return core.NewDomainError(core.ModuleRepo, core.ErrorCodeNotFound, "recommendation record not found")
	}
	rec.UpdatedAt = time.Now()
	r.records[rec.ID] = cloneRecord(rec)
	return nil
}

func (r *RecordRepo) DeleteByID(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[id]; !ok {
		return core.NewDomainError(core.ModuleRepo, core.ErrorCodeNotFound, "recommendation record not found")
	}
	delete(r.records, id)
	return nil
}

func (r *RecordRepo) DeleteByUserID(_ context.Context, userID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, rec := range r.records {
		if rec.UserID == userID {
			delete(r.records, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *RecordRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, rec := range r.records {
		if rec.CreatedAt.Before(cutoff) {
			delete(r.records, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *RecordRepo) CountByUserID(_ context.Context, userID int64) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, rec := range r.records {
		if rec.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (r *RecordRepo) CountByUserIDAndViewed(_ context.Context, userID int64, viewed bool) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, rec := range r.records {
		if rec.UserID == userID && rec.IsViewed == viewed {
			count++
		}
	}
	return count, nil
}

func (r *RecordRepo) CountByUserIDAndInterested(_ context.Context, userID int64, interested bool) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, rec := range r.records {
		if rec.UserID == userID && rec.IsInterested != nil && *rec.IsInterested == interested {
			count++
		}
	}
	return count, nil
}

// byUserLocked 返回某用户的全部记录，按创建时间降序（同刻按 ID 降序）。
func (r *RecordRepo) byUserLocked(userID int64) []*core.RecommendationRecord {
	var out []*core.RecommendationRecord
	for _, rec := range r.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r *RecordRepo) FindByUserIDPaginated(_ context.Context, userID int64, offset, limit int) ([]*core.RecommendationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.byUserLocked(userID)
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return nil, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]*core.RecommendationRecord, 0, end-offset)
	for _, rec := range all[offset:end] {
		out = append(out, cloneRecord(rec))
	}
	return out, nil
}

func (r *RecordRepo) FindUnviewedByUserID(_ context.Context, userID int64, limit int) ([]*core.RecommendationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*core.RecommendationRecord
	for _, rec := range r.byUserLocked(userID) {
		if rec.IsViewed {
			continue
		}
		out = append(out, cloneRecord(rec))
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *RecordRepo) BatchMarkViewed(_ context.Context, userID int64, ids []int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var affected int64
	now := time.Now()
	for _, id := range ids {
		rec, ok := r.records[id]
		if !ok || rec.UserID != userID || rec.IsViewed {
			continue
		}
		rec.IsViewed = true
		rec.UpdatedAt = now
		affected++
	}
	return affected, nil
}

func (r *RecordRepo) GetAlgorithmStatsByUser(_ context.Context, userID int64) ([]*core.AlgorithmStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return aggregateStats(r.records, func(rec *core.RecommendationRecord) bool {
		return rec.UserID == userID
	}), nil
}

func (r *RecordRepo) GetGlobalAlgorithmStats(_ context.Context) ([]*core.AlgorithmStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return aggregateStats(r.records, func(*core.RecommendationRecord) bool { return true }), nil
}

func aggregateStats(records map[int64]*core.RecommendationRecord, match func(*core.RecommendationRecord) bool) []*core.AlgorithmStats {
	byType := make(map[string]*core.AlgorithmStats)
	sums := make(map[string]float64)
	for _, rec := range records {
		if !match(rec) {
			continue
		}
		s, ok := byType[rec.AlgorithmType]
		if !ok {
			s = &core.AlgorithmStats{AlgorithmType: rec.AlgorithmType}
			byType[rec.AlgorithmType] = s
		}
		s.Total++
		if rec.IsViewed {
			s.ViewedCount++
		}
		if rec.IsInterested != nil && *rec.IsInterested {
			s.InterestedCount++
		}
		sums[rec.AlgorithmType] += rec.Score
	}

	out := make([]*core.AlgorithmStats, 0, len(byType))
	for t, s := range byType {
		if s.Total > 0 {
			s.AvgScore = sums[t] / float64(s.Total)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AlgorithmType < out[j].AlgorithmType })
	return out
}

func (r *RecordRepo) GetRecommendedUserIDs(_ context.Context, userID int64) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[int64]struct{})
	var out []int64
	for _, rec := range r.records {
		if rec.UserID != userID {
			continue
		}
		if _, dup := seen[rec.RecommendedUserID]; dup {
			continue
		}
		seen[rec.RecommendedUserID] = struct{}{}
		out = append(out, rec.RecommendedUserID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
