package memrepo

import (
	"context"
	"sync"
	"time"

	"github.com/ljyh223/foodieconnect-recommend/core"
)

type pairKey struct {
	user1ID int64
	user2ID int64
	method  core.Method
}

// SimilarityRepo 是 core.SimilarityRepository 的内存实现。
// 条目按归一化后的无序对 (User1ID < User2ID) 索引。
type SimilarityRepo struct {
	mu      sync.RWMutex
	entries map[pairKey]*core.SimilarityEntry
}

var _ core.SimilarityRepository = (*SimilarityRepo)(nil)

// NewSimilarityRepo 创建空的内存相似度仓储。
func NewSimilarityRepo() *SimilarityRepo {
	return &SimilarityRepo{entries: make(map[pairKey]*core.SimilarityEntry)}
}

func keyOf(user1ID, user2ID int64, method core.Method) pairKey {
	if user1ID > user2ID {
		user1ID, user2ID = user2ID, user1ID
	}
	return pairKey{user1ID: user1ID, user2ID: user2ID, method: method}
}

func (r *SimilarityRepo) FindByPair(_ context.Context, user1ID, user2ID int64, method core.Method) (*core.SimilarityEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[keyOf(user1ID, user2ID, method)]
	if !ok {
		return nil, nil
	}
	c := *entry
	return &c, nil
}

func (r *SimilarityRepo) Upsert(_ context.Context, entry *core.SimilarityEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upsertLocked(entry)
	return nil
}

func (r *SimilarityRepo) BatchUpsert(_ context.Context, entries []*core.SimilarityEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entry := range entries {
		r.upsertLocked(entry)
	}
	return nil
}

func (r *SimilarityRepo) upsertLocked(entry *core.SimilarityEntry) {
	c := *entry
	c.NormalizePair()
	r.entries[pairKey{user1ID: c.User1ID, user2ID: c.User2ID, method: c.AlgorithmType}] = &c
}

func (r *SimilarityRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for k, entry := range r.entries {
		if entry.LastCalculated.Before(cutoff) {
			delete(r.entries, k)
			deleted++
		}
	}
	return deleted, nil
}

func (r *SimilarityRepo) CountByUser(_ context.Context, userID int64) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for k := range r.entries {
		if k.user1ID == userID || k.user2ID == userID {
			count++
		}
	}
	return count, nil
}
