package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/agriscan/agriscan-api/internal/model"
)

// Memory is an in-process Store. It backs the server when no database is
// configured and the handler tests.
type Memory struct {
	mu      sync.RWMutex
	records []model.PredictionRecord
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Insert appends the record under a freshly generated identifier.
func (m *Memory) Insert(_ context.Context, rec model.PredictionRecord) (string, error) {
	rec.PredictionID = uuid.NewString()

	m.mu.Lock()
	m.records = append(m.records, rec)
	m.mu.Unlock()

	return rec.PredictionID, nil
}

// History returns a newest-first page of records and the total count.
func (m *Memory) History(_ context.Context, limit, skip int) ([]model.PredictionRecord, int64, error) {
	m.mu.RLock()
	all := make([]model.PredictionRecord, len(m.records))
	copy(all, m.records)
	m.mu.RUnlock()

	// Newest first; stable so records sharing a timestamp keep insertion
	// order relative to each other.
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp.After(all[j].Timestamp)
	})

	total := int64(len(all))
	if skip >= len(all) {
		return []model.PredictionRecord{}, total, nil
	}
	all = all[skip:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}
