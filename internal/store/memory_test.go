package store

import (
	"context"
	"testing"
	"time"

	"github.com/agriscan/agriscan-api/internal/model"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func record(filename string, offset time.Duration) model.PredictionRecord {
	return model.PredictionRecord{
		Filename:         filename,
		Timestamp:        t0.Add(offset),
		PredictedDisease: "Tomato___Early_blight",
		Confidence:       0.87654321,
		AllPredictions: []model.RankedPrediction{
			{Class: "Tomato___Early_blight", Confidence: 0.87654321},
			{Class: "Tomato___healthy", Confidence: 0.1},
		},
		ModelVersion: "1.0",
	}
}

func TestMemoryInsertAssignsUniqueIDs(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		id, err := m.Insert(ctx, record("leaf.jpg", time.Duration(i)*time.Second))
		if err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
		if id == "" {
			t.Fatalf("insert %d: empty id", i)
		}
		if seen[id] {
			t.Fatalf("insert %d: duplicate id %s", i, id)
		}
		seen[id] = true
	}
}

func TestMemoryHistoryPagination(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		if _, err := m.Insert(ctx, record("leaf.jpg", time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	page, total, err := m.History(ctx, 5, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if total != 8 {
		t.Fatalf("expected total=8, got %d", total)
	}
	if len(page) != 5 {
		t.Fatalf("expected 5 results, got %d", len(page))
	}

	// Newest first.
	for i := 1; i < len(page); i++ {
		if page[i].Timestamp.After(page[i-1].Timestamp) {
			t.Fatalf("page not newest-first at %d", i)
		}
	}
	if !page[0].Timestamp.Equal(t0.Add(7 * time.Minute)) {
		t.Fatalf("expected newest record first, got %v", page[0].Timestamp)
	}
}

func TestMemoryHistorySkipBeyondEnd(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		if _, err := m.Insert(ctx, record("leaf.jpg", time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	page, total, err := m.History(ctx, 5, 100)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if total != 8 {
		t.Fatalf("expected total=8, got %d", total)
	}
	if len(page) != 0 {
		t.Fatalf("expected empty page, got %d results", len(page))
	}
}

func TestMemoryHistorySecondPage(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		if _, err := m.Insert(ctx, record("leaf.jpg", time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	page, _, err := m.History(ctx, 5, 5)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(page) != 3 {
		t.Fatalf("expected 3 results on second page, got %d", len(page))
	}
	if !page[0].Timestamp.Equal(t0.Add(2 * time.Minute)) {
		t.Fatalf("unexpected first record on second page: %v", page[0].Timestamp)
	}
}

func TestMemoryHistoryEmpty(t *testing.T) {
	m := NewMemory()

	page, total, err := m.History(context.Background(), 20, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected total=0, got %d", total)
	}
	if len(page) != 0 {
		t.Fatalf("expected no results, got %d", len(page))
	}
}

func TestMemoryRecordsKeepFullPrecision(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, err := m.Insert(ctx, record("leaf.jpg", 0)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	page, _, err := m.History(ctx, 1, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if page[0].Confidence != 0.87654321 {
		t.Fatalf("stored confidence rounded: %v", page[0].Confidence)
	}
}
