package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

// fakeRepo is a minimal in-package repository; down makes every call fail.
type fakeRepo struct {
	mu      sync.Mutex
	down    bool
	nextID  int64
	records []HistoryRecord
	closed  bool
}

func (r *fakeRepo) Insert(_ context.Context, message, prediction string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.down {
		return false
	}
	r.nextID++
	r.records = append([]HistoryRecord{{ID: r.nextID, Message: message, Prediction: prediction, CreatedAt: time.Now()}}, r.records...)
	return true
}

func (r *fakeRepo) Recent(_ context.Context, limit int) ([]HistoryRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.down {
		return []HistoryRecord{}, false
	}
	if limit > len(r.records) {
		limit = len(r.records)
	}
	return append([]HistoryRecord(nil), r.records[:limit]...), true
}

func (r *fakeRepo) Delete(_ context.Context, id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.down {
		return false
	}
	for i, rec := range r.records {
		if rec.ID == id {
			r.records = append(r.records[:i], r.records[i+1:]...)
			return true
		}
	}
	return false
}

func (r *fakeRepo) Close() error {
	r.closed = true
	return nil
}

func TestHistory_MemoryOnly(t *testing.T) {
	mem := &fakeRepo{}
	svc := NewHistoryService(nil, mem, 20, zaptest.NewLogger(t))
	ctx := context.Background()

	if svc.Durable() {
		t.Fatal("expected no durable repository")
	}
	if src := svc.Record(ctx, "hi", LabelNotSpam); src != SourceMemory {
		t.Fatalf("expected memory source, got %s", src)
	}

	items, src := svc.Recent(ctx, 0)
	if src != SourceMemory || len(items) != 1 || items[0].Message != "hi" {
		t.Fatalf("unexpected recent: %v %v", src, items)
	}
}

func TestHistory_PrimaryPreferred(t *testing.T) {
	db, mem := &fakeRepo{}, &fakeRepo{}
	svc := NewHistoryService(db, mem, 20, zaptest.NewLogger(t))
	ctx := context.Background()

	if src := svc.Record(ctx, "win", LabelSpam); src != SourceDatabase {
		t.Fatalf("expected database source, got %s", src)
	}
	if len(mem.records) != 0 {
		t.Fatal("memory should not be written while the database is up")
	}

	items, src := svc.Recent(ctx, 5)
	if src != SourceDatabase || len(items) != 1 {
		t.Fatalf("unexpected recent: %v %v", src, items)
	}
}

func TestHistory_FallsBackWhenPrimaryFails(t *testing.T) {
	db, mem := &fakeRepo{down: true}, &fakeRepo{}
	svc := NewHistoryService(db, mem, 20, zaptest.NewLogger(t))
	ctx := context.Background()

	if src := svc.Record(ctx, "win", LabelSpam); src != SourceMemory {
		t.Fatalf("expected memory source, got %s", src)
	}

	items, src := svc.Recent(ctx, 0)
	if src != SourceMemory {
		t.Fatalf("expected memory source, got %s", src)
	}
	if len(items) != 1 || items[0].Prediction != LabelSpam {
		t.Fatalf("unexpected items: %v", items)
	}

	// empty-but-healthy database is distinguishable from a failing one
	db.down = false
	db.records = nil
	items, src = svc.Recent(ctx, 0)
	if src != SourceDatabase || len(items) != 0 {
		t.Fatalf("expected empty database result, got %v %v", src, items)
	}
}

func TestHistory_DeleteTriesBoth(t *testing.T) {
	db, mem := &fakeRepo{}, &fakeRepo{}
	svc := NewHistoryService(db, mem, 20, zaptest.NewLogger(t))
	ctx := context.Background()

	mem.Insert(ctx, "memory only", LabelNotSpam)
	db.Insert(ctx, "a", LabelNotSpam)
	db.Insert(ctx, "b", LabelNotSpam)

	if !svc.Delete(ctx, 2) {
		t.Fatal("expected database delete to succeed")
	}
	if len(db.records) != 1 {
		t.Fatalf("expected one database record left, got %d", len(db.records))
	}

	if !svc.Delete(ctx, 1) {
		t.Fatal("expected database delete to succeed")
	}
	if len(mem.records) != 1 {
		t.Fatal("memory record should survive a database delete")
	}

	// id 1 is gone from the database, the memory copy is removed next
	if !svc.Delete(ctx, 1) {
		t.Fatal("expected memory delete to succeed")
	}
	if len(mem.records) != 0 {
		t.Fatal("expected memory record removed")
	}
	if svc.Delete(ctx, 99) {
		t.Fatal("expected delete of unknown id to fail")
	}
}

func TestHistory_LimitClamped(t *testing.T) {
	mem := &fakeRepo{}
	svc := NewHistoryService(nil, mem, 3, zaptest.NewLogger(t))
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		mem.Insert(ctx, "m", LabelNotSpam)
	}

	if items, _ := svc.Recent(ctx, 100); len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items, _ := svc.Recent(ctx, 2); len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if NewHistoryService(nil, mem, 0, zaptest.NewLogger(t)).Limit() != 20 {
		t.Fatal("expected default limit of 20")
	}
}

func TestHistory_CloseClosesBoth(t *testing.T) {
	db, mem := &fakeRepo{}, &fakeRepo{}
	svc := NewHistoryService(db, mem, 20, zaptest.NewLogger(t))
	if err := svc.Close(); err != nil {
		t.Fatal(err)
	}
	if !db.closed || !mem.closed {
		t.Fatal("expected both repositories closed")
	}
}
