package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"assessment-engine/internal/domain"
	"assessment-engine/internal/infra/memory"
)

func TestResultStoreCachesAndFallsBack(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	inner := memory.NewResultStore()
	store := NewResultStore(newClient(mr), inner, time.Minute)
	ctx := context.Background()

	res := domain.Result{ParticipantID: "alice", RoundID: "round-1", RawScore: 4, Passed: true}
	if err := store.Save(ctx, res); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("round:round-1:result:alice") {
		t.Fatalf("expected result cached in redis")
	}

	got, err := store.Get(ctx, "alice", "round-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.RawScore != 4 || !got.Passed {
		t.Fatalf("unexpected result %+v", got)
	}

	// Cache eviction falls through to the durable store and refills.
	mr.FlushAll()
	if _, err := store.Get(ctx, "alice", "round-1"); err != nil {
		t.Fatalf("get after flush: %v", err)
	}
	if !mr.Exists("round:round-1:result:alice") {
		t.Fatalf("expected cache refilled")
	}

	if _, err := store.Get(ctx, "bob", "round-1"); err != domain.ErrResultNotFound {
		t.Fatalf("expected ErrResultNotFound, got %v", err)
	}
}
