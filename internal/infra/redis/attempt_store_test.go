package redis

import (
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	"assessment-engine/internal/app"
	"assessment-engine/internal/domain"
)

func TestAttemptStoreSetsLivenessKey(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewAttemptStore(newClient(mr))

	cfg := domain.RoundConfig{ID: "round-1", Kind: domain.RoundMCQ, DurationSec: 60}
	if err := store.Create(app.NewSession("a1", "alice", cfg, nil, nil)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !mr.Exists("attempt:alice:round-1") {
		t.Fatalf("expected redis liveness key to be set")
	}
	if _, ok := store.Get("alice", "round-1"); !ok {
		t.Fatalf("expected session present in memory")
	}
}
