package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"assessment-engine/internal/domain"
	"assessment-engine/internal/infra/memory"
)

func TestRoundRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{
		RoundLoader: memory.NewStaticRoundLoader(map[string]domain.RoundBundle{
			"round-1": sampleRound(),
		}),
	}
	repo := NewRoundRepository(client, loader, time.Minute)

	bundle, err := repo.GetRound(context.Background(), "round-1")
	if err != nil {
		t.Fatalf("get round: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("round:round-1:bundle") {
		t.Fatalf("expected bundle cached in redis")
	}
	if len(bundle.Questions) != 1 || bundle.Questions[0].CorrectIndex != 1 {
		t.Fatalf("bundle lost content through cache: %+v", bundle)
	}

	// Second call should hit cache, loader not incremented.
	if _, err := repo.GetRound(context.Background(), "round-1"); err != nil {
		t.Fatalf("get round 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
}

type countingLoader struct {
	memory.RoundLoader
	calls int
}

func (l *countingLoader) LoadRound(ctx context.Context, roundID string) (domain.RoundBundle, error) {
	l.calls++
	return l.RoundLoader.LoadRound(ctx, roundID)
}

func sampleRound() domain.RoundBundle {
	return domain.RoundBundle{
		Config: domain.RoundConfig{
			ID:          "round-1",
			Kind:        domain.RoundMCQ,
			DurationSec: 60,
			ItemCount:   1,
		},
		Questions: []domain.QuestionSpec{
			{ID: "q1", Text: "2 + 2?", Options: []string{"3", "4"}, CorrectIndex: 1, Marks: 1},
		},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
