package draw

import (
	"errors"
	"testing"

	"assessment-engine/internal/domain"
)

func TestDrawRejectsInsufficientPool(t *testing.T) {
	r := NewWithSeed(1)
	pool := questionPool(3)

	if _, err := r.Questions(pool, 4, Flags{}); !errors.Is(err, domain.ErrInsufficientPoolSize) {
		t.Fatalf("expected insufficient pool error, got %v", err)
	}
	if _, err := r.Questions(pool, 0, Flags{}); !errors.Is(err, domain.ErrInsufficientPoolSize) {
		t.Fatalf("expected insufficient pool error for zero count, got %v", err)
	}
}

func TestDrawSelectsDistinctItems(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		r := NewWithSeed(seed)
		items, err := r.Questions(questionPool(10), 5, Flags{})
		if err != nil {
			t.Fatalf("draw: %v", err)
		}
		if len(items) != 5 {
			t.Fatalf("expected 5 items, got %d", len(items))
		}
		seen := make(map[string]bool)
		for _, item := range items {
			if seen[item.QuestionID] {
				t.Fatalf("seed %d: duplicate item %s", seed, item.QuestionID)
			}
			seen[item.QuestionID] = true
		}
	}
}

func TestDrawWithoutShuffleKeepsPoolOrder(t *testing.T) {
	r := NewWithSeed(7)
	items, err := r.Questions(questionPool(10), 6, Flags{})
	if err != nil {
		t.Fatalf("draw: %v", err)
	}
	prev := -1
	for _, item := range items {
		cur := int(item.QuestionID[1] - '0')
		if cur <= prev {
			t.Fatalf("expected pool order preserved, got %v then q%d", prev, cur)
		}
		prev = cur
	}
}

// The option text at the stored correct index must still be the correct
// answer after shuffling, and the shared spec must never be mutated.
func TestShuffleOptionsRemapsCorrectIndex(t *testing.T) {
	pool := []domain.QuestionSpec{{
		ID:           "q1",
		Text:         "pick the right one",
		Options:      []string{"wrong-a", "right", "wrong-b", "wrong-c"},
		CorrectIndex: 1,
		Marks:        2,
	}}

	for seed := int64(0); seed < 100; seed++ {
		r := NewWithSeed(seed)
		items, err := r.Questions(pool, 1, Flags{ShuffleOptions: true})
		if err != nil {
			t.Fatalf("draw: %v", err)
		}
		got := items[0]
		if got.Options[got.CorrectIndex] != "right" {
			t.Fatalf("seed %d: correct index %d points at %q", seed, got.CorrectIndex, got.Options[got.CorrectIndex])
		}
		if pool[0].CorrectIndex != 1 || pool[0].Options[1] != "right" {
			t.Fatalf("seed %d: pool spec was mutated: %+v", seed, pool[0])
		}
	}
}

func TestProblemDrawPreservesOrder(t *testing.T) {
	pool := []domain.ProblemSpec{
		{ID: "p1", Points: 10},
		{ID: "p2", Points: 20},
		{ID: "p3", Points: 30},
	}
	r := NewWithSeed(3)
	items, err := r.Problems(pool, 2)
	if err != nil {
		t.Fatalf("draw: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 problems, got %d", len(items))
	}
	if items[0].ID >= items[1].ID {
		t.Fatalf("expected pool order, got %s then %s", items[0].ID, items[1].ID)
	}
}

func questionPool(n int) []domain.QuestionSpec {
	pool := make([]domain.QuestionSpec, 0, n)
	for i := 0; i < n; i++ {
		pool = append(pool, domain.QuestionSpec{
			ID:           "q" + string(rune('0'+i)),
			Text:         "question",
			Options:      []string{"a", "b", "c"},
			CorrectIndex: 0,
			Marks:        1,
		})
	}
	return pool
}
