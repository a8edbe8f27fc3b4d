// Package draw builds per-attempt item sets from read-only pools.
package draw

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"assessment-engine/internal/domain"
)

// Flags controls MCQ draw behavior, taken from the round config.
type Flags struct {
	ShuffleQuestions bool
	ShuffleOptions   bool
}

// Randomizer draws distinct items uniformly at random. It never mutates
// the pool it draws from; shuffled questions are copies.
type Randomizer struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func New() *Randomizer {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed allows deterministic draws in tests.
func NewWithSeed(seed int64) *Randomizer {
	return &Randomizer{rnd: rand.New(rand.NewSource(seed))}
}

// Questions selects count questions from the pool and snapshots them as
// attempt questions. With ShuffleOptions each snapshot's option list is
// independently permuted and the correct index remapped so it still names
// the same option text.
func (r *Randomizer) Questions(pool []domain.QuestionSpec, count int, flags Flags) ([]domain.AttemptQuestion, error) {
	idx, err := r.pick(len(pool), count, flags.ShuffleQuestions)
	if err != nil {
		return nil, err
	}

	items := make([]domain.AttemptQuestion, 0, count)
	for _, i := range idx {
		q := pool[i]
		marks := q.Marks
		if marks == 0 {
			marks = 1
		}
		item := domain.AttemptQuestion{
			QuestionID:   q.ID,
			Text:         q.Text,
			Options:      append([]string(nil), q.Options...),
			CorrectIndex: q.CorrectIndex,
			Marks:        marks,
		}
		if flags.ShuffleOptions {
			r.shuffleOptions(&item)
		}
		items = append(items, item)
	}
	return items, nil
}

// Problems selects count problems from the pool, preserving pool order.
// Snapshots share the pool's case slices; problem specs are read-only for
// the lifetime of an attempt.
func (r *Randomizer) Problems(pool []domain.ProblemSpec, count int) ([]domain.ProblemSpec, error) {
	idx, err := r.pick(len(pool), count, false)
	if err != nil {
		return nil, err
	}
	items := make([]domain.ProblemSpec, 0, count)
	for _, i := range idx {
		items = append(items, pool[i])
	}
	return items, nil
}

// pick returns count distinct indices into a pool of size n. When shuffle
// is false the indices come back in pool order.
func (r *Randomizer) pick(n, count int, shuffle bool) ([]int, error) {
	if count <= 0 || count > n {
		return nil, domain.ErrInsufficientPoolSize
	}

	r.mu.Lock()
	idx := r.rnd.Perm(n)[:count]
	r.mu.Unlock()

	if !shuffle {
		sorted := append([]int(nil), idx...)
		sort.Ints(sorted)
		return sorted, nil
	}
	return idx, nil
}

func (r *Randomizer) shuffleOptions(q *domain.AttemptQuestion) {
	r.mu.Lock()
	perm := r.rnd.Perm(len(q.Options))
	r.mu.Unlock()

	shuffled := make([]string, len(q.Options))
	for from, to := range perm {
		shuffled[to] = q.Options[from]
	}
	q.Options = shuffled
	q.CorrectIndex = perm[q.CorrectIndex]
}
