package testutils

import (
	"fmt"
	"sync"

	"github.com/KirkDiggler/rpg-toolkit/dice"
)

// SequenceRoller returns queued results in order. Rolling past the end of the
// queue is an error so tests notice unexpected rolls.
type SequenceRoller struct {
	mu      sync.Mutex
	results []int
	Sizes   []int
}

var _ dice.Roller = (*SequenceRoller)(nil)

// NewSequenceRoller queues results
func NewSequenceRoller(results ...int) *SequenceRoller {
	return &SequenceRoller{results: results}
}

// Queue appends more results
func (r *SequenceRoller) Queue(results ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, results...)
}

// Roll returns the next queued result
func (r *SequenceRoller) Roll(size int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Sizes = append(r.Sizes, size)
	if len(r.results) == 0 {
		return 0, fmt.Errorf("no queued roll for d%d", size)
	}
	next := r.results[0]
	r.results = r.results[1:]
	if next < 1 || next > size {
		return 0, fmt.Errorf("queued roll %d does not fit d%d", next, size)
	}
	return next, nil
}

// RollN returns count queued results
func (r *SequenceRoller) RollN(count, size int) ([]int, error) {
	out := make([]int, 0, count)
	for i := 0; i < count; i++ {
		n, err := r.Roll(size)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// Remaining reports how many results are still queued
func (r *SequenceRoller) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}
