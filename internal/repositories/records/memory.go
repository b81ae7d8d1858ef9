package records

import (
	"context"
	"sort"
	"sync"

	"github.com/KirkDiggler/rpg-tracker/internal/errors"
)

type memoryKey struct {
	kind Kind
	id   string
}

type memoryEntry struct {
	record   *Record
	inserted int64
}

type memoryRepository struct {
	mu       sync.RWMutex
	records  map[memoryKey]memoryEntry
	inserted int64
}

// NewMemory creates an in-memory repository
func NewMemory() Repository {
	return &memoryRepository{
		records: make(map[memoryKey]memoryEntry),
	}
}

func (r *memoryRepository) Get(_ context.Context, input *GetInput) (*GetOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input cannot be nil")
	}
	if err := validateKey(input.Kind, input.ID); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.records[memoryKey{input.Kind, input.ID}]
	if !ok {
		return nil, errors.NotFoundf("%s %s not found", input.Kind, input.ID)
	}
	return &GetOutput{Record: cloneRecord(entry.record)}, nil
}

func (r *memoryRepository) Save(_ context.Context, input *SaveInput) (*SaveOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input cannot be nil")
	}
	if err := validateRecord(input.Record); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := memoryKey{input.Record.Kind, input.Record.ID}
	entry, ok := r.records[key]
	if !ok {
		r.inserted++
		entry.inserted = r.inserted
	}
	entry.record = cloneRecord(input.Record)
	r.records[key] = entry
	return &SaveOutput{}, nil
}

func (r *memoryRepository) Delete(_ context.Context, input *DeleteInput) (*DeleteOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input cannot be nil")
	}
	if err := validateKey(input.Kind, input.ID); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := memoryKey{input.Kind, input.ID}
	if _, ok := r.records[key]; !ok {
		return nil, errors.NotFoundf("%s %s not found", input.Kind, input.ID)
	}
	delete(r.records, key)
	return &DeleteOutput{}, nil
}

func (r *memoryRepository) ListByEncounter(_ context.Context, input *ListByEncounterInput) (*ListByEncounterOutput, error) {
	if err := validateList(input); err != nil {
		return nil, err
	}

	r.mu.RLock()
	var matched []memoryEntry
	for key, entry := range r.records {
		if key.kind == input.Kind && entry.record.EncounterID == input.EncounterID {
			matched = append(matched, entry)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.record.Sequence != b.record.Sequence {
			return a.record.Sequence < b.record.Sequence
		}
		return a.inserted < b.inserted
	})

	out := make([]*Record, 0, len(matched))
	for _, entry := range matched {
		out = append(out, cloneRecord(entry.record))
	}
	return &ListByEncounterOutput{Records: out}, nil
}
