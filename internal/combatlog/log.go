// Package combatlog keeps the append-only encounter log and fans new entries
// out to subscribers.
package combatlog

import (
	"sort"
	"strings"
	"sync"

	"github.com/KirkDiggler/rpg-tracker/internal/entities/combat"
	"github.com/KirkDiggler/rpg-tracker/internal/errors"
	"github.com/KirkDiggler/rpg-tracker/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-tracker/internal/pkg/idgen"
)

// Handler receives every appended entry. Handlers run synchronously on the
// appending goroutine and must not call back into the Log.
type Handler func(entry combat.LogEntry)

// Config holds the collaborators of a Log
type Config struct {
	IDs   idgen.Generator
	Clock clock.Clock
}

// Validate checks that all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()
	if c.IDs == nil {
		vb.RequiredField("IDs")
	}
	if c.Clock == nil {
		vb.RequiredField("Clock")
	}
	return vb.Build()
}

type subscription struct {
	id          string
	encounterID string
	handler     Handler
}

// Log is an in-memory append-only log partitioned by encounter
type Log struct {
	ids   idgen.Generator
	clock clock.Clock

	mu       sync.RWMutex
	entries  map[string][]combat.LogEntry
	sequence map[string]int64

	// deliver serializes notification so handlers see entries in append order
	deliver sync.Mutex
	subMu   sync.RWMutex
	subs    []subscription
}

// New creates an empty Log
func New(cfg *Config) (*Log, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Log{
		ids:      cfg.IDs,
		clock:    cfg.Clock,
		entries:  make(map[string][]combat.LogEntry),
		sequence: make(map[string]int64),
	}, nil
}

// Append stamps a record with an id, a per-encounter sequence number and the
// current time, stores it and notifies subscribers before returning.
func (l *Log) Append(encounterID string, rec combat.LogRecord) (combat.LogEntry, error) {
	if strings.TrimSpace(encounterID) == "" {
		return combat.LogEntry{}, errors.InvalidArgument("encounter id is required")
	}
	if !rec.Kind.Valid() {
		return combat.LogEntry{}, errors.InvalidArgumentf("unknown log kind %q", rec.Kind)
	}

	l.deliver.Lock()
	defer l.deliver.Unlock()

	entry := combat.NewLogEntry(encounterID, rec, l.clock.Now())
	entry.ID = l.ids.Generate()

	l.mu.Lock()
	l.sequence[encounterID]++
	entry.Sequence = l.sequence[encounterID]
	l.entries[encounterID] = append(l.entries[encounterID], entry)
	l.mu.Unlock()

	l.notify(entry)
	return entry, nil
}

// AppendAll appends records in order, stopping at the first invalid one
func (l *Log) AppendAll(encounterID string, recs []combat.LogRecord) ([]combat.LogEntry, error) {
	out := make([]combat.LogEntry, 0, len(recs))
	for _, rec := range recs {
		entry, err := l.Append(encounterID, rec)
		if err != nil {
			return out, err
		}
		out = append(out, entry)
	}
	return out, nil
}

// Restore loads persisted entries for an encounter without notifying anyone.
// Entries are ordered by sequence and later appends continue after the
// highest one.
func (l *Log) Restore(encounterID string, entries []combat.LogEntry) {
	sorted := make([]combat.LogEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Sequence < sorted[j].Sequence
	})

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[encounterID] = sorted
	l.sequence[encounterID] = 0
	if n := len(sorted); n > 0 {
		l.sequence[encounterID] = sorted[n-1].Sequence
	}
}

// Entries returns a copy of an encounter's log in append order
func (l *Log) Entries(encounterID string) []combat.LogEntry {
	return l.EntriesSince(encounterID, 0)
}

// EntriesSince returns entries with a sequence greater than after
func (l *Log) EntriesSince(encounterID string, after int64) []combat.LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []combat.LogEntry
	for _, entry := range l.entries[encounterID] {
		if entry.Sequence > after {
			out = append(out, entry)
		}
	}
	return out
}

// Forget drops an encounter's entries from memory
func (l *Log) Forget(encounterID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, encounterID)
	delete(l.sequence, encounterID)
}

// Subscribe registers a handler for one encounter, or for every encounter
// when encounterID is empty. It returns the id to unsubscribe with.
func (l *Log) Subscribe(encounterID string, handler Handler) (string, error) {
	if handler == nil {
		return "", errors.InvalidArgument("handler is required")
	}

	l.subMu.Lock()
	defer l.subMu.Unlock()
	sub := subscription{
		id:          l.ids.Generate(),
		encounterID: encounterID,
		handler:     handler,
	}
	l.subs = append(l.subs, sub)
	return sub.id, nil
}

// Unsubscribe removes a handler. Entries appended afterwards are not delivered.
func (l *Log) Unsubscribe(id string) error {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	for i, sub := range l.subs {
		if sub.id == id {
			l.subs = append(l.subs[:i], l.subs[i+1:]...)
			return nil
		}
	}
	return errors.NotFoundf("subscription %s not found", id)
}

// Subscribers reports how many handlers are registered
func (l *Log) Subscribers() int {
	l.subMu.RLock()
	defer l.subMu.RUnlock()
	return len(l.subs)
}

func (l *Log) notify(entry combat.LogEntry) {
	l.subMu.RLock()
	targets := make([]Handler, 0, len(l.subs))
	for _, sub := range l.subs {
		if sub.encounterID == "" || sub.encounterID == entry.EncounterID {
			targets = append(targets, sub.handler)
		}
	}
	l.subMu.RUnlock()

	for _, handler := range targets {
		handler(entry)
	}
}
