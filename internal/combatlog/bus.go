package combatlog

import (
	"context"
	"log/slog"

	"github.com/KirkDiggler/rpg-toolkit/core"
	"github.com/KirkDiggler/rpg-toolkit/events"

	"github.com/KirkDiggler/rpg-tracker/internal/entities/combat"
	"github.com/KirkDiggler/rpg-tracker/internal/errors"
)

// EventPrefix prefixes the event type of every bridged entry
const EventPrefix = "combat.log."

// EntryContextKey is the event context key holding the bridged LogEntry
const EntryContextKey = "entry"

// EventType returns the bus event type for a log kind
func EventType(kind combat.LogKind) string {
	return EventPrefix + string(kind)
}

// participant is the core.Entity view of an actor or target named in an entry
type participant struct {
	name string
}

var _ core.Entity = participant{}

func (p participant) GetID() string   { return p.name }
func (p participant) GetType() string { return "combatant" }

// BusBridge republishes log entries onto an rpg-toolkit event bus so game
// rules subscribed there can react to combat events.
type BusBridge struct {
	bus events.EventBus
}

// NewBusBridge creates a bridge onto bus
func NewBusBridge(bus events.EventBus) (*BusBridge, error) {
	if bus == nil {
		return nil, errors.InvalidArgument("event bus is required")
	}
	return &BusBridge{bus: bus}, nil
}

// Handle is a Handler publishing each entry as a "combat.log.<kind>" event
func (b *BusBridge) Handle(entry combat.LogEntry) {
	var source, target participant
	if entry.ActorName != "" {
		source = participant{name: entry.ActorName}
	}
	if entry.TargetName != "" {
		target = participant{name: entry.TargetName}
	}

	event := events.NewGameEvent(EventType(entry.Kind), source, target)
	event.Context().Set(EntryContextKey, entry)

	if err := b.bus.Publish(context.Background(), event); err != nil {
		slog.Warn("Failed to publish log entry",
			"encounter_id", entry.EncounterID,
			"sequence", entry.Sequence,
			"kind", entry.Kind,
			"error", err)
	}
}

// EntryFromEvent extracts the LogEntry a bridged event carries
func EntryFromEvent(event events.Event) (combat.LogEntry, bool) {
	if event == nil || event.Context() == nil {
		return combat.LogEntry{}, false
	}
	value, ok := event.Context().Get(EntryContextKey)
	if !ok {
		return combat.LogEntry{}, false
	}
	entry, ok := value.(combat.LogEntry)
	return entry, ok
}
